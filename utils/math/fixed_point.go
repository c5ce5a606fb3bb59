// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package math

import (
	"github.com/holiman/uint256"
)

// ScaleUint64 is the fixed-point scale (1e18) used for multipliers and rates.
const ScaleUint64 = 1_000_000_000_000_000_000

// Uint96Bits is the width of bounded receipt balances.
const Uint96Bits = 96

// Scale returns a fresh copy of the 1e18 fixed-point scale.
func Scale() *uint256.Int {
	return uint256.NewInt(ScaleUint64)
}

// ScaledMul returns a*b/1e18. The product is computed with a 512-bit
// intermediate, so only a result wider than 256 bits is an overflow.
func ScaledMul(a, b *uint256.Int) (*uint256.Int, error) {
	return MulDiv(a, b, Scale())
}

// ScaledDiv returns a*1e18/b.
func ScaledDiv(a, b *uint256.Int) (*uint256.Int, error) {
	return MulDiv(a, Scale(), b)
}

// MulDiv returns a*b/d rounded down.
func MulDiv(a, b, d *uint256.Int) (*uint256.Int, error) {
	if d.IsZero() {
		return nil, ErrDivisionByZero
	}
	z, overflow := new(uint256.Int).MulDivOverflow(a, b, d)
	if overflow {
		return nil, ErrOverflow
	}
	return z, nil
}

// Add256 returns a+b or ErrOverflow.
func Add256(a, b *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return nil, ErrOverflow
	}
	return z, nil
}

// Sub256 returns a-b or ErrUnderflow.
func Sub256(a, b *uint256.Int) (*uint256.Int, error) {
	z, underflow := new(uint256.Int).SubOverflow(a, b)
	if underflow {
		return nil, ErrUnderflow
	}
	return z, nil
}

// Mul256 returns a*b or ErrOverflow.
func Mul256(a, b *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).MulOverflow(a, b)
	if overflow {
		return nil, ErrOverflow
	}
	return z, nil
}

// Div256 returns a/b rounded down.
func Div256(a, b *uint256.Int) (*uint256.Int, error) {
	if b.IsZero() {
		return nil, ErrDivisionByZero
	}
	return new(uint256.Int).Div(a, b), nil
}

// SaturatingSub256 returns a-b, or zero when b > a.
func SaturatingSub256(a, b *uint256.Int) *uint256.Int {
	z, underflow := new(uint256.Int).SubOverflow(a, b)
	if underflow {
		return new(uint256.Int)
	}
	return z
}

// Pow10 returns 10^n. 10^77 is the largest power of ten that fits in 256 bits.
func Pow10(n uint64) (*uint256.Int, error) {
	if n > 77 {
		return nil, ErrOverflow
	}
	return new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(n)), nil
}

// FitsUint96 reports whether x can be narrowed to a 96-bit field.
func FitsUint96(x *uint256.Int) bool {
	return x.BitLen() <= Uint96Bits
}
