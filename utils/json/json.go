// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package json provides JSON types that marshal integers as decimal strings.
package json

import (
	"strconv"

	"github.com/holiman/uint256"
)

const Null = "null"

// Uint64 is a uint64 that can be JSON marshaled as a string.
type Uint64 uint64

func (u Uint64) MarshalJSON() ([]byte, error) {
	return []byte(`"` + strconv.FormatUint(uint64(u), 10) + `"`), nil
}

func (u *Uint64) UnmarshalJSON(b []byte) error {
	str := string(b)
	if str == Null {
		return nil
	}
	val, err := strconv.ParseUint(unquote(str), 10, 64)
	*u = Uint64(val)
	return err
}

// Uint256 is a 256-bit amount marshaled as a base 10 string, so clients
// never round it through a float.
type Uint256 struct {
	v uint256.Int
}

func NewUint256(v *uint256.Int) Uint256 {
	var u Uint256
	if v != nil {
		u.v.Set(v)
	}
	return u
}

// Value returns a copy of the wrapped amount.
func (u Uint256) Value() *uint256.Int {
	return new(uint256.Int).Set(&u.v)
}

func (u Uint256) MarshalJSON() ([]byte, error) {
	return []byte(`"` + u.v.Dec() + `"`), nil
}

func (u *Uint256) UnmarshalJSON(b []byte) error {
	str := string(b)
	if str == Null {
		return nil
	}
	v, err := uint256.FromDecimal(unquote(str))
	if err != nil {
		return err
	}
	u.v.Set(v)
	return nil
}

func unquote(str string) string {
	if len(str) >= 2 {
		if lastIndex := len(str) - 1; str[0] == '"' && str[lastIndex] == '"' {
			return str[1:lastIndex]
		}
	}
	return str
}
