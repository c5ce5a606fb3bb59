// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vault

import (
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/ids"
)

// VotesChanged is emitted when a delegate's voting power moves. Amount is
// negative when power is removed.
type VotesChanged struct {
	From   ids.ShortID `json:"from"`
	To     ids.ShortID `json:"to"`
	Amount *big.Int    `json:"amount"`
}

// MultiplierChanged is emitted when the TWAR multiplier is recomputed.
type MultiplierChanged struct {
	Old *uint256.Int `json:"old"`
	New *uint256.Int `json:"new"`
}
