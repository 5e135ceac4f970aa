package events

import (
	"math/big"
	"strconv"

	"wagmi/core/types"
	"wagmi/crypto"
)

const (
	// TypeTokenTransfer captures a completed ledger transfer including fees.
	TypeTokenTransfer = "token.transfer"
	// TypeTokenFeeStructureUpdated captures a change to the burn/treasury fees.
	TypeTokenFeeStructureUpdated = "token.feeStructureUpdated"
	// TypeTokenPaused captures the ledger pause toggle.
	TypeTokenPaused = "token.paused"
	// TypeTokenUnpaused captures the ledger resume toggle.
	TypeTokenUnpaused = "token.unpaused"
)

// TokenTransfer records the gross and net amounts of a transfer after fees.
type TokenTransfer struct {
	From     [20]byte
	To       [20]byte
	Amount   *big.Int
	Net      *big.Int
	Burned   *big.Int
	FeePaid  *big.Int
}

// EventType satisfies the Event interface.
func (TokenTransfer) EventType() string { return TypeTokenTransfer }

// Event renders the attribute payload for emission.
func (t TokenTransfer) Event() *types.Event {
	return &types.Event{
		Type: TypeTokenTransfer,
		Attributes: map[string]string{
			"from":    crypto.NewAddress(crypto.WagmiPrefix, append([]byte(nil), t.From[:]...)).String(),
			"to":      crypto.NewAddress(crypto.WagmiPrefix, append([]byte(nil), t.To[:]...)).String(),
			"amount":  bigIntString(t.Amount),
			"net":     bigIntString(t.Net),
			"burned":  bigIntString(t.Burned),
			"feePaid": bigIntString(t.FeePaid),
		},
	}
}

// TokenFeeStructureUpdated records the new fee percentages.
type TokenFeeStructureUpdated struct {
	BurnFee     uint64
	TreasuryFee uint64
}

// EventType satisfies the Event interface.
func (TokenFeeStructureUpdated) EventType() string { return TypeTokenFeeStructureUpdated }

// Event renders the attribute payload for emission.
func (f TokenFeeStructureUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeTokenFeeStructureUpdated,
		Attributes: map[string]string{
			"burnFee":     strconv.FormatUint(f.BurnFee, 10),
			"treasuryFee": strconv.FormatUint(f.TreasuryFee, 10),
		},
	}
}

// TokenPaused records the ledger being paused.
type TokenPaused struct{}

// EventType satisfies the Event interface.
func (TokenPaused) EventType() string { return TypeTokenPaused }

// Event renders the attribute payload for emission.
func (TokenPaused) Event() *types.Event {
	return &types.Event{Type: TypeTokenPaused, Attributes: map[string]string{}}
}

// TokenUnpaused records the ledger being resumed.
type TokenUnpaused struct{}

// EventType satisfies the Event interface.
func (TokenUnpaused) EventType() string { return TypeTokenUnpaused }

// Event renders the attribute payload for emission.
func (TokenUnpaused) Event() *types.Event {
	return &types.Event{Type: TypeTokenUnpaused, Attributes: map[string]string{}}
}
