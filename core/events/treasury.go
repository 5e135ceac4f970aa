package events

import (
	"math/big"

	"wagmi/core/types"
	"wagmi/crypto"
)

const (
	// TypeTreasuryCategoryAdded captures a spend category entering the allow-list.
	TypeTreasuryCategoryAdded = "treasury.categoryAdded"
	// TypeTreasuryCategoryRemoved captures a spend category leaving the allow-list.
	TypeTreasuryCategoryRemoved = "treasury.categoryRemoved"
	// TypeTreasuryFundsAllocated captures funds being earmarked for a category.
	TypeTreasuryFundsAllocated = "treasury.fundsAllocated"
	// TypeTreasuryFundsTransferred captures a category-gated disbursement.
	TypeTreasuryFundsTransferred = "treasury.fundsTransferred"
)

// TreasuryCategoryAdded records an allow-listed category.
type TreasuryCategoryAdded struct {
	Category string
}

// EventType satisfies the Event interface.
func (TreasuryCategoryAdded) EventType() string { return TypeTreasuryCategoryAdded }

// Event renders the attribute payload for emission.
func (c TreasuryCategoryAdded) Event() *types.Event {
	return &types.Event{
		Type:       TypeTreasuryCategoryAdded,
		Attributes: map[string]string{"category": c.Category},
	}
}

// TreasuryCategoryRemoved records a category removal.
type TreasuryCategoryRemoved struct {
	Category string
}

// EventType satisfies the Event interface.
func (TreasuryCategoryRemoved) EventType() string { return TypeTreasuryCategoryRemoved }

// Event renders the attribute payload for emission.
func (c TreasuryCategoryRemoved) Event() *types.Event {
	return &types.Event{
		Type:       TypeTreasuryCategoryRemoved,
		Attributes: map[string]string{"category": c.Category},
	}
}

// TreasuryFundsAllocated records funds earmarked for a category.
type TreasuryFundsAllocated struct {
	Category string
	Amount   *big.Int
}

// EventType satisfies the Event interface.
func (TreasuryFundsAllocated) EventType() string { return TypeTreasuryFundsAllocated }

// Event renders the attribute payload for emission.
func (a TreasuryFundsAllocated) Event() *types.Event {
	return &types.Event{
		Type: TypeTreasuryFundsAllocated,
		Attributes: map[string]string{
			"category": a.Category,
			"amount":   bigIntString(a.Amount),
		},
	}
}

// TreasuryFundsTransferred records a disbursement to a recipient.
type TreasuryFundsTransferred struct {
	Category  string
	Recipient [20]byte
	Amount    *big.Int
}

// EventType satisfies the Event interface.
func (TreasuryFundsTransferred) EventType() string { return TypeTreasuryFundsTransferred }

// Event renders the attribute payload for emission.
func (t TreasuryFundsTransferred) Event() *types.Event {
	return &types.Event{
		Type: TypeTreasuryFundsTransferred,
		Attributes: map[string]string{
			"category":  t.Category,
			"recipient": crypto.NewAddress(crypto.WagmiPrefix, append([]byte(nil), t.Recipient[:]...)).String(),
			"amount":    bigIntString(t.Amount),
		},
	}
}
