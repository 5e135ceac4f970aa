package token

// FeeStructure captures the percentage fees applied to non-exempt transfers.
// The burn share is destroyed (reducing total supply) and the treasury share
// is credited to the configured treasury address.
type FeeStructure struct {
	BurnFee     uint64 `json:"burnFee"`
	TreasuryFee uint64 `json:"treasuryFee"`
}

// Total returns the combined fee percentage.
func (f FeeStructure) Total() uint64 { return f.BurnFee + f.TreasuryFee }

// Metadata describes the immutable token identity.
type Metadata struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}
