package treasury

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"wagmi/core"
	"wagmi/core/events"
)

type treasuryState interface {
	TreasuryCategories() ([]string, error)
	PutTreasuryCategories(categories []string) error
	TreasuryAllocation(category string) (*big.Int, error)
	SetTreasuryAllocation(category string, amount *big.Int) error
	TreasurySpent(category string) (*big.Int, error)
	SetTreasurySpent(category string, amount *big.Int) error
}

// TokenLedger is the slice of the token engine the treasury needs to move
// funds out of its module account.
type TokenLedger interface {
	Transfer(from, to [20]byte, amount *big.Int) (*big.Int, error)
	BalanceOf(account [20]byte) (*big.Int, error)
}

// Engine manages the treasury module account: an allow-list of spending
// categories, per-category allocations carved out of the account balance,
// and transfers drawn against those allocations. All mutating capabilities
// belong to the owner, which deployments point at the timelock.
type Engine struct {
	state   treasuryState
	token   TokenLedger
	emitter events.Emitter
	self    [20]byte
	owner   [20]byte
}

// NewEngine constructs a treasury engine bound to its module account address
// and owner.
func NewEngine(self, owner [20]byte) *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		self:    self,
		owner:   owner,
	}
}

// SetState wires the engine to the state backend.
func (e *Engine) SetState(state treasuryState) { e.state = state }

// SetToken wires the engine to the token ledger.
func (e *Engine) SetToken(token TokenLedger) { e.token = token }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(event events.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(event)
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return ErrStateNotConfigured
	}
	if e.token == nil {
		return ErrTokenNotConfigured
	}
	return nil
}

func normalizeCategory(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

// AddCategory registers a new spending category. Owner capability.
func (e *Engine) AddCategory(caller [20]byte, category string) error {
	if err := e.ready(); err != nil {
		return err
	}
	if caller != e.owner {
		return ErrNotOwner
	}
	name := normalizeCategory(category)
	if name == "" {
		return ErrInvalidCategory
	}
	categories, err := e.state.TreasuryCategories()
	if err != nil {
		return err
	}
	for _, existing := range categories {
		if existing == name {
			return ErrCategoryExists
		}
	}
	categories = append(categories, name)
	sort.Strings(categories)
	if err := e.state.PutTreasuryCategories(categories); err != nil {
		return err
	}
	e.emit(&events.TreasuryCategoryAdded{Category: name})
	return nil
}

// RemoveCategory drops a spending category. Categories with an outstanding
// allocation cannot be removed until the allocation is drawn down or
// reassigned.
func (e *Engine) RemoveCategory(caller [20]byte, category string) error {
	if err := e.ready(); err != nil {
		return err
	}
	if caller != e.owner {
		return ErrNotOwner
	}
	name := normalizeCategory(category)
	categories, err := e.state.TreasuryCategories()
	if err != nil {
		return err
	}
	idx := -1
	for i, existing := range categories {
		if existing == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrInvalidCategory
	}
	allocated, err := e.state.TreasuryAllocation(name)
	if err != nil {
		return err
	}
	if allocated.Sign() > 0 {
		return ErrCategoryHasAllocation
	}
	categories = append(categories[:idx], categories[idx+1:]...)
	if err := e.state.PutTreasuryCategories(categories); err != nil {
		return err
	}
	e.emit(&events.TreasuryCategoryRemoved{Category: name})
	return nil
}

// Categories returns the registered category names in sorted order.
func (e *Engine) Categories() ([]string, error) {
	if e == nil || e.state == nil {
		return nil, ErrStateNotConfigured
	}
	return e.state.TreasuryCategories()
}

// HasCategory reports whether the category is registered.
func (e *Engine) HasCategory(category string) (bool, error) {
	categories, err := e.Categories()
	if err != nil {
		return false, err
	}
	name := normalizeCategory(category)
	for _, existing := range categories {
		if existing == name {
			return true, nil
		}
	}
	return false, nil
}

// Balance returns the treasury module account's token balance.
func (e *Engine) Balance() (*big.Int, error) {
	if e == nil || e.token == nil {
		return nil, ErrTokenNotConfigured
	}
	return e.token.BalanceOf(e.self)
}

// Unallocated returns the portion of the treasury balance not yet carved
// into a category allocation.
func (e *Engine) Unallocated() (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	balance, err := e.token.BalanceOf(e.self)
	if err != nil {
		return nil, err
	}
	categories, err := e.state.TreasuryCategories()
	if err != nil {
		return nil, err
	}
	free := new(big.Int).Set(balance)
	for _, name := range categories {
		allocated, err := e.state.TreasuryAllocation(name)
		if err != nil {
			return nil, err
		}
		free.Sub(free, allocated)
	}
	return free, nil
}

// AllocateFunds earmarks part of the unallocated treasury balance for a
// category. Owner capability.
func (e *Engine) AllocateFunds(caller [20]byte, category string, amount *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if caller != e.owner {
		return ErrNotOwner
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	name := normalizeCategory(category)
	known, err := e.HasCategory(name)
	if err != nil {
		return err
	}
	if !known {
		return ErrInvalidCategory
	}
	free, err := e.Unallocated()
	if err != nil {
		return err
	}
	if amount.Cmp(free) > 0 {
		return ErrInsufficientUnspent
	}
	allocated, err := e.state.TreasuryAllocation(name)
	if err != nil {
		return err
	}
	allocated = new(big.Int).Add(allocated, amount)
	if err := e.state.SetTreasuryAllocation(name, allocated); err != nil {
		return err
	}
	e.emit(&events.TreasuryFundsAllocated{Category: name, Amount: amount})
	return nil
}

// TransferFunds pays a recipient out of a category allocation and records
// the spend against the category. Owner capability.
func (e *Engine) TransferFunds(caller [20]byte, category string, recipient [20]byte, amount *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	if caller != e.owner {
		return ErrNotOwner
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	name := normalizeCategory(category)
	known, err := e.HasCategory(name)
	if err != nil {
		return err
	}
	if !known {
		return ErrInvalidCategory
	}
	allocated, err := e.state.TreasuryAllocation(name)
	if err != nil {
		return err
	}
	if amount.Cmp(allocated) > 0 {
		return ErrInsufficientAlloc
	}
	if _, err := e.token.Transfer(e.self, recipient, amount); err != nil {
		return err
	}
	allocated = new(big.Int).Sub(allocated, amount)
	if err := e.state.SetTreasuryAllocation(name, allocated); err != nil {
		return err
	}
	spent, err := e.state.TreasurySpent(name)
	if err != nil {
		return err
	}
	spent = new(big.Int).Add(spent, amount)
	if err := e.state.SetTreasurySpent(name, spent); err != nil {
		return err
	}
	e.emit(&events.TreasuryFundsTransferred{Category: name, Recipient: recipient, Amount: amount})
	return nil
}

// Allocation returns the outstanding earmark for a category.
func (e *Engine) Allocation(category string) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrStateNotConfigured
	}
	return e.state.TreasuryAllocation(normalizeCategory(category))
}

// Spent returns the cumulative amount drawn against a category.
func (e *Engine) Spent(category string) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrStateNotConfigured
	}
	return e.state.TreasurySpent(normalizeCategory(category))
}

// HandleCall dispatches a routed call envelope into the owner capabilities.
// The caller is validated per-method, so the router can forward calls from
// any origin.
func (e *Engine) HandleCall(from [20]byte, _ *big.Int, data []byte) error {
	var envelope core.CallEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("treasury: decode call envelope: %w", err)
	}
	switch envelope.Method {
	case "addCategory":
		return e.AddCategory(from, envelope.Params["category"])
	case "removeCategory":
		return e.RemoveCategory(from, envelope.Params["category"])
	case "allocateFunds":
		amount, err := parseAmount(envelope.Params["amount"])
		if err != nil {
			return err
		}
		return e.AllocateFunds(from, envelope.Params["category"], amount)
	case "transferFunds":
		amount, err := parseAmount(envelope.Params["amount"])
		if err != nil {
			return err
		}
		recipient, err := parseAddress(envelope.Params["recipient"])
		if err != nil {
			return err
		}
		return e.TransferFunds(from, envelope.Params["category"], recipient, amount)
	default:
		return fmt.Errorf("treasury: unknown call method %q", envelope.Method)
	}
}

func parseAmount(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, ErrZeroAmount
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("treasury: invalid amount %q", raw)
	}
	return amount, nil
}

func parseAddress(raw string) ([20]byte, error) {
	var addr [20]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return addr, fmt.Errorf("treasury: invalid recipient %q: %w", raw, err)
	}
	if len(decoded) != len(addr) {
		return addr, fmt.Errorf("treasury: invalid recipient length %d", len(decoded))
	}
	copy(addr[:], decoded)
	return addr, nil
}
