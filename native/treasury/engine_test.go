package treasury

import (
	"encoding/hex"
	"errors"
	"math/big"
	"testing"
)

type mockTreasuryState struct {
	categories  []string
	allocations map[string]*big.Int
	spent       map[string]*big.Int
}

func newMockTreasuryState() *mockTreasuryState {
	return &mockTreasuryState{
		allocations: make(map[string]*big.Int),
		spent:       make(map[string]*big.Int),
	}
}

func (m *mockTreasuryState) TreasuryCategories() ([]string, error) {
	return append([]string(nil), m.categories...), nil
}

func (m *mockTreasuryState) PutTreasuryCategories(categories []string) error {
	m.categories = append([]string(nil), categories...)
	return nil
}

func (m *mockTreasuryState) TreasuryAllocation(category string) (*big.Int, error) {
	if amount, ok := m.allocations[category]; ok {
		return new(big.Int).Set(amount), nil
	}
	return big.NewInt(0), nil
}

func (m *mockTreasuryState) SetTreasuryAllocation(category string, amount *big.Int) error {
	m.allocations[category] = new(big.Int).Set(amount)
	return nil
}

func (m *mockTreasuryState) TreasurySpent(category string) (*big.Int, error) {
	if amount, ok := m.spent[category]; ok {
		return new(big.Int).Set(amount), nil
	}
	return big.NewInt(0), nil
}

func (m *mockTreasuryState) SetTreasurySpent(category string, amount *big.Int) error {
	m.spent[category] = new(big.Int).Set(amount)
	return nil
}

type mockTokenLedger struct {
	balances map[[20]byte]*big.Int
	fail     error
}

func newMockTokenLedger() *mockTokenLedger {
	return &mockTokenLedger{balances: make(map[[20]byte]*big.Int)}
}

func (m *mockTokenLedger) setBalance(account [20]byte, amount int64) {
	m.balances[account] = big.NewInt(amount)
}

func (m *mockTokenLedger) BalanceOf(account [20]byte) (*big.Int, error) {
	if balance, ok := m.balances[account]; ok {
		return new(big.Int).Set(balance), nil
	}
	return big.NewInt(0), nil
}

func (m *mockTokenLedger) Transfer(from, to [20]byte, amount *big.Int) (*big.Int, error) {
	if m.fail != nil {
		return nil, m.fail
	}
	fromBalance, _ := m.BalanceOf(from)
	if fromBalance.Cmp(amount) < 0 {
		return nil, errors.New("token: insufficient balance")
	}
	toBalance, _ := m.BalanceOf(to)
	m.balances[from] = fromBalance.Sub(fromBalance, amount)
	m.balances[to] = toBalance.Add(toBalance, amount)
	return new(big.Int).Set(amount), nil
}

var (
	treasuryAccount = [20]byte{0xd0}
	treasuryOwner   = [20]byte{0xd1}
	grantRecipient  = [20]byte{0xd2}
	stranger        = [20]byte{0xd3}
)

type treasuryFixture struct {
	engine *Engine
	state  *mockTreasuryState
	token  *mockTokenLedger
}

func newTreasuryFixture(t *testing.T) *treasuryFixture {
	t.Helper()
	state := newMockTreasuryState()
	token := newMockTokenLedger()
	token.setBalance(treasuryAccount, 1_000)

	engine := NewEngine(treasuryAccount, treasuryOwner)
	engine.SetState(state)
	engine.SetToken(token)
	return &treasuryFixture{engine: engine, state: state, token: token}
}

func (f *treasuryFixture) addCategory(t *testing.T, name string) {
	t.Helper()
	if err := f.engine.AddCategory(treasuryOwner, name); err != nil {
		t.Fatalf("add category %q: %v", name, err)
	}
}

func TestAddCategoryNormalizesAndSorts(t *testing.T) {
	f := newTreasuryFixture(t)
	f.addCategory(t, " Marketing ")
	f.addCategory(t, "development")

	categories, err := f.engine.Categories()
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	if len(categories) != 2 || categories[0] != "development" || categories[1] != "marketing" {
		t.Fatalf("unexpected category list: %v", categories)
	}

	if err := f.engine.AddCategory(treasuryOwner, "MARKETING"); !errors.Is(err, ErrCategoryExists) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if err := f.engine.AddCategory(treasuryOwner, "  "); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected invalid error, got %v", err)
	}
	if err := f.engine.AddCategory(stranger, "ops"); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected owner error, got %v", err)
	}
}

func TestRemoveCategoryBlocksOutstandingAllocation(t *testing.T) {
	f := newTreasuryFixture(t)
	f.addCategory(t, "grants")

	if err := f.engine.AllocateFunds(treasuryOwner, "grants", big.NewInt(400)); err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if err := f.engine.RemoveCategory(treasuryOwner, "grants"); !errors.Is(err, ErrCategoryHasAllocation) {
		t.Fatalf("expected allocation error, got %v", err)
	}

	if err := f.engine.TransferFunds(treasuryOwner, "grants", grantRecipient, big.NewInt(400)); err != nil {
		t.Fatalf("drain allocation: %v", err)
	}
	if err := f.engine.RemoveCategory(treasuryOwner, "grants"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := f.engine.RemoveCategory(treasuryOwner, "grants"); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected missing-category error, got %v", err)
	}
}

func TestAllocateFundsBoundedByUnallocated(t *testing.T) {
	f := newTreasuryFixture(t)
	f.addCategory(t, "ops")
	f.addCategory(t, "grants")

	if err := f.engine.AllocateFunds(treasuryOwner, "ops", big.NewInt(700)); err != nil {
		t.Fatalf("allocate: %v", err)
	}
	free, err := f.engine.Unallocated()
	if err != nil {
		t.Fatalf("unallocated: %v", err)
	}
	if free.Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("unallocated mismatch: %s", free)
	}

	if err := f.engine.AllocateFunds(treasuryOwner, "grants", big.NewInt(301)); !errors.Is(err, ErrInsufficientUnspent) {
		t.Fatalf("expected over-allocation error, got %v", err)
	}
	if err := f.engine.AllocateFunds(treasuryOwner, "grants", big.NewInt(300)); err != nil {
		t.Fatalf("allocate remainder: %v", err)
	}

	if err := f.engine.AllocateFunds(treasuryOwner, "ops", big.NewInt(0)); !errors.Is(err, ErrZeroAmount) {
		t.Fatalf("expected zero-amount error, got %v", err)
	}
	if err := f.engine.AllocateFunds(treasuryOwner, "unknown", big.NewInt(1)); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected category error, got %v", err)
	}
	if err := f.engine.AllocateFunds(stranger, "ops", big.NewInt(1)); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected owner error, got %v", err)
	}
}

func TestTransferFundsDrawsAgainstAllocation(t *testing.T) {
	f := newTreasuryFixture(t)
	f.addCategory(t, "ops")
	if err := f.engine.AllocateFunds(treasuryOwner, "ops", big.NewInt(500)); err != nil {
		t.Fatalf("allocate: %v", err)
	}

	if err := f.engine.TransferFunds(treasuryOwner, "ops", grantRecipient, big.NewInt(501)); !errors.Is(err, ErrInsufficientAlloc) {
		t.Fatalf("expected allocation error, got %v", err)
	}
	if err := f.engine.TransferFunds(treasuryOwner, "ops", grantRecipient, big.NewInt(200)); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	allocated, _ := f.engine.Allocation("ops")
	if allocated.Cmp(big.NewInt(300)) != 0 {
		t.Fatalf("allocation mismatch: %s", allocated)
	}
	spent, _ := f.engine.Spent("ops")
	if spent.Cmp(big.NewInt(200)) != 0 {
		t.Fatalf("spent mismatch: %s", spent)
	}
	recipientBalance, _ := f.token.BalanceOf(grantRecipient)
	if recipientBalance.Cmp(big.NewInt(200)) != 0 {
		t.Fatalf("recipient balance mismatch: %s", recipientBalance)
	}
	treasuryBalance, _ := f.engine.Balance()
	if treasuryBalance.Cmp(big.NewInt(800)) != 0 {
		t.Fatalf("treasury balance mismatch: %s", treasuryBalance)
	}
}

func TestTransferFundsLedgerFailureLeavesStateUntouched(t *testing.T) {
	f := newTreasuryFixture(t)
	f.addCategory(t, "ops")
	if err := f.engine.AllocateFunds(treasuryOwner, "ops", big.NewInt(500)); err != nil {
		t.Fatalf("allocate: %v", err)
	}

	f.token.fail = errors.New("token: transfers are paused")
	if err := f.engine.TransferFunds(treasuryOwner, "ops", grantRecipient, big.NewInt(100)); err == nil {
		t.Fatal("expected ledger failure")
	}

	allocated, _ := f.engine.Allocation("ops")
	if allocated.Cmp(big.NewInt(500)) != 0 {
		t.Fatalf("failed transfer must not touch the allocation, got %s", allocated)
	}
	spent, _ := f.engine.Spent("ops")
	if spent.Sign() != 0 {
		t.Fatalf("failed transfer must not record a spend, got %s", spent)
	}
}

func TestHandleCallDispatchesOwnerMethods(t *testing.T) {
	f := newTreasuryFixture(t)

	call := []byte(`{"method":"addCategory","params":{"category":"Ops"}}`)
	if err := f.engine.HandleCall(treasuryOwner, nil, call); err != nil {
		t.Fatalf("addCategory call: %v", err)
	}
	known, _ := f.engine.HasCategory("ops")
	if !known {
		t.Fatal("routed addCategory not applied")
	}

	call = []byte(`{"method":"allocateFunds","params":{"category":"ops","amount":"250"}}`)
	if err := f.engine.HandleCall(treasuryOwner, nil, call); err != nil {
		t.Fatalf("allocateFunds call: %v", err)
	}

	recipient := hex.EncodeToString(grantRecipient[:])
	call = []byte(`{"method":"transferFunds","params":{"category":"ops","recipient":"0x` + recipient + `","amount":"100"}}`)
	if err := f.engine.HandleCall(treasuryOwner, nil, call); err != nil {
		t.Fatalf("transferFunds call: %v", err)
	}
	balance, _ := f.token.BalanceOf(grantRecipient)
	if balance.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("routed transfer not applied, balance %s", balance)
	}

	if err := f.engine.HandleCall(stranger, nil, []byte(`{"method":"addCategory","params":{"category":"x"}}`)); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("expected owner error through the router, got %v", err)
	}
	if err := f.engine.HandleCall(treasuryOwner, nil, []byte(`{"method":"mystery"}`)); err == nil {
		t.Fatal("expected unknown-method error")
	}
}
