package token

import (
	"encoding/json"
	"fmt"
	"math/big"

	"wagmi/core"
	"wagmi/core/events"
	"wagmi/core/types"
)

type ledgerState interface {
	TokenBalance(addr [20]byte) (*big.Int, error)
	SetTokenBalance(addr [20]byte, balance *big.Int) error
	TokenAllowance(owner, spender [20]byte) (*big.Int, error)
	SetTokenAllowance(owner, spender [20]byte, amount *big.Int) error
	TokenTotalSupply() (*big.Int, error)
	SetTokenTotalSupply(supply *big.Int) error
	TokenFees() (FeeStructure, bool, error)
	SetTokenFees(fees FeeStructure) error
	TokenPaused() (bool, error)
	SetTokenPaused(paused bool) error
	TokenFeeExempt(addr [20]byte) (bool, error)
	SetTokenFeeExempt(addr [20]byte, exempt bool) error
}

type tokenEvent struct {
	evt *types.Event
}

func (t tokenEvent) EventType() string {
	if t.evt == nil {
		return ""
	}
	return t.evt.Type
}

func (t tokenEvent) Event() *types.Event { return t.evt }

// Engine implements the fungible token ledger used as the staking asset and
// governance token. Transfers net out an owner-configurable burn fee and
// treasury fee unless either party is fee exempt, so callers that care about
// received amounts must use the net value the transfer methods report. The fee
// structure, pause flag, and exemption set live in ledger state, so admin
// actions survive a process restart.
type Engine struct {
	state    ledgerState
	emitter  events.Emitter
	meta     Metadata
	owner    [20]byte
	treasury [20]byte
}

// NewEngine constructs a token engine with a no-op emitter and zero fees.
func NewEngine(meta Metadata, owner, treasury [20]byte) *Engine {
	return &Engine{
		emitter:  events.NoopEmitter{},
		meta:     meta,
		owner:    owner,
		treasury: treasury,
	}
}

// SetState wires the engine to the ledger state backend.
func (e *Engine) SetState(state ledgerState) { e.state = state }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(tokenEvent{evt: event})
}

// Metadata returns the token identity.
func (e *Engine) Metadata() Metadata { return e.meta }

// Owner returns the administrative account.
func (e *Engine) Owner() [20]byte { return e.owner }

// Fees returns the current fee structure.
func (e *Engine) Fees() (FeeStructure, error) {
	if e == nil || e.state == nil {
		return FeeStructure{}, ErrStateNotConfigured
	}
	fees, _, err := e.state.TokenFees()
	return fees, err
}

// FeesConfigured reports whether a fee structure has ever been recorded.
// Startup seeding applies the configured defaults only while this is false.
func (e *Engine) FeesConfigured() (bool, error) {
	if e == nil || e.state == nil {
		return false, ErrStateNotConfigured
	}
	_, configured, err := e.state.TokenFees()
	return configured, err
}

// Paused reports whether transfers are currently rejected.
func (e *Engine) Paused() (bool, error) {
	if e == nil || e.state == nil {
		return false, ErrStateNotConfigured
	}
	return e.state.TokenPaused()
}

// FeeExempt reports whether the address bypasses transfer fees.
func (e *Engine) FeeExempt(addr [20]byte) (bool, error) {
	if e == nil || e.state == nil {
		return false, ErrStateNotConfigured
	}
	return e.state.TokenFeeExempt(addr)
}

// SetFeeStructure replaces the burn and treasury fee percentages. The combined
// fee may not exceed 100%.
func (e *Engine) SetFeeStructure(caller [20]byte, burnFee, treasuryFee uint64) error {
	if e == nil || e.state == nil {
		return ErrStateNotConfigured
	}
	if caller != e.owner {
		return ErrNotOwner
	}
	// Bound each fee before summing so the uint64 sum cannot wrap.
	if burnFee > 100 || treasuryFee > 100 || burnFee+treasuryFee > 100 {
		return ErrFeeExceedsMaximum
	}
	if err := e.state.SetTokenFees(FeeStructure{BurnFee: burnFee, TreasuryFee: treasuryFee}); err != nil {
		return err
	}
	e.emit(events.TokenFeeStructureUpdated{BurnFee: burnFee, TreasuryFee: treasuryFee}.Event())
	return nil
}

// SetFeeExemption toggles the fee exemption flag for an address.
func (e *Engine) SetFeeExemption(caller, addr [20]byte, exempt bool) error {
	if e == nil || e.state == nil {
		return ErrStateNotConfigured
	}
	if caller != e.owner {
		return ErrNotOwner
	}
	return e.state.SetTokenFeeExempt(addr, exempt)
}

// Pause stops all transfers until Unpause is called.
func (e *Engine) Pause(caller [20]byte) error {
	if e == nil || e.state == nil {
		return ErrStateNotConfigured
	}
	if caller != e.owner {
		return ErrNotOwner
	}
	if err := e.state.SetTokenPaused(true); err != nil {
		return err
	}
	e.emit(events.TokenPaused{}.Event())
	return nil
}

// Unpause resumes transfers.
func (e *Engine) Unpause(caller [20]byte) error {
	if e == nil || e.state == nil {
		return ErrStateNotConfigured
	}
	if caller != e.owner {
		return ErrNotOwner
	}
	if err := e.state.SetTokenPaused(false); err != nil {
		return err
	}
	e.emit(events.TokenUnpaused{}.Event())
	return nil
}

// Mint credits newly issued supply to the recipient. Restricted to the owner;
// used at genesis to seed the initial distribution.
func (e *Engine) Mint(caller, to [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return ErrStateNotConfigured
	}
	if caller != e.owner {
		return ErrNotOwner
	}
	amt := cloneBigInt(amount)
	if amt.Sign() <= 0 {
		return ErrZeroAmount
	}
	balance, err := e.state.TokenBalance(to)
	if err != nil {
		return err
	}
	supply, err := e.state.TokenTotalSupply()
	if err != nil {
		return err
	}
	if err := e.state.SetTokenBalance(to, new(big.Int).Add(balance, amt)); err != nil {
		return err
	}
	return e.state.SetTokenTotalSupply(new(big.Int).Add(supply, amt))
}

// BalanceOf returns the spendable balance of an address.
func (e *Engine) BalanceOf(addr [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrStateNotConfigured
	}
	return e.state.TokenBalance(addr)
}

// TotalSupply returns the circulating supply after burns.
func (e *Engine) TotalSupply() (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrStateNotConfigured
	}
	return e.state.TokenTotalSupply()
}

// Approve sets the allowance a spender may draw from the owner's balance.
func (e *Engine) Approve(owner, spender [20]byte, amount *big.Int) error {
	if e == nil || e.state == nil {
		return ErrStateNotConfigured
	}
	return e.state.SetTokenAllowance(owner, spender, cloneBigInt(amount))
}

// Allowance returns the remaining amount a spender may draw from the owner.
func (e *Engine) Allowance(owner, spender [20]byte) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrStateNotConfigured
	}
	return e.state.TokenAllowance(owner, spender)
}

// Transfer moves tokens from the caller to the recipient, applying the fee
// structure unless either party is exempt. It returns the net amount credited
// to the recipient.
func (e *Engine) Transfer(from, to [20]byte, amount *big.Int) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrStateNotConfigured
	}
	return e.transfer(from, to, amount)
}

// TransferFrom moves tokens on behalf of the owner using a previously granted
// allowance, applying fees identically to Transfer. It returns the net amount
// credited to the recipient.
func (e *Engine) TransferFrom(spender, from, to [20]byte, amount *big.Int) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, ErrStateNotConfigured
	}
	amt := cloneBigInt(amount)
	if amt.Sign() <= 0 {
		return nil, ErrZeroAmount
	}
	allowance, err := e.state.TokenAllowance(from, spender)
	if err != nil {
		return nil, err
	}
	if allowance.Cmp(amt) < 0 {
		return nil, ErrInsufficientAllowance
	}
	net, err := e.transfer(from, to, amt)
	if err != nil {
		return nil, err
	}
	if err := e.state.SetTokenAllowance(from, spender, new(big.Int).Sub(allowance, amt)); err != nil {
		return nil, err
	}
	return net, nil
}

func (e *Engine) transfer(from, to [20]byte, amount *big.Int) (*big.Int, error) {
	paused, err := e.state.TokenPaused()
	if err != nil {
		return nil, err
	}
	if paused {
		return nil, ErrPaused
	}
	amt := cloneBigInt(amount)
	if amt.Sign() <= 0 {
		return nil, ErrZeroAmount
	}
	fromBalance, err := e.state.TokenBalance(from)
	if err != nil {
		return nil, err
	}
	if fromBalance.Cmp(amt) < 0 {
		return nil, ErrInsufficientBalance
	}

	fromExempt, err := e.state.TokenFeeExempt(from)
	if err != nil {
		return nil, err
	}
	toExempt, err := e.state.TokenFeeExempt(to)
	if err != nil {
		return nil, err
	}
	fees, _, err := e.state.TokenFees()
	if err != nil {
		return nil, err
	}

	burned := big.NewInt(0)
	feePaid := big.NewInt(0)
	net := new(big.Int).Set(amt)
	if !fromExempt && !toExempt && fees.Total() > 0 {
		hundred := big.NewInt(100)
		burned = new(big.Int).Div(new(big.Int).Mul(amt, new(big.Int).SetUint64(fees.BurnFee)), hundred)
		feePaid = new(big.Int).Div(new(big.Int).Mul(amt, new(big.Int).SetUint64(fees.TreasuryFee)), hundred)
		net = new(big.Int).Sub(net, burned)
		net.Sub(net, feePaid)
	}

	if err := e.state.SetTokenBalance(from, new(big.Int).Sub(fromBalance, amt)); err != nil {
		return nil, err
	}
	toBalance, err := e.state.TokenBalance(to)
	if err != nil {
		return nil, err
	}
	if err := e.state.SetTokenBalance(to, new(big.Int).Add(toBalance, net)); err != nil {
		return nil, err
	}
	if feePaid.Sign() > 0 {
		treasuryBalance, err := e.state.TokenBalance(e.treasury)
		if err != nil {
			return nil, err
		}
		if err := e.state.SetTokenBalance(e.treasury, new(big.Int).Add(treasuryBalance, feePaid)); err != nil {
			return nil, err
		}
	}
	if burned.Sign() > 0 {
		supply, err := e.state.TokenTotalSupply()
		if err != nil {
			return nil, err
		}
		if err := e.state.SetTokenTotalSupply(new(big.Int).Sub(supply, burned)); err != nil {
			return nil, err
		}
	}

	e.emit(events.TokenTransfer{
		From:    from,
		To:      to,
		Amount:  amt,
		Net:     new(big.Int).Set(net),
		Burned:  burned,
		FeePaid: feePaid,
	}.Event())
	return net, nil
}

// HandleCall dispatches router calls against the token's administrative
// surface. Only the owner (the timelock in deployment) reaches this path.
func (e *Engine) HandleCall(from [20]byte, value *big.Int, data []byte) error {
	var envelope core.CallEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("token: invalid calldata: %w", err)
	}
	switch envelope.Method {
	case "setFeeStructure":
		burnFee, err := parseUint(envelope.Params["burnFee"])
		if err != nil {
			return err
		}
		treasuryFee, err := parseUint(envelope.Params["treasuryFee"])
		if err != nil {
			return err
		}
		return e.SetFeeStructure(from, burnFee, treasuryFee)
	case "pause":
		return e.Pause(from)
	case "unpause":
		return e.Unpause(from)
	default:
		return fmt.Errorf("token: unsupported method %q", envelope.Method)
	}
}

func parseUint(raw string) (uint64, error) {
	var v uint64
	if _, err := fmt.Sscanf(raw, "%d", &v); err != nil {
		return 0, fmt.Errorf("token: invalid numeric parameter %q", raw)
	}
	return v, nil
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}
