package timelock

import (
	"fmt"
	"math/big"
	"time"

	"wagmi/core/events"
	"wagmi/core/types"
)

type controllerState interface {
	TimelockOperation(id [32]byte) (*Operation, bool, error)
	PutTimelockOperation(op *Operation) error
	TimelockMinDelay() (uint64, error)
	SetTimelockMinDelay(delay uint64) error
	TimelockHasRole(role string, account [20]byte) (bool, error)
	SetTimelockRole(role string, account [20]byte, enabled bool) error
}

// Dispatcher invokes a target call once its operation is ready. The core
// router satisfies this interface.
type Dispatcher interface {
	Invoke(from, target [20]byte, value *big.Int, data []byte) error
}

type timelockEvent struct {
	evt *types.Event
}

func (t timelockEvent) EventType() string {
	if t.evt == nil {
		return ""
	}
	return t.evt.Type
}

func (t timelockEvent) Event() *types.Event { return t.evt }

// Controller schedules and executes role-gated operations after a mandatory
// delay. It holds no business logic of its own: approved governance calls
// flow through it into the registered module handlers.
type Controller struct {
	state      controllerState
	dispatcher Dispatcher
	emitter    events.Emitter
	nowFn      func() time.Time
	self       [20]byte
}

// NewController constructs a timelock controller bound to its module address.
// The module address is used as the caller identity when dispatching calls,
// so privileged module owners should be configured to that address.
func NewController(self [20]byte) *Controller {
	return &Controller{
		emitter: events.NoopEmitter{},
		nowFn:   func() time.Time { return time.Now().UTC() },
		self:    self,
	}
}

// SetState wires the controller to the state backend.
func (c *Controller) SetState(state controllerState) { c.state = state }

// SetDispatcher wires the controller to the call router.
func (c *Controller) SetDispatcher(dispatcher Dispatcher) { c.dispatcher = dispatcher }

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (c *Controller) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		c.emitter = events.NoopEmitter{}
		return
	}
	c.emitter = emitter
}

// SetNowFunc overrides the time source. Nil restores the default UTC clock.
func (c *Controller) SetNowFunc(now func() time.Time) {
	if now == nil {
		c.nowFn = func() time.Time { return time.Now().UTC() }
		return
	}
	c.nowFn = now
}

func (c *Controller) emit(event *types.Event) {
	if c == nil || c.emitter == nil || event == nil {
		return
	}
	c.emitter.Emit(timelockEvent{evt: event})
}

func (c *Controller) now() uint64 {
	if c == nil || c.nowFn == nil {
		return uint64(time.Now().Unix())
	}
	return uint64(c.nowFn().Unix())
}

// Self returns the controller's module address.
func (c *Controller) Self() [20]byte { return c.self }

// HasRole reports whether the account holds the capability.
func (c *Controller) HasRole(role Role, account [20]byte) (bool, error) {
	if c == nil || c.state == nil {
		return false, ErrStateNotConfigured
	}
	return c.state.TimelockHasRole(string(role), account)
}

func (c *Controller) requireRole(role Role, account [20]byte) error {
	ok, err := c.HasRole(role, account)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrMissingRole, role)
	}
	return nil
}

// GrantRole adds the account to the capability set. Admin only.
func (c *Controller) GrantRole(caller [20]byte, role Role, account [20]byte) error {
	if c == nil || c.state == nil {
		return ErrStateNotConfigured
	}
	if err := c.requireRole(RoleAdmin, caller); err != nil {
		return err
	}
	if !role.Valid() {
		return fmt.Errorf("timelock: invalid role %q", role)
	}
	if err := c.state.SetTimelockRole(string(role), account, true); err != nil {
		return err
	}
	c.emit(events.RoleGranted{Role: string(role), Account: account}.Event())
	return nil
}

// RevokeRole removes the account from the capability set. Admin only.
func (c *Controller) RevokeRole(caller [20]byte, role Role, account [20]byte) error {
	if c == nil || c.state == nil {
		return ErrStateNotConfigured
	}
	if err := c.requireRole(RoleAdmin, caller); err != nil {
		return err
	}
	if !role.Valid() {
		return fmt.Errorf("timelock: invalid role %q", role)
	}
	if err := c.state.SetTimelockRole(string(role), account, false); err != nil {
		return err
	}
	c.emit(events.RoleRevoked{Role: string(role), Account: account}.Event())
	return nil
}

// RenounceRole removes a capability from the caller itself. Used to revoke
// the deployer's admin capability once governance controls the queue.
func (c *Controller) RenounceRole(caller [20]byte, role Role) error {
	if c == nil || c.state == nil {
		return ErrStateNotConfigured
	}
	if !role.Valid() {
		return fmt.Errorf("timelock: invalid role %q", role)
	}
	if err := c.state.SetTimelockRole(string(role), caller, false); err != nil {
		return err
	}
	c.emit(events.RoleRevoked{Role: string(role), Account: caller}.Event())
	return nil
}

// MinDelay returns the minimum delay applied to future scheduling.
func (c *Controller) MinDelay() (uint64, error) {
	if c == nil || c.state == nil {
		return 0, ErrStateNotConfigured
	}
	return c.state.TimelockMinDelay()
}

// UpdateDelay replaces the minimum delay for future operations. Already
// scheduled operations keep their recorded ready timestamps. Admin only.
func (c *Controller) UpdateDelay(caller [20]byte, newDelay uint64) error {
	if c == nil || c.state == nil {
		return ErrStateNotConfigured
	}
	if err := c.requireRole(RoleAdmin, caller); err != nil {
		return err
	}
	oldDelay, err := c.state.TimelockMinDelay()
	if err != nil {
		return err
	}
	if err := c.state.SetTimelockMinDelay(newDelay); err != nil {
		return err
	}
	c.emit(events.DelayUpdated{OldDelay: oldDelay, NewDelay: newDelay}.Event())
	return nil
}

// Schedule queues a single-call operation. Proposer only.
func (c *Controller) Schedule(caller [20]byte, target [20]byte, value *big.Int, data []byte, predecessor, salt [32]byte, delay uint64) ([32]byte, error) {
	return c.ScheduleBatch(caller, []Call{{Target: target, Value: value, Data: data}}, predecessor, salt, delay)
}

// ScheduleBatch queues a batch of calls as one operation identified by the
// batch hash. Proposer only; the delay must meet the configured minimum and
// the id must not already be scheduled.
func (c *Controller) ScheduleBatch(caller [20]byte, calls []Call, predecessor, salt [32]byte, delay uint64) ([32]byte, error) {
	var zero [32]byte
	if c == nil || c.state == nil {
		return zero, ErrStateNotConfigured
	}
	if err := c.requireRole(RoleProposer, caller); err != nil {
		return zero, err
	}
	if len(calls) == 0 {
		return zero, ErrEmptyBatch
	}
	minDelay, err := c.state.TimelockMinDelay()
	if err != nil {
		return zero, err
	}
	if delay < minDelay {
		return zero, ErrDelayTooShort
	}
	id := HashOperationBatch(calls, predecessor, salt)
	if _, exists, err := c.state.TimelockOperation(id); err != nil {
		return zero, err
	} else if exists {
		return zero, ErrAlreadyScheduled
	}

	cloned := make([]Call, len(calls))
	for i, call := range calls {
		cloned[i] = call.Clone()
	}
	op := &Operation{
		ID:          id,
		Calls:       cloned,
		Predecessor: predecessor,
		Salt:        salt,
		ReadyAt:     c.now() + delay,
	}
	if err := c.state.PutTimelockOperation(op); err != nil {
		return zero, err
	}
	for i, call := range op.Calls {
		c.emit(events.CallScheduled{
			OperationID: id,
			Index:       uint64(i),
			Target:      call.Target,
			Value:       call.Value,
			Data:        call.Data,
			Predecessor: predecessor,
			ReadyAt:     op.ReadyAt,
		}.Event())
	}
	return id, nil
}

// Execute runs a single-call operation. Executor only.
func (c *Controller) Execute(caller [20]byte, target [20]byte, value *big.Int, data []byte, predecessor, salt [32]byte) error {
	return c.ExecuteBatch(caller, []Call{{Target: target, Value: value, Data: data}}, predecessor, salt)
}

// ExecuteBatch runs a scheduled batch once its delay has elapsed and any
// predecessor operation has executed. Calls dispatch in order through the
// router with the controller's module address as the caller identity. Progress
// persists after every landed call, so a batch that fails partway stays
// executable and a retry resumes from the first unapplied call instead of
// re-running calls that already took effect. Executor only.
func (c *Controller) ExecuteBatch(caller [20]byte, calls []Call, predecessor, salt [32]byte) error {
	if c == nil || c.state == nil {
		return ErrStateNotConfigured
	}
	if c.dispatcher == nil {
		return ErrRouterNotConfigured
	}
	if err := c.requireRole(RoleExecutor, caller); err != nil {
		return err
	}
	if len(calls) == 0 {
		return ErrEmptyBatch
	}
	id := HashOperationBatch(calls, predecessor, salt)
	op, exists, err := c.state.TimelockOperation(id)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotScheduled
	}
	if op.Done {
		return ErrAlreadyExecuted
	}
	if c.now() < op.ReadyAt {
		return ErrNotReady
	}
	var zero [32]byte
	if op.Predecessor != zero {
		pred, exists, err := c.state.TimelockOperation(op.Predecessor)
		if err != nil {
			return err
		}
		if !exists || !pred.Done {
			return ErrPredecessorPending
		}
	}

	for i := int(op.Applied); i < len(op.Calls); i++ {
		call := op.Calls[i]
		if err := c.dispatcher.Invoke(c.self, call.Target, call.Value, call.Data); err != nil {
			return fmt.Errorf("timelock: call %d failed: %w", i, err)
		}
		op.Applied = uint64(i + 1)
		if err := c.state.PutTimelockOperation(op); err != nil {
			return err
		}
		c.emit(events.CallExecuted{
			OperationID: id,
			Index:       uint64(i),
			Target:      call.Target,
			Value:       call.Value,
			Data:        call.Data,
		}.Event())
	}
	op.Done = true
	return c.state.PutTimelockOperation(op)
}

// OperationStateAt reports the lifecycle state of an operation id.
func (c *Controller) OperationStateAt(id [32]byte) (OperationState, error) {
	if c == nil || c.state == nil {
		return OperationUnset, ErrStateNotConfigured
	}
	op, exists, err := c.state.TimelockOperation(id)
	if err != nil {
		return OperationUnset, err
	}
	if !exists {
		return OperationUnset, nil
	}
	return op.StateAt(c.now()), nil
}

// ReadyAt returns the recorded ready timestamp for a scheduled operation.
func (c *Controller) ReadyAt(id [32]byte) (uint64, error) {
	if c == nil || c.state == nil {
		return 0, ErrStateNotConfigured
	}
	op, exists, err := c.state.TimelockOperation(id)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, ErrNotScheduled
	}
	return op.ReadyAt, nil
}
