package events

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"wagmi/core/types"
)

const (
	// TypeCallScheduled captures an operation entering the timelock queue.
	TypeCallScheduled = "timelock.callScheduled"
	// TypeCallExecuted captures an operation leaving the queue after dispatch.
	TypeCallExecuted = "timelock.callExecuted"
	// TypeDelayUpdated captures a change to the minimum scheduling delay.
	TypeDelayUpdated = "timelock.delayUpdated"
	// TypeRoleGranted captures a capability being granted to an account.
	TypeRoleGranted = "timelock.roleGranted"
	// TypeRoleRevoked captures a capability being removed from an account.
	TypeRoleRevoked = "timelock.roleRevoked"
)

// CallScheduled records one call of a scheduled operation.
type CallScheduled struct {
	OperationID [32]byte
	Index       uint64
	Target      [20]byte
	Value       *big.Int
	Data        []byte
	Predecessor [32]byte
	ReadyAt     uint64
}

// EventType satisfies the Event interface.
func (CallScheduled) EventType() string { return TypeCallScheduled }

// Event renders the attribute payload for emission.
func (c CallScheduled) Event() *types.Event {
	return &types.Event{
		Type: TypeCallScheduled,
		Attributes: map[string]string{
			"id":          hex.EncodeToString(c.OperationID[:]),
			"index":       strconv.FormatUint(c.Index, 10),
			"target":      hex.EncodeToString(c.Target[:]),
			"value":       bigIntString(c.Value),
			"data":        hex.EncodeToString(c.Data),
			"predecessor": hex.EncodeToString(c.Predecessor[:]),
			"readyAt":     strconv.FormatUint(c.ReadyAt, 10),
		},
	}
}

// CallExecuted records one call of an executed operation.
type CallExecuted struct {
	OperationID [32]byte
	Index       uint64
	Target      [20]byte
	Value       *big.Int
	Data        []byte
}

// EventType satisfies the Event interface.
func (CallExecuted) EventType() string { return TypeCallExecuted }

// Event renders the attribute payload for emission.
func (c CallExecuted) Event() *types.Event {
	return &types.Event{
		Type: TypeCallExecuted,
		Attributes: map[string]string{
			"id":     hex.EncodeToString(c.OperationID[:]),
			"index":  strconv.FormatUint(c.Index, 10),
			"target": hex.EncodeToString(c.Target[:]),
			"value":  bigIntString(c.Value),
			"data":   hex.EncodeToString(c.Data),
		},
	}
}

// DelayUpdated records the minimum delay transition.
type DelayUpdated struct {
	OldDelay uint64
	NewDelay uint64
}

// EventType satisfies the Event interface.
func (DelayUpdated) EventType() string { return TypeDelayUpdated }

// Event renders the attribute payload for emission.
func (d DelayUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeDelayUpdated,
		Attributes: map[string]string{
			"oldDelay": strconv.FormatUint(d.OldDelay, 10),
			"newDelay": strconv.FormatUint(d.NewDelay, 10),
		},
	}
}

// RoleGranted records a capability grant.
type RoleGranted struct {
	Role    string
	Account [20]byte
}

// EventType satisfies the Event interface.
func (RoleGranted) EventType() string { return TypeRoleGranted }

// Event renders the attribute payload for emission.
func (r RoleGranted) Event() *types.Event {
	return &types.Event{
		Type: TypeRoleGranted,
		Attributes: map[string]string{
			"role":    r.Role,
			"account": hex.EncodeToString(r.Account[:]),
		},
	}
}

// RoleRevoked records a capability removal.
type RoleRevoked struct {
	Role    string
	Account [20]byte
}

// EventType satisfies the Event interface.
func (RoleRevoked) EventType() string { return TypeRoleRevoked }

// Event renders the attribute payload for emission.
func (r RoleRevoked) Event() *types.Event {
	return &types.Event{
		Type: TypeRoleRevoked,
		Attributes: map[string]string{
			"role":    r.Role,
			"account": hex.EncodeToString(r.Account[:]),
		},
	}
}
