package timelock

import (
	"encoding/binary"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Role identifies a capability set on the controller. Roles are explicit
// membership sets rather than an inheritance hierarchy so that the admin
// capability can be revoked outright once governance is live.
type Role string

const (
	// RoleAdmin may update the minimum delay and manage role membership.
	RoleAdmin Role = "admin"
	// RoleProposer may schedule operations.
	RoleProposer Role = "proposer"
	// RoleExecutor may execute ready operations. Granting the controller's
	// own module address this role enables self-triggered execution.
	RoleExecutor Role = "executor"
)

// Valid reports whether the role is a supported capability.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleProposer, RoleExecutor:
		return true
	default:
		return false
	}
}

// OperationState enumerates the lifecycle of a scheduled operation.
type OperationState uint8

const (
	// OperationUnset means no operation exists for the id.
	OperationUnset OperationState = iota
	// OperationWaiting means the operation is scheduled but not yet ready.
	OperationWaiting
	// OperationReady means the delay has elapsed and execution may proceed.
	OperationReady
	// OperationDone means the operation has been executed.
	OperationDone
)

// String implements fmt.Stringer for logs and APIs.
func (s OperationState) String() string {
	switch s {
	case OperationWaiting:
		return "waiting"
	case OperationReady:
		return "ready"
	case OperationDone:
		return "done"
	default:
		return "unset"
	}
}

// Call is a single (target, value, data) invocation inside an operation.
type Call struct {
	Target [20]byte `json:"target"`
	Value  *big.Int `json:"value"`
	Data   []byte   `json:"data"`
}

// Clone returns a deep copy of the call.
func (c Call) Clone() Call {
	clone := c
	if c.Value != nil {
		clone.Value = new(big.Int).Set(c.Value)
	}
	clone.Data = append([]byte(nil), c.Data...)
	return clone
}

// Operation is a scheduled batch of calls gated by the minimum delay and an
// optional predecessor dependency. Applied counts the calls already dispatched
// so a batch that failed partway resumes after the last landed call instead of
// re-running it.
type Operation struct {
	ID          [32]byte `json:"id"`
	Calls       []Call   `json:"calls"`
	Predecessor [32]byte `json:"predecessor"`
	Salt        [32]byte `json:"salt"`
	ReadyAt     uint64   `json:"readyAt"`
	Applied     uint64   `json:"applied"`
	Done        bool     `json:"done"`
}

// StateAt derives the operation state for the given unix timestamp.
func (o *Operation) StateAt(now uint64) OperationState {
	if o == nil {
		return OperationUnset
	}
	if o.Done {
		return OperationDone
	}
	if now >= o.ReadyAt {
		return OperationReady
	}
	return OperationWaiting
}

// HashOperation derives the deterministic identifier for a single-call
// operation.
func HashOperation(target [20]byte, value *big.Int, data []byte, predecessor, salt [32]byte) [32]byte {
	return HashOperationBatch([]Call{{Target: target, Value: value, Data: data}}, predecessor, salt)
}

// HashOperationBatch derives the deterministic identifier for a call batch.
// Each call contributes its target, a fixed-width value encoding, and the
// keccak of its calldata so that no two distinct batches collide.
func HashOperationBatch(calls []Call, predecessor, salt [32]byte) [32]byte {
	segments := make([]byte, 0, len(calls)*72+64)
	for _, call := range calls {
		segments = append(segments, call.Target[:]...)
		value := call.Value
		if value == nil {
			value = big.NewInt(0)
		}
		segments = append(segments, value.FillBytes(make([]byte, 32))...)
		segments = append(segments, ethcrypto.Keccak256(call.Data)...)
	}
	count := make([]byte, 8)
	binary.BigEndian.PutUint64(count, uint64(len(calls)))
	var id [32]byte
	copy(id[:], ethcrypto.Keccak256(count, segments, predecessor[:], salt[:]))
	return id
}
