package core

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"sync"
)

var (
	// ErrUnknownTarget is returned when a call targets an unregistered address.
	ErrUnknownTarget = errors.New("core: unknown call target")
)

// CallHandler is implemented by native modules that accept dispatched calls.
// Data carries a JSON method envelope; value carries native funds attached to
// the call.
type CallHandler interface {
	HandleCall(from [20]byte, value *big.Int, data []byte) error
}

// Router maps module addresses to their call handlers. The timelock queue
// executes approved governance calls through the router, so any privileged
// module entry point reachable by governance must be registered here.
type Router struct {
	mu       sync.RWMutex
	handlers map[[20]byte]CallHandler
}

// NewRouter constructs an empty router.
func NewRouter() *Router {
	return &Router{handlers: make(map[[20]byte]CallHandler)}
}

// Register binds a module address to its handler. Re-registration replaces
// the previous handler.
func (r *Router) Register(target [20]byte, handler CallHandler) {
	if r == nil || handler == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[target] = handler
}

// Invoke dispatches a call to the registered handler for the target address.
func (r *Router) Invoke(from, target [20]byte, value *big.Int, data []byte) error {
	if r == nil {
		return ErrUnknownTarget
	}
	r.mu.RLock()
	handler, ok := r.handlers[target]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTarget, hex.EncodeToString(target[:]))
	}
	return handler.HandleCall(from, value, data)
}

// CallEnvelope is the JSON calldata format understood by module handlers.
type CallEnvelope struct {
	Method string            `json:"method"`
	Params map[string]string `json:"params,omitempty"`
}
