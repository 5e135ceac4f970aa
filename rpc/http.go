package rpc

import (
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"wagmi/crypto"
	"wagmi/native/governance"
	"wagmi/native/staking"
	"wagmi/native/timelock"
	"wagmi/native/token"
	"wagmi/native/treasury"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
	codeRateLimited    = -32020
)

// ServerConfig carries the RPC server's runtime settings.
type ServerConfig struct {
	// AuthToken guards mutating methods when set. Empty disables the
	// privileged surface entirely.
	AuthToken string
	// RateLimitPerSecond bounds request throughput; zero disables limiting.
	RateLimitPerSecond float64
	// RateLimitBurst is the token bucket depth when limiting is enabled.
	RateLimitBurst int
}

// Server exposes the module engines over JSON-RPC 2.0.
type Server struct {
	staking    *staking.Engine
	governance *governance.Engine
	timelock   *timelock.Controller
	token      *token.Engine
	treasury   *treasury.Engine

	logger    *slog.Logger
	authToken string
	limiter   *rate.Limiter
}

// NewServer wires the engines into an RPC server.
func NewServer(stakingEngine *staking.Engine, governanceEngine *governance.Engine, timelockController *timelock.Controller, tokenEngine *token.Engine, treasuryEngine *treasury.Engine, logger *slog.Logger, cfg ServerConfig) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	server := &Server{
		staking:    stakingEngine,
		governance: governanceEngine,
		timelock:   timelockController,
		token:      tokenEngine,
		treasury:   treasuryEngine,
		logger:     logger.With("component", "rpc"),
		authToken:  strings.TrimSpace(cfg.AuthToken),
	}
	if cfg.RateLimitPerSecond > 0 {
		burst := cfg.RateLimitBurst
		if burst <= 0 {
			burst = int(cfg.RateLimitPerSecond) + 1
		}
		server.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), burst)
	}
	return server
}

// Router mounts the RPC endpoint alongside health and metrics handlers.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/rpc", s.handle)
	return r
}

// RPCRequest is a JSON-RPC 2.0 request with positional parameter objects.
type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
}

// RPCResponse is a JSON-RPC 2.0 response envelope.
type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

// RPCError is the JSON-RPC error object.
type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	w.Header().Set("Content-Type", "application/json")
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	_ = json.NewEncoder(w).Encode(RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj})
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result})
}

func (s *Server) requireAuth(r *http.Request) *RPCError {
	if s.authToken == "" {
		return &RPCError{Code: codeUnauthorized, Message: "privileged methods disabled"}
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return &RPCError{Code: codeUnauthorized, Message: "missing bearer token"}
	}
	presented := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if subtle.ConstantTimeCompare([]byte(presented), []byte(s.authToken)) != 1 {
		return &RPCError{Code: codeUnauthorized, Message: "invalid bearer token"}
	}
	return nil
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if s.limiter != nil && !s.limiter.Allow() {
		writeError(w, http.StatusTooManyRequests, nil, codeRateLimited, "rate limit exceeded", nil)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "failed to read request body", nil)
		return
	}
	var req RPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", nil)
		return
	}
	method := strings.TrimSpace(req.Method)
	if method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method is required", nil)
		return
	}

	switch method {
	case "staking_stake":
		s.handleStakingStake(w, r, &req)
	case "staking_withdraw":
		s.handleStakingWithdraw(w, r, &req)
	case "staking_addRewardPool":
		s.handleStakingAddRewardPool(w, r, &req)
	case "staking_getPositions":
		s.handleStakingGetPositions(w, &req)
	case "staking_getVotingPower":
		s.handleStakingGetVotingPower(w, &req)
	case "staking_getPoolStatus":
		s.handleStakingGetPoolStatus(w, &req)
	case "staking_getPlans":
		s.handleStakingGetPlans(w, &req)
	case "gov_propose":
		s.handleGovernancePropose(w, r, &req)
	case "gov_vote":
		s.handleGovernanceVote(w, r, &req)
	case "gov_finalize":
		s.handleGovernanceFinalize(w, r, &req)
	case "gov_queue":
		s.handleGovernanceQueue(w, r, &req)
	case "gov_execute":
		s.handleGovernanceExecute(w, r, &req)
	case "gov_cancel":
		s.handleGovernanceCancel(w, r, &req)
	case "gov_getProposal":
		s.handleGovernanceGetProposal(w, &req)
	case "timelock_getOperation":
		s.handleTimelockGetOperation(w, &req)
	case "timelock_minDelay":
		s.handleTimelockMinDelay(w, &req)
	case "token_getBalance":
		s.handleTokenGetBalance(w, &req)
	case "token_getSupply":
		s.handleTokenGetSupply(w, &req)
	case "token_transfer":
		s.handleTokenTransfer(w, r, &req)
	case "token_approve":
		s.handleTokenApprove(w, r, &req)
	case "treasury_getStatus":
		s.handleTreasuryGetStatus(w, &req)
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("method %q not found", method), nil)
	}
}

func decodeParams(req *RPCRequest, out interface{}) *RPCError {
	if len(req.Params) != 1 {
		return &RPCError{Code: codeInvalidParams, Message: "exactly one parameter object expected"}
	}
	if err := json.Unmarshal(req.Params[0], out); err != nil {
		return &RPCError{Code: codeInvalidParams, Message: "invalid parameter object", Data: err.Error()}
	}
	return nil
}

func decodeBech32(value string) ([20]byte, error) {
	var out [20]byte
	addr, err := crypto.DecodeAddress(strings.TrimSpace(value))
	if err != nil {
		return out, err
	}
	copy(out[:], addr.Bytes())
	return out, nil
}

func encodeBech32(addr [20]byte) string {
	return crypto.NewAddress(crypto.WagmiPrefix, append([]byte(nil), addr[:]...)).String()
}

func parsePositiveAmount(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, errors.New("amount is required")
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, errors.New("invalid amount")
	}
	if amount.Sign() <= 0 {
		return nil, errors.New("amount must be positive")
	}
	return amount, nil
}

func parseProposalID(value string) ([32]byte, error) {
	var id [32]byte
	trimmed := strings.TrimPrefix(strings.TrimSpace(value), "0x")
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return id, fmt.Errorf("invalid id: %w", err)
	}
	if len(decoded) != len(id) {
		return id, fmt.Errorf("invalid id length %d", len(decoded))
	}
	copy(id[:], decoded)
	return id, nil
}

func encodeID(id [32]byte) string {
	return "0x" + hex.EncodeToString(id[:])
}

func (s *Server) writeEngineError(w http.ResponseWriter, id interface{}, err error) {
	s.logger.Warn("rpc call rejected", "error", err)
	writeError(w, http.StatusOK, id, codeServerError, err.Error(), nil)
}
