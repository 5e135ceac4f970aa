package rpc

import (
	"encoding/base64"
	"math/big"
	"net/http"
	"strings"

	"wagmi/native/governance"
)

type govActionParam struct {
	Target string `json:"target"`
	Value  string `json:"value,omitempty"`
	Data   string `json:"data"`
}

type govProposeParams struct {
	From        string           `json:"from"`
	Actions     []govActionParam `json:"actions"`
	Description string           `json:"description"`
}

type govVoteParams struct {
	ID     string `json:"id"`
	From   string `json:"from"`
	Choice string `json:"choice"`
}

type govIDParams struct {
	ID string `json:"id"`
}

type govCancelParams struct {
	ID   string `json:"id"`
	From string `json:"from"`
}

type govProposeResult struct {
	ProposalID string `json:"proposalId"`
}

type govFinalizeResult struct {
	Status string            `json:"status"`
	Tally  *governance.Tally `json:"tally"`
}

type govProposalResult struct {
	Proposal *governance.Proposal `json:"proposal"`
}

type timelockOperationResult struct {
	State   string `json:"state"`
	ReadyAt uint64 `json:"readyAt"`
}

func decodeActionData(raw string) ([]byte, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	// Calldata is a JSON call envelope; accept it inline or base64-wrapped.
	if strings.HasPrefix(trimmed, "{") {
		return []byte(trimmed), nil
	}
	return base64.StdEncoding.DecodeString(trimmed)
}

func (s *Server) handleGovernancePropose(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params govProposeParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	proposer, err := decodeBech32(params.From)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid from address", err.Error())
		return
	}
	if len(params.Actions) == 0 {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "at least one action required", nil)
		return
	}
	targets := make([][20]byte, len(params.Actions))
	values := make([]*big.Int, len(params.Actions))
	calldatas := make([][]byte, len(params.Actions))
	for i, action := range params.Actions {
		target, err := decodeBech32(action.Target)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid action target", err.Error())
			return
		}
		value := big.NewInt(0)
		if strings.TrimSpace(action.Value) != "" {
			parsed, ok := new(big.Int).SetString(strings.TrimSpace(action.Value), 10)
			if !ok || parsed.Sign() < 0 {
				writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid action value", nil)
				return
			}
			value = parsed
		}
		data, err := decodeActionData(action.Data)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid action data", err.Error())
			return
		}
		targets[i] = target
		values[i] = value
		calldatas[i] = data
	}
	id, err := s.governance.Propose(proposer, targets, values, calldatas, params.Description)
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, govProposeResult{ProposalID: encodeID(id)})
}

func (s *Server) handleGovernanceVote(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params govVoteParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	id, err := parseProposalID(params.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	voter, err := decodeBech32(params.From)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid from address", err.Error())
		return
	}
	if err := s.governance.CastVote(id, voter, params.Choice); err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleGovernanceFinalize(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params govIDParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	id, err := parseProposalID(params.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	status, tally, err := s.governance.Finalize(id)
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, govFinalizeResult{Status: status.String(), Tally: tally})
}

func (s *Server) handleGovernanceQueue(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params govIDParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	id, err := parseProposalID(params.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.governance.Queue(id); err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleGovernanceExecute(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params govIDParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	id, err := parseProposalID(params.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.governance.Execute(id); err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleGovernanceCancel(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params govCancelParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	id, err := parseProposalID(params.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	caller, err := decodeBech32(params.From)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid from address", err.Error())
		return
	}
	if err := s.governance.Cancel(caller, id); err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleGovernanceGetProposal(w http.ResponseWriter, req *RPCRequest) {
	var params govIDParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	id, err := parseProposalID(params.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	proposal, ok, err := s.governance.Proposal(id)
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	if !ok {
		s.writeEngineError(w, req.ID, governance.ErrProposalNotFound)
		return
	}
	writeResult(w, req.ID, govProposalResult{Proposal: proposal})
}

func (s *Server) handleTimelockGetOperation(w http.ResponseWriter, req *RPCRequest) {
	var params govIDParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	id, err := parseProposalID(params.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	state, err := s.timelock.OperationStateAt(id)
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	result := timelockOperationResult{State: state.String()}
	if readyAt, err := s.timelock.ReadyAt(id); err == nil {
		result.ReadyAt = readyAt
	}
	writeResult(w, req.ID, result)
}

func (s *Server) handleTimelockMinDelay(w http.ResponseWriter, req *RPCRequest) {
	delay, err := s.timelock.MinDelay()
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]uint64{"minDelay": delay})
}
