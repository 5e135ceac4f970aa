package rpc

import (
	"math/big"
	"net/http"

	"wagmi/native/staking"
)

type stakingStakeParams struct {
	From      string `json:"from"`
	Amount    string `json:"amount"`
	PlanIndex uint64 `json:"planIndex"`
}

type stakingWithdrawParams struct {
	From          string `json:"from"`
	PositionIndex uint64 `json:"positionIndex"`
}

type stakingFundParams struct {
	From   string `json:"from"`
	Amount string `json:"amount"`
}

type stakingAccountParams struct {
	Account string `json:"account"`
	Ref     uint64 `json:"ref,omitempty"`
}

type stakingStakeResult struct {
	PositionIndex uint64 `json:"positionIndex"`
}

type stakingPositionsResult struct {
	Account    string                 `json:"account"`
	TotalStake string                 `json:"totalStake"`
	Positions  []staking.PositionInfo `json:"positions"`
}

type stakingVotingPowerResult struct {
	Account string `json:"account"`
	Power   string `json:"power"`
	Ref     uint64 `json:"ref"`
}

type stakingPoolStatusResult struct {
	RewardPool  string `json:"rewardPool"`
	TotalStaked string `json:"totalStaked"`
}

func (s *Server) handleStakingStake(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params stakingStakeParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	from, err := decodeBech32(params.From)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid from address", err.Error())
		return
	}
	amount, err := parsePositiveAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	index, err := s.staking.Stake(from, amount, params.PlanIndex)
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, stakingStakeResult{PositionIndex: index})
}

func (s *Server) handleStakingWithdraw(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params stakingWithdrawParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	from, err := decodeBech32(params.From)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid from address", err.Error())
		return
	}
	if err := s.staking.Withdraw(from, params.PositionIndex); err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleStakingAddRewardPool(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params stakingFundParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	from, err := decodeBech32(params.From)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid from address", err.Error())
		return
	}
	amount, err := parsePositiveAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.staking.AddRewardPool(from, amount); err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleStakingGetPositions(w http.ResponseWriter, req *RPCRequest) {
	var params stakingAccountParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	account, err := decodeBech32(params.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid account address", err.Error())
		return
	}
	positions, err := s.staking.Positions(account)
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	total, err := s.staking.UserTotalStake(account)
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, stakingPositionsResult{
		Account:    encodeBech32(account),
		TotalStake: total.String(),
		Positions:  positions,
	})
}

func (s *Server) handleStakingGetVotingPower(w http.ResponseWriter, req *RPCRequest) {
	var params stakingAccountParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	account, err := decodeBech32(params.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid account address", err.Error())
		return
	}
	var power *big.Int
	if params.Ref == 0 {
		power, err = s.staking.VotingPower(account)
	} else {
		power, err = s.staking.VotingPowerAt(account, params.Ref)
	}
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, stakingVotingPowerResult{
		Account: encodeBech32(account),
		Power:   power.String(),
		Ref:     params.Ref,
	})
}

func (s *Server) handleStakingGetPoolStatus(w http.ResponseWriter, req *RPCRequest) {
	pool, err := s.staking.RewardPool()
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	total, err := s.staking.TotalStaked()
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, stakingPoolStatusResult{
		RewardPool:  pool.String(),
		TotalStaked: total.String(),
	})
}

func (s *Server) handleStakingGetPlans(w http.ResponseWriter, req *RPCRequest) {
	writeResult(w, req.ID, s.staking.Plans())
}
