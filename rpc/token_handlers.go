package rpc

import (
	"net/http"
)

type tokenAccountParams struct {
	Account string `json:"account"`
}

type tokenTransferParams struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type tokenApproveParams struct {
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
	Amount  string `json:"amount"`
}

type tokenBalanceResult struct {
	Account string `json:"account"`
	Balance string `json:"balance"`
}

type tokenTransferResult struct {
	NetReceived string `json:"netReceived"`
}

type treasuryCategoryStatus struct {
	Category  string `json:"category"`
	Allocated string `json:"allocated"`
	Spent     string `json:"spent"`
}

type treasuryStatusResult struct {
	Balance     string                   `json:"balance"`
	Unallocated string                   `json:"unallocated"`
	Categories  []treasuryCategoryStatus `json:"categories"`
}

func (s *Server) handleTokenGetBalance(w http.ResponseWriter, req *RPCRequest) {
	var params tokenAccountParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	account, err := decodeBech32(params.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid account address", err.Error())
		return
	}
	balance, err := s.token.BalanceOf(account)
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, tokenBalanceResult{
		Account: encodeBech32(account),
		Balance: balance.String(),
	})
}

func (s *Server) handleTokenGetSupply(w http.ResponseWriter, req *RPCRequest) {
	supply, err := s.token.TotalSupply()
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"totalSupply": supply.String()})
}

func (s *Server) handleTokenTransfer(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params tokenTransferParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	from, err := decodeBech32(params.From)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid from address", err.Error())
		return
	}
	to, err := decodeBech32(params.To)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid to address", err.Error())
		return
	}
	amount, err := parsePositiveAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	net, err := s.token.Transfer(from, to, amount)
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, tokenTransferResult{NetReceived: net.String()})
}

func (s *Server) handleTokenApprove(w http.ResponseWriter, r *http.Request, req *RPCRequest) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	var params tokenApproveParams
	if rpcErr := decodeParams(req, &params); rpcErr != nil {
		writeError(w, http.StatusBadRequest, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	owner, err := decodeBech32(params.Owner)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid owner address", err.Error())
		return
	}
	spender, err := decodeBech32(params.Spender)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid spender address", err.Error())
		return
	}
	amount, err := parsePositiveAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.token.Approve(owner, spender, amount); err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleTreasuryGetStatus(w http.ResponseWriter, req *RPCRequest) {
	balance, err := s.treasury.Balance()
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	free, err := s.treasury.Unallocated()
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	categories, err := s.treasury.Categories()
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	statuses := make([]treasuryCategoryStatus, 0, len(categories))
	for _, name := range categories {
		allocated, err := s.treasury.Allocation(name)
		if err != nil {
			s.writeEngineError(w, req.ID, err)
			return
		}
		spent, err := s.treasury.Spent(name)
		if err != nil {
			s.writeEngineError(w, req.ID, err)
			return
		}
		statuses = append(statuses, treasuryCategoryStatus{
			Category:  name,
			Allocated: allocated.String(),
			Spent:     spent.String(),
		})
	}
	writeResult(w, req.ID, treasuryStatusResult{
		Balance:     balance.String(),
		Unallocated: free.String(),
		Categories:  statuses,
	})
}
