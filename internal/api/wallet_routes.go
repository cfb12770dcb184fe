package api

import (
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
)

type createWalletRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleCreateWallet(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req createWalletRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.deps.Guardian.WalletCreateCheck(r.Context(), userID); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	account, err := s.deps.Factory.Create(req.Name)
	if err != nil {
		fmt.Printf("Error creating wallet for user %d: %v\n", userID, err)
		writeError(w, http.StatusInternalServerError, "failed to create wallet")
		return
	}

	wlt, err := s.walletRepo.Create(r.Context(), userID, req.Name, account.Address, account.EncryptedKey)
	if err != nil {
		fmt.Printf("Error storing wallet for user %d: %v\n", userID, err)
		writeError(w, http.StatusInternalServerError, "failed to store wallet")
		return
	}
	writeJSON(w, http.StatusCreated, wlt)
}

type importWalletRequest struct {
	Name       string `json:"name"`
	PrivateKey string `json:"privateKey"`
}

func (s *Server) handleImportWallet(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req importWalletRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.deps.Guardian.WalletCreateCheck(r.Context(), userID); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	account, err := s.deps.Factory.Import(req.PrivateKey, req.Name)
	if err != nil {
		writeAppError(w, err)
		return
	}

	wlt, err := s.walletRepo.Create(r.Context(), userID, req.Name, account.Address, account.EncryptedKey)
	if err != nil {
		fmt.Printf("Error storing wallet for user %d: %v\n", userID, err)
		writeError(w, http.StatusInternalServerError, "failed to store wallet")
		return
	}
	writeJSON(w, http.StatusCreated, wlt)
}

func (s *Server) handleListWallets(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	wallets, err := s.walletRepo.ByUser(r.Context(), userID)
	if err != nil {
		fmt.Printf("Error listing wallets for user %d: %v\n", userID, err)
		writeError(w, http.StatusInternalServerError, "failed to list wallets")
		return
	}
	writeJSON(w, http.StatusOK, wallets)
}

func (s *Server) handleSetDefaultWallet(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	walletID, err := pathID(r, "walletID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// The wallet must exist and belong to the user.
	wlt, err := s.walletRepo.Get(r.Context(), walletID)
	if err != nil || wlt.UserID != userID {
		writeError(w, http.StatusNotFound, "wallet not found")
		return
	}

	if err := s.userRepo.SetDefaultWallet(r.Context(), userID, walletID); err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"defaultWalletId": walletID})
}

func (s *Server) handleDeactivateWallet(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	walletID, err := pathID(r, "walletID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.walletRepo.Deactivate(r.Context(), userID, walletID); err != nil {
		writeError(w, http.StatusNotFound, "wallet not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type balanceResponse struct {
	Address string  `json:"address"`
	Native  string  `json:"native"`
	Token   *string `json:"token,omitempty"`
}

func (s *Server) handleWalletBalance(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	walletID, err := pathID(r, "walletID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	wlt, err := s.walletRepo.Get(r.Context(), walletID)
	if err != nil || wlt.UserID != userID {
		writeError(w, http.StatusNotFound, "wallet not found")
		return
	}

	owner := common.HexToAddress(wlt.Address)
	native, err := s.deps.Chain.GetBalance(r.Context(), owner)
	if err != nil {
		fmt.Printf("Error fetching balance for wallet %d: %v\n", walletID, err)
		writeError(w, http.StatusBadGateway, "failed to fetch balance")
		return
	}

	resp := balanceResponse{Address: wlt.Address, Native: native.String()}

	if tokenAddr := r.URL.Query().Get("token"); tokenAddr != "" {
		if !common.IsHexAddress(tokenAddr) {
			writeError(w, http.StatusBadRequest, "invalid token address")
			return
		}
		bal, err := s.deps.Chain.TokenBalance(r.Context(), common.HexToAddress(tokenAddr), owner)
		if err != nil {
			fmt.Printf("Error fetching token balance for wallet %d: %v\n", walletID, err)
			writeError(w, http.StatusBadGateway, "failed to fetch token balance")
			return
		}
		t := bal.String()
		resp.Token = &t
	}
	writeJSON(w, http.StatusOK, resp)
}
