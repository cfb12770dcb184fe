package api

import (
	"fmt"
	"net/http"

	"github.com/nadbot/dexbot-backend/internal/models"
	"github.com/nadbot/dexbot-backend/internal/reveal"
)

func (s *Server) handleRevealRequest(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := s.userRepo.Get(r.Context(), userID); err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	state := s.deps.Gate.RequestReveal(r.Context(), userID)
	writeJSON(w, http.StatusOK, map[string]string{"state": string(state)})
}

type revealSubmitRequest struct {
	Password string `json:"password"`
	WalletID *int64 `json:"walletId"`
}

type revealSubmitResponse struct {
	State      string `json:"state"`
	Address    string `json:"address,omitempty"`
	PrivateKey string `json:"privateKey,omitempty"`
}

// handleRevealSubmit completes a reveal session. On success the response
// carries the decrypted key once; nothing is cached server-side.
func (s *Server) handleRevealSubmit(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req revealSubmitRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	state, err := s.deps.Gate.SubmitPassword(r.Context(), userID, req.Password)
	if err != nil {
		writeAppError(w, err)
		return
	}
	if state != reveal.StateRevealed {
		writeJSON(w, http.StatusOK, revealSubmitResponse{State: string(state)})
		return
	}

	wlt, err := s.revealTarget(r, userID, req.WalletID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	keyHex, err := s.deps.Factory.RevealHex(wlt.EncryptedKey)
	if err != nil {
		fmt.Printf("Error revealing key for wallet %d: %v\n", wlt.ID, err)
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, revealSubmitResponse{
		State:      string(state),
		Address:    wlt.Address,
		PrivateKey: keyHex,
	})
}

func (s *Server) revealTarget(r *http.Request, userID int64, walletID *int64) (*models.Wallet, error) {
	if walletID != nil {
		wlt, err := s.walletRepo.Get(r.Context(), *walletID)
		if err != nil || wlt.UserID != userID {
			return nil, fmt.Errorf("wallet not found")
		}
		return wlt, nil
	}
	wlt, err := s.walletRepo.DefaultWallet(r.Context(), userID)
	if err != nil {
		return nil, fmt.Errorf("user has no active wallet")
	}
	return wlt, nil
}
