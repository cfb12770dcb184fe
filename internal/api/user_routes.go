package api

import (
	"fmt"
	"net/http"

	"github.com/nadbot/dexbot-backend/internal/trade"
)

type registerUserRequest struct {
	Username  *string `json:"username"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

func (s *Server) handleRegisterUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req registerUserRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	u, err := s.userRepo.GetOrCreate(r.Context(), userID, req.Username, req.FirstName, req.LastName)
	if err != nil {
		fmt.Printf("Error registering user %d: %v\n", userID, err)
		writeError(w, http.StatusInternalServerError, "failed to register user")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	u, err := s.userRepo.Get(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type slippageRequest struct {
	Percent float64 `json:"percent"`
}

func (s *Server) handleSetSlippage(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req slippageRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := trade.ValidateSlippage(req.Percent); err != nil {
		writeAppError(w, err)
		return
	}

	if err := s.userRepo.SetSlippage(r.Context(), userID, req.Percent); err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"slippagePercent": req.Percent})
}
