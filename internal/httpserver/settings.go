package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/assistantd/assistantd/internal/contextmodel"
)

type interruptionModeRequest struct {
	Mode string `json:"mode"`
}

type interruptionModeResponse struct {
	Mode                     string `json:"mode"`
	AttentionBudgetRemaining int    `json:"attention_budget_remaining"`
	UserState                string `json:"user_state"`
}

func (s *Server) handleInterruptionMode(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodGet:
		snap := s.ctx.Get()
		writeJSON(w, http.StatusOK, interruptionModeResponse{
			Mode:                     snap.InterruptionMode.String(),
			AttentionBudgetRemaining: snap.AttentionBudgetRemaining,
			UserState:                snap.UserState.String(),
		})
	case http.MethodPut:
		var req interruptionModeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "malformed payload", http.StatusBadRequest)
			return
		}
		mode, err := contextmodel.ParseInterruptionMode(req.Mode)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		s.ctx.SetInterruptionMode(mode)
		s.persistProfile(func(p *profileUpdate) { p.InterruptionMode = &mode })

		snap := s.ctx.Get()
		writeJSON(w, http.StatusOK, interruptionModeResponse{
			Mode:                     snap.InterruptionMode.String(),
			AttentionBudgetRemaining: snap.AttentionBudgetRemaining,
			UserState:                snap.UserState.String(),
		})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type captureModeRequest struct {
	Mode string `json:"mode"`
}

type captureModeResponse struct {
	Mode string `json:"mode"`
}

func (s *Server) handleCaptureMode(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodGet:
		snap := s.ctx.Get()
		writeJSON(w, http.StatusOK, captureModeResponse{Mode: snap.CaptureMode.String()})
	case http.MethodPut:
		var req captureModeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "malformed payload", http.StatusBadRequest)
			return
		}
		mode, err := contextmodel.ParseCaptureMode(req.Mode)
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		s.ctx.SetCaptureMode(mode)
		s.persistProfile(func(p *profileUpdate) { p.CaptureMode = &mode })

		writeJSON(w, http.StatusOK, captureModeResponse{Mode: mode.String()})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
