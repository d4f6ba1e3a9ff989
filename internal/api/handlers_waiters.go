package api

import (
	"encoding/json"
	"net/http"
	"time"

	"essaycron/internal/core"
)

type createWaiterRequest struct {
	Target   string `json:"target"`
	Theme    string `json:"theme"`
	Context  string `json:"context"`
	FileList string `json:"file_list"`
	Lang     string `json:"lang"`
}

type waiterResponse struct {
	PID          int    `json:"pid"`
	TargetTime   string `json:"target_time"`
	Theme        string `json:"theme"`
	RegisteredAt string `json:"registered_at,omitempty"`
	ScriptPath   string `json:"script_path,omitempty"`
	LogPath      string `json:"log_path,omitempty"`
}

func (s *Server) handleCreateWaiter(w http.ResponseWriter, r *http.Request) {
	var req createWaiterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}
	res, err := s.waiter.Wait(r.Context(), core.WaitRequest{
		Target:   req.Target,
		Theme:    req.Theme,
		Context:  req.Context,
		FileList: req.FileList,
		Lang:     req.Lang,
	})
	if err != nil {
		s.writeServiceError(w, "start waiter", err)
		return
	}
	writeJSON(w, http.StatusCreated, waiterResponse{
		PID:        res.PID,
		TargetTime: res.Target.Format(time.RFC3339),
		Theme:      req.Theme,
		ScriptPath: res.ScriptPath,
		LogPath:    res.LogPath,
	})
}

func (s *Server) handleListWaiters(w http.ResponseWriter, r *http.Request) {
	waiters, err := s.waiter.ListActive(r.Context())
	if err != nil {
		s.writeServiceError(w, "list waiters", err)
		return
	}
	resp := make([]waiterResponse, 0, len(waiters))
	for _, wt := range waiters {
		resp = append(resp, waiterResponse{
			PID:          wt.PID,
			TargetTime:   wt.TargetTime,
			Theme:        wt.Theme,
			RegisteredAt: wt.RegisteredAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"waiters": resp})
}
