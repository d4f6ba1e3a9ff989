package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"essaycron/internal/core"

	"github.com/go-chi/chi/v5"
)

type createScheduleRequest struct {
	Name      string `json:"name"`
	Frequency string `json:"frequency"`
	Time      string `json:"time"`
	Weekday   string `json:"weekday"`
	DaySpec   string `json:"day_spec"`
	Theme     string `json:"theme"`
	Context   string `json:"context"`
	FileList  string `json:"file_list"`
	Lang      string `json:"lang"`
}

type scheduleResponse struct {
	Name        string  `json:"name"`
	Status      string  `json:"status,omitempty"`
	Frequency   string  `json:"frequency,omitempty"`
	Time        string  `json:"time,omitempty"`
	Weekday     string  `json:"weekday,omitempty"`
	DaySpec     string  `json:"day_spec,omitempty"`
	MonthlyType string  `json:"monthly_type,omitempty"`
	Theme       string  `json:"theme,omitempty"`
	Context     string  `json:"context,omitempty"`
	FileList    string  `json:"file_list,omitempty"`
	Lang        string  `json:"lang,omitempty"`
	Created     string  `json:"created,omitempty"`
	NextRunAt   *string `json:"next_run_at,omitempty"`
}

type createScheduleResponse struct {
	Schedule   scheduleResponse `json:"schedule"`
	Command    string           `json:"command"`
	RunnerPath string           `json:"runner_path,omitempty"`
}

type removeScheduleResponse struct {
	Name             string `json:"name"`
	Found            bool   `json:"found"`
	SchedulerRemoved bool   `json:"scheduler_removed"`
	RunnerRemoved    bool   `json:"runner_removed"`
}

type previewRequest struct {
	Frequency string `json:"frequency"`
	Time      string `json:"time"`
	Weekday   string `json:"weekday"`
	DaySpec   string `json:"day_spec"`
	Count     int    `json:"count,omitempty"`
}

type previewResponse struct {
	Valid     bool     `json:"valid"`
	Runner    bool     `json:"runner,omitempty"`
	NextTimes []string `json:"next_times,omitempty"`
	Message   string   `json:"message,omitempty"`
}

func (s *Server) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req createScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}
	res, err := s.scheduler.Add(r.Context(), core.ScheduleRequest{
		Name:      req.Name,
		Frequency: req.Frequency,
		Time:      req.Time,
		Weekday:   req.Weekday,
		DaySpec:   req.DaySpec,
		Theme:     req.Theme,
		Context:   req.Context,
		FileList:  req.FileList,
		Lang:      req.Lang,
	})
	if err != nil {
		s.writeServiceError(w, "add schedule", err)
		return
	}
	schedule := entryToResponse(res.Entry)
	schedule.Status = string(core.StatusActive)
	schedule.NextRunAt = formatTime(res.NextRun)
	writeJSON(w, http.StatusCreated, createScheduleResponse{
		Schedule:   schedule,
		Command:    res.Command,
		RunnerPath: res.RunnerPath,
	})
}

func (s *Server) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	listed, err := s.scheduler.List(r.Context())
	if err != nil {
		s.writeServiceError(w, "list schedules", err)
		return
	}
	resp := make([]scheduleResponse, 0, len(listed))
	for _, item := range listed {
		out := scheduleResponse{Name: item.Name}
		if item.Entry != nil {
			out = entryToResponse(*item.Entry)
		}
		out.Status = string(item.Status)
		out.NextRunAt = formatTime(item.NextRun)
		resp = append(resp, out)
	}
	writeJSON(w, http.StatusOK, map[string]any{"schedules": resp})
}

func (s *Server) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	res, err := s.scheduler.Remove(r.Context(), name)
	if err != nil {
		s.writeServiceError(w, "remove schedule", err)
		return
	}
	if !res.Found && !res.SchedulerRemoved && !res.RunnerRemoved {
		writeError(w, http.StatusNotFound, "not_found", "schedule not found")
		return
	}
	writeJSON(w, http.StatusOK, removeScheduleResponse{
		Name:             res.Name,
		Found:            res.Found,
		SchedulerRemoved: res.SchedulerRemoved,
		RunnerRemoved:    res.RunnerRemoved,
	})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, previewResponse{Valid: false, Message: "invalid JSON payload"})
		return
	}
	count := req.Count
	if count <= 0 || count > 10 {
		count = 5
	}
	pattern, times, err := s.scheduler.Preview(req.Frequency, req.Time, req.Weekday, req.DaySpec, count)
	if err != nil {
		writeJSON(w, http.StatusOK, previewResponse{Valid: false, Message: err.Error()})
		return
	}
	formatted := make([]string, 0, len(times))
	for _, t := range times {
		formatted = append(formatted, t.Format(time.RFC3339))
	}
	writeJSON(w, http.StatusOK, previewResponse{
		Valid:     true,
		Runner:    !s.scheduler.Native(pattern),
		NextTimes: formatted,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, "history_unavailable", "history journal is not open")
		return
	}
	limit := parseIntDefault(r.URL.Query().Get("limit"), 20)
	events, err := s.history.List(r.Context(), limit)
	if err != nil {
		s.logger.Error("list history", "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to load history")
		return
	}
	type eventResponse struct {
		ID        string `json:"id"`
		Kind      string `json:"kind"`
		TaskName  string `json:"task_name,omitempty"`
		Detail    string `json:"detail,omitempty"`
		CreatedAt string `json:"created_at"`
	}
	resp := make([]eventResponse, 0, len(events))
	for _, ev := range events {
		resp = append(resp, eventResponse{
			ID:        ev.ID,
			Kind:      string(ev.Kind),
			TaskName:  ev.TaskName,
			Detail:    ev.Detail,
			CreatedAt: ev.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": resp})
}

func entryToResponse(e core.ScheduleEntry) scheduleResponse {
	return scheduleResponse{
		Name:        e.Name,
		Frequency:   e.Frequency,
		Time:        e.Time,
		Weekday:     e.Weekday,
		DaySpec:     e.DaySpec,
		MonthlyType: e.MonthlyType,
		Theme:       e.Theme,
		Context:     e.Context,
		FileList:    e.FileList,
		Lang:        e.Lang,
		Created:     e.Created,
	}
}

// writeServiceError maps orchestrator errors onto HTTP status codes.
func (s *Server) writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidPattern):
		writeError(w, http.StatusBadRequest, "invalid_pattern", err.Error())
	case errors.Is(err, core.ErrValidation):
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, core.ErrScheduler):
		s.logger.Error(op, "err", err)
		writeError(w, http.StatusInternalServerError, "scheduler_error", err.Error())
	default:
		s.logger.Error(op, "err", err)
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func parseIntDefault(value string, def int) int {
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	payload := map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	}
	writeJSON(w, status, payload)
}
