package httpapi

import (
	"net/http"
	"time"

	"github.com/brandloom/brandloom/internal/platform/httpx"
	"github.com/brandloom/brandloom/internal/services/approvals/domain"
)

type activityResponse struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Status          string          `json:"status"`
	Progress        int             `json:"progress"`
	ProgressMessage string          `json:"progress_message,omitempty"`
	StartedAt       *time.Time      `json:"started_at,omitempty"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
	DurationMillis  *int64          `json:"duration_ms,omitempty"`
	ResultJSON      string          `json:"result_json,omitempty"`
	ErrorMessage    string          `json:"error_message,omitempty"`
	ErrorCode       string          `json:"error_code,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Steps           []stepResponse  `json:"steps,omitempty"`
}

type stepResponse struct {
	ID           string     `json:"id"`
	StepIndex    int        `json:"step_index"`
	Title        string     `json:"title"`
	Status       string     `json:"status"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	ResultJSON   string     `json:"result_json,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
}

type createActivityRequest struct {
	UserID     string   `json:"user_id"`
	Title      string   `json:"title"`
	StepTitles []string `json:"step_titles"`
}

type progressStepRequest struct {
	StepID       string `json:"step_id"`
	Status       string `json:"status"`
	ResultJSON   string `json:"result_json"`
	ErrorMessage string `json:"error_message"`
}

type progressRequest struct {
	Status       string                `json:"status"`
	Progress     *int                  `json:"progress"`
	Message      string                `json:"message"`
	ResultJSON   string                `json:"result_json"`
	ErrorMessage string                `json:"error_message"`
	ErrorCode    string                `json:"error_code"`
	Steps        []progressStepRequest `json:"steps"`
}

func toActivityResponse(activity domain.Activity, steps []domain.ActivityStep) activityResponse {
	resp := activityResponse{
		ID:              activity.ID,
		Title:           activity.Title,
		Status:          activity.Status,
		Progress:        activity.Progress,
		ProgressMessage: activity.ProgressMessage,
		StartedAt:       activity.StartedAt,
		CompletedAt:     activity.CompletedAt,
		DurationMillis:  activity.DurationMillis,
		ResultJSON:      activity.ResultJSON,
		ErrorMessage:    activity.ErrorMessage,
		ErrorCode:       activity.ErrorCode,
		CreatedAt:       activity.CreatedAt,
		UpdatedAt:       activity.UpdatedAt,
	}
	for _, step := range steps {
		resp.Steps = append(resp.Steps, stepResponse{
			ID:           step.ID,
			StepIndex:    step.StepIndex,
			Title:        step.Title,
			Status:       step.Status,
			StartedAt:    step.StartedAt,
			CompletedAt:  step.CompletedAt,
			ResultJSON:   step.ResultJSON,
			ErrorMessage: step.ErrorMessage,
		})
	}
	return resp
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	identity, err := h.requireUser(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	activities, err := h.svc.ListActivities(r.Context(), identity.UserID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	responses := make([]activityResponse, 0, len(activities))
	for _, activity := range activities {
		responses = append(responses, toActivityResponse(activity, nil))
	}
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]any{"activities": responses})
}

func (h *Handler) getActivity(w http.ResponseWriter, r *http.Request) {
	identity, err := h.requireUser(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	view, err := h.svc.GetActivity(r.Context(), identity.UserID, r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, toActivityResponse(view.Activity, view.Steps))
}

func (h *Handler) pauseActivity(w http.ResponseWriter, r *http.Request) {
	identity, err := h.requireUser(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	activity, err := h.svc.PauseActivity(r.Context(), identity.UserID, r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, toActivityResponse(activity, nil))
}

func (h *Handler) retryActivity(w http.ResponseWriter, r *http.Request) {
	identity, err := h.requireUser(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	view, err := h.svc.RetryActivity(r.Context(), identity.UserID, r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, toActivityResponse(view.Activity, view.Steps))
}

func (h *Handler) createActivity(w http.ResponseWriter, r *http.Request) {
	if _, err := h.requireOrchestrator(r); err != nil {
		httpx.WriteError(w, err)
		return
	}
	var req createActivityRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, err)
		return
	}
	view, err := h.svc.CreateActivity(r.Context(), domain.CreateActivityInput{
		UserID:     req.UserID,
		Title:      req.Title,
		StepTitles: req.StepTitles,
	})
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusCreated, toActivityResponse(view.Activity, view.Steps))
}

func (h *Handler) getActivityInternal(w http.ResponseWriter, r *http.Request) {
	if _, err := h.requireOrchestrator(r); err != nil {
		httpx.WriteError(w, err)
		return
	}
	view, err := h.svc.GetActivityAny(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, toActivityResponse(view.Activity, view.Steps))
}

func (h *Handler) reportProgress(w http.ResponseWriter, r *http.Request) {
	if _, err := h.requireOrchestrator(r); err != nil {
		httpx.WriteError(w, err)
		return
	}
	var req progressRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, err)
		return
	}
	report := domain.ProgressReport{
		ActivityID:   r.PathValue("id"),
		Status:       req.Status,
		Progress:     req.Progress,
		Message:      req.Message,
		ResultJSON:   req.ResultJSON,
		ErrorMessage: req.ErrorMessage,
		ErrorCode:    req.ErrorCode,
	}
	for _, step := range req.Steps {
		report.Steps = append(report.Steps, domain.StepProgress{
			StepID:       step.StepID,
			Status:       step.Status,
			ResultJSON:   step.ResultJSON,
			ErrorMessage: step.ErrorMessage,
		})
	}
	view, err := h.svc.ReportProgress(r.Context(), report)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, toActivityResponse(view.Activity, view.Steps))
}
