// Package httpapi exposes the approvals engine over HTTP JSON.
//
// Two channels share one handler: the user channel authenticates with a
// Bearer token introspected against the identity service, the orchestration
// channel with an ed25519-signed service token scoped to "orchestrator".
package httpapi

import (
	"context"
	"log"
	"net/http"

	"github.com/brandloom/brandloom/internal/platform/httpx"
	"github.com/brandloom/brandloom/internal/services/approvals/domain"
)

const tracerName = "brandloom/approvals"

// Service is the domain surface the HTTP API depends on.
type Service interface {
	CreateActivity(ctx context.Context, input domain.CreateActivityInput) (domain.ActivityView, error)
	GetActivity(ctx context.Context, userID string, activityID string) (domain.ActivityView, error)
	GetActivityAny(ctx context.Context, activityID string) (domain.ActivityView, error)
	ListActivities(ctx context.Context, userID string) ([]domain.Activity, error)
	PauseActivity(ctx context.Context, userID string, activityID string) (domain.Activity, error)
	RetryActivity(ctx context.Context, userID string, activityID string) (domain.ActivityView, error)
	ReportProgress(ctx context.Context, report domain.ProgressReport) (domain.ActivityView, error)

	ProposeAction(ctx context.Context, input domain.ProposeActionInput) (domain.PendingActionView, error)
	ListPendingActions(ctx context.Context, orgID string, conversationID string) ([]domain.PendingActionView, error)
	GetPendingAction(ctx context.Context, orgID string, actionID string) (domain.PendingActionView, error)
	ApproveAction(ctx context.Context, input domain.ApproveInput) (domain.PendingActionView, error)
	RejectAction(ctx context.Context, input domain.RejectInput) (domain.PendingActionView, error)
	EditItem(ctx context.Context, input domain.EditItemInput) (domain.PendingActionView, error)
	SkipItem(ctx context.Context, orgID string, reviewerID string, itemID string) (domain.PendingActionView, error)
	RecordExecutionResult(ctx context.Context, input domain.ExecutionResultInput) (domain.ActionItem, error)
}

// Handler serves the approvals HTTP API.
type Handler struct {
	svc           Service
	introspector  Introspector
	serviceTokens ServiceTokenConfig
	logger        *log.Logger
}

// NewHandler constructs the approvals HTTP handler.
func NewHandler(svc Service, introspector Introspector, serviceTokens ServiceTokenConfig, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}
	return &Handler{
		svc:           svc,
		introspector:  introspector,
		serviceTokens: serviceTokens,
		logger:        logger,
	}
}

// Routes returns the full middleware-wrapped handler.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		_ = httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("GET /v1/activities", h.listActivities)
	mux.HandleFunc("GET /v1/activities/{id}", h.getActivity)
	mux.HandleFunc("POST /v1/activities/{id}/pause", h.pauseActivity)
	mux.HandleFunc("POST /v1/activities/{id}/retry", h.retryActivity)
	mux.HandleFunc("GET /v1/pending-actions", h.listPendingActions)
	mux.HandleFunc("GET /v1/pending-actions/{id}", h.getPendingAction)
	mux.HandleFunc("POST /v1/pending-actions/{id}/approve", h.approveAction)
	mux.HandleFunc("POST /v1/pending-actions/{id}/reject", h.rejectAction)
	mux.HandleFunc("POST /v1/pending-action-items/{id}/edit", h.editItem)
	mux.HandleFunc("POST /v1/pending-action-items/{id}/skip", h.skipItem)

	mux.HandleFunc("POST /internal/v1/activities", h.createActivity)
	mux.HandleFunc("GET /internal/v1/activities/{id}", h.getActivityInternal)
	mux.HandleFunc("POST /internal/v1/activities/{id}/progress", h.reportProgress)
	mux.HandleFunc("POST /internal/v1/pending-actions", h.proposeAction)
	mux.HandleFunc("POST /internal/v1/pending-action-items/{id}/execution-result", h.recordExecutionResult)

	return httpx.Chain(mux,
		httpx.RequestID(),
		httpx.RecoverPanic(),
		httpx.RequestLogger(h.logger),
		httpx.Trace(tracerName),
	)
}
