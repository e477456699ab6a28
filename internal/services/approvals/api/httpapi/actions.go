package httpapi

import (
	"net/http"
	"time"

	"github.com/brandloom/brandloom/internal/platform/httpx"
	"github.com/brandloom/brandloom/internal/services/approvals/domain"
)

type actionResponse struct {
	ID                   string           `json:"id"`
	OrgID                string           `json:"org_id"`
	UserID               string           `json:"user_id"`
	Provider             string           `json:"provider"`
	ActionType           string           `json:"action_type"`
	ConversationID       string           `json:"conversation_id,omitempty"`
	AccountID            string           `json:"account_id,omitempty"`
	ItemCount            int              `json:"item_count"`
	Status               string           `json:"status"`
	ExpiresAt            time.Time        `json:"expires_at"`
	ApprovedBy           string           `json:"approved_by,omitempty"`
	ApprovedAt           *time.Time       `json:"approved_at,omitempty"`
	ReviewedAt           *time.Time       `json:"reviewed_at,omitempty"`
	ReviewReason         string           `json:"review_reason,omitempty"`
	ExecutionStartedAt   *time.Time       `json:"execution_started_at,omitempty"`
	ExecutionCompletedAt *time.Time       `json:"execution_completed_at,omitempty"`
	ItemsApproved        int              `json:"items_approved"`
	ItemsRejected        int              `json:"items_rejected"`
	ItemsExecuted        int              `json:"items_executed"`
	ItemsFailed          int              `json:"items_failed"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
	Items                []itemResponse   `json:"items,omitempty"`
	Account              *accountResponse `json:"account,omitempty"`
}

type itemResponse struct {
	ID                string     `json:"id"`
	ItemIndex         int        `json:"item_index"`
	PayloadJSON       string     `json:"payload_json"`
	EditedPayloadJSON string     `json:"edited_payload_json,omitempty"`
	Preview           string     `json:"preview,omitempty"`
	Status            string     `json:"status"`
	ExecutedAt        *time.Time `json:"executed_at,omitempty"`
	ResultJSON        string     `json:"result_json,omitempty"`
	ErrorMessage      string     `json:"error_message,omitempty"`
}

type accountResponse struct {
	ID          string `json:"id"`
	Provider    string `json:"provider"`
	DisplayName string `json:"display_name,omitempty"`
	Connected   bool   `json:"connected"`
	Available   bool   `json:"available"`
}

type proposeItemRequest struct {
	PayloadJSON string `json:"payload_json"`
	Preview     string `json:"preview"`
}

type proposeActionRequest struct {
	OrgID          string               `json:"org_id"`
	UserID         string               `json:"user_id"`
	Provider       string               `json:"provider"`
	ActionType     string               `json:"action_type"`
	ConversationID string               `json:"conversation_id"`
	AccountID      string               `json:"account_id"`
	TTLSeconds     int64                `json:"ttl_seconds"`
	Items          []proposeItemRequest `json:"items"`
}

type approveRequest struct {
	ItemIDs []string `json:"item_ids"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

type editItemRequest struct {
	Content string `json:"content"`
}

type executionResultRequest struct {
	Succeeded    bool   `json:"succeeded"`
	ResultJSON   string `json:"result_json"`
	ErrorMessage string `json:"error_message"`
}

func toActionResponse(view domain.PendingActionView) actionResponse {
	action := view.Action
	resp := actionResponse{
		ID:                   action.ID,
		OrgID:                action.OrgID,
		UserID:               action.UserID,
		Provider:             action.Provider,
		ActionType:           action.ActionType,
		ConversationID:       action.ConversationID,
		AccountID:            action.AccountID,
		ItemCount:            action.ItemCount,
		Status:               action.Status,
		ExpiresAt:            action.ExpiresAt,
		ApprovedBy:           action.ApprovedBy,
		ApprovedAt:           action.ApprovedAt,
		ReviewedAt:           action.ReviewedAt,
		ReviewReason:         action.ReviewReason,
		ExecutionStartedAt:   action.ExecutionStartedAt,
		ExecutionCompletedAt: action.ExecutionCompletedAt,
		ItemsApproved:        action.ItemsApproved,
		ItemsRejected:        action.ItemsRejected,
		ItemsExecuted:        action.ItemsExecuted,
		ItemsFailed:          action.ItemsFailed,
		CreatedAt:            action.CreatedAt,
		UpdatedAt:            action.UpdatedAt,
	}
	for _, item := range view.Items {
		resp.Items = append(resp.Items, toItemResponse(item))
	}
	if view.Account.ID != "" {
		resp.Account = &accountResponse{
			ID:          view.Account.ID,
			Provider:    view.Account.Provider,
			DisplayName: view.Account.DisplayName,
			Connected:   view.Account.Connected,
			Available:   view.Account.Available,
		}
	}
	return resp
}

func toItemResponse(item domain.ActionItem) itemResponse {
	return itemResponse{
		ID:                item.ID,
		ItemIndex:         item.ItemIndex,
		PayloadJSON:       item.PayloadJSON,
		EditedPayloadJSON: item.EditedPayloadJSON,
		Preview:           item.Preview,
		Status:            item.Status,
		ExecutedAt:        item.ExecutedAt,
		ResultJSON:        item.ResultJSON,
		ErrorMessage:      item.ErrorMessage,
	}
}

func (h *Handler) listPendingActions(w http.ResponseWriter, r *http.Request) {
	identity, err := h.requireUser(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	views, err := h.svc.ListPendingActions(r.Context(), identity.OrgID, r.URL.Query().Get("conversation_id"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	responses := make([]actionResponse, 0, len(views))
	for _, view := range views {
		responses = append(responses, toActionResponse(view))
	}
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]any{"pending_actions": responses})
}

func (h *Handler) getPendingAction(w http.ResponseWriter, r *http.Request) {
	identity, err := h.requireUser(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	view, err := h.svc.GetPendingAction(r.Context(), identity.OrgID, r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, toActionResponse(view))
}

func (h *Handler) approveAction(w http.ResponseWriter, r *http.Request) {
	identity, err := h.requireUser(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	var req approveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, err)
		return
	}
	view, err := h.svc.ApproveAction(r.Context(), domain.ApproveInput{
		OrgID:      identity.OrgID,
		ReviewerID: identity.UserID,
		ActionID:   r.PathValue("id"),
		ItemIDs:    req.ItemIDs,
	})
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, toActionResponse(view))
}

func (h *Handler) rejectAction(w http.ResponseWriter, r *http.Request) {
	identity, err := h.requireUser(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	var req rejectRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, err)
		return
	}
	view, err := h.svc.RejectAction(r.Context(), domain.RejectInput{
		OrgID:      identity.OrgID,
		ReviewerID: identity.UserID,
		ActionID:   r.PathValue("id"),
		Reason:     req.Reason,
	})
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, toActionResponse(view))
}

func (h *Handler) editItem(w http.ResponseWriter, r *http.Request) {
	identity, err := h.requireUser(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	var req editItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, err)
		return
	}
	view, err := h.svc.EditItem(r.Context(), domain.EditItemInput{
		OrgID:      identity.OrgID,
		ReviewerID: identity.UserID,
		ItemID:     r.PathValue("id"),
		Content:    req.Content,
	})
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, toActionResponse(view))
}

func (h *Handler) skipItem(w http.ResponseWriter, r *http.Request) {
	identity, err := h.requireUser(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	view, err := h.svc.SkipItem(r.Context(), identity.OrgID, identity.UserID, r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, toActionResponse(view))
}

func (h *Handler) proposeAction(w http.ResponseWriter, r *http.Request) {
	if _, err := h.requireOrchestrator(r); err != nil {
		httpx.WriteError(w, err)
		return
	}
	var req proposeActionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, err)
		return
	}
	input := domain.ProposeActionInput{
		OrgID:          req.OrgID,
		UserID:         req.UserID,
		Provider:       req.Provider,
		ActionType:     req.ActionType,
		ConversationID: req.ConversationID,
		AccountID:      req.AccountID,
		TTL:            time.Duration(req.TTLSeconds) * time.Second,
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, domain.ProposeItemInput{
			PayloadJSON: item.PayloadJSON,
			Preview:     item.Preview,
		})
	}
	view, err := h.svc.ProposeAction(r.Context(), input)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusCreated, toActionResponse(view))
}

func (h *Handler) recordExecutionResult(w http.ResponseWriter, r *http.Request) {
	if _, err := h.requireOrchestrator(r); err != nil {
		httpx.WriteError(w, err)
		return
	}
	var req executionResultRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, err)
		return
	}
	item, err := h.svc.RecordExecutionResult(r.Context(), domain.ExecutionResultInput{
		ItemID:       r.PathValue("id"),
		Succeeded:    req.Succeeded,
		ResultJSON:   req.ResultJSON,
		ErrorMessage: req.ErrorMessage,
	})
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, toItemResponse(item))
}
