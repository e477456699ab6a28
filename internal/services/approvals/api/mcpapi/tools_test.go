package mcpapi

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brandloom/brandloom/internal/services/approvals/domain"
)

type fakeService struct {
	activityView domain.ActivityView
	activityErr  error
	views        []domain.PendingActionView
	listErr      error
	item         domain.ActionItem
	executionErr error

	lastOrgID          string
	lastConversationID string
	lastReport         domain.ProgressReport
	lastExecution      domain.ExecutionResultInput
}

func (f *fakeService) GetActivityAny(_ context.Context, _ string) (domain.ActivityView, error) {
	return f.activityView, f.activityErr
}

func (f *fakeService) ReportProgress(_ context.Context, report domain.ProgressReport) (domain.ActivityView, error) {
	f.lastReport = report
	return f.activityView, f.activityErr
}

func (f *fakeService) ListPendingActions(_ context.Context, orgID string, conversationID string) ([]domain.PendingActionView, error) {
	f.lastOrgID = orgID
	f.lastConversationID = conversationID
	return f.views, f.listErr
}

func (f *fakeService) RecordExecutionResult(_ context.Context, input domain.ExecutionResultInput) (domain.ActionItem, error) {
	f.lastExecution = input
	return f.item, f.executionErr
}

func TestPendingActionsListHandler(t *testing.T) {
	t.Parallel()

	expires := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	svc := &fakeService{
		views: []domain.PendingActionView{{
			Action: domain.PendingAction{
				ID:         "action-1",
				Provider:   "mailchimp",
				ActionType: "send_campaign",
				Status:     domain.ActionPending,
				ItemCount:  1,
				ExpiresAt:  expires,
			},
			Items: []domain.ActionItem{{
				ID:          "item-1",
				ItemIndex:   0,
				Preview:     "Send spring launch email",
				Status:      domain.ItemPending,
				PayloadJSON: `{"subject":"Spring launch"}`,
			}},
		}},
	}

	handler := PendingActionsListHandler(svc)
	_, result, err := handler(context.Background(), nil, PendingActionsListInput{OrgID: "org-1", ConversationID: "conv-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.lastOrgID != "org-1" || svc.lastConversationID != "conv-1" {
		t.Fatalf("list called with org %q conversation %q", svc.lastOrgID, svc.lastConversationID)
	}
	if len(result.Actions) != 1 {
		t.Fatalf("actions = %d, want 1", len(result.Actions))
	}
	action := result.Actions[0]
	if action.ID != "action-1" || action.Status != "pending" {
		t.Fatalf("action = %+v", action)
	}
	if action.ExpiresAt != "2026-03-02T09:00:00Z" {
		t.Fatalf("expires_at = %q", action.ExpiresAt)
	}
	if len(action.Items) != 1 || action.Items[0].Preview != "Send spring launch email" {
		t.Fatalf("items = %+v", action.Items)
	}
}

func TestPendingActionsListHandlerPropagatesError(t *testing.T) {
	t.Parallel()

	svc := &fakeService{listErr: errors.New("store offline")}
	handler := PendingActionsListHandler(svc)
	_, _, err := handler(context.Background(), nil, PendingActionsListInput{OrgID: "org-1"})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestActivityGetHandler(t *testing.T) {
	t.Parallel()

	svc := &fakeService{
		activityView: domain.ActivityView{
			Activity: domain.Activity{
				ID:              "activity-1",
				Title:           "Publish campaign",
				Status:          domain.ActivityRunning,
				Progress:        40,
				ProgressMessage: "sending",
			},
			Steps: []domain.ActivityStep{
				{ID: "step-1", Title: "Draft", Status: domain.StepCompleted},
				{ID: "step-2", Title: "Send", Status: domain.StepRunning},
			},
		},
	}

	handler := ActivityGetHandler(svc)
	_, result, err := handler(context.Background(), nil, ActivityGetInput{ActivityID: "activity-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ID != "activity-1" || result.Status != "running" || result.Progress != 40 {
		t.Fatalf("result = %+v", result)
	}
	if len(result.Steps) != 2 || result.Steps[1].Status != "running" {
		t.Fatalf("steps = %+v", result.Steps)
	}
}

func TestActivityProgressHandlerMapsReport(t *testing.T) {
	t.Parallel()

	svc := &fakeService{
		activityView: domain.ActivityView{
			Activity: domain.Activity{ID: "activity-1", Status: domain.ActivityRunning, Progress: 55},
		},
	}

	progress := 55
	handler := ActivityProgressHandler(svc)
	_, result, err := handler(context.Background(), nil, ActivityProgressInput{
		ActivityID: "activity-1",
		Status:     "running",
		Progress:   &progress,
		Message:    "halfway",
		Steps: []StepProgressInput{
			{StepID: "step-1", Status: "completed", ResultJSON: `{"drafted":true}`},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.lastReport.ActivityID != "activity-1" || svc.lastReport.Status != "running" {
		t.Fatalf("report = %+v", svc.lastReport)
	}
	if svc.lastReport.Progress == nil || *svc.lastReport.Progress != 55 {
		t.Fatalf("report progress = %v", svc.lastReport.Progress)
	}
	if len(svc.lastReport.Steps) != 1 || svc.lastReport.Steps[0].StepID != "step-1" {
		t.Fatalf("report steps = %+v", svc.lastReport.Steps)
	}
	if result.Status != "running" || result.Progress != 55 {
		t.Fatalf("result = %+v", result)
	}
}

func TestItemExecutionHandler(t *testing.T) {
	t.Parallel()

	executedAt := time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)
	svc := &fakeService{
		item: domain.ActionItem{ID: "item-1", Status: domain.ItemExecuted, ExecutedAt: &executedAt},
	}

	handler := ItemExecutionHandler(svc)
	_, result, err := handler(context.Background(), nil, ItemExecutionInput{
		ItemID:     "item-1",
		Succeeded:  true,
		ResultJSON: `{"provider_id":"pc-9"}`,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.lastExecution.ItemID != "item-1" || !svc.lastExecution.Succeeded {
		t.Fatalf("execution input = %+v", svc.lastExecution)
	}
	if result.Status != "executed" {
		t.Fatalf("status = %q, want executed", result.Status)
	}
	if result.ExecutedAt != "2026-03-02T10:30:00Z" {
		t.Fatalf("executed_at = %q", result.ExecutedAt)
	}
}

func TestItemExecutionHandlerPropagatesError(t *testing.T) {
	t.Parallel()

	svc := &fakeService{executionErr: errors.New("item is not approved")}
	handler := ItemExecutionHandler(svc)
	_, _, err := handler(context.Background(), nil, ItemExecutionInput{ItemID: "item-1"})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestNewServerRequiresService(t *testing.T) {
	t.Parallel()

	if _, err := NewServer(nil); err == nil {
		t.Fatal("expected error for nil service")
	}
	if _, err := NewServer(&fakeService{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
