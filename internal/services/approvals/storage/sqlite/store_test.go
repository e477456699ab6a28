package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/brandloom/brandloom/internal/services/approvals/storage"
)

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestPutGetListActivities(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	first := activityFixture("act-1", "user-1", now)
	second := activityFixture("act-2", "user-1", now.Add(2*time.Minute))
	other := activityFixture("act-3", "user-2", now.Add(time.Minute))

	steps := []storage.ActivityStepRecord{
		stepFixture("step-1", "act-1", 0, now),
		stepFixture("step-2", "act-1", 1, now),
	}
	if err := store.PutActivityWithSteps(context.Background(), first, steps); err != nil {
		t.Fatalf("put activity act-1: %v", err)
	}
	if err := store.PutActivityWithSteps(context.Background(), second, nil); err != nil {
		t.Fatalf("put activity act-2: %v", err)
	}
	if err := store.PutActivityWithSteps(context.Background(), other, nil); err != nil {
		t.Fatalf("put activity act-3: %v", err)
	}

	got, err := store.GetActivityByUser(context.Background(), "user-1", "act-1")
	if err != nil {
		t.Fatalf("get activity: %v", err)
	}
	if got.Title != first.Title || got.Status != "pending" {
		t.Fatalf("unexpected activity: %+v", got)
	}

	if _, err := store.GetActivityByUser(context.Background(), "user-2", "act-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found for wrong owner, got %v", err)
	}

	listed, err := store.ListActivitiesByUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("list activities: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 activities, got %d", len(listed))
	}
	if listed[0].ID != "act-2" || listed[1].ID != "act-1" {
		t.Fatalf("expected newest-first ordering, got %s, %s", listed[0].ID, listed[1].ID)
	}

	listedSteps, err := store.ListActivitySteps(context.Background(), "act-1")
	if err != nil {
		t.Fatalf("list steps: %v", err)
	}
	if len(listedSteps) != 2 || listedSteps[0].StepIndex != 0 || listedSteps[1].StepIndex != 1 {
		t.Fatalf("unexpected step ordering: %+v", listedSteps)
	}
}

func TestPutActivityDuplicateIDConflicts(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	record := activityFixture("act-1", "user-1", now)
	if err := store.PutActivityWithSteps(context.Background(), record, nil); err != nil {
		t.Fatalf("put activity: %v", err)
	}
	if err := store.PutActivityWithSteps(context.Background(), record, nil); !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestTransitionActivityGuard(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	if err := store.PutActivityWithSteps(context.Background(), activityFixture("act-1", "user-1", now), nil); err != nil {
		t.Fatalf("put activity: %v", err)
	}

	startedAt := now.Add(time.Second)
	if err := store.TransitionActivity(context.Background(), storage.ActivityTransition{
		ActivityID:   "act-1",
		FromStatuses: []string{"pending"},
		ToStatus:     "running",
		StartedAt:    &startedAt,
		Now:          startedAt,
	}); err != nil {
		t.Fatalf("start activity: %v", err)
	}

	// Same guarded write again loses: the row is no longer pending.
	if err := store.TransitionActivity(context.Background(), storage.ActivityTransition{
		ActivityID:   "act-1",
		FromStatuses: []string{"pending"},
		ToStatus:     "running",
		Now:          startedAt,
	}); !errors.Is(err, storage.ErrStaleState) {
		t.Fatalf("expected stale state, got %v", err)
	}

	got, err := store.GetActivity(context.Background(), "act-1")
	if err != nil {
		t.Fatalf("get activity: %v", err)
	}
	if got.Status != "running" {
		t.Fatalf("expected running, got %s", got.Status)
	}
	if got.StartedAt == nil || !got.StartedAt.Equal(startedAt) {
		t.Fatalf("unexpected started_at: %v", got.StartedAt)
	}
}

func TestTransitionActivityStampsDuration(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	if err := store.PutActivityWithSteps(context.Background(), activityFixture("act-1", "user-1", now), nil); err != nil {
		t.Fatalf("put activity: %v", err)
	}

	startedAt := now.Add(time.Second)
	if err := store.TransitionActivity(context.Background(), storage.ActivityTransition{
		ActivityID:   "act-1",
		FromStatuses: []string{"pending"},
		ToStatus:     "running",
		StartedAt:    &startedAt,
		Now:          startedAt,
	}); err != nil {
		t.Fatalf("start activity: %v", err)
	}

	completedAt := startedAt.Add(90 * time.Second)
	resultJSON := `{"posts":3}`
	if err := store.TransitionActivity(context.Background(), storage.ActivityTransition{
		ActivityID:   "act-1",
		FromStatuses: []string{"running"},
		ToStatus:     "completed",
		CompletedAt:  &completedAt,
		ResultJSON:   &resultJSON,
		Now:          completedAt,
	}); err != nil {
		t.Fatalf("complete activity: %v", err)
	}

	got, err := store.GetActivity(context.Background(), "act-1")
	if err != nil {
		t.Fatalf("get activity: %v", err)
	}
	if got.DurationMillis == nil || *got.DurationMillis != 90_000 {
		t.Fatalf("unexpected duration: %v", got.DurationMillis)
	}
	if got.ResultJSON != resultJSON {
		t.Fatalf("unexpected result: %q", got.ResultJSON)
	}
}

func TestResetActivityForRetry(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	activity := activityFixture("act-1", "user-1", now)
	activity.Status = "failed"
	activity.ErrorMessage = "provider timeout"
	activity.ErrorCode = "timeout"
	failedStep := stepFixture("step-1", "act-1", 0, now)
	failedStep.Status = "failed"
	failedStep.ErrorMessage = "provider timeout"
	if err := store.PutActivityWithSteps(context.Background(), activity, []storage.ActivityStepRecord{failedStep}); err != nil {
		t.Fatalf("put activity: %v", err)
	}

	retryAt := now.Add(time.Hour)
	if err := store.ResetActivityForRetry(context.Background(), "user-1", "act-1", retryAt); err != nil {
		t.Fatalf("reset activity: %v", err)
	}

	got, err := store.GetActivity(context.Background(), "act-1")
	if err != nil {
		t.Fatalf("get activity: %v", err)
	}
	if got.Status != "pending" || got.Progress != 0 || got.ErrorMessage != "" || got.ErrorCode != "" {
		t.Fatalf("activity not reset: %+v", got)
	}
	if got.StartedAt != nil || got.CompletedAt != nil || got.DurationMillis != nil {
		t.Fatalf("activity timestamps not cleared: %+v", got)
	}

	steps, err := store.ListActivitySteps(context.Background(), "act-1")
	if err != nil {
		t.Fatalf("list steps: %v", err)
	}
	if len(steps) != 1 || steps[0].Status != "pending" || steps[0].ErrorMessage != "" {
		t.Fatalf("step not reset: %+v", steps)
	}

	// A pending activity is not retryable.
	if err := store.ResetActivityForRetry(context.Background(), "user-1", "act-1", retryAt); !errors.Is(err, storage.ErrStaleState) {
		t.Fatalf("expected stale state, got %v", err)
	}
}

func TestPutGetListActions(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	action := actionFixture("action-1", "org-1", now)
	items := []storage.ActionItemRecord{
		itemFixture("item-1", "action-1", 0, now),
		itemFixture("item-2", "action-1", 1, now),
	}
	if err := store.PutActionWithItems(context.Background(), action, items); err != nil {
		t.Fatalf("put action: %v", err)
	}
	later := actionFixture("action-2", "org-1", now.Add(time.Minute))
	later.ConversationID = "conv-2"
	if err := store.PutActionWithItems(context.Background(), later, nil); err != nil {
		t.Fatalf("put action-2: %v", err)
	}
	if err := store.PutActionWithItems(context.Background(), actionFixture("action-3", "org-2", now), nil); err != nil {
		t.Fatalf("put action-3: %v", err)
	}

	got, err := store.GetAction(context.Background(), "action-1")
	if err != nil {
		t.Fatalf("get action: %v", err)
	}
	if got.Provider != action.Provider || got.Status != "pending" || got.ItemCount != 2 {
		t.Fatalf("unexpected action: %+v", got)
	}
	if !got.ExpiresAt.Equal(action.ExpiresAt) {
		t.Fatalf("unexpected expires_at: %v", got.ExpiresAt)
	}

	listed, err := store.ListActionsByOrg(context.Background(), "org-1", "")
	if err != nil {
		t.Fatalf("list actions: %v", err)
	}
	if len(listed) != 2 || listed[0].ID != "action-2" {
		t.Fatalf("expected newest-first org listing, got %+v", listed)
	}

	filtered, err := store.ListActionsByOrg(context.Background(), "org-1", "conv-2")
	if err != nil {
		t.Fatalf("list filtered actions: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ID != "action-2" {
		t.Fatalf("expected conversation filter to match action-2, got %+v", filtered)
	}

	listedItems, err := store.ListActionItems(context.Background(), "action-1")
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(listedItems) != 2 || listedItems[0].ItemIndex != 0 {
		t.Fatalf("unexpected items: %+v", listedItems)
	}

	item, owner, err := store.GetItemWithAction(context.Background(), "item-2")
	if err != nil {
		t.Fatalf("get item with action: %v", err)
	}
	if item.ID != "item-2" || owner.ID != "action-1" {
		t.Fatalf("unexpected join result: item=%s action=%s", item.ID, owner.ID)
	}
}

func TestApproveItemsAndSettle(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	action := actionFixture("action-1", "org-1", now)
	items := []storage.ActionItemRecord{
		itemFixture("item-1", "action-1", 0, now),
		itemFixture("item-2", "action-1", 1, now),
		itemFixture("item-3", "action-1", 2, now),
	}
	if err := store.PutActionWithItems(context.Background(), action, items); err != nil {
		t.Fatalf("put action: %v", err)
	}

	reviewAt := now.Add(time.Minute)
	count, err := store.ApproveItems(context.Background(), "action-1", []string{"item-1"}, reviewAt)
	if err != nil {
		t.Fatalf("approve item-1: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 approval, got %d", count)
	}

	// item-2 and item-3 still pending: the action must not settle yet.
	applied, err := store.SettleActionIfReviewed(context.Background(), "action-1", "user-1", reviewAt)
	if err != nil {
		t.Fatalf("settle attempt: %v", err)
	}
	if applied {
		t.Fatal("expected settle to be refused while items are pending")
	}

	count, err = store.ApproveItems(context.Background(), "action-1", nil, reviewAt)
	if err != nil {
		t.Fatalf("approve remaining: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 approvals, got %d", count)
	}

	applied, err = store.SettleActionIfReviewed(context.Background(), "action-1", "user-1", reviewAt)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if !applied {
		t.Fatal("expected settle to apply once all items were reviewed")
	}

	got, err := store.GetAction(context.Background(), "action-1")
	if err != nil {
		t.Fatalf("get action: %v", err)
	}
	if got.Status != "approved" || got.ApprovedBy != "user-1" || got.ItemsApproved != 3 {
		t.Fatalf("unexpected settled action: %+v", got)
	}
	if got.ApprovedAt == nil || !got.ApprovedAt.Equal(reviewAt) {
		t.Fatalf("unexpected approved_at: %v", got.ApprovedAt)
	}

	// Second settle loses the guard.
	applied, err = store.SettleActionIfReviewed(context.Background(), "action-1", "user-2", reviewAt)
	if err != nil {
		t.Fatalf("second settle: %v", err)
	}
	if applied {
		t.Fatal("expected second settle to be refused")
	}
}

func TestSettleCountsMixedReviews(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	action := actionFixture("action-1", "org-1", now)
	items := []storage.ActionItemRecord{
		itemFixture("item-1", "action-1", 0, now),
		itemFixture("item-2", "action-1", 1, now),
		itemFixture("item-3", "action-1", 2, now),
	}
	if err := store.PutActionWithItems(context.Background(), action, items); err != nil {
		t.Fatalf("put action: %v", err)
	}

	reviewAt := now.Add(time.Minute)
	edited := `{"content":"revised"}`
	if err := store.TransitionItem(context.Background(), storage.ItemTransition{
		ItemID:            "item-1",
		FromStatuses:      []string{"pending"},
		ToStatus:          "edited",
		EditedPayloadJSON: &edited,
		Now:               reviewAt,
	}); err != nil {
		t.Fatalf("edit item-1: %v", err)
	}
	if err := store.TransitionItem(context.Background(), storage.ItemTransition{
		ItemID:       "item-2",
		FromStatuses: []string{"pending"},
		ToStatus:     "skipped",
		Now:          reviewAt,
	}); err != nil {
		t.Fatalf("skip item-2: %v", err)
	}
	if _, err := store.ApproveItems(context.Background(), "action-1", []string{"item-3"}, reviewAt); err != nil {
		t.Fatalf("approve item-3: %v", err)
	}

	applied, err := store.SettleActionIfReviewed(context.Background(), "action-1", "user-1", reviewAt)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if !applied {
		t.Fatal("expected settle to apply once every item was reviewed")
	}

	got, err := store.GetAction(context.Background(), "action-1")
	if err != nil {
		t.Fatalf("get action: %v", err)
	}
	if got.Status != "approved" {
		t.Fatalf("expected approved, got %s", got.Status)
	}
	if got.ItemsApproved != 1 || got.ItemsRejected != 0 {
		t.Fatalf("unexpected counters: approved=%d rejected=%d", got.ItemsApproved, got.ItemsRejected)
	}

	item, _, err := store.GetItemWithAction(context.Background(), "item-1")
	if err != nil {
		t.Fatalf("get edited item: %v", err)
	}
	if item.Status != "edited" || item.EditedPayloadJSON != edited {
		t.Fatalf("unexpected edited item: %+v", item)
	}
}

func TestTransitionItemEditedTwice(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	action := actionFixture("action-1", "org-1", now)
	items := []storage.ActionItemRecord{
		itemFixture("item-1", "action-1", 0, now),
		itemFixture("item-2", "action-1", 1, now),
	}
	if err := store.PutActionWithItems(context.Background(), action, items); err != nil {
		t.Fatalf("put action: %v", err)
	}

	reviewAt := now.Add(time.Minute)
	first := `{"content":"first"}`
	if err := store.TransitionItem(context.Background(), storage.ItemTransition{
		ItemID:            "item-1",
		FromStatuses:      []string{"pending", "edited"},
		ToStatus:          "edited",
		EditedPayloadJSON: &first,
		Now:               reviewAt,
	}); err != nil {
		t.Fatalf("first edit: %v", err)
	}

	second := `{"content":"second"}`
	if err := store.TransitionItem(context.Background(), storage.ItemTransition{
		ItemID:            "item-1",
		FromStatuses:      []string{"pending", "edited"},
		ToStatus:          "edited",
		EditedPayloadJSON: &second,
		Now:               reviewAt.Add(time.Minute),
	}); err != nil {
		t.Fatalf("second edit: %v", err)
	}

	item, _, err := store.GetItemWithAction(context.Background(), "item-1")
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if item.Status != "edited" || item.EditedPayloadJSON != second {
		t.Fatalf("expected second edit to win, got %+v", item)
	}
	if item.PayloadJSON != `{"content":"hello"}` {
		t.Fatalf("original payload changed: %q", item.PayloadJSON)
	}

	// A pending-only guard no longer matches an edited row.
	if err := store.TransitionItem(context.Background(), storage.ItemTransition{
		ItemID:       "item-1",
		FromStatuses: []string{"pending"},
		ToStatus:     "edited",
		Now:          reviewAt.Add(2 * time.Minute),
	}); !errors.Is(err, storage.ErrStaleState) {
		t.Fatalf("expected stale state, got %v", err)
	}
}

func TestRejectActionWithItems(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	action := actionFixture("action-1", "org-1", now)
	items := []storage.ActionItemRecord{
		itemFixture("item-1", "action-1", 0, now),
		itemFixture("item-2", "action-1", 1, now),
	}
	if err := store.PutActionWithItems(context.Background(), action, items); err != nil {
		t.Fatalf("put action: %v", err)
	}
	reviewAt := now.Add(time.Minute)
	if _, err := store.ApproveItems(context.Background(), "action-1", []string{"item-1"}, reviewAt); err != nil {
		t.Fatalf("approve item-1: %v", err)
	}

	if err := store.RejectActionWithItems(context.Background(), "action-1", "user-1", "wrong tone", reviewAt); err != nil {
		t.Fatalf("reject action: %v", err)
	}

	got, err := store.GetAction(context.Background(), "action-1")
	if err != nil {
		t.Fatalf("get action: %v", err)
	}
	if got.Status != "rejected" || got.ReviewReason != "wrong tone" || got.ItemsRejected != 2 {
		t.Fatalf("unexpected rejected action: %+v", got)
	}

	listedItems, err := store.ListActionItems(context.Background(), "action-1")
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	for _, item := range listedItems {
		if item.Status != "rejected" {
			t.Fatalf("expected item %s rejected, got %s", item.ID, item.Status)
		}
	}

	// Rejecting twice loses the status guard.
	if err := store.RejectActionWithItems(context.Background(), "action-1", "user-1", "", reviewAt); !errors.Is(err, storage.ErrStaleState) {
		t.Fatalf("expected stale state, got %v", err)
	}
}

func TestExpireAction(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	if err := store.PutActionWithItems(context.Background(), actionFixture("action-1", "org-1", now), nil); err != nil {
		t.Fatalf("put action: %v", err)
	}

	expireAt := now.Add(25 * time.Hour)
	if err := store.ExpireAction(context.Background(), "action-1", expireAt); err != nil {
		t.Fatalf("expire action: %v", err)
	}
	got, err := store.GetAction(context.Background(), "action-1")
	if err != nil {
		t.Fatalf("get action: %v", err)
	}
	if got.Status != "expired" {
		t.Fatalf("expected expired, got %s", got.Status)
	}
	if err := store.ExpireAction(context.Background(), "action-1", expireAt); !errors.Is(err, storage.ErrStaleState) {
		t.Fatalf("expected stale state, got %v", err)
	}
}

func TestRecordItemExecution(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	action := actionFixture("action-1", "org-1", now)
	items := []storage.ActionItemRecord{
		itemFixture("item-1", "action-1", 0, now),
		itemFixture("item-2", "action-1", 1, now),
	}
	if err := store.PutActionWithItems(context.Background(), action, items); err != nil {
		t.Fatalf("put action: %v", err)
	}
	reviewAt := now.Add(time.Minute)
	if _, err := store.ApproveItems(context.Background(), "action-1", nil, reviewAt); err != nil {
		t.Fatalf("approve items: %v", err)
	}
	if _, err := store.SettleActionIfReviewed(context.Background(), "action-1", "user-1", reviewAt); err != nil {
		t.Fatalf("settle: %v", err)
	}

	execAt := reviewAt.Add(time.Minute)
	if err := store.RecordItemExecution(context.Background(), "item-1", true, `{"post_id":"p-1"}`, "", execAt); err != nil {
		t.Fatalf("record execution item-1: %v", err)
	}

	got, err := store.GetAction(context.Background(), "action-1")
	if err != nil {
		t.Fatalf("get action after first execution: %v", err)
	}
	if got.ItemsExecuted != 1 || got.ItemsFailed != 0 {
		t.Fatalf("unexpected counters: %+v", got)
	}
	if got.ExecutionStartedAt == nil || !got.ExecutionStartedAt.Equal(execAt) {
		t.Fatalf("unexpected execution_started_at: %v", got.ExecutionStartedAt)
	}
	if got.ExecutionCompletedAt != nil {
		t.Fatal("expected open execution window while item-2 is still approved")
	}

	laterAt := execAt.Add(time.Minute)
	if err := store.RecordItemExecution(context.Background(), "item-2", false, "", "rate limited", laterAt); err != nil {
		t.Fatalf("record execution item-2: %v", err)
	}

	got, err = store.GetAction(context.Background(), "action-1")
	if err != nil {
		t.Fatalf("get action after second execution: %v", err)
	}
	if got.ItemsExecuted != 1 || got.ItemsFailed != 1 {
		t.Fatalf("unexpected counters: %+v", got)
	}
	if got.ExecutionStartedAt == nil || !got.ExecutionStartedAt.Equal(execAt) {
		t.Fatalf("execution_started_at moved: %v", got.ExecutionStartedAt)
	}
	if got.ExecutionCompletedAt == nil || !got.ExecutionCompletedAt.Equal(laterAt) {
		t.Fatalf("unexpected execution_completed_at: %v", got.ExecutionCompletedAt)
	}

	item, _, err := store.GetItemWithAction(context.Background(), "item-2")
	if err != nil {
		t.Fatalf("get failed item: %v", err)
	}
	if item.Status != "failed" || item.ErrorMessage != "rate limited" {
		t.Fatalf("unexpected failed item: %+v", item)
	}
	if item.ExecutedAt == nil || !item.ExecutedAt.Equal(laterAt) {
		t.Fatalf("unexpected executed_at: %v", item.ExecutedAt)
	}

	// A pending item cannot record execution.
	if err := store.PutActionWithItems(context.Background(), actionFixture("action-2", "org-1", now), []storage.ActionItemRecord{itemFixture("item-3", "action-2", 0, now)}); err != nil {
		t.Fatalf("put action-2: %v", err)
	}
	if err := store.RecordItemExecution(context.Background(), "item-3", true, "", "", laterAt); !errors.Is(err, storage.ErrStaleState) {
		t.Fatalf("expected stale state, got %v", err)
	}
}

func TestPutActionItemRequiresAction(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	now := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	err := store.PutActionWithItems(context.Background(), actionFixture("action-1", "org-1", now), []storage.ActionItemRecord{itemFixture("item-1", "missing-action", 0, now)})
	if !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected conflict for orphan item, got %v", err)
	}
	// The transaction rolled back: neither row exists.
	if _, err := store.GetAction(context.Background(), "action-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected rollback of action row, got %v", err)
	}
}

func activityFixture(id, userID string, now time.Time) storage.ActivityRecord {
	return storage.ActivityRecord{
		ID:        id,
		UserID:    userID,
		Title:     "Draft launch posts",
		Status:    "pending",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func stepFixture(id, activityID string, index int, now time.Time) storage.ActivityStepRecord {
	return storage.ActivityStepRecord{
		ID:         id,
		ActivityID: activityID,
		StepIndex:  index,
		Title:      "Generate draft",
		Status:     "pending",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func actionFixture(id, orgID string, now time.Time) storage.ActionRecord {
	return storage.ActionRecord{
		ID:             id,
		OrgID:          orgID,
		UserID:         "user-1",
		Provider:       "mastodon",
		ActionType:     "create_post",
		ConversationID: "conv-1",
		AccountID:      "acct-1",
		ItemCount:      2,
		Status:         "pending",
		ExpiresAt:      now.Add(24 * time.Hour),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func itemFixture(id, actionID string, index int, now time.Time) storage.ActionItemRecord {
	return storage.ActionItemRecord{
		ID:          id,
		ActionID:    actionID,
		ItemIndex:   index,
		PayloadJSON: `{"content":"hello"}`,
		Preview:     "hello",
		Status:      "pending",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func openTempStore(t *testing.T) *Store {
	t.Helper()
	storePath := filepath.Join(t.TempDir(), "approvals.db")
	store, err := Open(storePath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if closeErr := store.Close(); closeErr != nil {
			t.Fatalf("close store: %v", closeErr)
		}
	})
	return store
}
