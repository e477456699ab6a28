package server

import (
	"context"
	"errors"
	"time"

	"github.com/brandloom/brandloom/internal/services/approvals/domain"
	"github.com/brandloom/brandloom/internal/services/approvals/storage"
)

// domainStoreAdapter exposes a storage.Store as a domain.Store.
type domainStoreAdapter struct {
	store storage.Store
}

func newDomainStoreAdapter(store storage.Store) *domainStoreAdapter {
	return &domainStoreAdapter{store: store}
}

func (a *domainStoreAdapter) PutActivityWithSteps(ctx context.Context, activity domain.Activity, steps []domain.ActivityStep) error {
	records := make([]storage.ActivityStepRecord, 0, len(steps))
	for _, step := range steps {
		records = append(records, toStorageStep(step))
	}
	return mapStorageError(a.store.PutActivityWithSteps(ctx, toStorageActivity(activity), records))
}

func (a *domainStoreAdapter) GetActivityByUser(ctx context.Context, userID string, activityID string) (domain.Activity, error) {
	record, err := a.store.GetActivityByUser(ctx, userID, activityID)
	if err != nil {
		return domain.Activity{}, mapStorageError(err)
	}
	return toDomainActivity(record), nil
}

func (a *domainStoreAdapter) GetActivity(ctx context.Context, activityID string) (domain.Activity, error) {
	record, err := a.store.GetActivity(ctx, activityID)
	if err != nil {
		return domain.Activity{}, mapStorageError(err)
	}
	return toDomainActivity(record), nil
}

func (a *domainStoreAdapter) ListActivitiesByUser(ctx context.Context, userID string) ([]domain.Activity, error) {
	records, err := a.store.ListActivitiesByUser(ctx, userID)
	if err != nil {
		return nil, mapStorageError(err)
	}
	activities := make([]domain.Activity, 0, len(records))
	for _, record := range records {
		activities = append(activities, toDomainActivity(record))
	}
	return activities, nil
}

func (a *domainStoreAdapter) ListActivitySteps(ctx context.Context, activityID string) ([]domain.ActivityStep, error) {
	records, err := a.store.ListActivitySteps(ctx, activityID)
	if err != nil {
		return nil, mapStorageError(err)
	}
	steps := make([]domain.ActivityStep, 0, len(records))
	for _, record := range records {
		steps = append(steps, toDomainStep(record))
	}
	return steps, nil
}

func (a *domainStoreAdapter) TransitionActivity(ctx context.Context, update domain.ActivityTransition) error {
	return mapStorageError(a.store.TransitionActivity(ctx, storage.ActivityTransition{
		ActivityID:   update.ActivityID,
		UserID:       update.UserID,
		FromStatuses: update.FromStatuses,
		ToStatus:     update.ToStatus,
		Progress:     update.Progress,
		Message:      update.Message,
		StartedAt:    update.StartedAt,
		CompletedAt:  update.CompletedAt,
		ResultJSON:   update.ResultJSON,
		ErrorMessage: update.ErrorMessage,
		ErrorCode:    update.ErrorCode,
		Now:          update.Now,
	}))
}

func (a *domainStoreAdapter) ResetActivityForRetry(ctx context.Context, userID string, activityID string, now time.Time) error {
	return mapStorageError(a.store.ResetActivityForRetry(ctx, userID, activityID, now))
}

func (a *domainStoreAdapter) TransitionStep(ctx context.Context, update domain.StepTransition) error {
	return mapStorageError(a.store.TransitionStep(ctx, storage.StepTransition{
		StepID:       update.StepID,
		FromStatuses: update.FromStatuses,
		ToStatus:     update.ToStatus,
		StartedAt:    update.StartedAt,
		CompletedAt:  update.CompletedAt,
		ResultJSON:   update.ResultJSON,
		ErrorMessage: update.ErrorMessage,
		Now:          update.Now,
	}))
}

func (a *domainStoreAdapter) PutActionWithItems(ctx context.Context, action domain.PendingAction, items []domain.ActionItem) error {
	records := make([]storage.ActionItemRecord, 0, len(items))
	for _, item := range items {
		records = append(records, toStorageItem(item))
	}
	return mapStorageError(a.store.PutActionWithItems(ctx, toStorageAction(action), records))
}

func (a *domainStoreAdapter) GetAction(ctx context.Context, actionID string) (domain.PendingAction, error) {
	record, err := a.store.GetAction(ctx, actionID)
	if err != nil {
		return domain.PendingAction{}, mapStorageError(err)
	}
	return toDomainAction(record), nil
}

func (a *domainStoreAdapter) GetItemWithAction(ctx context.Context, itemID string) (domain.ActionItem, domain.PendingAction, error) {
	itemRecord, actionRecord, err := a.store.GetItemWithAction(ctx, itemID)
	if err != nil {
		return domain.ActionItem{}, domain.PendingAction{}, mapStorageError(err)
	}
	return toDomainItem(itemRecord), toDomainAction(actionRecord), nil
}

func (a *domainStoreAdapter) ListActionsByOrg(ctx context.Context, orgID string, conversationID string) ([]domain.PendingAction, error) {
	records, err := a.store.ListActionsByOrg(ctx, orgID, conversationID)
	if err != nil {
		return nil, mapStorageError(err)
	}
	actions := make([]domain.PendingAction, 0, len(records))
	for _, record := range records {
		actions = append(actions, toDomainAction(record))
	}
	return actions, nil
}

func (a *domainStoreAdapter) ListActionItems(ctx context.Context, actionID string) ([]domain.ActionItem, error) {
	records, err := a.store.ListActionItems(ctx, actionID)
	if err != nil {
		return nil, mapStorageError(err)
	}
	items := make([]domain.ActionItem, 0, len(records))
	for _, record := range records {
		items = append(items, toDomainItem(record))
	}
	return items, nil
}

func (a *domainStoreAdapter) ApproveItems(ctx context.Context, actionID string, itemIDs []string, now time.Time) (int, error) {
	count, err := a.store.ApproveItems(ctx, actionID, itemIDs, now)
	if err != nil {
		return 0, mapStorageError(err)
	}
	return count, nil
}

func (a *domainStoreAdapter) TransitionItem(ctx context.Context, update domain.ItemTransition) error {
	return mapStorageError(a.store.TransitionItem(ctx, storage.ItemTransition{
		ItemID:            update.ItemID,
		FromStatuses:      update.FromStatuses,
		ToStatus:          update.ToStatus,
		EditedPayloadJSON: update.EditedPayloadJSON,
		Now:               update.Now,
	}))
}

func (a *domainStoreAdapter) RejectActionWithItems(ctx context.Context, actionID string, reviewerID string, reason string, now time.Time) error {
	return mapStorageError(a.store.RejectActionWithItems(ctx, actionID, reviewerID, reason, now))
}

func (a *domainStoreAdapter) ExpireAction(ctx context.Context, actionID string, now time.Time) error {
	return mapStorageError(a.store.ExpireAction(ctx, actionID, now))
}

func (a *domainStoreAdapter) SettleActionIfReviewed(ctx context.Context, actionID string, reviewerID string, now time.Time) (bool, error) {
	applied, err := a.store.SettleActionIfReviewed(ctx, actionID, reviewerID, now)
	if err != nil {
		return false, mapStorageError(err)
	}
	return applied, nil
}

func (a *domainStoreAdapter) RecordItemExecution(ctx context.Context, itemID string, succeeded bool, resultJSON string, errorMessage string, now time.Time) error {
	return mapStorageError(a.store.RecordItemExecution(ctx, itemID, succeeded, resultJSON, errorMessage, now))
}

func toStorageActivity(activity domain.Activity) storage.ActivityRecord {
	return storage.ActivityRecord{
		ID:              activity.ID,
		UserID:          activity.UserID,
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
}

func toDomainActivity(record storage.ActivityRecord) domain.Activity {
	return domain.Activity{
		ID:              record.ID,
		UserID:          record.UserID,
		Title:           record.Title,
		Status:          record.Status,
		Progress:        record.Progress,
		ProgressMessage: record.ProgressMessage,
		StartedAt:       record.StartedAt,
		CompletedAt:     record.CompletedAt,
		DurationMillis:  record.DurationMillis,
		ResultJSON:      record.ResultJSON,
		ErrorMessage:    record.ErrorMessage,
		ErrorCode:       record.ErrorCode,
		CreatedAt:       record.CreatedAt,
		UpdatedAt:       record.UpdatedAt,
	}
}

func toStorageStep(step domain.ActivityStep) storage.ActivityStepRecord {
	return storage.ActivityStepRecord{
		ID:           step.ID,
		ActivityID:   step.ActivityID,
		StepIndex:    step.StepIndex,
		Title:        step.Title,
		Status:       step.Status,
		StartedAt:    step.StartedAt,
		CompletedAt:  step.CompletedAt,
		ResultJSON:   step.ResultJSON,
		ErrorMessage: step.ErrorMessage,
		CreatedAt:    step.CreatedAt,
		UpdatedAt:    step.UpdatedAt,
	}
}

func toDomainStep(record storage.ActivityStepRecord) domain.ActivityStep {
	return domain.ActivityStep{
		ID:           record.ID,
		ActivityID:   record.ActivityID,
		StepIndex:    record.StepIndex,
		Title:        record.Title,
		Status:       record.Status,
		StartedAt:    record.StartedAt,
		CompletedAt:  record.CompletedAt,
		ResultJSON:   record.ResultJSON,
		ErrorMessage: record.ErrorMessage,
		CreatedAt:    record.CreatedAt,
		UpdatedAt:    record.UpdatedAt,
	}
}

func toStorageAction(action domain.PendingAction) storage.ActionRecord {
	return storage.ActionRecord{
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
}

func toDomainAction(record storage.ActionRecord) domain.PendingAction {
	return domain.PendingAction{
		ID:                   record.ID,
		OrgID:                record.OrgID,
		UserID:               record.UserID,
		Provider:             record.Provider,
		ActionType:           record.ActionType,
		ConversationID:       record.ConversationID,
		AccountID:            record.AccountID,
		ItemCount:            record.ItemCount,
		Status:               record.Status,
		ExpiresAt:            record.ExpiresAt,
		ApprovedBy:           record.ApprovedBy,
		ApprovedAt:           record.ApprovedAt,
		ReviewedAt:           record.ReviewedAt,
		ReviewReason:         record.ReviewReason,
		ExecutionStartedAt:   record.ExecutionStartedAt,
		ExecutionCompletedAt: record.ExecutionCompletedAt,
		ItemsApproved:        record.ItemsApproved,
		ItemsRejected:        record.ItemsRejected,
		ItemsExecuted:        record.ItemsExecuted,
		ItemsFailed:          record.ItemsFailed,
		CreatedAt:            record.CreatedAt,
		UpdatedAt:            record.UpdatedAt,
	}
}

func toStorageItem(item domain.ActionItem) storage.ActionItemRecord {
	return storage.ActionItemRecord{
		ID:                item.ID,
		ActionID:          item.ActionID,
		ItemIndex:         item.ItemIndex,
		PayloadJSON:       item.PayloadJSON,
		EditedPayloadJSON: item.EditedPayloadJSON,
		Preview:           item.Preview,
		Status:            item.Status,
		ExecutedAt:        item.ExecutedAt,
		ResultJSON:        item.ResultJSON,
		ErrorMessage:      item.ErrorMessage,
		CreatedAt:         item.CreatedAt,
		UpdatedAt:         item.UpdatedAt,
	}
}

func toDomainItem(record storage.ActionItemRecord) domain.ActionItem {
	return domain.ActionItem{
		ID:                record.ID,
		ActionID:          record.ActionID,
		ItemIndex:         record.ItemIndex,
		PayloadJSON:       record.PayloadJSON,
		EditedPayloadJSON: record.EditedPayloadJSON,
		Preview:           record.Preview,
		Status:            record.Status,
		ExecutedAt:        record.ExecutedAt,
		ResultJSON:        record.ResultJSON,
		ErrorMessage:      record.ErrorMessage,
		CreatedAt:         record.CreatedAt,
		UpdatedAt:         record.UpdatedAt,
	}
}

func mapStorageError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound):
		return domain.ErrNotFound
	case errors.Is(err, storage.ErrConflict):
		return domain.ErrConflict
	case errors.Is(err, storage.ErrStaleState):
		return domain.ErrStaleState
	default:
		return err
	}
}
