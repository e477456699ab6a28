package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/brandloom/brandloom/internal/services/approvals/storage"
)

const actionColumns = `id, org_id, user_id, provider, action_type, conversation_id, account_id, item_count, status, expires_at, approved_by, approved_at, reviewed_at, review_reason, execution_started_at, execution_completed_at, items_approved, items_rejected, items_executed, items_failed, created_at, updated_at`

const actionItemColumns = `id, action_id, item_index, payload_json, edited_payload_json, preview, status, executed_at, result_json, error_message, created_at, updated_at`

// PutActionWithItems atomically persists one action and its items.
func (s *Store) PutActionWithItems(ctx context.Context, action storage.ActionRecord, items []storage.ActionItemRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	normalized, err := normalizeActionRecord(action)
	if err != nil {
		return err
	}
	normalizedItems := make([]storage.ActionItemRecord, 0, len(items))
	for _, item := range items {
		normalizedItem, normalizeErr := normalizeActionItemRecord(item)
		if normalizeErr != nil {
			return normalizeErr
		}
		normalizedItems = append(normalizedItems, normalizedItem)
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin action write: %w", err)
	}
	rollbackWith := func(cause error) error {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("%w: rollback action write: %v", cause, rollbackErr)
		}
		return cause
	}

	if err := putActionExec(ctx, tx, normalized); err != nil {
		return rollbackWith(err)
	}
	for _, item := range normalizedItems {
		if err := putActionItemExec(ctx, tx, item); err != nil {
			return rollbackWith(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit action write: %w", err)
	}
	return nil
}

// GetAction loads one action by id.
func (s *Store) GetAction(ctx context.Context, actionID string) (storage.ActionRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.ActionRecord{}, err
	}
	if err := s.ready(); err != nil {
		return storage.ActionRecord{}, err
	}
	actionID = strings.TrimSpace(actionID)
	if actionID == "" {
		return storage.ActionRecord{}, storage.ErrNotFound
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT `+actionColumns+`
FROM pending_actions
WHERE id = ?
`, actionID)
	record, err := scanAction(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ActionRecord{}, storage.ErrNotFound
		}
		return storage.ActionRecord{}, fmt.Errorf("get action: %w", err)
	}
	return record, nil
}

// GetItemWithAction loads one item joined with its owning action.
func (s *Store) GetItemWithAction(ctx context.Context, itemID string) (storage.ActionItemRecord, storage.ActionRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.ActionItemRecord{}, storage.ActionRecord{}, err
	}
	if err := s.ready(); err != nil {
		return storage.ActionItemRecord{}, storage.ActionRecord{}, err
	}
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return storage.ActionItemRecord{}, storage.ActionRecord{}, storage.ErrNotFound
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT `+prefixColumns("i", actionItemColumns)+`, `+prefixColumns("a", actionColumns)+`
FROM pending_action_items i
JOIN pending_actions a ON a.id = i.action_id
WHERE i.id = ?
`, itemID)

	var item storage.ActionItemRecord
	var action storage.ActionRecord
	if err := scanItemWithAction(row.Scan, &item, &action); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ActionItemRecord{}, storage.ActionRecord{}, storage.ErrNotFound
		}
		return storage.ActionItemRecord{}, storage.ActionRecord{}, fmt.Errorf("get item with action: %w", err)
	}
	return item, action, nil
}

// ListActionsByOrg lists an organization's actions newest-first.
func (s *Store) ListActionsByOrg(ctx context.Context, orgID string, conversationID string) ([]storage.ActionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	orgID = strings.TrimSpace(orgID)
	conversationID = strings.TrimSpace(conversationID)
	if orgID == "" {
		return nil, fmt.Errorf("org id is required")
	}

	query := `
SELECT ` + actionColumns + `
FROM pending_actions
WHERE org_id = ?`
	args := []any{orgID}
	if conversationID != "" {
		query += ` AND conversation_id = ?`
		args = append(args, conversationID)
	}
	query += `
ORDER BY created_at DESC, id DESC`

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list actions: %w", err)
	}
	defer rows.Close()

	var results []storage.ActionRecord
	for rows.Next() {
		record, scanErr := scanAction(rows.Scan)
		if scanErr != nil {
			return nil, fmt.Errorf("scan action row: %w", scanErr)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate action rows: %w", err)
	}
	return results, nil
}

// ListActionItems lists an action's items in item order.
func (s *Store) ListActionItems(ctx context.Context, actionID string) ([]storage.ActionItemRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	actionID = strings.TrimSpace(actionID)
	if actionID == "" {
		return nil, fmt.Errorf("action id is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT `+actionItemColumns+`
FROM pending_action_items
WHERE action_id = ?
ORDER BY item_index ASC
`, actionID)
	if err != nil {
		return nil, fmt.Errorf("list action items: %w", err)
	}
	defer rows.Close()

	var results []storage.ActionItemRecord
	for rows.Next() {
		record, scanErr := scanActionItem(rows.Scan)
		if scanErr != nil {
			return nil, fmt.Errorf("scan action item row: %w", scanErr)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate action item rows: %w", err)
	}
	return results, nil
}

// ApproveItems moves currently-pending items of the action to approved.
// Items already resolved (or not named) are left untouched; the returned
// count reflects exactly how many rows transitioned.
func (s *Store) ApproveItems(ctx context.Context, actionID string, itemIDs []string, now time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := s.ready(); err != nil {
		return 0, err
	}
	actionID = strings.TrimSpace(actionID)
	if actionID == "" {
		return 0, fmt.Errorf("action id is required")
	}
	if now.IsZero() {
		return 0, fmt.Errorf("now is required")
	}

	query := `
UPDATE pending_action_items
SET status = 'approved', updated_at = ?
WHERE action_id = ? AND status = 'pending'`
	args := []any{toMillis(now), actionID}
	if len(itemIDs) > 0 {
		placeholders := make([]string, len(itemIDs))
		for i, itemID := range itemIDs {
			placeholders[i] = "?"
			args = append(args, strings.TrimSpace(itemID))
		}
		query += ` AND id IN (` + strings.Join(placeholders, ", ") + `)`
	}

	result, err := s.sqlDB.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("approve items: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("approve items rows affected: %w", err)
	}
	return int(affected), nil
}

// TransitionItem conditionally moves one item between statuses.
func (s *Store) TransitionItem(ctx context.Context, update storage.ItemTransition) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	itemID := strings.TrimSpace(update.ItemID)
	if itemID == "" {
		return fmt.Errorf("item id is required")
	}
	if strings.TrimSpace(update.ToStatus) == "" {
		return fmt.Errorf("target status is required")
	}
	if update.Now.IsZero() {
		return fmt.Errorf("now is required")
	}

	assignments := []string{"status = ?", "updated_at = ?"}
	args := []any{update.ToStatus, toMillis(update.Now)}
	if update.EditedPayloadJSON != nil {
		assignments = append(assignments, "edited_payload_json = ?")
		args = append(args, *update.EditedPayloadJSON)
	}

	guard, guardArgs := statusGuard("status", update.FromStatuses)
	query := "UPDATE pending_action_items SET " + strings.Join(assignments, ", ") + " WHERE id = ? AND " + guard
	args = append(args, itemID)
	args = append(args, guardArgs...)

	result, err := s.sqlDB.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("transition item: %w", err)
	}
	return affectedOrStale(result, "transition item")
}

// RejectActionWithItems atomically moves a pending action and every one of
// its items, regardless of item state, to rejected.
func (s *Store) RejectActionWithItems(ctx context.Context, actionID string, reviewerID string, reason string, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	actionID = strings.TrimSpace(actionID)
	reviewerID = strings.TrimSpace(reviewerID)
	if actionID == "" {
		return fmt.Errorf("action id is required")
	}
	if reviewerID == "" {
		return fmt.Errorf("reviewer id is required")
	}
	if now.IsZero() {
		return fmt.Errorf("now is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin action reject: %w", err)
	}
	rollbackWith := func(cause error) error {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("%w: rollback action reject: %v", cause, rollbackErr)
		}
		return cause
	}

	result, err := tx.ExecContext(ctx, `
UPDATE pending_actions
SET status = 'rejected',
    reviewed_at = ?,
    review_reason = ?,
    items_rejected = (SELECT COUNT(1) FROM pending_action_items WHERE action_id = pending_actions.id),
    updated_at = ?
WHERE id = ? AND status = 'pending'
`, toMillis(now), strings.TrimSpace(reason), toMillis(now), actionID)
	if err != nil {
		return rollbackWith(fmt.Errorf("reject action: %w", err))
	}
	if err := affectedOrStale(result, "reject action"); err != nil {
		return rollbackWith(err)
	}

	// Action-level veto: every item moves to rejected unconditionally.
	if _, err := tx.ExecContext(ctx, `
UPDATE pending_action_items
SET status = 'rejected', updated_at = ?
WHERE action_id = ?
`, toMillis(now), actionID); err != nil {
		return rollbackWith(fmt.Errorf("reject action items: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit action reject: %w", err)
	}
	return nil
}

// ExpireAction moves a still-pending action to expired.
func (s *Store) ExpireAction(ctx context.Context, actionID string, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	actionID = strings.TrimSpace(actionID)
	if actionID == "" {
		return fmt.Errorf("action id is required")
	}
	if now.IsZero() {
		return fmt.Errorf("now is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE pending_actions
SET status = 'expired', updated_at = ?
WHERE id = ? AND status = 'pending'
`, toMillis(now), actionID)
	if err != nil {
		return fmt.Errorf("expire action: %w", err)
	}
	return affectedOrStale(result, "expire action")
}

// SettleActionIfReviewed marks the action approved when no pending item
// remains. The guard and the counter recomputation live in one statement so
// concurrent reviewers cannot settle twice or skew the counters.
func (s *Store) SettleActionIfReviewed(ctx context.Context, actionID string, reviewerID string, now time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := s.ready(); err != nil {
		return false, err
	}
	actionID = strings.TrimSpace(actionID)
	reviewerID = strings.TrimSpace(reviewerID)
	if actionID == "" {
		return false, fmt.Errorf("action id is required")
	}
	if reviewerID == "" {
		return false, fmt.Errorf("reviewer id is required")
	}
	if now.IsZero() {
		return false, fmt.Errorf("now is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE pending_actions
SET status = 'approved',
    approved_by = ?,
    approved_at = ?,
    reviewed_at = ?,
    items_approved = (SELECT COUNT(1) FROM pending_action_items WHERE action_id = pending_actions.id AND status IN ('approved', 'executed', 'failed')),
    items_rejected = (SELECT COUNT(1) FROM pending_action_items WHERE action_id = pending_actions.id AND status = 'rejected'),
    updated_at = ?
WHERE id = ?
  AND status = 'pending'
  AND NOT EXISTS (
    SELECT 1 FROM pending_action_items
    WHERE action_id = pending_actions.id AND status = 'pending'
  )
`, reviewerID, toMillis(now), toMillis(now), toMillis(now), actionID)
	if err != nil {
		return false, fmt.Errorf("settle action: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("settle action rows affected: %w", err)
	}
	return affected > 0, nil
}

// RecordItemExecution moves an approved item to executed or failed and
// maintains the owning action's execution window and counters.
func (s *Store) RecordItemExecution(ctx context.Context, itemID string, succeeded bool, resultJSON string, errorMessage string, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return fmt.Errorf("item id is required")
	}
	if now.IsZero() {
		return fmt.Errorf("now is required")
	}
	targetStatus := "executed"
	if !succeeded {
		targetStatus = "failed"
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin execution record: %w", err)
	}
	rollbackWith := func(cause error) error {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("%w: rollback execution record: %v", cause, rollbackErr)
		}
		return cause
	}

	result, err := tx.ExecContext(ctx, `
UPDATE pending_action_items
SET status = ?,
    executed_at = ?,
    result_json = ?,
    error_message = ?,
    updated_at = ?
WHERE id = ? AND status = 'approved'
`, targetStatus, toMillis(now), strings.TrimSpace(resultJSON), strings.TrimSpace(errorMessage), toMillis(now), itemID)
	if err != nil {
		return rollbackWith(fmt.Errorf("record item execution: %w", err))
	}
	if err := affectedOrStale(result, "record item execution"); err != nil {
		return rollbackWith(err)
	}

	if _, err := tx.ExecContext(ctx, `
UPDATE pending_actions
SET items_executed = (SELECT COUNT(1) FROM pending_action_items WHERE action_id = pending_actions.id AND status = 'executed'),
    items_failed = (SELECT COUNT(1) FROM pending_action_items WHERE action_id = pending_actions.id AND status = 'failed'),
    execution_started_at = COALESCE(execution_started_at, ?),
    execution_completed_at = CASE
      WHEN NOT EXISTS (
        SELECT 1 FROM pending_action_items
        WHERE action_id = pending_actions.id AND status = 'approved'
      ) THEN ?
      ELSE execution_completed_at
    END,
    updated_at = ?
WHERE id = (SELECT action_id FROM pending_action_items WHERE id = ?)
`, toMillis(now), toMillis(now), toMillis(now), itemID); err != nil {
		return rollbackWith(fmt.Errorf("update action execution window: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit execution record: %w", err)
	}
	return nil
}

func prefixColumns(prefix string, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, part := range parts {
		parts[i] = prefix + "." + part
	}
	return strings.Join(parts, ", ")
}

func normalizeActionRecord(record storage.ActionRecord) (storage.ActionRecord, error) {
	record.ID = strings.TrimSpace(record.ID)
	record.OrgID = strings.TrimSpace(record.OrgID)
	record.UserID = strings.TrimSpace(record.UserID)
	record.Provider = strings.TrimSpace(record.Provider)
	record.ActionType = strings.TrimSpace(record.ActionType)
	record.ConversationID = strings.TrimSpace(record.ConversationID)
	record.AccountID = strings.TrimSpace(record.AccountID)
	record.Status = strings.TrimSpace(record.Status)
	if record.ID == "" {
		return storage.ActionRecord{}, fmt.Errorf("action id is required")
	}
	if record.OrgID == "" {
		return storage.ActionRecord{}, fmt.Errorf("org id is required")
	}
	if record.UserID == "" {
		return storage.ActionRecord{}, fmt.Errorf("user id is required")
	}
	if record.Provider == "" {
		return storage.ActionRecord{}, fmt.Errorf("provider is required")
	}
	if record.ActionType == "" {
		return storage.ActionRecord{}, fmt.Errorf("action type is required")
	}
	if record.Status == "" {
		record.Status = "pending"
	}
	if record.ExpiresAt.IsZero() {
		return storage.ActionRecord{}, fmt.Errorf("expires_at is required")
	}
	if record.CreatedAt.IsZero() {
		return storage.ActionRecord{}, fmt.Errorf("created_at is required")
	}
	if record.UpdatedAt.IsZero() {
		return storage.ActionRecord{}, fmt.Errorf("updated_at is required")
	}
	record.ExpiresAt = record.ExpiresAt.UTC()
	record.CreatedAt = record.CreatedAt.UTC()
	record.UpdatedAt = record.UpdatedAt.UTC()
	return record, nil
}

func normalizeActionItemRecord(record storage.ActionItemRecord) (storage.ActionItemRecord, error) {
	record.ID = strings.TrimSpace(record.ID)
	record.ActionID = strings.TrimSpace(record.ActionID)
	record.Status = strings.TrimSpace(record.Status)
	if record.ID == "" {
		return storage.ActionItemRecord{}, fmt.Errorf("item id is required")
	}
	if record.ActionID == "" {
		return storage.ActionItemRecord{}, fmt.Errorf("item action id is required")
	}
	if record.ItemIndex < 0 {
		return storage.ActionItemRecord{}, fmt.Errorf("item index must be non-negative")
	}
	if record.Status == "" {
		record.Status = "pending"
	}
	if record.CreatedAt.IsZero() {
		return storage.ActionItemRecord{}, fmt.Errorf("created_at is required")
	}
	if record.UpdatedAt.IsZero() {
		return storage.ActionItemRecord{}, fmt.Errorf("updated_at is required")
	}
	record.CreatedAt = record.CreatedAt.UTC()
	record.UpdatedAt = record.UpdatedAt.UTC()
	return record, nil
}

func putActionExec(ctx context.Context, execer sqlExecer, record storage.ActionRecord) error {
	_, err := execer.ExecContext(ctx, `
	INSERT INTO pending_actions (
		`+actionColumns+`
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.ID,
		record.OrgID,
		record.UserID,
		record.Provider,
		record.ActionType,
		record.ConversationID,
		record.AccountID,
		record.ItemCount,
		record.Status,
		toMillis(record.ExpiresAt),
		record.ApprovedBy,
		toNullMillis(record.ApprovedAt),
		toNullMillis(record.ReviewedAt),
		record.ReviewReason,
		toNullMillis(record.ExecutionStartedAt),
		toNullMillis(record.ExecutionCompletedAt),
		record.ItemsApproved,
		record.ItemsRejected,
		record.ItemsExecuted,
		record.ItemsFailed,
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("put action: %w", err)
	}
	return nil
}

func putActionItemExec(ctx context.Context, execer sqlExecer, record storage.ActionItemRecord) error {
	_, err := execer.ExecContext(ctx, `
	INSERT INTO pending_action_items (
		`+actionItemColumns+`
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.ID,
		record.ActionID,
		record.ItemIndex,
		record.PayloadJSON,
		record.EditedPayloadJSON,
		record.Preview,
		record.Status,
		toNullMillis(record.ExecutedAt),
		record.ResultJSON,
		record.ErrorMessage,
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) || isForeignKeyConstraintError(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("put action item: %w", err)
	}
	return nil
}

func scanAction(scan scanner) (storage.ActionRecord, error) {
	var record storage.ActionRecord
	var expiresAt, createdAt, updatedAt int64
	var approvedAt, reviewedAt, execStartedAt, execCompletedAt sql.NullInt64
	if err := scan(
		&record.ID,
		&record.OrgID,
		&record.UserID,
		&record.Provider,
		&record.ActionType,
		&record.ConversationID,
		&record.AccountID,
		&record.ItemCount,
		&record.Status,
		&expiresAt,
		&record.ApprovedBy,
		&approvedAt,
		&reviewedAt,
		&record.ReviewReason,
		&execStartedAt,
		&execCompletedAt,
		&record.ItemsApproved,
		&record.ItemsRejected,
		&record.ItemsExecuted,
		&record.ItemsFailed,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.ActionRecord{}, err
	}
	record.ExpiresAt = fromMillis(expiresAt)
	record.ApprovedAt = fromNullMillis(approvedAt)
	record.ReviewedAt = fromNullMillis(reviewedAt)
	record.ExecutionStartedAt = fromNullMillis(execStartedAt)
	record.ExecutionCompletedAt = fromNullMillis(execCompletedAt)
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}

func scanActionItem(scan scanner) (storage.ActionItemRecord, error) {
	var record storage.ActionItemRecord
	var executedAt sql.NullInt64
	var createdAt, updatedAt int64
	if err := scan(
		&record.ID,
		&record.ActionID,
		&record.ItemIndex,
		&record.PayloadJSON,
		&record.EditedPayloadJSON,
		&record.Preview,
		&record.Status,
		&executedAt,
		&record.ResultJSON,
		&record.ErrorMessage,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.ActionItemRecord{}, err
	}
	record.ExecutedAt = fromNullMillis(executedAt)
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}

func scanItemWithAction(scan scanner, item *storage.ActionItemRecord, action *storage.ActionRecord) error {
	var itemExecutedAt sql.NullInt64
	var itemCreatedAt, itemUpdatedAt int64
	var expiresAt, createdAt, updatedAt int64
	var approvedAt, reviewedAt, execStartedAt, execCompletedAt sql.NullInt64
	if err := scan(
		&item.ID,
		&item.ActionID,
		&item.ItemIndex,
		&item.PayloadJSON,
		&item.EditedPayloadJSON,
		&item.Preview,
		&item.Status,
		&itemExecutedAt,
		&item.ResultJSON,
		&item.ErrorMessage,
		&itemCreatedAt,
		&itemUpdatedAt,
		&action.ID,
		&action.OrgID,
		&action.UserID,
		&action.Provider,
		&action.ActionType,
		&action.ConversationID,
		&action.AccountID,
		&action.ItemCount,
		&action.Status,
		&expiresAt,
		&action.ApprovedBy,
		&approvedAt,
		&reviewedAt,
		&action.ReviewReason,
		&execStartedAt,
		&execCompletedAt,
		&action.ItemsApproved,
		&action.ItemsRejected,
		&action.ItemsExecuted,
		&action.ItemsFailed,
		&createdAt,
		&updatedAt,
	); err != nil {
		return err
	}
	item.ExecutedAt = fromNullMillis(itemExecutedAt)
	item.CreatedAt = fromMillis(itemCreatedAt)
	item.UpdatedAt = fromMillis(itemUpdatedAt)
	action.ExpiresAt = fromMillis(expiresAt)
	action.ApprovedAt = fromNullMillis(approvedAt)
	action.ReviewedAt = fromNullMillis(reviewedAt)
	action.ExecutionStartedAt = fromNullMillis(execStartedAt)
	action.ExecutionCompletedAt = fromNullMillis(execCompletedAt)
	action.CreatedAt = fromMillis(createdAt)
	action.UpdatedAt = fromMillis(updatedAt)
	return nil
}
