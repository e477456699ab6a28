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

const activityColumns = `id, user_id, title, status, progress, progress_message, started_at, completed_at, duration_ms, result_json, error_message, error_code, created_at, updated_at`

const activityStepColumns = `id, activity_id, step_index, title, status, started_at, completed_at, result_json, error_message, created_at, updated_at`

// PutActivityWithSteps atomically persists one activity and its ordered steps.
func (s *Store) PutActivityWithSteps(ctx context.Context, activity storage.ActivityRecord, steps []storage.ActivityStepRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	normalized, err := normalizeActivityRecord(activity)
	if err != nil {
		return err
	}
	normalizedSteps := make([]storage.ActivityStepRecord, 0, len(steps))
	for _, step := range steps {
		normalizedStep, normalizeErr := normalizeActivityStepRecord(step)
		if normalizeErr != nil {
			return normalizeErr
		}
		normalizedSteps = append(normalizedSteps, normalizedStep)
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin activity write: %w", err)
	}
	rollbackWith := func(cause error) error {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("%w: rollback activity write: %v", cause, rollbackErr)
		}
		return cause
	}

	if err := putActivityExec(ctx, tx, normalized); err != nil {
		return rollbackWith(err)
	}
	for _, step := range normalizedSteps {
		if err := putActivityStepExec(ctx, tx, step); err != nil {
			return rollbackWith(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit activity write: %w", err)
	}
	return nil
}

// GetActivityByUser loads one activity scoped to its owner.
func (s *Store) GetActivityByUser(ctx context.Context, userID string, activityID string) (storage.ActivityRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.ActivityRecord{}, err
	}
	if err := s.ready(); err != nil {
		return storage.ActivityRecord{}, err
	}
	userID = strings.TrimSpace(userID)
	activityID = strings.TrimSpace(activityID)
	if userID == "" {
		return storage.ActivityRecord{}, fmt.Errorf("user id is required")
	}
	if activityID == "" {
		return storage.ActivityRecord{}, storage.ErrNotFound
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT `+activityColumns+`
FROM activities
WHERE id = ? AND user_id = ?
`, activityID, userID)
	record, err := scanActivity(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ActivityRecord{}, storage.ErrNotFound
		}
		return storage.ActivityRecord{}, fmt.Errorf("get activity by user: %w", err)
	}
	return record, nil
}

// GetActivity loads one activity without owner scoping.
func (s *Store) GetActivity(ctx context.Context, activityID string) (storage.ActivityRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.ActivityRecord{}, err
	}
	if err := s.ready(); err != nil {
		return storage.ActivityRecord{}, err
	}
	activityID = strings.TrimSpace(activityID)
	if activityID == "" {
		return storage.ActivityRecord{}, storage.ErrNotFound
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT `+activityColumns+`
FROM activities
WHERE id = ?
`, activityID)
	record, err := scanActivity(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ActivityRecord{}, storage.ErrNotFound
		}
		return storage.ActivityRecord{}, fmt.Errorf("get activity: %w", err)
	}
	return record, nil
}

// ListActivitiesByUser lists one owner's activities newest-first.
func (s *Store) ListActivitiesByUser(ctx context.Context, userID string) ([]storage.ActivityRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT `+activityColumns+`
FROM activities
WHERE user_id = ?
ORDER BY created_at DESC, id DESC
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	var results []storage.ActivityRecord
	for rows.Next() {
		record, scanErr := scanActivity(rows.Scan)
		if scanErr != nil {
			return nil, fmt.Errorf("scan activity row: %w", scanErr)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity rows: %w", err)
	}
	return results, nil
}

// ListActivitySteps lists an activity's steps in step order.
func (s *Store) ListActivitySteps(ctx context.Context, activityID string) ([]storage.ActivityStepRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	activityID = strings.TrimSpace(activityID)
	if activityID == "" {
		return nil, fmt.Errorf("activity id is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT `+activityStepColumns+`
FROM activity_steps
WHERE activity_id = ?
ORDER BY step_index ASC
`, activityID)
	if err != nil {
		return nil, fmt.Errorf("list activity steps: %w", err)
	}
	defer rows.Close()

	var results []storage.ActivityStepRecord
	for rows.Next() {
		record, scanErr := scanActivityStep(rows.Scan)
		if scanErr != nil {
			return nil, fmt.Errorf("scan activity step row: %w", scanErr)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity step rows: %w", err)
	}
	return results, nil
}

// TransitionActivity conditionally moves one activity between statuses.
func (s *Store) TransitionActivity(ctx context.Context, update storage.ActivityTransition) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	activityID := strings.TrimSpace(update.ActivityID)
	if activityID == "" {
		return fmt.Errorf("activity id is required")
	}
	if strings.TrimSpace(update.ToStatus) == "" {
		return fmt.Errorf("target status is required")
	}
	if update.Now.IsZero() {
		return fmt.Errorf("now is required")
	}

	assignments := []string{"status = ?", "updated_at = ?"}
	args := []any{update.ToStatus, toMillis(update.Now)}
	if update.Progress != nil {
		assignments = append(assignments, "progress = ?")
		args = append(args, *update.Progress)
	}
	if update.Message != nil {
		assignments = append(assignments, "progress_message = ?")
		args = append(args, *update.Message)
	}
	if update.StartedAt != nil {
		assignments = append(assignments, "started_at = ?")
		args = append(args, toMillis(*update.StartedAt))
	}
	if update.CompletedAt != nil {
		assignments = append(assignments, "completed_at = ?", "duration_ms = CASE WHEN started_at IS NULL THEN NULL ELSE ? - started_at END")
		args = append(args, toMillis(*update.CompletedAt), toMillis(*update.CompletedAt))
	}
	if update.ResultJSON != nil {
		assignments = append(assignments, "result_json = ?")
		args = append(args, *update.ResultJSON)
	}
	if update.ErrorMessage != nil {
		assignments = append(assignments, "error_message = ?")
		args = append(args, *update.ErrorMessage)
	}
	if update.ErrorCode != nil {
		assignments = append(assignments, "error_code = ?")
		args = append(args, *update.ErrorCode)
	}

	guard, guardArgs := statusGuard("status", update.FromStatuses)
	query := "UPDATE activities SET " + strings.Join(assignments, ", ") + " WHERE id = ? AND " + guard
	args = append(args, activityID)
	args = append(args, guardArgs...)
	if userID := strings.TrimSpace(update.UserID); userID != "" {
		query += " AND user_id = ?"
		args = append(args, userID)
	}

	result, err := s.sqlDB.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("transition activity: %w", err)
	}
	return affectedOrStale(result, "transition activity")
}

// ResetActivityForRetry atomically resets one failed or cancelled activity
// and all of its steps back to pending.
func (s *Store) ResetActivityForRetry(ctx context.Context, userID string, activityID string, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	userID = strings.TrimSpace(userID)
	activityID = strings.TrimSpace(activityID)
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	if activityID == "" {
		return fmt.Errorf("activity id is required")
	}
	if now.IsZero() {
		return fmt.Errorf("now is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin activity retry: %w", err)
	}
	rollbackWith := func(cause error) error {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("%w: rollback activity retry: %v", cause, rollbackErr)
		}
		return cause
	}

	result, err := tx.ExecContext(ctx, `
UPDATE activities
SET status = 'pending',
    progress = 0,
    progress_message = '',
    started_at = NULL,
    completed_at = NULL,
    duration_ms = NULL,
    result_json = '',
    error_message = '',
    error_code = '',
    updated_at = ?
WHERE id = ? AND user_id = ? AND status IN ('failed', 'cancelled')
`, toMillis(now), activityID, userID)
	if err != nil {
		return rollbackWith(fmt.Errorf("reset activity: %w", err))
	}
	if err := affectedOrStale(result, "reset activity"); err != nil {
		return rollbackWith(err)
	}

	if _, err := tx.ExecContext(ctx, `
UPDATE activity_steps
SET status = 'pending',
    started_at = NULL,
    completed_at = NULL,
    result_json = '',
    error_message = '',
    updated_at = ?
WHERE activity_id = ?
`, toMillis(now), activityID); err != nil {
		return rollbackWith(fmt.Errorf("reset activity steps: %w", err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit activity retry: %w", err)
	}
	return nil
}

// TransitionStep conditionally moves one step between statuses.
func (s *Store) TransitionStep(ctx context.Context, update storage.StepTransition) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ready(); err != nil {
		return err
	}
	stepID := strings.TrimSpace(update.StepID)
	if stepID == "" {
		return fmt.Errorf("step id is required")
	}
	if strings.TrimSpace(update.ToStatus) == "" {
		return fmt.Errorf("target status is required")
	}
	if update.Now.IsZero() {
		return fmt.Errorf("now is required")
	}

	assignments := []string{"status = ?", "updated_at = ?"}
	args := []any{update.ToStatus, toMillis(update.Now)}
	if update.StartedAt != nil {
		assignments = append(assignments, "started_at = ?")
		args = append(args, toMillis(*update.StartedAt))
	}
	if update.CompletedAt != nil {
		assignments = append(assignments, "completed_at = ?")
		args = append(args, toMillis(*update.CompletedAt))
	}
	if update.ResultJSON != nil {
		assignments = append(assignments, "result_json = ?")
		args = append(args, *update.ResultJSON)
	}
	if update.ErrorMessage != nil {
		assignments = append(assignments, "error_message = ?")
		args = append(args, *update.ErrorMessage)
	}

	guard, guardArgs := statusGuard("status", update.FromStatuses)
	query := "UPDATE activity_steps SET " + strings.Join(assignments, ", ") + " WHERE id = ? AND " + guard
	args = append(args, stepID)
	args = append(args, guardArgs...)

	result, err := s.sqlDB.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("transition activity step: %w", err)
	}
	return affectedOrStale(result, "transition activity step")
}

func normalizeActivityRecord(record storage.ActivityRecord) (storage.ActivityRecord, error) {
	record.ID = strings.TrimSpace(record.ID)
	record.UserID = strings.TrimSpace(record.UserID)
	record.Title = strings.TrimSpace(record.Title)
	record.Status = strings.TrimSpace(record.Status)
	if record.ID == "" {
		return storage.ActivityRecord{}, fmt.Errorf("activity id is required")
	}
	if record.UserID == "" {
		return storage.ActivityRecord{}, fmt.Errorf("user id is required")
	}
	if record.Title == "" {
		return storage.ActivityRecord{}, fmt.Errorf("activity title is required")
	}
	if record.Status == "" {
		record.Status = "pending"
	}
	if record.Progress < 0 || record.Progress > 100 {
		return storage.ActivityRecord{}, fmt.Errorf("activity progress out of range")
	}
	if record.CreatedAt.IsZero() {
		return storage.ActivityRecord{}, fmt.Errorf("created_at is required")
	}
	if record.UpdatedAt.IsZero() {
		return storage.ActivityRecord{}, fmt.Errorf("updated_at is required")
	}
	record.CreatedAt = record.CreatedAt.UTC()
	record.UpdatedAt = record.UpdatedAt.UTC()
	return record, nil
}

func normalizeActivityStepRecord(record storage.ActivityStepRecord) (storage.ActivityStepRecord, error) {
	record.ID = strings.TrimSpace(record.ID)
	record.ActivityID = strings.TrimSpace(record.ActivityID)
	record.Title = strings.TrimSpace(record.Title)
	record.Status = strings.TrimSpace(record.Status)
	if record.ID == "" {
		return storage.ActivityStepRecord{}, fmt.Errorf("step id is required")
	}
	if record.ActivityID == "" {
		return storage.ActivityStepRecord{}, fmt.Errorf("step activity id is required")
	}
	if record.StepIndex < 0 {
		return storage.ActivityStepRecord{}, fmt.Errorf("step index must be non-negative")
	}
	if record.Status == "" {
		record.Status = "pending"
	}
	if record.CreatedAt.IsZero() {
		return storage.ActivityStepRecord{}, fmt.Errorf("created_at is required")
	}
	if record.UpdatedAt.IsZero() {
		return storage.ActivityStepRecord{}, fmt.Errorf("updated_at is required")
	}
	record.CreatedAt = record.CreatedAt.UTC()
	record.UpdatedAt = record.UpdatedAt.UTC()
	return record, nil
}

func putActivityExec(ctx context.Context, execer sqlExecer, record storage.ActivityRecord) error {
	var durationMillis sql.NullInt64
	if record.DurationMillis != nil {
		durationMillis = sql.NullInt64{Int64: *record.DurationMillis, Valid: true}
	}
	_, err := execer.ExecContext(ctx, `
	INSERT INTO activities (
		`+activityColumns+`
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.ID,
		record.UserID,
		record.Title,
		record.Status,
		record.Progress,
		record.ProgressMessage,
		toNullMillis(record.StartedAt),
		toNullMillis(record.CompletedAt),
		durationMillis,
		record.ResultJSON,
		record.ErrorMessage,
		record.ErrorCode,
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("put activity: %w", err)
	}
	return nil
}

func putActivityStepExec(ctx context.Context, execer sqlExecer, record storage.ActivityStepRecord) error {
	_, err := execer.ExecContext(ctx, `
	INSERT INTO activity_steps (
		`+activityStepColumns+`
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.ID,
		record.ActivityID,
		record.StepIndex,
		record.Title,
		record.Status,
		toNullMillis(record.StartedAt),
		toNullMillis(record.CompletedAt),
		record.ResultJSON,
		record.ErrorMessage,
		toMillis(record.CreatedAt),
		toMillis(record.UpdatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) || isForeignKeyConstraintError(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("put activity step: %w", err)
	}
	return nil
}

func scanActivity(scan scanner) (storage.ActivityRecord, error) {
	var record storage.ActivityRecord
	var startedAt, completedAt, durationMillis sql.NullInt64
	var createdAt, updatedAt int64
	if err := scan(
		&record.ID,
		&record.UserID,
		&record.Title,
		&record.Status,
		&record.Progress,
		&record.ProgressMessage,
		&startedAt,
		&completedAt,
		&durationMillis,
		&record.ResultJSON,
		&record.ErrorMessage,
		&record.ErrorCode,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.ActivityRecord{}, err
	}
	record.StartedAt = fromNullMillis(startedAt)
	record.CompletedAt = fromNullMillis(completedAt)
	if durationMillis.Valid {
		value := durationMillis.Int64
		record.DurationMillis = &value
	}
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}

func scanActivityStep(scan scanner) (storage.ActivityStepRecord, error) {
	var record storage.ActivityStepRecord
	var startedAt, completedAt sql.NullInt64
	var createdAt, updatedAt int64
	if err := scan(
		&record.ID,
		&record.ActivityID,
		&record.StepIndex,
		&record.Title,
		&record.Status,
		&startedAt,
		&completedAt,
		&record.ResultJSON,
		&record.ErrorMessage,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.ActivityStepRecord{}, err
	}
	record.StartedAt = fromNullMillis(startedAt)
	record.CompletedAt = fromNullMillis(completedAt)
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}
