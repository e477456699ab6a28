package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/brandloom/brandloom/internal/platform/errors"
)

// CreateActivityInput describes one orchestrator activity creation request.
type CreateActivityInput struct {
	UserID     string
	Title      string
	StepTitles []string
}

// StepProgress reports one step transition inside a progress callback.
type StepProgress struct {
	StepID       string
	Status       string
	ResultJSON   string
	ErrorMessage string
}

// ProgressReport describes one orchestrator progress callback. An empty
// Status updates progress only; a non-empty Status also transitions the
// activity.
type ProgressReport struct {
	ActivityID   string
	Status       string
	Progress     *int
	Message      string
	ResultJSON   string
	ErrorMessage string
	ErrorCode    string
	Steps        []StepProgress
}

// CreateActivity records a new activity with its ordered steps.
func (s *Service) CreateActivity(ctx context.Context, input CreateActivityInput) (ActivityView, error) {
	if s == nil || s.store == nil {
		return ActivityView{}, apperrors.New(apperrors.CodeUnknown, "store is not configured")
	}
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return ActivityView{}, apperrors.New(apperrors.CodeUnauthorized, "user id is required")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return ActivityView{}, apperrors.New(apperrors.CodeActivityTitleEmpty, "activity title is required")
	}

	now := s.clock().UTC()
	activityID, err := s.newID()
	if err != nil {
		return ActivityView{}, apperrors.Wrap(apperrors.CodeUnknown, "generate activity id", err)
	}
	activity := Activity{
		ID:        activityID,
		UserID:    userID,
		Title:     title,
		Status:    ActivityPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	steps := make([]ActivityStep, 0, len(input.StepTitles))
	for i, stepTitle := range input.StepTitles {
		stepTitle = strings.TrimSpace(stepTitle)
		if stepTitle == "" {
			return ActivityView{}, apperrors.New(apperrors.CodeActivityTitleEmpty, fmt.Sprintf("step %d title is required", i))
		}
		stepID, idErr := s.newID()
		if idErr != nil {
			return ActivityView{}, apperrors.Wrap(apperrors.CodeUnknown, "generate step id", idErr)
		}
		steps = append(steps, ActivityStep{
			ID:         stepID,
			ActivityID: activityID,
			StepIndex:  i,
			Title:      stepTitle,
			Status:     StepPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	if err := s.store.PutActivityWithSteps(ctx, activity, steps); err != nil {
		if errors.Is(err, ErrConflict) {
			return ActivityView{}, apperrors.Wrap(apperrors.CodeConflict, "activity already exists", err)
		}
		return ActivityView{}, apperrors.Wrap(apperrors.CodeUnknown, "store activity", err)
	}
	return ActivityView{Activity: activity, Steps: steps}, nil
}

// GetActivity loads one activity with steps, scoped to its owner. Absence
// and foreign ownership are indistinguishable.
func (s *Service) GetActivity(ctx context.Context, userID string, activityID string) (ActivityView, error) {
	if s == nil || s.store == nil {
		return ActivityView{}, apperrors.New(apperrors.CodeUnknown, "store is not configured")
	}
	activity, err := s.store.GetActivityByUser(ctx, strings.TrimSpace(userID), strings.TrimSpace(activityID))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ActivityView{}, apperrors.New(apperrors.CodeNotFound, "activity not found")
		}
		return ActivityView{}, apperrors.Wrap(apperrors.CodeUnknown, "load activity", err)
	}
	steps, err := s.store.ListActivitySteps(ctx, activity.ID)
	if err != nil {
		return ActivityView{}, apperrors.Wrap(apperrors.CodeUnknown, "load activity steps", err)
	}
	return ActivityView{Activity: activity, Steps: steps}, nil
}

// GetActivityAny loads one activity with steps without owner scoping. Used
// by the orchestration channel only.
func (s *Service) GetActivityAny(ctx context.Context, activityID string) (ActivityView, error) {
	if s == nil || s.store == nil {
		return ActivityView{}, apperrors.New(apperrors.CodeUnknown, "store is not configured")
	}
	activity, err := s.store.GetActivity(ctx, strings.TrimSpace(activityID))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ActivityView{}, apperrors.New(apperrors.CodeNotFound, "activity not found")
		}
		return ActivityView{}, apperrors.Wrap(apperrors.CodeUnknown, "load activity", err)
	}
	steps, err := s.store.ListActivitySteps(ctx, activity.ID)
	if err != nil {
		return ActivityView{}, apperrors.Wrap(apperrors.CodeUnknown, "load activity steps", err)
	}
	return ActivityView{Activity: activity, Steps: steps}, nil
}

// ListActivities lists one user's activities newest-first.
func (s *Service) ListActivities(ctx context.Context, userID string) ([]Activity, error) {
	if s == nil || s.store == nil {
		return nil, apperrors.New(apperrors.CodeUnknown, "store is not configured")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperrors.New(apperrors.CodeUnauthorized, "user id is required")
	}
	activities, err := s.store.ListActivitiesByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeUnknown, "list activities", err)
	}
	return activities, nil
}

// PauseActivity pauses one running activity. Only the owner may pause.
func (s *Service) PauseActivity(ctx context.Context, userID string, activityID string) (Activity, error) {
	if s == nil || s.store == nil {
		return Activity{}, apperrors.New(apperrors.CodeUnknown, "store is not configured")
	}
	activity, err := s.store.GetActivityByUser(ctx, strings.TrimSpace(userID), strings.TrimSpace(activityID))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Activity{}, apperrors.New(apperrors.CodeNotFound, "activity not found")
		}
		return Activity{}, apperrors.Wrap(apperrors.CodeUnknown, "load activity", err)
	}
	if activity.Status != ActivityRunning {
		return Activity{}, apperrors.WithMetadata(apperrors.CodeActivityNotPausable, "only a running activity can be paused", map[string]string{"status": activity.Status})
	}

	now := s.clock().UTC()
	err = s.store.TransitionActivity(ctx, ActivityTransition{
		ActivityID:   activity.ID,
		UserID:       activity.UserID,
		FromStatuses: []string{ActivityRunning},
		ToStatus:     ActivityPaused,
		Now:          now,
	})
	if err != nil {
		// A zero-row match means a concurrent writer moved the activity
		// out of running between the read and the write.
		if errors.Is(err, ErrStaleState) {
			return Activity{}, apperrors.New(apperrors.CodeActivityNotPausable, "only a running activity can be paused")
		}
		return Activity{}, apperrors.Wrap(apperrors.CodeUnknown, "pause activity", err)
	}
	return s.reloadActivity(ctx, activity.ID)
}

// RetryActivity resets one failed or cancelled activity and all of its
// steps back to pending. Only the owner may retry.
func (s *Service) RetryActivity(ctx context.Context, userID string, activityID string) (ActivityView, error) {
	if s == nil || s.store == nil {
		return ActivityView{}, apperrors.New(apperrors.CodeUnknown, "store is not configured")
	}
	activity, err := s.store.GetActivityByUser(ctx, strings.TrimSpace(userID), strings.TrimSpace(activityID))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ActivityView{}, apperrors.New(apperrors.CodeNotFound, "activity not found")
		}
		return ActivityView{}, apperrors.Wrap(apperrors.CodeUnknown, "load activity", err)
	}
	if activity.Status != ActivityFailed && activity.Status != ActivityCancelled {
		return ActivityView{}, apperrors.WithMetadata(apperrors.CodeActivityNotRetryable, "only a failed or cancelled activity can be retried", map[string]string{"status": activity.Status})
	}

	now := s.clock().UTC()
	if err := s.store.ResetActivityForRetry(ctx, activity.UserID, activity.ID, now); err != nil {
		if errors.Is(err, ErrStaleState) {
			return ActivityView{}, apperrors.New(apperrors.CodeActivityNotRetryable, "only a failed or cancelled activity can be retried")
		}
		return ActivityView{}, apperrors.Wrap(apperrors.CodeUnknown, "retry activity", err)
	}
	return s.GetActivity(ctx, activity.UserID, activity.ID)
}

// ReportProgress applies one orchestrator progress callback: an optional
// activity transition, an optional progress update, and step transitions.
func (s *Service) ReportProgress(ctx context.Context, report ProgressReport) (ActivityView, error) {
	if s == nil || s.store == nil {
		return ActivityView{}, apperrors.New(apperrors.CodeUnknown, "store is not configured")
	}
	activity, err := s.store.GetActivity(ctx, strings.TrimSpace(report.ActivityID))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ActivityView{}, apperrors.New(apperrors.CodeNotFound, "activity not found")
		}
		return ActivityView{}, apperrors.Wrap(apperrors.CodeUnknown, "load activity", err)
	}
	if report.Progress != nil && (*report.Progress < 0 || *report.Progress > 100) {
		return ActivityView{}, apperrors.New(apperrors.CodeProgressOutOfRange, "progress must be between 0 and 100")
	}

	now := s.clock().UTC()
	if err := s.applyActivityReport(ctx, activity, report, now); err != nil {
		return ActivityView{}, err
	}
	for _, step := range report.Steps {
		if err := s.applyStepReport(ctx, step, now); err != nil {
			return ActivityView{}, err
		}
	}
	return s.GetActivityAny(ctx, activity.ID)
}

func (s *Service) applyActivityReport(ctx context.Context, activity Activity, report ProgressReport, now time.Time) error {
	update := ActivityTransition{
		ActivityID: activity.ID,
		Progress:   report.Progress,
		Now:        now,
	}
	if message := strings.TrimSpace(report.Message); message != "" {
		update.Message = &message
	}

	switch strings.TrimSpace(report.Status) {
	case "":
		// Progress-only callbacks apply to a running activity.
		if update.Progress == nil && update.Message == nil {
			return nil
		}
		update.FromStatuses = []string{ActivityRunning}
		update.ToStatus = ActivityRunning
	case ActivityRunning:
		update.FromStatuses = []string{ActivityPending, ActivityPaused, ActivityRunning}
		update.ToStatus = ActivityRunning
		if activity.Status != ActivityRunning {
			startedAt := now
			update.StartedAt = &startedAt
		}
	case ActivityCompleted:
		update.FromStatuses = []string{ActivityRunning}
		update.ToStatus = ActivityCompleted
		completedAt := now
		update.CompletedAt = &completedAt
		resultJSON := report.ResultJSON
		update.ResultJSON = &resultJSON
	case ActivityFailed, ActivityCancelled:
		update.FromStatuses = []string{ActivityPending, ActivityRunning, ActivityPaused}
		update.ToStatus = strings.TrimSpace(report.Status)
		completedAt := now
		update.CompletedAt = &completedAt
		errorMessage := strings.TrimSpace(report.ErrorMessage)
		errorCode := strings.TrimSpace(report.ErrorCode)
		update.ErrorMessage = &errorMessage
		update.ErrorCode = &errorCode
	default:
		return apperrors.WithMetadata(apperrors.CodeActivityInvalidState, "unknown activity status", map[string]string{"status": report.Status})
	}

	if err := s.store.TransitionActivity(ctx, update); err != nil {
		if errors.Is(err, ErrStaleState) {
			return apperrors.WithMetadata(apperrors.CodeActivityInvalidState, "activity is not eligible for this transition", map[string]string{"status": activity.Status, "target": update.ToStatus})
		}
		return apperrors.Wrap(apperrors.CodeUnknown, "transition activity", err)
	}
	return nil
}

func (s *Service) applyStepReport(ctx context.Context, step StepProgress, now time.Time) error {
	update := StepTransition{
		StepID: strings.TrimSpace(step.StepID),
		Now:    now,
	}
	switch strings.TrimSpace(step.Status) {
	case StepRunning:
		update.FromStatuses = []string{StepPending}
		update.ToStatus = StepRunning
		startedAt := now
		update.StartedAt = &startedAt
	case StepCompleted:
		update.FromStatuses = []string{StepRunning}
		update.ToStatus = StepCompleted
		completedAt := now
		update.CompletedAt = &completedAt
		resultJSON := step.ResultJSON
		update.ResultJSON = &resultJSON
	case StepFailed:
		update.FromStatuses = []string{StepPending, StepRunning}
		update.ToStatus = StepFailed
		completedAt := now
		update.CompletedAt = &completedAt
		errorMessage := strings.TrimSpace(step.ErrorMessage)
		update.ErrorMessage = &errorMessage
	default:
		return apperrors.WithMetadata(apperrors.CodeActivityInvalidState, "unknown step status", map[string]string{"status": step.Status})
	}

	if err := s.store.TransitionStep(ctx, update); err != nil {
		if errors.Is(err, ErrStaleState) {
			return apperrors.WithMetadata(apperrors.CodeActivityInvalidState, "step is not eligible for this transition", map[string]string{"step_id": update.StepID, "target": update.ToStatus})
		}
		return apperrors.Wrap(apperrors.CodeUnknown, "transition step", err)
	}
	return nil
}

func (s *Service) reloadActivity(ctx context.Context, activityID string) (Activity, error) {
	activity, err := s.store.GetActivity(ctx, activityID)
	if err != nil {
		return Activity{}, apperrors.Wrap(apperrors.CodeUnknown, "reload activity", err)
	}
	return activity, nil
}
