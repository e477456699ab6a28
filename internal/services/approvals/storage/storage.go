// Package storage defines the persistence boundary for the approvals engine.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a requested write conflicts with uniqueness constraints.
	ErrConflict = errors.New("record conflict")
	// ErrStaleState indicates a conditional write matched zero rows because
	// the row's status no longer satisfies the guard. The losing side of a
	// concurrent transition observes this instead of corrupting state.
	ErrStaleState = errors.New("state guard did not match")
)

// ActivityRecord stores one long-running unit of agent work.
type ActivityRecord struct {
	ID              string
	UserID          string
	Title           string
	Status          string
	Progress        int
	ProgressMessage string
	StartedAt       *time.Time
	CompletedAt     *time.Time
	DurationMillis  *int64
	ResultJSON      string
	ErrorMessage    string
	ErrorCode       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ActivityStepRecord stores one ordered sub-unit of an activity.
type ActivityStepRecord struct {
	ID           string
	ActivityID   string
	StepIndex    int
	Title        string
	Status       string
	StartedAt    *time.Time
	CompletedAt  *time.Time
	ResultJSON   string
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ActionRecord stores one batch of proposed external operations awaiting review.
type ActionRecord struct {
	ID                   string
	OrgID                string
	UserID               string
	Provider             string
	ActionType           string
	ConversationID       string
	AccountID            string
	ItemCount            int
	Status               string
	ExpiresAt            time.Time
	ApprovedBy           string
	ApprovedAt           *time.Time
	ReviewedAt           *time.Time
	ReviewReason         string
	ExecutionStartedAt   *time.Time
	ExecutionCompletedAt *time.Time
	ItemsApproved        int
	ItemsRejected        int
	ItemsExecuted        int
	ItemsFailed          int
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// ActionItemRecord stores one concrete operation within a pending action.
type ActionItemRecord struct {
	ID                string
	ActionID          string
	ItemIndex         int
	PayloadJSON       string
	EditedPayloadJSON string
	Preview           string
	Status            string
	ExecutedAt        *time.Time
	ResultJSON        string
	ErrorMessage      string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ActivityStore persists activity and step lifecycle state.
type ActivityStore interface {
	// PutActivityWithSteps atomically persists one activity and its ordered steps.
	PutActivityWithSteps(ctx context.Context, activity ActivityRecord, steps []ActivityStepRecord) error

	// GetActivityByUser loads one activity scoped to its owner.
	GetActivityByUser(ctx context.Context, userID string, activityID string) (ActivityRecord, error)

	// GetActivity loads one activity without owner scoping (orchestration channel).
	GetActivity(ctx context.Context, activityID string) (ActivityRecord, error)

	// ListActivitiesByUser lists one owner's activities newest-first.
	ListActivitiesByUser(ctx context.Context, userID string) ([]ActivityRecord, error)

	// ListActivitySteps lists an activity's steps in step order.
	ListActivitySteps(ctx context.Context, activityID string) ([]ActivityStepRecord, error)

	// TransitionActivity conditionally moves one activity between statuses.
	// The write applies only while the current status is in fromStatuses;
	// a zero-row match returns ErrStaleState.
	TransitionActivity(ctx context.Context, update ActivityTransition) error

	// ResetActivityForRetry atomically resets one failed or cancelled
	// activity and all of its steps back to pending.
	ResetActivityForRetry(ctx context.Context, userID string, activityID string, now time.Time) error

	// TransitionStep conditionally moves one step between statuses.
	TransitionStep(ctx context.Context, update StepTransition) error
}

// ActivityTransition describes one guarded activity status write.
type ActivityTransition struct {
	ActivityID   string
	UserID       string // empty means no owner guard (orchestration channel)
	FromStatuses []string
	ToStatus     string
	Progress     *int
	Message      *string
	StartedAt    *time.Time
	CompletedAt  *time.Time
	ResultJSON   *string
	ErrorMessage *string
	ErrorCode    *string
	Now          time.Time
}

// StepTransition describes one guarded step status write.
type StepTransition struct {
	StepID       string
	FromStatuses []string
	ToStatus     string
	StartedAt    *time.Time
	CompletedAt  *time.Time
	ResultJSON   *string
	ErrorMessage *string
	Now          time.Time
}

// ActionStore persists pending action and item review state.
type ActionStore interface {
	// PutActionWithItems atomically persists one action and its items.
	PutActionWithItems(ctx context.Context, action ActionRecord, items []ActionItemRecord) error

	// GetAction loads one action by id.
	GetAction(ctx context.Context, actionID string) (ActionRecord, error)

	// GetItemWithAction loads one item joined with its owning action.
	GetItemWithAction(ctx context.Context, itemID string) (ActionItemRecord, ActionRecord, error)

	// ListActionsByOrg lists an organization's actions newest-first,
	// optionally filtered by conversation.
	ListActionsByOrg(ctx context.Context, orgID string, conversationID string) ([]ActionRecord, error)

	// ListActionItems lists an action's items in item order.
	ListActionItems(ctx context.Context, actionID string) ([]ActionItemRecord, error)

	// ApproveItems moves currently-pending items of the action to approved.
	// An empty itemIDs slice targets every pending item. Returns how many
	// rows transitioned; items already resolved are left untouched.
	ApproveItems(ctx context.Context, actionID string, itemIDs []string, now time.Time) (int, error)

	// TransitionItem conditionally moves one item between statuses.
	TransitionItem(ctx context.Context, update ItemTransition) error

	// RejectActionWithItems atomically moves a pending action and every one
	// of its items, regardless of item state, to rejected.
	RejectActionWithItems(ctx context.Context, actionID string, reviewerID string, reason string, now time.Time) error

	// ExpireAction moves a still-pending action to expired.
	ExpireAction(ctx context.Context, actionID string, now time.Time) error

	// SettleActionIfReviewed marks the action approved when no pending item
	// remains, stamping reviewer identity and recomputing item counters in
	// the same guarded statement. Returns true when the write applied.
	SettleActionIfReviewed(ctx context.Context, actionID string, reviewerID string, now time.Time) (bool, error)

	// RecordItemExecution moves an approved item to executed or failed and
	// maintains the owning action's execution window and counters.
	RecordItemExecution(ctx context.Context, itemID string, succeeded bool, resultJSON string, errorMessage string, now time.Time) error
}

// ItemTransition describes one guarded item status write.
type ItemTransition struct {
	ItemID            string
	FromStatuses      []string
	ToStatus          string
	EditedPayloadJSON *string
	Now               time.Time
}

// Store is the combined persistence surface of the approvals engine.
type Store interface {
	ActivityStore
	ActionStore
}
