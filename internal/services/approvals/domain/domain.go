// Package domain implements the approval and activity lifecycle rules.
//
// Every status mutation flows through a guarded conditional write on the
// Store: the losing side of a concurrent transition observes ErrStaleState
// and surfaces a not-eligible error instead of overwriting the winner.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/brandloom/brandloom/internal/platform/id"
)

var (
	// ErrNotFound indicates a requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a write conflicted with uniqueness constraints.
	ErrConflict = errors.New("record conflict")
	// ErrStaleState indicates a guarded transition matched zero rows.
	ErrStaleState = errors.New("state guard did not match")
)

// Activity statuses.
const (
	ActivityPending   = "pending"
	ActivityRunning   = "running"
	ActivityPaused    = "paused"
	ActivityCompleted = "completed"
	ActivityFailed    = "failed"
	ActivityCancelled = "cancelled"
)

// Activity step statuses.
const (
	StepPending   = "pending"
	StepRunning   = "running"
	StepCompleted = "completed"
	StepFailed    = "failed"
)

// Pending action statuses.
const (
	ActionPending  = "pending"
	ActionApproved = "approved"
	ActionRejected = "rejected"
	ActionExpired  = "expired"
)

// Pending action item statuses.
const (
	ItemPending  = "pending"
	ItemApproved = "approved"
	ItemRejected = "rejected"
	ItemEdited   = "edited"
	ItemSkipped  = "skipped"
	ItemExecuted = "executed"
	ItemFailed   = "failed"
)

// Activity is one long-running unit of agent work owned by a user.
type Activity struct {
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

// ActivityStep is one ordered sub-unit of an activity.
type ActivityStep struct {
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

// ActivityView bundles an activity with its ordered steps.
type ActivityView struct {
	Activity Activity
	Steps    []ActivityStep
}

// PendingAction is one batch of proposed external operations awaiting review.
type PendingAction struct {
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

// ActionItem is one concrete operation within a pending action.
type ActionItem struct {
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

// PendingActionView bundles an action with its items and the external
// account it targets.
type PendingActionView struct {
	Action  PendingAction
	Items   []ActionItem
	Account AccountSummary
}

// ActivityTransition describes one guarded activity status write.
type ActivityTransition struct {
	ActivityID   string
	UserID       string // empty means no owner guard
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

// ItemTransition describes one guarded item status write.
type ItemTransition struct {
	ItemID            string
	FromStatuses      []string
	ToStatus          string
	EditedPayloadJSON *string
	Now               time.Time
}

// Store is the domain persistence boundary for lifecycle state.
type Store interface {
	PutActivityWithSteps(ctx context.Context, activity Activity, steps []ActivityStep) error
	GetActivityByUser(ctx context.Context, userID string, activityID string) (Activity, error)
	GetActivity(ctx context.Context, activityID string) (Activity, error)
	ListActivitiesByUser(ctx context.Context, userID string) ([]Activity, error)
	ListActivitySteps(ctx context.Context, activityID string) ([]ActivityStep, error)
	TransitionActivity(ctx context.Context, update ActivityTransition) error
	ResetActivityForRetry(ctx context.Context, userID string, activityID string, now time.Time) error
	TransitionStep(ctx context.Context, update StepTransition) error

	PutActionWithItems(ctx context.Context, action PendingAction, items []ActionItem) error
	GetAction(ctx context.Context, actionID string) (PendingAction, error)
	GetItemWithAction(ctx context.Context, itemID string) (ActionItem, PendingAction, error)
	ListActionsByOrg(ctx context.Context, orgID string, conversationID string) ([]PendingAction, error)
	ListActionItems(ctx context.Context, actionID string) ([]ActionItem, error)
	ApproveItems(ctx context.Context, actionID string, itemIDs []string, now time.Time) (int, error)
	TransitionItem(ctx context.Context, update ItemTransition) error
	RejectActionWithItems(ctx context.Context, actionID string, reviewerID string, reason string, now time.Time) error
	ExpireAction(ctx context.Context, actionID string, now time.Time) error
	SettleActionIfReviewed(ctx context.Context, actionID string, reviewerID string, now time.Time) (bool, error)
	RecordItemExecution(ctx context.Context, itemID string, succeeded bool, resultJSON string, errorMessage string, now time.Time) error
}

// Service orchestrates activity lifecycle and action review behavior.
type Service struct {
	store    Store
	accounts CredentialProvider
	clock    func() time.Time
	newID    func() (string, error)
}

// NewService constructs approvals domain use-cases.
func NewService(store Store, accounts CredentialProvider, clock func() time.Time, newID func() (string, error)) *Service {
	if clock == nil {
		clock = time.Now
	}
	if newID == nil {
		newID = id.NewID
	}
	return &Service{
		store:    store,
		accounts: accounts,
		clock:    clock,
		newID:    newID,
	}
}
