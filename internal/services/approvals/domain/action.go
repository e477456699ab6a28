package domain

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	apperrors "github.com/brandloom/brandloom/internal/platform/errors"
)

// defaultActionTTL bounds how long a proposed action waits for review.
const defaultActionTTL = 24 * time.Hour

// ProposeActionInput describes one orchestrator action proposal.
type ProposeActionInput struct {
	OrgID          string
	UserID         string
	Provider       string
	ActionType     string
	ConversationID string
	AccountID      string // empty resolves the org default for the provider
	TTL            time.Duration
	Items          []ProposeItemInput
}

// ProposeItemInput describes one operation inside a proposal.
type ProposeItemInput struct {
	PayloadJSON string
	Preview     string
}

// ApproveInput identifies items to approve. An empty ItemIDs approves every
// pending item of the action.
type ApproveInput struct {
	OrgID      string
	ReviewerID string
	ActionID   string
	ItemIDs    []string
}

// RejectInput rejects an entire action.
type RejectInput struct {
	OrgID      string
	ReviewerID string
	ActionID   string
	Reason     string
}

// EditItemInput replaces one item's content before review completes.
type EditItemInput struct {
	OrgID      string
	ReviewerID string
	ItemID     string
	Content    string
}

// ExecutionResultInput records the execution outcome of one approved item.
type ExecutionResultInput struct {
	ItemID       string
	Succeeded    bool
	ResultJSON   string
	ErrorMessage string
}

// ProposeAction records a new pending action with its items. The targeted
// account's credential is verified up front so a dead token surfaces at
// proposal time, not at execution.
func (s *Service) ProposeAction(ctx context.Context, input ProposeActionInput) (PendingActionView, error) {
	if s == nil || s.store == nil {
		return PendingActionView{}, apperrors.New(apperrors.CodeUnknown, "store is not configured")
	}
	orgID := strings.TrimSpace(input.OrgID)
	userID := strings.TrimSpace(input.UserID)
	if orgID == "" || userID == "" {
		return PendingActionView{}, apperrors.New(apperrors.CodeUnauthorized, "org and user identity are required")
	}
	provider := strings.TrimSpace(input.Provider)
	if provider == "" {
		return PendingActionView{}, apperrors.New(apperrors.CodeActionProviderEmpty, "action provider is required")
	}
	actionType := strings.TrimSpace(input.ActionType)
	if actionType == "" {
		return PendingActionView{}, apperrors.New(apperrors.CodeActionProviderEmpty, "action type is required")
	}
	if len(input.Items) == 0 {
		return PendingActionView{}, apperrors.New(apperrors.CodeActionItemsEmpty, "an action requires at least one item")
	}

	account, err := s.resolveAccount(ctx, orgID, provider, input.AccountID)
	if err != nil {
		return PendingActionView{}, err
	}

	now := s.clock().UTC()
	ttl := input.TTL
	if ttl <= 0 {
		ttl = defaultActionTTL
	}
	actionID, err := s.newID()
	if err != nil {
		return PendingActionView{}, apperrors.Wrap(apperrors.CodeUnknown, "generate action id", err)
	}
	action := PendingAction{
		ID:             actionID,
		OrgID:          orgID,
		UserID:         userID,
		Provider:       provider,
		ActionType:     actionType,
		ConversationID: strings.TrimSpace(input.ConversationID),
		AccountID:      account.ID,
		ItemCount:      len(input.Items),
		Status:         ActionPending,
		ExpiresAt:      now.Add(ttl),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	items := make([]ActionItem, 0, len(input.Items))
	for i, itemInput := range input.Items {
		itemID, idErr := s.newID()
		if idErr != nil {
			return PendingActionView{}, apperrors.Wrap(apperrors.CodeUnknown, "generate item id", idErr)
		}
		items = append(items, ActionItem{
			ID:          itemID,
			ActionID:    actionID,
			ItemIndex:   i,
			PayloadJSON: itemInput.PayloadJSON,
			Preview:     strings.TrimSpace(itemInput.Preview),
			Status:      ItemPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}

	if err := s.store.PutActionWithItems(ctx, action, items); err != nil {
		if errors.Is(err, ErrConflict) {
			return PendingActionView{}, apperrors.Wrap(apperrors.CodeConflict, "action already exists", err)
		}
		return PendingActionView{}, apperrors.Wrap(apperrors.CodeUnknown, "store action", err)
	}
	return PendingActionView{
		Action: action,
		Items:  items,
		Account: AccountSummary{
			ID:          account.ID,
			Provider:    account.Provider,
			DisplayName: account.DisplayName,
			Connected:   account.Connected,
			Available:   true,
		},
	}, nil
}

// ListPendingActions lists an organization's actions with items and account
// summaries, optionally scoped to one conversation. All statuses are
// returned; expiry is observed on mutation, not here.
func (s *Service) ListPendingActions(ctx context.Context, orgID string, conversationID string) ([]PendingActionView, error) {
	if s == nil || s.store == nil {
		return nil, apperrors.New(apperrors.CodeUnknown, "store is not configured")
	}
	orgID = strings.TrimSpace(orgID)
	if orgID == "" {
		return nil, apperrors.New(apperrors.CodeUnauthorized, "org id is required")
	}
	actions, err := s.store.ListActionsByOrg(ctx, orgID, strings.TrimSpace(conversationID))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeUnknown, "list actions", err)
	}

	summaries := s.accountSummaries(ctx, orgID, actions)
	views := make([]PendingActionView, 0, len(actions))
	for _, action := range actions {
		items, itemsErr := s.store.ListActionItems(ctx, action.ID)
		if itemsErr != nil {
			return nil, apperrors.Wrap(apperrors.CodeUnknown, "list action items", itemsErr)
		}
		views = append(views, PendingActionView{
			Action:  action,
			Items:   items,
			Account: summaries[action.AccountID],
		})
	}
	return views, nil
}

// GetPendingAction loads one action with its items, scoped to the caller's
// organization.
func (s *Service) GetPendingAction(ctx context.Context, orgID string, actionID string) (PendingActionView, error) {
	if s == nil || s.store == nil {
		return PendingActionView{}, apperrors.New(apperrors.CodeUnknown, "store is not configured")
	}
	action, err := s.loadOrgAction(ctx, orgID, actionID)
	if err != nil {
		return PendingActionView{}, err
	}
	items, err := s.store.ListActionItems(ctx, action.ID)
	if err != nil {
		return PendingActionView{}, apperrors.Wrap(apperrors.CodeUnknown, "list action items", err)
	}
	summaries := s.accountSummaries(ctx, action.OrgID, []PendingAction{action})
	return PendingActionView{Action: action, Items: items, Account: summaries[action.AccountID]}, nil
}

// ApproveAction approves the named items, or every pending item when none
// are named, then settles the action if no pending item remains.
func (s *Service) ApproveAction(ctx context.Context, input ApproveInput) (PendingActionView, error) {
	if s == nil || s.store == nil {
		return PendingActionView{}, apperrors.New(apperrors.CodeUnknown, "store is not configured")
	}
	reviewerID := strings.TrimSpace(input.ReviewerID)
	if reviewerID == "" {
		return PendingActionView{}, apperrors.New(apperrors.CodeUnauthorized, "reviewer identity is required")
	}
	action, err := s.loadReviewableAction(ctx, input.OrgID, input.ActionID)
	if err != nil {
		return PendingActionView{}, err
	}

	now := s.clock().UTC()
	if _, err := s.store.ApproveItems(ctx, action.ID, input.ItemIDs, now); err != nil {
		return PendingActionView{}, apperrors.Wrap(apperrors.CodeUnknown, "approve items", err)
	}
	if err := s.settle(ctx, action.ID, reviewerID); err != nil {
		return PendingActionView{}, err
	}
	return s.GetPendingAction(ctx, action.OrgID, action.ID)
}

// RejectAction rejects the whole action: the action and every one of its
// items move to rejected regardless of item state.
func (s *Service) RejectAction(ctx context.Context, input RejectInput) (PendingActionView, error) {
	if s == nil || s.store == nil {
		return PendingActionView{}, apperrors.New(apperrors.CodeUnknown, "store is not configured")
	}
	reviewerID := strings.TrimSpace(input.ReviewerID)
	if reviewerID == "" {
		return PendingActionView{}, apperrors.New(apperrors.CodeUnauthorized, "reviewer identity is required")
	}
	action, err := s.loadReviewableAction(ctx, input.OrgID, input.ActionID)
	if err != nil {
		return PendingActionView{}, err
	}

	now := s.clock().UTC()
	if err := s.store.RejectActionWithItems(ctx, action.ID, reviewerID, strings.TrimSpace(input.Reason), now); err != nil {
		if errors.Is(err, ErrStaleState) {
			return PendingActionView{}, apperrors.New(apperrors.CodeActionNotPending, "action is no longer pending")
		}
		return PendingActionView{}, apperrors.Wrap(apperrors.CodeUnknown, "reject action", err)
	}
	return s.GetPendingAction(ctx, action.OrgID, action.ID)
}

// EditItem replaces one item's content while review is open. An edited item
// counts as reviewed, so editing the last pending item settles the action.
func (s *Service) EditItem(ctx context.Context, input EditItemInput) (PendingActionView, error) {
	if s == nil || s.store == nil {
		return PendingActionView{}, apperrors.New(apperrors.CodeUnknown, "store is not configured")
	}
	reviewerID := strings.TrimSpace(input.ReviewerID)
	if reviewerID == "" {
		return PendingActionView{}, apperrors.New(apperrors.CodeUnauthorized, "reviewer identity is required")
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return PendingActionView{}, apperrors.New(apperrors.CodeEditContentEmpty, "edited content is required")
	}

	item, action, err := s.loadReviewableItem(ctx, input.OrgID, input.ItemID)
	if err != nil {
		return PendingActionView{}, err
	}
	if item.Status != ItemPending && item.Status != ItemEdited {
		return PendingActionView{}, apperrors.WithMetadata(apperrors.CodeItemInvalidTransition, "only a pending or edited item can be edited", map[string]string{"status": item.Status})
	}

	editedPayload, err := json.Marshal(struct {
		Content string `json:"content"`
	}{Content: content})
	if err != nil {
		return PendingActionView{}, apperrors.Wrap(apperrors.CodeUnknown, "encode edited content", err)
	}

	now := s.clock().UTC()
	edited := string(editedPayload)
	err = s.store.TransitionItem(ctx, ItemTransition{
		ItemID:            item.ID,
		FromStatuses:      []string{ItemPending, ItemEdited},
		ToStatus:          ItemEdited,
		EditedPayloadJSON: &edited,
		Now:               now,
	})
	if err != nil {
		if errors.Is(err, ErrStaleState) {
			return PendingActionView{}, apperrors.New(apperrors.CodeItemInvalidTransition, "only a pending or edited item can be edited")
		}
		return PendingActionView{}, apperrors.Wrap(apperrors.CodeUnknown, "edit item", err)
	}
	if err := s.settle(ctx, action.ID, reviewerID); err != nil {
		return PendingActionView{}, err
	}
	return s.GetPendingAction(ctx, action.OrgID, action.ID)
}

// SkipItem excludes one item from execution. A skipped item counts as
// reviewed, so skipping the last pending item settles the action.
func (s *Service) SkipItem(ctx context.Context, orgID string, reviewerID string, itemID string) (PendingActionView, error) {
	if s == nil || s.store == nil {
		return PendingActionView{}, apperrors.New(apperrors.CodeUnknown, "store is not configured")
	}
	reviewerID = strings.TrimSpace(reviewerID)
	if reviewerID == "" {
		return PendingActionView{}, apperrors.New(apperrors.CodeUnauthorized, "reviewer identity is required")
	}

	item, action, err := s.loadReviewableItem(ctx, orgID, itemID)
	if err != nil {
		return PendingActionView{}, err
	}
	if item.Status != ItemPending && item.Status != ItemEdited {
		return PendingActionView{}, apperrors.WithMetadata(apperrors.CodeItemInvalidTransition, "only a pending or edited item can be skipped", map[string]string{"status": item.Status})
	}

	now := s.clock().UTC()
	err = s.store.TransitionItem(ctx, ItemTransition{
		ItemID:       item.ID,
		FromStatuses: []string{ItemPending, ItemEdited},
		ToStatus:     ItemSkipped,
		Now:          now,
	})
	if err != nil {
		if errors.Is(err, ErrStaleState) {
			return PendingActionView{}, apperrors.New(apperrors.CodeItemInvalidTransition, "only a pending or edited item can be skipped")
		}
		return PendingActionView{}, apperrors.Wrap(apperrors.CodeUnknown, "skip item", err)
	}
	if err := s.settle(ctx, action.ID, reviewerID); err != nil {
		return PendingActionView{}, err
	}
	return s.GetPendingAction(ctx, action.OrgID, action.ID)
}

// RecordExecutionResult records the execution outcome of one approved item.
// Orchestration channel only; no org scoping.
func (s *Service) RecordExecutionResult(ctx context.Context, input ExecutionResultInput) (ActionItem, error) {
	if s == nil || s.store == nil {
		return ActionItem{}, apperrors.New(apperrors.CodeUnknown, "store is not configured")
	}
	item, _, err := s.store.GetItemWithAction(ctx, strings.TrimSpace(input.ItemID))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ActionItem{}, apperrors.New(apperrors.CodeNotFound, "action item not found")
		}
		return ActionItem{}, apperrors.Wrap(apperrors.CodeUnknown, "load action item", err)
	}
	if item.Status != ItemApproved {
		return ActionItem{}, apperrors.WithMetadata(apperrors.CodeItemNotApproved, "only an approved item can record an execution result", map[string]string{"status": item.Status})
	}

	now := s.clock().UTC()
	err = s.store.RecordItemExecution(ctx, item.ID, input.Succeeded, input.ResultJSON, strings.TrimSpace(input.ErrorMessage), now)
	if err != nil {
		if errors.Is(err, ErrStaleState) {
			return ActionItem{}, apperrors.New(apperrors.CodeItemNotApproved, "only an approved item can record an execution result")
		}
		return ActionItem{}, apperrors.Wrap(apperrors.CodeUnknown, "record item execution", err)
	}

	updated, _, err := s.store.GetItemWithAction(ctx, item.ID)
	if err != nil {
		return ActionItem{}, apperrors.Wrap(apperrors.CodeUnknown, "reload action item", err)
	}
	return updated, nil
}

// loadOrgAction loads one action scoped to the caller's organization.
// Absence and foreign organization are indistinguishable.
func (s *Service) loadOrgAction(ctx context.Context, orgID string, actionID string) (PendingAction, error) {
	orgID = strings.TrimSpace(orgID)
	if orgID == "" {
		return PendingAction{}, apperrors.New(apperrors.CodeUnauthorized, "org id is required")
	}
	action, err := s.store.GetAction(ctx, strings.TrimSpace(actionID))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return PendingAction{}, apperrors.New(apperrors.CodeNotFound, "action not found")
		}
		return PendingAction{}, apperrors.Wrap(apperrors.CodeUnknown, "load action", err)
	}
	if action.OrgID != orgID {
		return PendingAction{}, apperrors.New(apperrors.CodeNotFound, "action not found")
	}
	return action, nil
}

// loadReviewableAction loads an org-scoped action and enforces lazy expiry:
// a pending action past its deadline is expired in place and the request
// fails as expired.
func (s *Service) loadReviewableAction(ctx context.Context, orgID string, actionID string) (PendingAction, error) {
	action, err := s.loadOrgAction(ctx, orgID, actionID)
	if err != nil {
		return PendingAction{}, err
	}
	now := s.clock().UTC()
	if action.Status == ActionPending && action.ExpiresAt.Before(now) {
		if expireErr := s.store.ExpireAction(ctx, action.ID, now); expireErr != nil && !errors.Is(expireErr, ErrStaleState) {
			return PendingAction{}, apperrors.Wrap(apperrors.CodeUnknown, "expire action", expireErr)
		}
		return PendingAction{}, apperrors.New(apperrors.CodeActionExpired, "action review window elapsed")
	}
	if action.Status != ActionPending {
		if action.Status == ActionExpired {
			return PendingAction{}, apperrors.New(apperrors.CodeActionExpired, "action review window elapsed")
		}
		return PendingAction{}, apperrors.WithMetadata(apperrors.CodeActionNotPending, "action is no longer pending", map[string]string{"status": action.Status})
	}
	return action, nil
}

// loadReviewableItem loads one item and applies the owning action's org
// scoping and lazy expiry rules.
func (s *Service) loadReviewableItem(ctx context.Context, orgID string, itemID string) (ActionItem, PendingAction, error) {
	orgID = strings.TrimSpace(orgID)
	if orgID == "" {
		return ActionItem{}, PendingAction{}, apperrors.New(apperrors.CodeUnauthorized, "org id is required")
	}
	item, action, err := s.store.GetItemWithAction(ctx, strings.TrimSpace(itemID))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ActionItem{}, PendingAction{}, apperrors.New(apperrors.CodeNotFound, "action item not found")
		}
		return ActionItem{}, PendingAction{}, apperrors.Wrap(apperrors.CodeUnknown, "load action item", err)
	}
	if action.OrgID != orgID {
		return ActionItem{}, PendingAction{}, apperrors.New(apperrors.CodeNotFound, "action item not found")
	}

	now := s.clock().UTC()
	if action.Status == ActionPending && action.ExpiresAt.Before(now) {
		if expireErr := s.store.ExpireAction(ctx, action.ID, now); expireErr != nil && !errors.Is(expireErr, ErrStaleState) {
			return ActionItem{}, PendingAction{}, apperrors.Wrap(apperrors.CodeUnknown, "expire action", expireErr)
		}
		return ActionItem{}, PendingAction{}, apperrors.New(apperrors.CodeActionExpired, "action review window elapsed")
	}
	if action.Status != ActionPending {
		if action.Status == ActionExpired {
			return ActionItem{}, PendingAction{}, apperrors.New(apperrors.CodeActionExpired, "action review window elapsed")
		}
		return ActionItem{}, PendingAction{}, apperrors.WithMetadata(apperrors.CodeActionNotPending, "action is no longer pending", map[string]string{"status": action.Status})
	}
	return item, action, nil
}

// settle applies the review aggregation rule: once no item remains pending
// the action becomes approved. Approved means fully reviewed, not fully
// accepted; a losing guard is fine, another reviewer settled first.
func (s *Service) settle(ctx context.Context, actionID string, reviewerID string) error {
	now := s.clock().UTC()
	if _, err := s.store.SettleActionIfReviewed(ctx, actionID, reviewerID, now); err != nil {
		return apperrors.Wrap(apperrors.CodeUnknown, "settle action", err)
	}
	return nil
}
