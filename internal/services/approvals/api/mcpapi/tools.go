package mcpapi

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/brandloom/brandloom/internal/services/approvals/domain"
)

// Service is the domain surface the MCP tools depend on.
type Service interface {
	GetActivityAny(ctx context.Context, activityID string) (domain.ActivityView, error)
	ReportProgress(ctx context.Context, report domain.ProgressReport) (domain.ActivityView, error)
	ListPendingActions(ctx context.Context, orgID string, conversationID string) ([]domain.PendingActionView, error)
	RecordExecutionResult(ctx context.Context, input domain.ExecutionResultInput) (domain.ActionItem, error)
}

// PendingActionsListInput represents the MCP tool input for listing pending actions.
type PendingActionsListInput struct {
	OrgID          string `json:"org_id" jsonschema:"organization identifier"`
	ConversationID string `json:"conversation_id,omitempty" jsonschema:"optional conversation filter"`
}

// PendingActionsListResult represents the MCP tool output for listing pending actions.
type PendingActionsListResult struct {
	Actions []ActionSummary `json:"actions" jsonschema:"pending actions newest-first"`
}

// ActionSummary is one pending action in an MCP tool result.
type ActionSummary struct {
	ID             string        `json:"id" jsonschema:"action identifier"`
	Provider       string        `json:"provider" jsonschema:"external provider the action targets"`
	ActionType     string        `json:"action_type" jsonschema:"provider operation kind"`
	ConversationID string        `json:"conversation_id,omitempty" jsonschema:"conversation the action originated from"`
	Status         string        `json:"status" jsonschema:"action status (pending, approved, rejected, expired)"`
	ItemCount      int           `json:"item_count" jsonschema:"number of items in the batch"`
	ExpiresAt      string        `json:"expires_at" jsonschema:"RFC3339 timestamp when the review window closes"`
	Items          []ItemSummary `json:"items" jsonschema:"items in batch order"`
}

// ItemSummary is one action item in an MCP tool result.
type ItemSummary struct {
	ID                string `json:"id" jsonschema:"item identifier"`
	ItemIndex         int    `json:"item_index" jsonschema:"position within the batch"`
	Preview           string `json:"preview" jsonschema:"human-readable summary of the operation"`
	Status            string `json:"status" jsonschema:"item status"`
	PayloadJSON       string `json:"payload_json" jsonschema:"proposed operation payload"`
	EditedPayloadJSON string `json:"edited_payload_json,omitempty" jsonschema:"reviewer-edited payload, if any"`
}

// ActivityGetInput represents the MCP tool input for fetching an activity.
type ActivityGetInput struct {
	ActivityID string `json:"activity_id" jsonschema:"activity identifier"`
}

// ActivityGetResult represents the MCP tool output for fetching an activity.
type ActivityGetResult struct {
	ID           string        `json:"id" jsonschema:"activity identifier"`
	Title        string        `json:"title" jsonschema:"activity title"`
	Status       string        `json:"status" jsonschema:"activity status (pending, running, paused, completed, failed, cancelled)"`
	Progress     int           `json:"progress" jsonschema:"progress percentage 0-100"`
	Message      string        `json:"message,omitempty" jsonschema:"latest progress message"`
	ErrorMessage string        `json:"error_message,omitempty" jsonschema:"terminal error, if the activity failed"`
	Steps        []StepSummary `json:"steps" jsonschema:"steps in declared order"`
}

// StepSummary is one activity step in an MCP tool result.
type StepSummary struct {
	ID     string `json:"id" jsonschema:"step identifier"`
	Title  string `json:"title" jsonschema:"step title"`
	Status string `json:"status" jsonschema:"step status (pending, running, completed, failed)"`
}

// ActivityProgressInput represents the MCP tool input for reporting activity progress.
type ActivityProgressInput struct {
	ActivityID   string              `json:"activity_id" jsonschema:"activity identifier"`
	Status       string              `json:"status,omitempty" jsonschema:"optional status transition (running, completed, failed, cancelled)"`
	Progress     *int                `json:"progress,omitempty" jsonschema:"optional progress percentage 0-100"`
	Message      string              `json:"message,omitempty" jsonschema:"progress message shown to the owner"`
	ResultJSON   string              `json:"result_json,omitempty" jsonschema:"final result payload on completion"`
	ErrorMessage string              `json:"error_message,omitempty" jsonschema:"error detail on failure"`
	ErrorCode    string              `json:"error_code,omitempty" jsonschema:"machine-readable error code on failure"`
	Steps        []StepProgressInput `json:"steps,omitempty" jsonschema:"per-step status updates"`
}

// StepProgressInput is one per-step update within a progress report.
type StepProgressInput struct {
	StepID       string `json:"step_id" jsonschema:"step identifier"`
	Status       string `json:"status" jsonschema:"step status transition"`
	ResultJSON   string `json:"result_json,omitempty" jsonschema:"step result payload"`
	ErrorMessage string `json:"error_message,omitempty" jsonschema:"step error detail"`
}

// ActivityProgressResult represents the MCP tool output for a progress report.
type ActivityProgressResult struct {
	ID       string `json:"id" jsonschema:"activity identifier"`
	Status   string `json:"status" jsonschema:"activity status after the report"`
	Progress int    `json:"progress" jsonschema:"progress percentage after the report"`
}

// ItemExecutionInput represents the MCP tool input for reporting an item execution outcome.
type ItemExecutionInput struct {
	ItemID       string `json:"item_id" jsonschema:"action item identifier"`
	Succeeded    bool   `json:"succeeded" jsonschema:"whether the provider call succeeded"`
	ResultJSON   string `json:"result_json,omitempty" jsonschema:"provider response payload on success"`
	ErrorMessage string `json:"error_message,omitempty" jsonschema:"provider error detail on failure"`
}

// ItemExecutionResult represents the MCP tool output for an execution report.
type ItemExecutionResult struct {
	ID         string `json:"id" jsonschema:"action item identifier"`
	Status     string `json:"status" jsonschema:"item status after the report (executed, failed)"`
	ExecutedAt string `json:"executed_at,omitempty" jsonschema:"RFC3339 timestamp of the execution report"`
}

// PendingActionsListTool defines the MCP tool schema for listing pending actions.
func PendingActionsListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "pending_actions_list",
		Description: "Lists an organization's pending actions newest-first, including their items. Optionally filtered by conversation.",
	}
}

// PendingActionsListHandler executes a pending actions list request.
func PendingActionsListHandler(svc Service) mcp.ToolHandlerFor[PendingActionsListInput, PendingActionsListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input PendingActionsListInput) (*mcp.CallToolResult, PendingActionsListResult, error) {
		views, err := svc.ListPendingActions(ctx, input.OrgID, input.ConversationID)
		if err != nil {
			return nil, PendingActionsListResult{}, err
		}
		result := PendingActionsListResult{Actions: make([]ActionSummary, 0, len(views))}
		for _, view := range views {
			result.Actions = append(result.Actions, toActionSummary(view))
		}
		return nil, result, nil
	}
}

// ActivityGetTool defines the MCP tool schema for fetching an activity.
func ActivityGetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "activity_get",
		Description: "Fetches one activity with its steps, regardless of owner. For orchestration runtimes.",
	}
}

// ActivityGetHandler executes an activity fetch request.
func ActivityGetHandler(svc Service) mcp.ToolHandlerFor[ActivityGetInput, ActivityGetResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ActivityGetInput) (*mcp.CallToolResult, ActivityGetResult, error) {
		view, err := svc.GetActivityAny(ctx, input.ActivityID)
		if err != nil {
			return nil, ActivityGetResult{}, err
		}
		return nil, toActivityGetResult(view), nil
	}
}

// ActivityProgressTool defines the MCP tool schema for reporting activity progress.
func ActivityProgressTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "activity_progress_report",
		Description: "Reports progress for a running activity. An empty status updates progress only; a status also transitions the activity and its steps.",
	}
}

// ActivityProgressHandler executes an activity progress report.
func ActivityProgressHandler(svc Service) mcp.ToolHandlerFor[ActivityProgressInput, ActivityProgressResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ActivityProgressInput) (*mcp.CallToolResult, ActivityProgressResult, error) {
		report := domain.ProgressReport{
			ActivityID:   input.ActivityID,
			Status:       input.Status,
			Progress:     input.Progress,
			Message:      input.Message,
			ResultJSON:   input.ResultJSON,
			ErrorMessage: input.ErrorMessage,
			ErrorCode:    input.ErrorCode,
		}
		for _, step := range input.Steps {
			report.Steps = append(report.Steps, domain.StepProgress{
				StepID:       step.StepID,
				Status:       step.Status,
				ResultJSON:   step.ResultJSON,
				ErrorMessage: step.ErrorMessage,
			})
		}
		view, err := svc.ReportProgress(ctx, report)
		if err != nil {
			return nil, ActivityProgressResult{}, err
		}
		result := ActivityProgressResult{
			ID:       view.Activity.ID,
			Status:   view.Activity.Status,
			Progress: view.Activity.Progress,
		}
		return nil, result, nil
	}
}

// ItemExecutionTool defines the MCP tool schema for reporting an item execution outcome.
func ItemExecutionTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "item_execution_report",
		Description: "Records the execution outcome of one approved action item. The owning action's execution window and counters update atomically.",
	}
}

// ItemExecutionHandler executes an item execution report.
func ItemExecutionHandler(svc Service) mcp.ToolHandlerFor[ItemExecutionInput, ItemExecutionResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ItemExecutionInput) (*mcp.CallToolResult, ItemExecutionResult, error) {
		item, err := svc.RecordExecutionResult(ctx, domain.ExecutionResultInput{
			ItemID:       input.ItemID,
			Succeeded:    input.Succeeded,
			ResultJSON:   input.ResultJSON,
			ErrorMessage: input.ErrorMessage,
		})
		if err != nil {
			return nil, ItemExecutionResult{}, err
		}
		result := ItemExecutionResult{
			ID:         item.ID,
			Status:     item.Status,
			ExecutedAt: formatTimestamp(item.ExecutedAt),
		}
		return nil, result, nil
	}
}

func toActionSummary(view domain.PendingActionView) ActionSummary {
	summary := ActionSummary{
		ID:             view.Action.ID,
		Provider:       view.Action.Provider,
		ActionType:     view.Action.ActionType,
		ConversationID: view.Action.ConversationID,
		Status:         view.Action.Status,
		ItemCount:      view.Action.ItemCount,
		ExpiresAt:      view.Action.ExpiresAt.UTC().Format(time.RFC3339),
		Items:          make([]ItemSummary, 0, len(view.Items)),
	}
	for _, item := range view.Items {
		summary.Items = append(summary.Items, ItemSummary{
			ID:                item.ID,
			ItemIndex:         item.ItemIndex,
			Preview:           item.Preview,
			Status:            item.Status,
			PayloadJSON:       item.PayloadJSON,
			EditedPayloadJSON: item.EditedPayloadJSON,
		})
	}
	return summary
}

func toActivityGetResult(view domain.ActivityView) ActivityGetResult {
	result := ActivityGetResult{
		ID:           view.Activity.ID,
		Title:        view.Activity.Title,
		Status:       view.Activity.Status,
		Progress:     view.Activity.Progress,
		Message:      view.Activity.ProgressMessage,
		ErrorMessage: view.Activity.ErrorMessage,
		Steps:        make([]StepSummary, 0, len(view.Steps)),
	}
	for _, step := range view.Steps {
		result.Steps = append(result.Steps, StepSummary{
			ID:     step.ID,
			Title:  step.Title,
			Status: step.Status,
		})
	}
	return result
}

func formatTimestamp(ts *time.Time) string {
	if ts == nil {
		return ""
	}
	return ts.UTC().Format(time.RFC3339)
}
