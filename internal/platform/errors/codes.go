// Package errors provides structured error handling for the approvals engine.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// CodeInvalidRequest covers malformed request payloads.
	CodeInvalidRequest Code = "INVALID_REQUEST"

	// Identity errors
	CodeUnauthorized Code = "UNAUTHORIZED"

	// CodeNotFound covers both absent entities and entities outside the
	// caller's organization; the two are indistinguishable to callers.
	CodeNotFound Code = "NOT_FOUND"

	// Activity errors
	CodeActivityNotPausable  Code = "ACTIVITY_NOT_PAUSABLE"
	CodeActivityNotRetryable Code = "ACTIVITY_NOT_RETRYABLE"
	CodeActivityInvalidState Code = "ACTIVITY_INVALID_STATE"
	CodeActivityTitleEmpty   Code = "ACTIVITY_TITLE_EMPTY"
	CodeProgressOutOfRange   Code = "ACTIVITY_PROGRESS_OUT_OF_RANGE"

	// Pending action errors
	CodeActionNotPending    Code = "ACTION_NOT_PENDING"
	CodeActionExpired       Code = "ACTION_EXPIRED"
	CodeActionItemsEmpty    Code = "ACTION_ITEMS_EMPTY"
	CodeActionProviderEmpty Code = "ACTION_PROVIDER_EMPTY"

	// Pending action item errors
	CodeItemInvalidTransition Code = "ITEM_INVALID_TRANSITION"
	CodeItemNotApproved       Code = "ITEM_NOT_APPROVED"
	CodeEditContentEmpty      Code = "ITEM_EDIT_CONTENT_EMPTY"

	// External account errors
	CodeNeedsReauth      Code = "ACCOUNT_NEEDS_REAUTH"
	CodeNoDefaultAccount Code = "ACCOUNT_NO_DEFAULT"

	// Storage errors
	CodeConflict Code = "CONFLICT"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	// Bad request - validation failures and transitions the current
	// state does not permit.
	case CodeInvalidRequest,
		CodeActivityNotPausable,
		CodeActivityNotRetryable,
		CodeActivityInvalidState,
		CodeActivityTitleEmpty,
		CodeProgressOutOfRange,
		CodeActionNotPending,
		CodeActionExpired,
		CodeActionItemsEmpty,
		CodeActionProviderEmpty,
		CodeItemInvalidTransition,
		CodeItemNotApproved,
		CodeEditContentEmpty,
		CodeNeedsReauth,
		CodeNoDefaultAccount:
		return http.StatusBadRequest

	case CodeUnauthorized:
		return http.StatusUnauthorized

	case CodeNotFound:
		return http.StatusNotFound

	case CodeConflict:
		return http.StatusConflict

	default:
		return http.StatusInternalServerError
	}
}
