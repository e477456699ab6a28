package server

import (
	"errors"
	"testing"
	"time"

	"github.com/brandloom/brandloom/internal/services/approvals/domain"
	"github.com/brandloom/brandloom/internal/services/approvals/storage"
)

func TestMapStorageError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   error
		want error
	}{
		{name: "nil", in: nil, want: nil},
		{name: "not found", in: storage.ErrNotFound, want: domain.ErrNotFound},
		{name: "conflict", in: storage.ErrConflict, want: domain.ErrConflict},
		{name: "stale state", in: storage.ErrStaleState, want: domain.ErrStaleState},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := mapStorageError(tc.in)
			if !errors.Is(got, tc.want) {
				t.Fatalf("mapStorageError(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}

	unknown := errors.New("disk io")
	if got := mapStorageError(unknown); !errors.Is(got, unknown) {
		t.Fatalf("mapStorageError passthrough = %v, want %v", got, unknown)
	}
}

func TestActionConversionRoundTrip(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	approvedAt := now.Add(time.Minute)
	action := domain.PendingAction{
		ID:             "action-1",
		OrgID:          "org-1",
		UserID:         "user-1",
		Provider:       "mailchimp",
		ActionType:     "send_campaign",
		ConversationID: "conv-1",
		AccountID:      "acct-1",
		ItemCount:      2,
		Status:         domain.ActionApproved,
		ExpiresAt:      now.Add(24 * time.Hour),
		ApprovedBy:     "user-1",
		ApprovedAt:     &approvedAt,
		ReviewedAt:     &approvedAt,
		ItemsApproved:  2,
		CreatedAt:      now,
		UpdatedAt:      approvedAt,
	}

	got := toDomainAction(toStorageAction(action))
	if got != action {
		t.Fatalf("round trip action = %+v, want %+v", got, action)
	}
}

func TestActivityConversionRoundTrip(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	started := now.Add(time.Second)
	duration := int64(4500)
	activity := domain.Activity{
		ID:              "activity-1",
		UserID:          "user-1",
		Title:           "Publish campaign",
		Status:          domain.ActivityRunning,
		Progress:        40,
		ProgressMessage: "sending",
		StartedAt:       &started,
		DurationMillis:  &duration,
		CreatedAt:       now,
		UpdatedAt:       started,
	}

	got := toDomainActivity(toStorageActivity(activity))
	if got != activity {
		t.Fatalf("round trip activity = %+v, want %+v", got, activity)
	}
}
