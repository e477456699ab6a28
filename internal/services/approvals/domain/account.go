package domain

import (
	"context"
	"errors"
	"strings"

	apperrors "github.com/brandloom/brandloom/internal/platform/errors"
)

// ExternalAccount is a connected third-party account usable as an action target.
type ExternalAccount struct {
	ID          string
	OrgID       string
	Provider    string
	DisplayName string
	Connected   bool
}

// AccountSummary is the degraded account view attached to action listings.
// Available reports whether the credential service answered; a provider
// outage yields an unavailable summary rather than a failed listing.
type AccountSummary struct {
	ID          string
	Provider    string
	DisplayName string
	Connected   bool
	Available   bool
}

// CredentialProvider exposes external account credentials and metadata.
// Implementations talk to the platform credential service; the engine never
// stores tokens itself.
type CredentialProvider interface {
	// ValidateToken reports whether the account's stored token is usable.
	ValidateToken(ctx context.Context, accountID string, orgID string) (bool, error)

	// DecryptedToken returns the account's plaintext token, empty when none
	// is stored.
	DecryptedToken(ctx context.Context, accountID string, orgID string) (string, error)

	// DefaultAccount resolves the organization's default account for a
	// provider. Returns ErrNotFound when no account is connected.
	DefaultAccount(ctx context.Context, orgID string, provider string) (ExternalAccount, error)

	// AccountsForOrg lists the organization's connected accounts for a
	// provider.
	AccountsForOrg(ctx context.Context, orgID string, provider string) ([]ExternalAccount, error)
}

// resolveAccount picks the action's target account, falling back to the
// organization's default for the provider, and verifies its credential.
func (s *Service) resolveAccount(ctx context.Context, orgID string, provider string, accountID string) (ExternalAccount, error) {
	if s.accounts == nil {
		return ExternalAccount{}, apperrors.New(apperrors.CodeUnknown, "credential provider is not configured")
	}

	accountID = strings.TrimSpace(accountID)
	var account ExternalAccount
	if accountID == "" {
		resolved, err := s.accounts.DefaultAccount(ctx, orgID, provider)
		if err != nil {
			if isNotFound(err) {
				return ExternalAccount{}, apperrors.WithMetadata(apperrors.CodeNoDefaultAccount, "no default account for provider", map[string]string{"provider": provider})
			}
			return ExternalAccount{}, apperrors.Wrap(apperrors.CodeUnknown, "resolve default account", err)
		}
		account = resolved
	} else {
		accounts, err := s.accounts.AccountsForOrg(ctx, orgID, provider)
		if err != nil {
			return ExternalAccount{}, apperrors.Wrap(apperrors.CodeUnknown, "list accounts", err)
		}
		for _, candidate := range accounts {
			if candidate.ID == accountID {
				account = candidate
				break
			}
		}
		if account.ID == "" {
			return ExternalAccount{}, apperrors.WithMetadata(apperrors.CodeNotFound, "account not found", map[string]string{"account_id": accountID})
		}
	}

	valid, err := s.accounts.ValidateToken(ctx, account.ID, orgID)
	if err != nil {
		return ExternalAccount{}, apperrors.Wrap(apperrors.CodeUnknown, "validate account token", err)
	}
	if !valid {
		return ExternalAccount{}, apperrors.WithMetadata(apperrors.CodeNeedsReauth, "account credential is invalid or expired", map[string]string{"account_id": account.ID, "provider": account.Provider})
	}
	return account, nil
}

// accountSummaries loads account metadata per provider for a listing. A
// provider the credential service cannot answer for degrades to unavailable
// summaries instead of failing the call.
func (s *Service) accountSummaries(ctx context.Context, orgID string, actions []PendingAction) map[string]AccountSummary {
	summaries := make(map[string]AccountSummary)
	if s.accounts == nil {
		return summaries
	}

	failedProviders := make(map[string]bool)
	loadedProviders := make(map[string]bool)
	for _, action := range actions {
		if action.AccountID == "" || loadedProviders[action.Provider] || failedProviders[action.Provider] {
			continue
		}
		accounts, err := s.accounts.AccountsForOrg(ctx, orgID, action.Provider)
		if err != nil {
			failedProviders[action.Provider] = true
			continue
		}
		loadedProviders[action.Provider] = true
		for _, account := range accounts {
			summaries[account.ID] = AccountSummary{
				ID:          account.ID,
				Provider:    account.Provider,
				DisplayName: account.DisplayName,
				Connected:   account.Connected,
				Available:   true,
			}
		}
	}

	for _, action := range actions {
		if action.AccountID == "" {
			continue
		}
		if _, ok := summaries[action.AccountID]; !ok {
			summaries[action.AccountID] = AccountSummary{
				ID:       action.AccountID,
				Provider: action.Provider,
			}
		}
	}
	return summaries
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || apperrors.IsCode(err, apperrors.CodeNotFound)
}
