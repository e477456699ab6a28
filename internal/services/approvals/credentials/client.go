// Package credentials talks to the platform credential service. The
// approvals engine never stores provider tokens; it asks this service for
// account metadata and token validity on demand.
package credentials

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/brandloom/brandloom/internal/services/approvals/domain"
)

// Client is an HTTP-backed domain.CredentialProvider.
type Client struct {
	baseURL        string
	resourceSecret string
	client         *http.Client
}

// NewClient creates a credential service client rooted at baseURL.
func NewClient(baseURL, resourceSecret string, client *http.Client) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		baseURL:        strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		resourceSecret: resourceSecret,
		client:         client,
	}
}

type accountPayload struct {
	ID          string `json:"id"`
	OrgID       string `json:"org_id"`
	Provider    string `json:"provider"`
	DisplayName string `json:"display_name"`
	Connected   bool   `json:"connected"`
}

type validatePayload struct {
	Valid bool `json:"valid"`
}

type tokenPayload struct {
	Token string `json:"token"`
}

// ValidateToken reports whether the account's stored token is usable.
func (c *Client) ValidateToken(ctx context.Context, accountID string, orgID string) (bool, error) {
	var payload validatePayload
	path := fmt.Sprintf("/v1/accounts/%s/validate?org_id=%s", url.PathEscape(accountID), url.QueryEscape(orgID))
	if err := c.get(ctx, path, &payload); err != nil {
		return false, err
	}
	return payload.Valid, nil
}

// DecryptedToken returns the account's plaintext token, empty when none is
// stored.
func (c *Client) DecryptedToken(ctx context.Context, accountID string, orgID string) (string, error) {
	var payload tokenPayload
	path := fmt.Sprintf("/v1/accounts/%s/token?org_id=%s", url.PathEscape(accountID), url.QueryEscape(orgID))
	if err := c.get(ctx, path, &payload); err != nil {
		return "", err
	}
	return payload.Token, nil
}

// DefaultAccount resolves the organization's default account for a provider.
func (c *Client) DefaultAccount(ctx context.Context, orgID string, provider string) (domain.ExternalAccount, error) {
	var payload accountPayload
	path := fmt.Sprintf("/v1/orgs/%s/default-account?provider=%s", url.PathEscape(orgID), url.QueryEscape(provider))
	if err := c.get(ctx, path, &payload); err != nil {
		return domain.ExternalAccount{}, err
	}
	return toExternalAccount(payload), nil
}

// AccountsForOrg lists the organization's connected accounts for a provider.
func (c *Client) AccountsForOrg(ctx context.Context, orgID string, provider string) ([]domain.ExternalAccount, error) {
	var payload struct {
		Accounts []accountPayload `json:"accounts"`
	}
	path := fmt.Sprintf("/v1/orgs/%s/accounts?provider=%s", url.PathEscape(orgID), url.QueryEscape(provider))
	if err := c.get(ctx, path, &payload); err != nil {
		return nil, err
	}
	accounts := make([]domain.ExternalAccount, 0, len(payload.Accounts))
	for _, account := range payload.Accounts {
		accounts = append(accounts, toExternalAccount(account))
	}
	return accounts, nil
}

func (c *Client) get(ctx context.Context, path string, target any) error {
	if c == nil || c.baseURL == "" {
		return fmt.Errorf("credential service is not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build credential request: %w", err)
	}
	if c.resourceSecret != "" {
		req.Header.Set("X-Resource-Secret", c.resourceSecret)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("credential request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("credential service returned %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode credential response: %w", err)
	}
	return nil
}

func toExternalAccount(payload accountPayload) domain.ExternalAccount {
	return domain.ExternalAccount{
		ID:          payload.ID,
		OrgID:       payload.OrgID,
		Provider:    payload.Provider,
		DisplayName: payload.DisplayName,
		Connected:   payload.Connected,
	}
}
