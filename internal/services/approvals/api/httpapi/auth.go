package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	apperrors "github.com/brandloom/brandloom/internal/platform/errors"
)

// Identity is a validated user-channel caller.
type Identity struct {
	UserID string
	OrgID  string
}

// IntrospectionResult mirrors the identity service introspection JSON response.
type IntrospectionResult struct {
	Active bool   `json:"active"`
	UserID string `json:"user_id"`
	OrgID  string `json:"org_id"`
}

// Introspector validates an OAuth access token via introspection.
type Introspector interface {
	Introspect(ctx context.Context, token string) (IntrospectionResult, error)
}

// HTTPIntrospector calls a remote HTTP introspect endpoint.
type HTTPIntrospector struct {
	url            string
	resourceSecret string
	client         *http.Client
}

// NewHTTPIntrospector creates an introspector that POSTs to the given URL.
func NewHTTPIntrospector(url, resourceSecret string, client *http.Client) *HTTPIntrospector {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPIntrospector{
		url:            url,
		resourceSecret: resourceSecret,
		client:         client,
	}
}

// Introspect validates the token by calling the introspect endpoint.
func (h *HTTPIntrospector) Introspect(ctx context.Context, token string) (IntrospectionResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, nil)
	if err != nil {
		return IntrospectionResult{}, fmt.Errorf("build introspect request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if h.resourceSecret != "" {
		req.Header.Set("X-Resource-Secret", h.resourceSecret)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return IntrospectionResult{}, fmt.Errorf("introspect request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return IntrospectionResult{}, fmt.Errorf("introspect returned %s", resp.Status)
	}

	var result IntrospectionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return IntrospectionResult{}, fmt.Errorf("decode introspect response: %w", err)
	}
	return result, nil
}

// bearerToken extracts the Bearer token from an Authorization header.
func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// requireUser resolves the user-channel caller identity from the request.
func (h *Handler) requireUser(r *http.Request) (Identity, error) {
	if h.introspector == nil {
		return Identity{}, apperrors.New(apperrors.CodeUnknown, "token introspector is not configured")
	}
	token := bearerToken(r)
	if token == "" {
		return Identity{}, apperrors.New(apperrors.CodeUnauthorized, "bearer token is required")
	}
	result, err := h.introspector.Introspect(r.Context(), token)
	if err != nil {
		return Identity{}, apperrors.Wrap(apperrors.CodeUnauthorized, "token introspection failed", err)
	}
	if !result.Active || strings.TrimSpace(result.UserID) == "" || strings.TrimSpace(result.OrgID) == "" {
		return Identity{}, apperrors.New(apperrors.CodeUnauthorized, "token is not active")
	}
	return Identity{UserID: result.UserID, OrgID: result.OrgID}, nil
}

// requireOrchestrator validates the orchestration-channel service token.
func (h *Handler) requireOrchestrator(r *http.Request) (ServiceTokenClaims, error) {
	token := bearerToken(r)
	if token == "" {
		return ServiceTokenClaims{}, apperrors.New(apperrors.CodeUnauthorized, "service token is required")
	}
	return VerifyServiceToken(token, h.serviceTokens)
}
