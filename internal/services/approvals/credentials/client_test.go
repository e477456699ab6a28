package credentials

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brandloom/brandloom/internal/services/approvals/domain"
)

func TestDefaultAccountResolves(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/orgs/org-1/default-account" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("provider") != "mastodon" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("X-Resource-Secret") != "secret-1" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"acct-1","org_id":"org-1","provider":"mastodon","display_name":"Brand Loom","connected":true}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret-1", server.Client())
	account, err := client.DefaultAccount(context.Background(), "org-1", "mastodon")
	if err != nil {
		t.Fatalf("default account: %v", err)
	}
	if account.ID != "acct-1" || !account.Connected {
		t.Fatalf("unexpected account: %+v", account)
	}
}

func TestDefaultAccountMissingMapsToNotFound(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", server.Client())
	_, err := client.DefaultAccount(context.Background(), "org-1", "bluesky")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestValidateToken(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/accounts/acct-1/validate" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"valid":false}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", server.Client())
	valid, err := client.ValidateToken(context.Background(), "acct-1", "org-1")
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if valid {
		t.Fatal("expected invalid token report")
	}
}

func TestAccountsForOrgListsAccounts(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/orgs/org-1/accounts" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"accounts":[{"id":"acct-1","org_id":"org-1","provider":"mastodon","display_name":"Brand Loom","connected":true},{"id":"acct-2","org_id":"org-1","provider":"mastodon","connected":false}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", server.Client())
	accounts, err := client.AccountsForOrg(context.Background(), "org-1", "mastodon")
	if err != nil {
		t.Fatalf("list accounts: %v", err)
	}
	if len(accounts) != 2 || accounts[1].Connected {
		t.Fatalf("unexpected accounts: %+v", accounts)
	}
}
