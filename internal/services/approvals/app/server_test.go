package server

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestServer_ActivityLifecycleRoundTrip(t *testing.T) {
	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate ed25519 key: %v", err)
	}

	introspect := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Resource-Secret") != "resource-secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"active":  true,
			"user_id": "user-1",
			"org_id":  "org-1",
		})
	}))
	t.Cleanup(introspect.Close)

	credentialsSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(credentialsSrv.Close)

	t.Setenv("BRANDLOOM_APPROVALS_DB_PATH", t.TempDir()+"/approvals.db")
	t.Setenv("BRANDLOOM_AUTH_INTROSPECT_URL", introspect.URL)
	t.Setenv("BRANDLOOM_CREDENTIALS_URL", credentialsSrv.URL)
	t.Setenv("BRANDLOOM_RESOURCE_SECRET", "resource-secret")
	t.Setenv("BRANDLOOM_SERVICE_TOKEN_ISSUER", "brandloom-orchestrator")
	t.Setenv("BRANDLOOM_SERVICE_TOKEN_AUDIENCE", "brandloom-approvals")
	t.Setenv("BRANDLOOM_SERVICE_TOKEN_PUBLIC_KEY", base64.StdEncoding.EncodeToString(publicKey))

	srv, err := NewWithAddr("127.0.0.1:0")
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- srv.Serve(runCtx)
	}()
	t.Cleanup(func() {
		runCancel()
		select {
		case serveErr := <-serveDone:
			if serveErr != nil {
				t.Fatalf("serve: %v", serveErr)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for server shutdown")
		}
	})

	base := "http://" + srv.Addr()
	serviceToken := signOrchestratorToken(t, privateKey)

	createBody := bytes.NewBufferString(`{"user_id":"user-1","title":"Publish campaign","step_titles":["Draft","Review"]}`)
	createReq, err := http.NewRequest(http.MethodPost, base+"/internal/v1/activities", createBody)
	if err != nil {
		t.Fatalf("build create request: %v", err)
	}
	createReq.Header.Set("Authorization", "Bearer "+serviceToken)
	createResp, err := http.DefaultClient.Do(createReq)
	if err != nil {
		t.Fatalf("create activity: %v", err)
	}
	defer createResp.Body.Close()
	if createResp.StatusCode != http.StatusCreated {
		t.Fatalf("create activity status = %d, want %d", createResp.StatusCode, http.StatusCreated)
	}
	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(createResp.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected activity id")
	}
	if created.Status != "pending" {
		t.Fatalf("activity status = %q, want %q", created.Status, "pending")
	}

	listReq, err := http.NewRequest(http.MethodGet, base+"/v1/activities", nil)
	if err != nil {
		t.Fatalf("build list request: %v", err)
	}
	listReq.Header.Set("Authorization", "Bearer user-token")
	listResp, err := http.DefaultClient.Do(listReq)
	if err != nil {
		t.Fatalf("list activities: %v", err)
	}
	defer listResp.Body.Close()
	if listResp.StatusCode != http.StatusOK {
		t.Fatalf("list activities status = %d, want %d", listResp.StatusCode, http.StatusOK)
	}
	var listed struct {
		Activities []struct {
			ID string `json:"id"`
		} `json:"activities"`
	}
	if err := json.NewDecoder(listResp.Body).Decode(&listed); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if len(listed.Activities) != 1 || listed.Activities[0].ID != created.ID {
		t.Fatalf("listed activities = %+v, want the created activity", listed.Activities)
	}

	progressBody := bytes.NewBufferString(`{"status":"running","progress":10,"message":"drafting"}`)
	progressReq, err := http.NewRequest(http.MethodPost, base+"/internal/v1/activities/"+created.ID+"/progress", progressBody)
	if err != nil {
		t.Fatalf("build progress request: %v", err)
	}
	progressReq.Header.Set("Authorization", "Bearer "+serviceToken)
	progressResp, err := http.DefaultClient.Do(progressReq)
	if err != nil {
		t.Fatalf("report progress: %v", err)
	}
	defer progressResp.Body.Close()
	if progressResp.StatusCode != http.StatusOK {
		t.Fatalf("report progress status = %d, want %d", progressResp.StatusCode, http.StatusOK)
	}

	getReq, err := http.NewRequest(http.MethodGet, base+"/v1/activities/"+created.ID, nil)
	if err != nil {
		t.Fatalf("build get request: %v", err)
	}
	getReq.Header.Set("Authorization", "Bearer user-token")
	getResp, err := http.DefaultClient.Do(getReq)
	if err != nil {
		t.Fatalf("get activity: %v", err)
	}
	defer getResp.Body.Close()
	if getResp.StatusCode != http.StatusOK {
		t.Fatalf("get activity status = %d, want %d", getResp.StatusCode, http.StatusOK)
	}
	var fetched struct {
		Status   string `json:"status"`
		Progress int    `json:"progress"`
	}
	if err := json.NewDecoder(getResp.Body).Decode(&fetched); err != nil {
		t.Fatalf("decode get response: %v", err)
	}
	if fetched.Status != "running" {
		t.Fatalf("activity status = %q, want %q", fetched.Status, "running")
	}
	if fetched.Progress != 10 {
		t.Fatalf("activity progress = %d, want 10", fetched.Progress)
	}
}

func TestServer_RejectsUserTokenOnInternalRoute(t *testing.T) {
	publicKey, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate ed25519 key: %v", err)
	}

	t.Setenv("BRANDLOOM_APPROVALS_DB_PATH", t.TempDir()+"/approvals.db")
	t.Setenv("BRANDLOOM_RESOURCE_SECRET", "resource-secret")
	t.Setenv("BRANDLOOM_SERVICE_TOKEN_ISSUER", "brandloom-orchestrator")
	t.Setenv("BRANDLOOM_SERVICE_TOKEN_AUDIENCE", "brandloom-approvals")
	t.Setenv("BRANDLOOM_SERVICE_TOKEN_PUBLIC_KEY", base64.StdEncoding.EncodeToString(publicKey))

	srv, err := NewWithAddr("127.0.0.1:0")
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- srv.Serve(runCtx)
	}()
	t.Cleanup(func() {
		runCancel()
		select {
		case serveErr := <-serveDone:
			if serveErr != nil {
				t.Fatalf("serve: %v", serveErr)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timeout waiting for server shutdown")
		}
	})

	req, err := http.NewRequest(http.MethodPost, "http://"+srv.Addr()+"/internal/v1/activities", bytes.NewBufferString(`{"user_id":"user-1","title":"x"}`))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer user-token")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("call internal route: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestLoadServerEnvDefaults(t *testing.T) {
	t.Setenv("BRANDLOOM_APPROVALS_DB_PATH", "")
	t.Setenv("BRANDLOOM_AUTH_INTROSPECT_URL", "")
	t.Setenv("BRANDLOOM_CREDENTIALS_URL", "")

	cfg := loadServerEnv()
	if cfg.DBPath == "" {
		t.Fatal("expected default db path")
	}
	if cfg.IntrospectURL == "" {
		t.Fatal("expected default introspect url")
	}
	if cfg.CredentialsURL == "" {
		t.Fatal("expected default credentials url")
	}
}

func signOrchestratorToken(t *testing.T, key ed25519.PrivateKey) string {
	t.Helper()
	claims := jwt.MapClaims{
		"iss":   "brandloom-orchestrator",
		"aud":   "brandloom-approvals",
		"sub":   "orchestrator-worker",
		"scope": "orchestrator",
		"exp":   time.Now().Add(time.Hour).Unix(),
		"jti":   "token-1",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign service token: %v", err)
	}
	return token
}
