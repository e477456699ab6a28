// Package server wires the approvals runtime and HTTP lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/brandloom/brandloom/internal/platform/config"
	"github.com/brandloom/brandloom/internal/services/approvals/api/httpapi"
	"github.com/brandloom/brandloom/internal/services/approvals/credentials"
	"github.com/brandloom/brandloom/internal/services/approvals/domain"
	approvalssqlite "github.com/brandloom/brandloom/internal/services/approvals/storage/sqlite"
)

const defaultShutdownTimeout = 10 * time.Second

type serverEnv struct {
	DBPath         string `env:"BRANDLOOM_APPROVALS_DB_PATH"`
	IntrospectURL  string `env:"BRANDLOOM_AUTH_INTROSPECT_URL"`
	CredentialsURL string `env:"BRANDLOOM_CREDENTIALS_URL"`
	ResourceSecret string `env:"BRANDLOOM_RESOURCE_SECRET"`
}

func loadServerEnv() serverEnv {
	var cfg serverEnv
	_ = config.ParseEnv(&cfg)
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = filepath.Join("data", "approvals.db")
	}
	if strings.TrimSpace(cfg.IntrospectURL) == "" {
		cfg.IntrospectURL = "http://localhost:8081/v1/introspect"
	}
	if strings.TrimSpace(cfg.CredentialsURL) == "" {
		cfg.CredentialsURL = "http://localhost:8082"
	}
	return cfg
}

// Server hosts the approvals HTTP API and storage lifecycle.
type Server struct {
	listener   net.Listener
	httpServer *http.Server
	store      *approvalssqlite.Store
}

// New creates a configured approvals server listening on the provided port.
func New(port int) (*Server, error) {
	return NewWithAddr(fmt.Sprintf(":%d", port))
}

// NewWithAddr creates a configured approvals server for the provided address.
func NewWithAddr(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	srvEnv := loadServerEnv()
	store, err := openApprovalsStore(srvEnv.DBPath)
	if err != nil {
		_ = listener.Close()
		return nil, err
	}
	serviceTokens, err := httpapi.LoadServiceTokenConfigFromEnv(nil)
	if err != nil {
		_ = listener.Close()
		_ = store.Close()
		return nil, fmt.Errorf("load service token config: %w", err)
	}

	accounts := credentials.NewClient(srvEnv.CredentialsURL, srvEnv.ResourceSecret, nil)
	svc := domain.NewService(newDomainStoreAdapter(store), accounts, nil, nil)
	introspector := httpapi.NewHTTPIntrospector(srvEnv.IntrospectURL, srvEnv.ResourceSecret, nil)
	handler := httpapi.NewHandler(svc, introspector, serviceTokens, nil)

	httpServer := &http.Server{
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Server{
		listener:   listener,
		httpServer: httpServer,
		store:      store,
	}, nil
}

// Addr returns the listener address for the server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves an approvals server until context cancellation.
func Run(ctx context.Context, port int) error {
	server, err := New(port)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the HTTP server until context cancellation.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	log.Printf("approvals server listening at %v", s.listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Close releases approvals server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.httpServer != nil {
		_ = s.httpServer.Close()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close approvals store: %v", err)
		}
	}
}

func openApprovalsStore(path string) (*approvalssqlite.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := approvalssqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open approvals sqlite store: %w", err)
	}
	return store, nil
}
