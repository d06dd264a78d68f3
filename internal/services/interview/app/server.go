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

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/tokhirov-007/ai-hr-cv/internal/services/interview/domain"
	interviewsqlite "github.com/tokhirov-007/ai-hr-cv/internal/services/interview/storage/sqlite"
	notifapp "github.com/tokhirov-007/ai-hr-cv/internal/services/notifications/app"
	notifdomain "github.com/tokhirov-007/ai-hr-cv/internal/services/notifications/domain"
	notifsqlite "github.com/tokhirov-007/ai-hr-cv/internal/services/notifications/storage/sqlite"
	"github.com/tokhirov-007/ai-hr-cv/internal/services/notifications/transport"
)

// Config holds the interview server settings.
type Config struct {
	// HTTPAddr is the bind address of the JSON API.
	HTTPAddr string
	// GRPCPort hosts the health service; zero disables it.
	GRPCPort int
	// SessionDBPath locates the interview sqlite database.
	SessionDBPath string
	// NotificationsDBPath locates the notifications sqlite database.
	NotificationsDBPath string
	// Grant configures HR access grant verification; zero disables checks.
	Grant AccessGrantConfig
}

// Server hosts the interview service.
type Server struct {
	httpListener net.Listener
	httpServer   *http.Server
	grpcListener net.Listener
	grpcServer   *grpc.Server
	health       *health.Server
	sessionStore *interviewsqlite.Store
	notifStore   *notifsqlite.Store
}

// New creates a configured interview server listening on the provided addresses.
func New(cfg Config) (*Server, error) {
	httpAddr := strings.TrimSpace(cfg.HTTPAddr)
	if httpAddr == "" {
		httpAddr = ":8080"
	}
	httpListener, err := net.Listen("tcp", httpAddr)
	if err != nil {
		return nil, fmt.Errorf("listen on http addr %s: %w", httpAddr, err)
	}

	sessionStore, err := openSessionStore(cfg.SessionDBPath)
	if err != nil {
		_ = httpListener.Close()
		return nil, err
	}
	notifStore, err := openNotificationStore(cfg.NotificationsDBPath)
	if err != nil {
		_ = httpListener.Close()
		_ = sessionStore.Close()
		return nil, err
	}

	dispatcher := notifdomain.NewDispatcher(
		notifapp.NewStoreAdapter(notifStore),
		transport.LogEmail{},
		transport.LogChat{},
		nil,
		nil,
	)
	manager := domain.NewManager(
		newDomainStoreAdapter(sessionStore, nil),
		notifapp.NewDecisionNotifier(dispatcher),
		newAuditStoreAdapter(sessionStore, nil),
		nil,
		nil,
	)

	mux := http.NewServeMux()
	handler := NewHandler(manager, sessionStore, sessionStore, cfg.Grant)
	handler.RegisterRoutes(mux)
	httpServer := &http.Server{Handler: traceMiddleware(mux)}

	var grpcListener net.Listener
	var grpcServer *grpc.Server
	var healthServer *health.Server
	if cfg.GRPCPort > 0 {
		grpcListener, err = net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
		if err != nil {
			_ = httpListener.Close()
			_ = sessionStore.Close()
			_ = notifStore.Close()
			return nil, fmt.Errorf("listen on port %d: %w", cfg.GRPCPort, err)
		}
		grpcServer = grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
		healthServer = health.NewServer()
		grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
		healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
		healthServer.SetServingStatus("interview", grpc_health_v1.HealthCheckResponse_SERVING)
	}

	return &Server{
		httpListener: httpListener,
		httpServer:   httpServer,
		grpcListener: grpcListener,
		grpcServer:   grpcServer,
		health:       healthServer,
		sessionStore: sessionStore,
		notifStore:   notifStore,
	}, nil
}

// Addr returns the HTTP listener address for the interview server.
func (s *Server) Addr() string {
	if s == nil || s.httpListener == nil {
		return ""
	}
	return s.httpListener.Addr().String()
}

// Run creates and serves an interview server until the context ends.
func Run(ctx context.Context, cfg Config) error {
	server, err := New(cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the interview server and blocks until it stops or the context ends.
func (s *Server) Serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.closeStores()

	log.Printf("interview HTTP server listening at %v", s.httpListener.Addr())
	httpErr := make(chan error, 1)
	go func() {
		httpErr <- s.httpServer.Serve(s.httpListener)
	}()

	serveErr := make(chan error, 1)
	if s.grpcServer != nil && s.grpcListener != nil {
		log.Printf("interview health server listening at %v", s.grpcListener.Addr())
		go func() {
			serveErr <- s.grpcServer.Serve(s.grpcListener)
		}()
	}

	handleGRPCErr := func(err error) error {
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	}

	shutdownGRPC := func() {
		if s.grpcServer == nil {
			return
		}
		if s.health != nil {
			s.health.Shutdown()
		}
		s.grpcServer.GracefulStop()
	}
	shutdownHTTP := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.httpServer.Shutdown(shutdownCtx)
	}
	drainGRPC := func() error {
		if s.grpcServer == nil {
			return nil
		}
		return handleGRPCErr(<-serveErr)
	}

	select {
	case <-ctx.Done():
		shutdownGRPC()
		shutdownHTTP()
		return drainGRPC()
	case err := <-serveErr:
		shutdownHTTP()
		return handleGRPCErr(err)
	case err := <-httpErr:
		shutdownGRPC()
		if drained := drainGRPC(); drained != nil {
			return drained
		}
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve HTTP: %w", err)
	}
}

func openSessionStore(path string) (*interviewsqlite.Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = filepath.Join("data", "interview.db")
	}
	if err := ensureStorageDir(path); err != nil {
		return nil, err
	}
	store, err := interviewsqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open interview sqlite store: %w", err)
	}
	return store, nil
}

func openNotificationStore(path string) (*notifsqlite.Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = filepath.Join("data", "notifications.db")
	}
	if err := ensureStorageDir(path); err != nil {
		return nil, err
	}
	store, err := notifsqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open notifications sqlite store: %w", err)
	}
	return store, nil
}

func ensureStorageDir(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create storage dir: %w", err)
		}
	}
	return nil
}

func (s *Server) closeStores() {
	if s == nil {
		return
	}
	if s.sessionStore != nil {
		if err := s.sessionStore.Close(); err != nil {
			log.Printf("close interview store: %v", err)
		}
	}
	if s.notifStore != nil {
		if err := s.notifStore.Close(); err != nil {
			log.Printf("close notifications store: %v", err)
		}
	}
}
