package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/temirov/repocopier/internal/copier"
	"github.com/temirov/repocopier/internal/journal"
	"github.com/temirov/repocopier/internal/workspace"
)

const (
	copierMissingMessageConstant     = "copier not configured"
	listenErrorTemplateConstant      = "listen on %s: %w"
	serveErrorTemplateConstant       = "server error: %w"
	shutdownErrorTemplateConstant    = "server shutdown failed: %w"
	readHeaderTimeoutConstant        = 10 * time.Second
	idleTimeoutConstant              = 60 * time.Second
	corsMaxAgeSecondsConstant        = 600
	serverStartingMessageConstant    = "HTTP server listening"
	serverStoppingMessageConstant    = "HTTP server shutting down"
	forcedCloseFailedMessageConstant = "HTTP server close failed"
	requestCompletedMessageConstant  = "http request"
	addressFieldConstant             = "address"
	methodFieldConstant              = "method"
	pathFieldConstant                = "path"
	statusFieldConstant              = "status"
	bytesFieldConstant               = "bytes"
	durationFieldConstant            = "duration"
	requestIdentifierFieldConstant   = "request_id"
	remoteAddressFieldConstant       = "remote_addr"
	healthRouteConstant              = "/api/health"
	copyRouteConstant                = "/api/copy-repository"
	cleanupRouteConstant             = "/api/cleanup"
	copiesRouteConstant              = "/api/copies"
	indexRouteConstant               = "/"
	catchAllRouteConstant            = "/*"
	contentTypeHeaderConstant        = "Content-Type"
)

//go:generate mockgen -destination=mocks/mock_server.go -package=mocks github.com/temirov/repocopier/internal/server Copier,CopyLister

// ErrCopierNotConfigured indicates New received no copier.
var ErrCopierNotConfigured = errors.New(copierMissingMessageConstant)

// Copier runs copies and workspace cleanup.
type Copier interface {
	Copy(executionContext context.Context, request copier.CopyRequest) (copier.CopyResult, error)
	CleanupAll(executionContext context.Context) (workspace.CleanupResult, error)
}

// CopyLister reads recorded copy attempts.
type CopyLister interface {
	List(executionContext context.Context, limit int) ([]journal.Entry, error)
}

// Dependencies describes the collaborators of a Server. Journal may be nil.
type Dependencies struct {
	Logger        *zap.Logger
	Copier        Copier
	Journal       CopyLister
	Configuration Configuration
	Clock         func() time.Time
}

// Server serves the copier HTTP API and the bundled web form.
type Server struct {
	logger        *zap.Logger
	copier        Copier
	journal       CopyLister
	configuration Configuration
	clock         func() time.Time
	handler       http.Handler
}

// New constructs a Server with its routes.
func New(dependencies Dependencies) (*Server, error) {
	if dependencies.Copier == nil {
		return nil, ErrCopierNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := dependencies.Clock
	if clock == nil {
		clock = time.Now
	}

	server := &Server{
		logger:        logger,
		copier:        dependencies.Copier,
		journal:       dependencies.Journal,
		configuration: dependencies.Configuration,
		clock:         clock,
	}
	server.handler = server.routes()
	return server, nil
}

// Handler exposes the routed handler, mainly for tests.
func (server *Server) Handler() http.Handler {
	return server.handler
}

// Start listens on the configured address and serves until executionContext ends.
func (server *Server) Start(executionContext context.Context) error {
	address := server.configuration.Address()
	listener, listenError := net.Listen("tcp", address)
	if listenError != nil {
		return fmt.Errorf(listenErrorTemplateConstant, address, listenError)
	}
	return server.Serve(executionContext, listener)
}

// Serve accepts connections on listener until executionContext ends, then shuts down
// gracefully within the configured shutdown timeout. A graceful stop returns nil; when requests
// outlive the timeout the remaining connections are closed and the shutdown error is returned.
func (server *Server) Serve(executionContext context.Context, listener net.Listener) error {
	httpServer := &http.Server{
		Handler:           server.handler,
		ReadHeaderTimeout: readHeaderTimeoutConstant,
		IdleTimeout:       idleTimeoutConstant,
	}

	server.logger.Info(serverStartingMessageConstant, zap.String(addressFieldConstant, listener.Addr().String()))

	serveErrors := make(chan error, 1)
	go func() {
		if serveError := httpServer.Serve(listener); serveError != nil && !errors.Is(serveError, http.ErrServerClosed) {
			serveErrors <- serveError
		}
		close(serveErrors)
	}()

	select {
	case <-executionContext.Done():
		server.logger.Info(serverStoppingMessageConstant)
		shutdownContext, cancel := context.WithTimeout(context.WithoutCancel(executionContext), server.configuration.shutdownTimeout())
		defer cancel()
		if shutdownError := httpServer.Shutdown(shutdownContext); shutdownError != nil {
			// requests still running past the timeout lose their connections
			if closeError := httpServer.Close(); closeError != nil {
				server.logger.Warn(forcedCloseFailedMessageConstant, zap.Error(closeError))
			}
			return fmt.Errorf(shutdownErrorTemplateConstant, shutdownError)
		}
		return nil
	case serveError := <-serveErrors:
		if serveError == nil {
			return nil
		}
		return fmt.Errorf(serveErrorTemplateConstant, serveError)
	}
}

func (server *Server) routes() http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(server.loggingMiddleware)
	router.Use(middleware.Recoverer)

	router.Get(healthRouteConstant, server.handleHealth)
	router.Post(copyRouteConstant, server.handleCopy)
	router.Post(cleanupRouteConstant, server.handleCleanup)
	router.Get(copiesRouteConstant, server.handleListCopies)
	router.Get(indexRouteConstant, server.handleIndex)
	router.Get(catchAllRouteConstant, server.handleIndex)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: server.configuration.allowedOrigins(),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{contentTypeHeaderConstant},
		MaxAge:         corsMaxAgeSecondsConstant,
	})
	return corsHandler.Handler(router)
}

func (server *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		startedAt := time.Now()
		wrappedWriter := middleware.NewWrapResponseWriter(responseWriter, request.ProtoMajor)
		next.ServeHTTP(wrappedWriter, request)
		server.logger.Info(requestCompletedMessageConstant,
			zap.String(methodFieldConstant, request.Method),
			zap.String(pathFieldConstant, request.URL.Path),
			zap.Int(statusFieldConstant, wrappedWriter.Status()),
			zap.Int(bytesFieldConstant, wrappedWriter.BytesWritten()),
			zap.Duration(durationFieldConstant, time.Since(startedAt)),
			zap.String(requestIdentifierFieldConstant, middleware.GetReqID(request.Context())),
			zap.String(remoteAddressFieldConstant, request.RemoteAddr),
		)
	})
}
