// Package web serves the browser interface.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agusespa/securecode/internal/app"
	"github.com/agusespa/securecode/internal/session"
	"github.com/agusespa/securecode/internal/types"
)

//go:embed templates/*.html
var templatesFS embed.FS

const (
	sessionCookie = "securecode_session"
	sessionKey    = "session"
	cookieMaxAge  = int(session.DefaultTTL / time.Second)
)

// Authenticator is the account service used by the login and register
// pages.
type Authenticator interface {
	Register(ctx context.Context, username, password, confirm string) (int64, error)
	Login(ctx context.Context, username, password string) (*types.User, error)
}

type Options struct {
	CookieSecure bool
	// Ping is reported by /healthz when set.
	Ping   func(ctx context.Context) error
	Now    func() time.Time
	Logger *zap.Logger
}

type Server struct {
	svc      *app.Service
	auth     Authenticator
	sessions *session.Store
	opts     Options
	logger   *zap.Logger
	engine   *gin.Engine
}

func NewServer(svc *app.Service, authn Authenticator, sessions *session.Store, opts Options) (*Server, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		svc:      svc,
		auth:     authn,
		sessions: sessions,
		opts:     opts,
		logger:   logger,
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(logger))
	engine.SetHTMLTemplate(tmpl)
	s.routes(engine)
	s.engine = engine

	return s, nil
}

func (s *Server) routes(r *gin.Engine) {
	r.GET("/healthz", s.healthz)

	pages := r.Group("/", s.withSession)
	pages.GET("/login", s.loginPage)
	pages.POST("/login", s.login)
	pages.GET("/register", s.registerPage)
	pages.POST("/register", s.register)
	pages.POST("/logout", s.logout)

	user := pages.Group("/", requireLogin)
	user.GET("/", s.home)
	user.POST("/scan", s.scan)
	user.POST("/selection", s.selection)
	user.POST("/resolve", s.resolve)
	user.GET("/history", s.history)
	user.GET("/report.md", s.reportMarkdown)
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("web server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down web server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
