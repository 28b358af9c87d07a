package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agusespa/securecode/internal/app"
	"github.com/agusespa/securecode/internal/auth"
	"github.com/agusespa/securecode/internal/codeparse"
	"github.com/agusespa/securecode/internal/session"
	"github.com/agusespa/securecode/internal/web"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web interface",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	registry, err := codeparse.NewRegistry()
	if err != nil {
		return err
	}
	defer registry.Close()

	rw, err := newRewriter(registry)
	if err != nil {
		return err
	}

	svc := app.NewService(newScanner(), rw, db, cfg.History.Limit, logger.Named("app"))
	authn := auth.NewService(db, logger.Named("auth"))

	srv, err := web.NewServer(svc, authn, session.NewStore(), web.Options{
		CookieSecure: cfg.Server.CookieSecure,
		Ping:         db.Ping,
		Logger:       logger.Named("web"),
	})
	if err != nil {
		return err
	}

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	logger.Info("starting server",
		zap.String("addr", addr),
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", rw.Model()),
		zap.String("database", cfg.Database.Driver))

	if err := srv.Run(ctx, addr); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

