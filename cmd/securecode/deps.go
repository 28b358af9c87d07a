package main

import (
	"context"
	"fmt"

	"github.com/agusespa/securecode/internal/codeparse"
	"github.com/agusespa/securecode/internal/llm"
	"github.com/agusespa/securecode/internal/rewrite"
	"github.com/agusespa/securecode/internal/scanner"
	"github.com/agusespa/securecode/internal/session"
	"github.com/agusespa/securecode/internal/store"
)

func newScanner() *scanner.CommandScanner {
	tools := make(map[string]scanner.Tool, len(cfg.Scanners))
	for lang, sc := range cfg.Scanners {
		tools[lang] = scanner.Tool{
			Command:      sc.Command,
			Args:         sc.Args,
			Timeout:      sc.Timeout.Std(),
			SuccessCodes: sc.SuccessCodes,
		}
	}
	return scanner.NewCommandScanner(scanner.OSRunner{}, tools, logger.Named("scanner"))
}

func newRewriter(registry *codeparse.Registry) (*rewrite.Rewriter, error) {
	provider, err := llm.NewProvider(llm.ProviderConfig{
		Type:       llm.ProviderType(cfg.LLM.Provider),
		Model:      cfg.LLM.Model,
		BaseURL:    cfg.LLM.BaseURL,
		APIKey:     cfg.LLM.APIKey,
		MaxRetries: cfg.LLM.MaxRetries,
		Timeout:    cfg.LLM.Timeout.Std(),
		Logger:     logger.Named("llm"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM provider: %w", err)
	}

	var parser rewrite.CodeParser
	if registry != nil {
		parser = registry
	}
	return rewrite.NewRewriter(provider, parser, cfg.LLM.Prompt, logger.Named("rewrite")), nil
}

func openStore(ctx context.Context) (*store.Store, error) {
	st, err := store.Open(cfg.Database.Driver, cfg.Database.DSN, store.WithLogger(logger.Named("store")))
	if err != nil {
		return nil, err
	}
	if err := st.CreateTables(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

// attachUser signs the CLI session in as username so submissions are
// recorded under that account.
func attachUser(ctx context.Context, db *store.Store, st *session.State, username string) error {
	user, err := db.GetUserByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("user %q: %w", username, err)
	}
	st.Login(user)
	return nil
}
