package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlcomplete/internal/cli/config"
	"github.com/leapstack-labs/sqlcomplete/internal/cli/output"
	"github.com/leapstack-labs/sqlcomplete/internal/session"
	"github.com/leapstack-labs/sqlcomplete/pkg/adapter"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Session  *session.Session
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with an open session.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cc := NewCommandContextWithoutSession(cmd)

	sess, err := session.Open(cmd.Context(), sessionConfig(cc.Cfg, cc.Logger), cc.Renderer.Spin)
	if err != nil {
		return nil, nil, err
	}
	cc.Session = sess
	cc.Logger = sess.Logger

	cleanup := func() {
		if err := sess.Close(); err != nil {
			cc.Logger.Warn("failed to close session", "error", err)
		}
	}
	return cc, cleanup, nil
}

// NewCommandContextWithoutSession creates a CommandContext without a session.
// Useful for commands that don't need the catalog.
func NewCommandContextWithoutSession(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// getConfig returns the current configuration, or the defaults when none
// was loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Default()
}

// sessionConfig builds the session sources from the CLI configuration.
func sessionConfig(cfg *config.Config, logger *slog.Logger) session.Config {
	var target *adapter.Config
	if cfg.Target != nil && cfg.Target.Type != "" {
		ac := cfg.Target.AdapterConfig()
		target = &ac
	}
	return session.Config{
		CatalogFile:        cfg.CatalogFile,
		Target:             target,
		Scope:              cfg.Target.Scope(),
		CasingFile:         cfg.CasingFile,
		GenerateCasingFile: cfg.GenerateCasingFile,
		UsagePath:          cfg.UsagePath,
		Settings:           cfg.Settings(),
		NamedQueries:       cfg.NamedQueryNames(),
		Logger:             logger,
	}
}
