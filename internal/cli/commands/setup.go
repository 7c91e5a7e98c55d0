package commands

import (
	"log/slog"
	"net/http"

	"github.com/leapstack-labs/druidql/internal/cli/config"
	"github.com/leapstack-labs/druidql/internal/cli/output"
	"github.com/leapstack-labs/druidql/pkg/broker"
	"github.com/leapstack-labs/druidql/pkg/druid"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Client   *druid.Client
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with a broker client and
// renderer.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cctx := NewCommandContextWithoutClient(cmd)
	client, err := newClient(cctx.Cfg, cctx.Logger)
	if err != nil {
		return nil, err
	}
	cctx.Client = client
	return cctx, nil
}

// NewCommandContextWithoutClient creates a CommandContext without a client.
// Useful for commands that don't talk to a broker.
func NewCommandContextWithoutClient(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.Output))

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// getConfig returns the current configuration, or the defaults when no
// configuration was loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Default()
}

func newClient(cfg *config.Config, logger *slog.Logger) (*druid.Client, error) {
	strategy, err := broker.StrategyByName(cfg.Strategy)
	if err != nil {
		return nil, err
	}
	return druid.New(cfg.Brokers,
		druid.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		druid.WithLogger(logger),
		druid.WithStrategy(strategy),
	)
}
