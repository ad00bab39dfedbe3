package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/nnviz/internal/config"
	"github.com/matzehuels/nnviz/internal/server"
	"github.com/matzehuels/nnviz/pkg/cache"
	"github.com/matzehuels/nnviz/pkg/session"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the interactive page",
		Long: `Serve the interactive page: a preset selector, a JSON editor and the
rendered diagram with hover details and the forward pulse. The same
operations are available as a JSON API under /api.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := c.Config

			runner, err := c.newRunner(ctx, false)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			sessions, err := c.newSessionStore(ctx)
			if err != nil {
				return fmt.Errorf("initialize sessions: %w", err)
			}
			defer sessions.Close()

			cat, err := c.catalog()
			if err != nil {
				return err
			}

			srv := server.New(runner, sessions, cat, server.Options{
				Frame:      cfg.Canvas,
				Style:      cfg.Node,
				Timing:     cfg.Pulse,
				Preset:     cfg.Preset,
				SessionTTL: cfg.Server.SessionTTL,
			}, c.Logger)

			printSuccess("Serving %d presets", cat.Len())
			printKeyValue("URL", "http://"+cfg.Server.Addr)
			printKeyValue("Cache", cfg.Cache.Backend)
			printKeyValue("Sessions", cfg.Session.Backend)
			return srv.Run(ctx, cfg.Server.Addr, cfg.Server.ShutdownTimeout)
		},
	}

	cmd.Flags().String("addr", "", "listen address (default from config)")
	bindConfig(cmd, "addr", "server.addr")
	addCanvasFlags(cmd)

	return cmd
}

// newSessionStore opens the configured session backend.
func (c *CLI) newSessionStore(ctx context.Context) (session.Store, error) {
	cfg := c.Config
	switch cfg.Session.Backend {
	case config.BackendFile:
		fs, err := session.NewFileStore(cfg.Session.Dir)
		if err != nil {
			return nil, err
		}
		return fs, nil
	case config.BackendRedis:
		client := cfg.Redis.NewClient()
		if err := cache.Ping(ctx, client); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connect redis sessions: %w", err)
		}
		return session.NewRedisStore(client), nil
	default:
		return session.NewMemoryStore(), nil
	}
}
