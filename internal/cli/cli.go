// Package cli implements the nnviz command-line interface.
//
// # Commands
//
//   - render: draw a description as SVG, JSON, DOT, PNG, PDF or text
//   - pretty: re-indent a description
//   - animate: play the forward pulse in the terminal
//   - presets: list, show and import architecture presets
//   - browse: explore presets interactively
//   - serve: run the interactive web page
//   - cache, config, completion: housekeeping
//
// # Configuration
//
// Every command loads the layered configuration of internal/config. Flags
// such as --width or --stagger are applied last, as overrides of the matching
// config key.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// logs pipeline and cache events through the observability hooks.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/nnviz/internal/config"
	"github.com/matzehuels/nnviz/pkg/buildinfo"
	"github.com/matzehuels/nnviz/pkg/cache"
	"github.com/matzehuels/nnviz/pkg/observability"
	"github.com/matzehuels/nnviz/pkg/pipeline"
	"github.com/matzehuels/nnviz/pkg/presets"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "nnviz"

	// configKeyAnnotation marks flags that override a config key.
	configKeyAnnotation = "nnviz/config-key"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config *config.Config

	configPath string
	verbose    bool
	noColor    bool

	// userDir replaces ~/.config/nnviz in tests.
	userDir string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "nnviz draws neural network architectures as layered diagrams",
		Long: `nnviz renders a JSON description of a neural network (layers as nodes,
data flow as edges) as a left-to-right diagram with hover details and a
forward-pulse animation.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/nnviz/config.yml)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().BoolVar(&c.noColor, "no-color", false, "disable colored output")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.prettyCommand())
	root.AddCommand(c.animateCommand())
	root.AddCommand(c.presetsCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads the configuration and prepares logging for cmd.
func (c *CLI) setup(cmd *cobra.Command) error {
	if c.verbose {
		c.SetLogLevel(LogDebug)
		observability.NewLogHooks(c.Logger).Register()
	}
	setupColor(c.Logger, c.noColor)

	cfg, err := c.loadConfig(cmd)
	if err != nil {
		return err
	}
	c.Config = cfg
	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	return nil
}

// loadConfig layers changed flags carrying a config key over the files and
// environment.
func (c *CLI) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	overrides := map[string]any{}
	cmd.Flags().Visit(func(f *pflag.Flag) {
		if keys := f.Annotations[configKeyAnnotation]; len(keys) == 1 {
			overrides[keys[0]] = f.Value.String()
		}
	})

	opts := config.LoadOptions{Path: c.configPath, Overrides: overrides}
	if c.userDir != "" {
		opts.UserPath = filepath.Join(c.userDir, "config.yml")
	}
	cfg, err := config.Load(opts)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	c.Logger.Debug("config loaded", "preset", cfg.Preset, "cache", cfg.Cache.Backend)
	return cfg, nil
}

// bindConfig marks flag name on cmd as an override of key.
func bindConfig(cmd *cobra.Command, name, key string) {
	_ = cmd.Flags().SetAnnotation(name, configKeyAnnotation, []string{key})
}

// addCanvasFlags registers the geometry and timing overrides shared by the
// rendering commands. Defaults live in the configuration.
func addCanvasFlags(cmd *cobra.Command) {
	flags := []struct {
		name, key, usage string
	}{
		{"width", "canvas.width", "canvas width"},
		{"height", "canvas.height", "canvas height"},
		{"pad-x", "canvas.pad_x", "horizontal padding"},
		{"pad-y", "canvas.pad_y", "vertical padding"},
		{"node-width", "node.width", "node box width"},
		{"node-height", "node.height", "node box height"},
	}
	for _, f := range flags {
		cmd.Flags().Float64(f.name, 0, f.usage+" (default from config)")
		bindConfig(cmd, f.name, f.key)
	}
	cmd.Flags().Duration("stagger", 0, "delay between connector highlights (default from config)")
	bindConfig(cmd, "stagger", "pulse.stagger")
	cmd.Flags().Duration("duration", 0, "highlight time per connector (default from config)")
	bindConfig(cmd, "duration", "pulse.duration")
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner on the configured cache backend.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	store, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if c.Config.Cache.Prefix != "" {
		keyer = cache.NewScopedKeyer(nil, c.Config.Cache.Prefix)
	}
	runner := pipeline.NewRunner(store, keyer, c.Logger)
	runner.TTL = c.Config.Cache.TTL
	return runner, nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cfg := c.Config
	backend := cfg.Cache.Backend
	if noCache {
		backend = config.BackendNone
	}
	switch backend {
	case config.BackendNone:
		return cache.NewNullCache(), nil
	case config.BackendRedis:
		rc, err := cache.NewRedisCache(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("connect redis cache: %w", err)
		}
		return rc, nil
	case config.BackendMongo:
		mc, err := cache.NewMongoCache(ctx, cfg.Mongo)
		if err != nil {
			return nil, fmt.Errorf("connect mongo cache: %w", err)
		}
		return mc, nil
	default:
		dir, err := cfg.CacheDir()
		if err != nil {
			c.Logger.Warn("no cache directory, caching disabled", "err", err)
			return cache.NewNullCache(), nil
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			return nil, err
		}
		return fc, nil
	}
}

// pipelineOptions returns the configured geometry and timing.
func (c *CLI) pipelineOptions(source string) pipeline.Options {
	opts := pipeline.Options{Source: source}
	c.applyConfig(&opts)
	return opts
}

// applyConfig copies the configured geometry and timing into opts.
func (c *CLI) applyConfig(opts *pipeline.Options) {
	opts.Frame = c.Config.Canvas
	opts.Style = c.Config.Node
	opts.Timing = c.Config.Pulse
	opts.Logger = c.Logger
}

// =============================================================================
// Presets
// =============================================================================

// userPresetsPath is where presets import writes the user catalog.
func (c *CLI) userPresetsPath() (string, error) {
	path, err := c.userConfigPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(path), "presets.toml"), nil
}

// catalog returns the built-in presets merged with the imported ones.
func (c *CLI) catalog() (*presets.Catalog, error) {
	builtin := presets.Builtin()
	path, err := c.userPresetsPath()
	if err != nil {
		return builtin, nil
	}
	if _, err := os.Stat(path); err != nil {
		return builtin, nil
	}
	user, err := presets.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load imported presets: %w", err)
	}
	return builtin.Merge(user), nil
}
