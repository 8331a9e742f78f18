package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/plushie/pkg/cache"
	"github.com/matzehuels/plushie/pkg/hook"
	"github.com/matzehuels/plushie/pkg/pipeline"
	"github.com/matzehuels/plushie/pkg/plushie"
	"github.com/matzehuels/plushie/pkg/storage"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "plushie"

	envRedisAddr = "PLUSHIE_REDIS_ADDR"
	envMongoURI  = "PLUSHIE_MONGO_URI"
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

	// Backends, set by persistent flags.
	redisAddr string
	mongoURI  string

	// Params file and overrides, set by persistent flags.
	paramsFile  string
	gravity     float32
	centroids   int
	initializer string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// =============================================================================
// Params
// =============================================================================

// loadParams reads --params (or the defaults) and applies the override flags
// the user set explicitly.
func (c *CLI) loadParams(cmd *cobra.Command) (plushie.Params, error) {
	params := plushie.DefaultParams()
	if c.paramsFile != "" {
		p, err := plushie.LoadParams(c.paramsFile)
		if err != nil {
			return plushie.Params{}, err
		}
		params = p
	}

	flags := cmd.Flags()
	if flags.Changed("gravity") {
		params.Gravity = c.gravity
	}
	if flags.Changed("centroids") {
		params.Centroids.Number = c.centroids
	}
	if flags.Changed("initializer") {
		params.Initializer.Kind = plushie.InitializerKind(c.initializer)
	}
	if flags.Lookup("leniency") != nil && flags.Changed("leniency") {
		l, err := hook.ParseLeniency(flags.Lookup("leniency").Value.String())
		if err != nil {
			return plushie.Params{}, err
		}
		params.HookLeniency = l
	}
	if err := params.Validate(); err != nil {
		return plushie.Params{}, err
	}
	return params, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. Redis is used when an
// address is configured, the file cache otherwise.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cache, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache, nil, c.Logger), nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if c.redisAddr != "" {
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{Addr: c.redisAddr, Prefix: appName + ":"})
		if err != nil {
			return nil, err
		}
		c.Logger.Debug("using redis cache", "addr", c.redisAddr)
		return rc, nil
	}
	dir, err := cacheDir()
	if err != nil {
		c.Logger.Warn("no cache directory, caching disabled", "error", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// newStore opens MongoDB when --mongo-uri is set, and returns nil otherwise.
func (c *CLI) newStore(ctx context.Context) (storage.Store, error) {
	if c.mongoURI == "" {
		return nil, nil
	}
	return storage.NewMongoStore(ctx, storage.MongoConfig{URI: c.mongoURI})
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/plushie/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// readSource reads pattern text from a file, or stdin for "-".
func readSource(path string, stdin io.Reader) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read pattern: %w", err)
	}
	return string(data), nil
}

// outputBase derives the output path stem from the input file.
func outputBase(input, output string) string {
	if output != "" {
		return strings.TrimSuffix(output, filepath.Ext(output))
	}
	if input == "-" {
		return appName
	}
	return strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string, def ...string) []string {
	if s == "" {
		return def
	}
	return strings.Split(s, ",")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
