// pattern: Imperative Shell
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/x/term"
	flag "github.com/spf13/pflag"

	"projscan/internal/config"
)

// Globals are the options given before the command name.
type Globals struct {
	ConfigDir string
	Depth     int
	Verbose   bool
	NoCache   bool
	JSON      bool
	Ignore    []string // extra directory basenames to skip
}

// Env carries what every command needs.
type Env struct {
	Globals
	Version string
	Stdout  io.Writer
	Stderr  io.Writer
}

// LoadConfig loads the configuration from the specified directory or default location.
func LoadConfig(configDir string) (config.Config, error) {
	if configDir != "" {
		return config.LoadFromDir(configDir)
	}
	return config.Load()
}

// ConfigPath returns the config file used for configDir.
func ConfigPath(configDir string) string {
	if configDir != "" {
		return filepath.Join(configDir, "config.yaml")
	}
	return config.Path()
}

// BuildApp creates and configures the CLI application with all commands and groups.
func BuildApp(ctx context.Context, env *Env) *App {
	app := NewApp(env.Version, env.Stderr)

	// Register ungrouped commands
	app.AddCommand(&Command{
		Name:    "scan",
		Summary: "Discover projects and print a ranked summary",
		Usage:   "Usage: projscan scan [--json] [--depth N] [--no-cache] [path...]",
		Run: func(args []string) error {
			paths, err := parseScanFlags("scan", env, args)
			if err != nil {
				return err
			}
			return RunScan(ctx, env, paths)
		},
	})

	app.AddCommand(&Command{
		Name:    "watch",
		Summary: "Rescan whenever the scanned directories change",
		Usage:   "Usage: projscan watch [--json] [--depth N] [--no-cache] [path...]",
		Run: func(args []string) error {
			paths, err := parseScanFlags("watch", env, args)
			if err != nil {
				return err
			}
			return RunWatch(ctx, env, paths)
		},
	})

	app.AddCommand(&Command{
		Name:    "version",
		Summary: "Print version and exit",
		Usage:   "Usage: projscan version",
		Run: func(args []string) error {
			_, err := fmt.Fprintln(env.Stdout, env.Version)
			return err
		},
	})

	// Register command groups
	cacheGroup := app.AddGroup("cache", "Inspect and maintain the result cache")
	RegisterCacheCommands(cacheGroup, env)

	configGroup := app.AddGroup("config", "Show configuration")
	RegisterConfigCommands(configGroup, env)

	return app
}

// parseScanFlags applies per-command flags on top of the globals and
// returns the remaining path arguments.
func parseScanFlags(name string, env *Env, args []string) ([]string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	jsonOut := fs.Bool("json", env.JSON, "print JSON instead of a table")
	depth := fs.IntP("depth", "d", env.Depth, "maximum directory depth")
	noCache := fs.Bool("no-cache", env.NoCache, "ignore and do not write the result cache")
	ignore := fs.StringSliceP("ignore", "i", nil, "extra directory names to skip")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%s: %w", name, ErrUsage)
	}
	env.JSON = *jsonOut
	env.Depth = *depth
	env.NoCache = *noCache
	env.Ignore = append(env.Ignore, *ignore...)
	return fs.Args(), nil
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(f.Fd())
}

// terminalWidth returns the width of the terminal behind w, then $COLUMNS,
// then 0 so the renderer picks its default.
func terminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok && term.IsTerminal(f.Fd()) {
		if width, _, err := term.GetSize(f.Fd()); err == nil && width > 0 {
			return width
		}
	}
	if n, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && n > 0 {
		return n
	}
	return 0
}
