// pattern: Imperative Shell
package cli

import (
	"fmt"

	flag "github.com/spf13/pflag"

	"projscan/internal/cache"
)

const defaultPruneHours = 7 * 24

func openCache(env *Env) (*cache.Manager, error) {
	cfg, err := LoadConfig(env.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cache.NewManager(cfg.ResolveCacheDir(), nil), nil
}

// RegisterCacheCommands registers the cache command group commands.
func RegisterCacheCommands(group *Group, env *Env) {
	group.AddCommand(&Command{
		Name:    "stats",
		Summary: "Show cache location and size",
		Usage:   "Usage: projscan cache stats",
		Run: func(args []string) error {
			store, err := openCache(env)
			if err != nil {
				return err
			}
			usage, err := store.Usage()
			if err != nil {
				return err
			}
			fmt.Fprintf(env.Stdout, "dir:     %s\n", store.Dir())
			fmt.Fprintf(env.Stdout, "entries: %d\n", usage.Entries)
			fmt.Fprintf(env.Stdout, "size:    %s\n", formatBytes(usage.Bytes))
			return nil
		},
	})

	group.AddCommand(&Command{
		Name:    "clear",
		Summary: "Delete every cached project record",
		Usage:   "Usage: projscan cache clear",
		Run: func(args []string) error {
			store, err := openCache(env)
			if err != nil {
				return err
			}
			n, err := store.Clear()
			if err != nil {
				return err
			}
			fmt.Fprintf(env.Stdout, "Removed %d cache entries.\n", n)
			return nil
		},
	})

	group.AddCommand(&Command{
		Name:    "prune",
		Summary: "Delete cache records older than a given age",
		Usage:   "Usage: projscan cache prune [--max-age-hours N]",
		Run: func(args []string) error {
			fs := flag.NewFlagSet("cache prune", flag.ContinueOnError)
			fs.SetOutput(env.Stderr)
			maxAge := fs.Float64("max-age-hours", defaultPruneHours, "remove records older than this many hours")
			if err := fs.Parse(args); err != nil {
				return fmt.Errorf("cache prune: %w", ErrUsage)
			}

			store, err := openCache(env)
			if err != nil {
				return err
			}
			n, err := store.Prune(*maxAge)
			if err != nil {
				return err
			}
			fmt.Fprintf(env.Stdout, "Pruned %d cache entries.\n", n)
			return nil
		},
	})
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
