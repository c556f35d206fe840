// pattern: Imperative Shell
package cli

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// RegisterConfigCommands registers the config command group commands.
func RegisterConfigCommands(group *Group, env *Env) {
	group.AddCommand(&Command{
		Name:    "path",
		Summary: "Print the config file location",
		Usage:   "Usage: projscan config path",
		Run: func(args []string) error {
			_, err := fmt.Fprintln(env.Stdout, ConfigPath(env.ConfigDir))
			return err
		},
	})

	group.AddCommand(&Command{
		Name:    "show",
		Summary: "Print the effective configuration as YAML",
		Usage:   "Usage: projscan config show",
		Run: func(args []string) error {
			cfg, err := LoadConfig(env.ConfigDir)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			_, err = env.Stdout.Write(data)
			return err
		},
	})
}
