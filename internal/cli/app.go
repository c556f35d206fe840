// pattern: Functional Core
package cli

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
)

// ErrUsage is returned when the arguments name no known command. Help has
// already been printed when it is returned.
var ErrUsage = errors.New("usage error")

// Command represents a single CLI command with its metadata and handler.
type Command struct {
	Name    string
	Summary string
	Usage   string
	Run     func(args []string) error
}

// Group represents a group of related commands.
type Group struct {
	Name     string
	Summary  string
	Commands map[string]*Command
}

// App represents the top-level CLI application with groups and ungrouped commands.
type App struct {
	groups   map[string]*Group
	commands map[string]*Command
	version  string
	stderr   io.Writer
}

// NewApp creates a new CLI application with the given version. Help and
// usage text go to stderr.
func NewApp(version string, stderr io.Writer) *App {
	return &App{
		groups:   make(map[string]*Group),
		commands: make(map[string]*Command),
		version:  version,
		stderr:   stderr,
	}
}

// AddGroup creates and registers a new command group.
func (a *App) AddGroup(name, summary string) *Group {
	g := &Group{
		Name:     name,
		Summary:  summary,
		Commands: make(map[string]*Command),
	}
	a.groups[name] = g
	return g
}

// AddCommand registers an ungrouped (top-level) command.
func (a *App) AddCommand(cmd *Command) {
	a.commands[cmd.Name] = cmd
}

// AddCommand registers a command in the group.
func (g *Group) AddCommand(cmd *Command) {
	g.Commands[cmd.Name] = cmd
}

// Execute dispatches the CLI arguments to the appropriate command.
// Returns true if the default scan should run because no command was given.
func (a *App) Execute(args []string) (bool, error) {
	// No args: default scan
	if len(args) == 0 {
		return true, nil
	}

	cmdName := args[0]

	// Check for ungrouped command
	if cmd, ok := a.commands[cmdName]; ok {
		if wantsHelp(args[1:]) {
			fmt.Fprintf(a.stderr, "%s\n", cmd.Usage)
			return false, nil
		}
		return false, cmd.Run(args[1:])
	}

	// Check for group
	if group, ok := a.groups[cmdName]; ok {
		// Group with no subcommand, "help", or --help/-h
		if len(args) < 2 || args[1] == "help" || args[1] == "--help" || args[1] == "-h" {
			group.PrintHelp(a.stderr)
			return false, nil
		}

		subCmd := args[1]
		if cmd, ok := group.Commands[subCmd]; ok {
			if wantsHelp(args[2:]) {
				fmt.Fprintf(a.stderr, "%s\n", cmd.Usage)
				return false, nil
			}
			return false, cmd.Run(args[2:])
		}

		// Unknown command in group
		group.PrintHelp(a.stderr)
		return false, fmt.Errorf("unknown command %q in group %q: %w", subCmd, group.Name, ErrUsage)
	}

	if cmdName == "help" {
		a.PrintHelp(a.stderr)
		return false, nil
	}

	// Unknown command
	a.PrintHelp(a.stderr)
	return false, fmt.Errorf("unknown command %q: %w", cmdName, ErrUsage)
}

func wantsHelp(args []string) bool {
	return slices.ContainsFunc(args, func(arg string) bool {
		return arg == "--help" || arg == "-h"
	})
}

// PrintHelp prints the top-level help text.
func (a *App) PrintHelp(w io.Writer) {
	fmt.Fprintf(w, "Usage: projscan [options] [command]\n\n")
	fmt.Fprintf(w, "Commands:\n")

	// Print ungrouped commands
	for _, name := range []string{"scan", "watch", "version"} {
		if cmd, ok := a.commands[name]; ok {
			fmt.Fprintf(w, "  %-10s %s\n", cmd.Name, cmd.Summary)
		}
	}

	fmt.Fprintf(w, "  %-10s %s\n", "(none)", "Scan the configured scan paths")

	// Print groups if any exist
	if len(a.groups) > 0 {
		fmt.Fprintf(w, "\nCommand Groups:\n")
		for _, name := range slices.Sorted(maps.Keys(a.groups)) {
			group := a.groups[name]
			fmt.Fprintf(w, "  %-10s %s\n", group.Name, group.Summary)
		}
	}

	fmt.Fprintf(w, "\nUse \"projscan <group> help\" for group details.\n\n")
	fmt.Fprintf(w, "Options:\n")
}

// PrintHelp prints help for a specific group.
func (g *Group) PrintHelp(w io.Writer) {
	fmt.Fprintf(w, "Usage: projscan %s <command>\n\n", g.Name)
	fmt.Fprintf(w, "Commands:\n")
	// Sort command names for deterministic output
	names := slices.Sorted(maps.Keys(g.Commands))
	for _, name := range names {
		cmd := g.Commands[name]
		fmt.Fprintf(w, "  %-10s %s\n", cmd.Name, cmd.Summary)
	}
	fmt.Fprintf(w, "\nUse \"projscan %s <command> --help\" for command details.\n", g.Name)
}
