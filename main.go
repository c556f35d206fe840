// pattern: Imperative Shell
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"projscan/internal/cli"
)

var version = "dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := flag.NewFlagSet("projscan", flag.ContinueOnError)
	// Stop parsing flags after the first non-flag arg (the subcommand),
	// so that --help after a subcommand is handled by the subcommand.
	flags.SetInterspersed(false)
	flags.SetOutput(os.Stderr)

	env := &cli.Env{Version: version, Stdout: os.Stdout, Stderr: os.Stderr}
	flags.StringVarP(&env.ConfigDir, "config-dir", "c", "", "config directory (default: ~/.config/projscan)")
	flags.IntVarP(&env.Depth, "depth", "d", 0, "maximum directory depth (default from config)")
	flags.BoolVarP(&env.Verbose, "verbose", "v", false, "log to stderr and list skipped directories")
	flags.BoolVar(&env.NoCache, "no-cache", false, "ignore and do not write the result cache")
	flags.BoolVar(&env.JSON, "json", false, "print JSON instead of a table")
	flags.StringSliceVarP(&env.Ignore, "ignore", "i", nil, "extra directory names to skip")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Override Usage before Parse so --help uses the CLI app's help
	flags.Usage = func() {
		app := cli.BuildApp(ctx, env)
		app.PrintHelp(os.Stderr)
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	app := cli.BuildApp(ctx, env)
	runDefault, err := app.Execute(flags.Args())
	if err == nil && runDefault {
		err = cli.RunScan(ctx, env, nil)
	}
	if err != nil {
		if errors.Is(err, cli.ErrUsage) {
			return 2
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
