// pattern: Functional Core
package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestApp_PrintHelp_ShowsGroupedCommands(t *testing.T) {
	app := NewApp("1.0.0", &bytes.Buffer{})
	app.AddCommand(&Command{Name: "scan", Summary: "Discover projects"})
	app.AddGroup("cache", "Inspect the cache")
	app.AddGroup("config", "Show configuration")

	buf := &bytes.Buffer{}
	app.PrintHelp(buf)

	output := buf.String()
	for _, want := range []string{"Command Groups:", "scan", "cache", "config", "(none)"} {
		if !strings.Contains(output, want) {
			t.Errorf("help missing %q:\n%s", want, output)
		}
	}
	if strings.Index(output, "cache") > strings.Index(output, "config") {
		t.Errorf("groups not sorted:\n%s", output)
	}
}

func TestApp_Execute_NoArgs_ReturnsTrueForDefaultScan(t *testing.T) {
	app := NewApp("1.0.0", &bytes.Buffer{})
	result, err := app.Execute(nil)
	if err != nil {
		t.Fatalf("Execute(nil) error: %v", err)
	}
	if !result {
		t.Errorf("Execute(nil) returned %v, want true", result)
	}
}

func TestApp_Execute_UngroupedCommand_Dispatches(t *testing.T) {
	app := NewApp("1.0.0", &bytes.Buffer{})
	called := false
	app.AddCommand(&Command{
		Name:    "version",
		Summary: "Print version",
		Usage:   "Usage: projscan version",
		Run: func(args []string) error {
			called = true
			return nil
		},
	})

	result, err := app.Execute([]string{"version"})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if result {
		t.Errorf("Execute with command returned %v, want false", result)
	}
	if !called {
		t.Errorf("Command Run was not called")
	}
}

func TestApp_Execute_PropagatesCommandError(t *testing.T) {
	app := NewApp("1.0.0", &bytes.Buffer{})
	boom := errors.New("boom")
	app.AddCommand(&Command{Name: "scan", Run: func(args []string) error { return boom }})

	if _, err := app.Execute([]string{"scan"}); !errors.Is(err, boom) {
		t.Errorf("Execute error = %v, want %v", err, boom)
	}
}

func TestApp_Execute_GroupCommand_Dispatches(t *testing.T) {
	app := NewApp("1.0.0", &bytes.Buffer{})
	group := app.AddGroup("cache", "Inspect the cache")

	called := false
	var passedArgs []string
	group.AddCommand(&Command{
		Name:    "prune",
		Summary: "Prune old records",
		Usage:   "Usage: projscan cache prune",
		Run: func(args []string) error {
			called = true
			passedArgs = args
			return nil
		},
	})

	result, err := app.Execute([]string{"cache", "prune", "--max-age-hours", "2"})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if result {
		t.Errorf("Execute with group command returned %v, want false", result)
	}
	if !called {
		t.Errorf("Command Run was not called")
	}
	if len(passedArgs) != 2 || passedArgs[0] != "--max-age-hours" {
		t.Errorf("Command received args %v, want [--max-age-hours 2]", passedArgs)
	}
}

func TestApp_Execute_GroupHelp_PrintsGroupCommands(t *testing.T) {
	for _, helpArg := range []string{"help", "--help", "-h"} {
		t.Run(helpArg, func(t *testing.T) {
			stderr := &bytes.Buffer{}
			app := NewApp("1.0.0", stderr)
			group := app.AddGroup("cache", "Inspect the cache")
			group.AddCommand(&Command{Name: "clear", Summary: "Delete records"})

			result, err := app.Execute([]string{"cache", helpArg})
			if err != nil {
				t.Fatalf("Execute error: %v", err)
			}
			if result {
				t.Errorf("Execute with %s returned %v, want false", helpArg, result)
			}
			if !strings.Contains(stderr.String(), "clear") {
				t.Errorf("group help missing 'clear', got: %s", stderr.String())
			}
		})
	}
}

func TestApp_Execute_CommandHelp_PrintsUsage(t *testing.T) {
	stderr := &bytes.Buffer{}
	app := NewApp("1.0.0", stderr)
	group := app.AddGroup("cache", "Inspect the cache")

	runCalled := false
	group.AddCommand(&Command{
		Name:    "prune",
		Summary: "Prune old records",
		Usage:   "Usage: projscan cache prune [--max-age-hours N]",
		Run: func(args []string) error {
			runCalled = true
			return nil
		},
	})

	if _, err := app.Execute([]string{"cache", "prune", "--help"}); err != nil {
		t.Fatalf("Execute error: %v", err)
	}
	if runCalled {
		t.Errorf("Command Run was called, should have printed usage instead")
	}
	if !strings.Contains(stderr.String(), "Usage: projscan cache prune") {
		t.Errorf("usage output missing, got: %s", stderr.String())
	}
}

func TestApp_Execute_UnknownCommand_ReturnsUsageError(t *testing.T) {
	stderr := &bytes.Buffer{}
	app := NewApp("1.0.0", stderr)
	app.AddGroup("cache", "Inspect the cache")

	for _, args := range [][]string{{"frobnicate"}, {"cache", "frobnicate"}} {
		result, err := app.Execute(args)
		if !errors.Is(err, ErrUsage) {
			t.Errorf("Execute(%v) error = %v, want ErrUsage", args, err)
		}
		if result {
			t.Errorf("Execute(%v) returned true", args)
		}
	}
	if !strings.Contains(stderr.String(), "Usage:") {
		t.Errorf("help not printed on unknown command")
	}
}
