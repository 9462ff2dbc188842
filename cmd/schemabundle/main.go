package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/flavors-dev/schemabundle"
	"github.com/flavors-dev/schemabundle/cmd/schemabundle/commands"
	"github.com/flavors-dev/schemabundle/internal/cliutil"
	"github.com/flavors-dev/schemabundle/internal/mcpserver"
)

// validCommands lists the commands suggested for typos.
var validCommands = []string{"bundle", "render", "mcp", "version", "help"}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command := os.Args[1]

	var err error
	switch command {
	case "version", "-v", "--version":
		printVersion(os.Stdout)
	case "help", "-h", "--help":
		printUsage()
	case "bundle":
		err = commands.HandleBundle(ctx, os.Args[2:])
	case "render":
		err = commands.HandleRender(ctx, os.Args[2:])
	case "mcp":
		err = mcpserver.Run(ctx)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		if suggestion := suggestCommand(command); suggestion != "" {
			fmt.Fprintf(os.Stderr, "Did you mean '%s'?\n", suggestion)
		}
		fmt.Fprintln(os.Stderr)
		printUsage()
		stop()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// printVersion writes the build metadata shown by the version command.
func printVersion(w io.Writer) {
	cliutil.Writef(w, "schemabundle %s\n%s\n", schemabundle.Version(), schemabundle.BuildInfo())
}

// suggestCommand returns the valid command closest to input, or "" when no
// command is within an edit distance of 2.
func suggestCommand(input string) string {
	best, bestDist := "", 3
	for _, cmd := range validCommands {
		if d := editDistance(input, cmd); d < bestDist {
			best, bestDist = cmd, d
		}
	}
	return best
}

// editDistance computes the Levenshtein distance between a and b.
func editDistance(a, b string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func printUsage() {
	fmt.Println(`schemabundle - JSON Schema reference bundler

Usage:
  schemabundle <command> [options]

Commands:
  bundle      Inline external $refs into one self-contained schema
  render      Bundle, dereference and flatten a schema for form renderers
  mcp         Run the MCP server over stdio
  version     Show version information
  help        Show this help message

Examples:
  schemabundle bundle -o schemas/render-schema.json schemas/dedicated-schema.json
  schemabundle bundle --format yaml --dereference root.yaml
  schemabundle render -o resolved_schema.json common.json

Run 'schemabundle <command> --help' for more information on a command.`)
}
