// Package main is an interactive shell for the catalog API.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/atinyakov/CoverCatalog/internal/client/api"
	"github.com/spf13/pflag"
)

var (
	version   string
	buildDate string
)

const helpText = `Available commands:
  login <username> <password>
  logout
  list
  get <id>
  create <name> <description> <price> <coverage> <deductible>
  update <id> <field>=<value>...
  delete <id>
  help
  exit`

// repl reads commands from in until exit or EOF and writes results to out.
func repl(ctx context.Context, c *api.Client, in io.Reader, out io.Writer) {
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, "catalog> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			break
		}
		args := strings.Fields(strings.TrimSpace(scanner.Text()))
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" || args[0] == "quit" {
			fmt.Fprintln(out, "Bye")
			return
		}
		if err := execute(ctx, c, args, out); err != nil {
			fmt.Fprintln(out, "Error:", err)
		}
	}
}

func main() {
	fs := pflag.NewFlagSet("catalog-client", pflag.ExitOnError)
	baseURL := fs.StringP("url", "u", "http://localhost:5000", "server base URL")
	showVer := fs.Bool("version", false, "show build version and date")
	_ = fs.Parse(os.Args[1:])

	if *showVer {
		fmt.Printf("Catalog Client\nVersion: %s\nBuild Date: %s\n", version, buildDate)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c := api.New(*baseURL, nil)
	if err := c.Health(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "warning: server not reachable:", err)
	}
	repl(ctx, c, os.Stdin, os.Stdout)
}
