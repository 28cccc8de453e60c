package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/atinyakov/CoverCatalog/internal/client/api"
	"github.com/atinyakov/CoverCatalog/internal/models"
)

var errUsage = errors.New("usage")

// protected lists the commands that need a token.
var protected = map[string]bool{
	"logout": true, "list": true, "get": true,
	"create": true, "update": true, "delete": true,
}

// execute runs one shell command.
func execute(ctx context.Context, c *api.Client, args []string, out io.Writer) error {
	if protected[args[0]] && !c.LoggedIn() {
		fmt.Fprintln(out, "Not logged in, use 'login <username> <password>' first")
	}

	switch args[0] {
	case "help":
		fmt.Fprintln(out, helpText)
	case "login":
		if len(args) != 3 {
			return usage("login <username> <password>")
		}
		s, err := c.Login(ctx, args[1], args[2])
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Logged in as %s (%s), token expires %s\n",
			s.User.Username, s.User.Role, s.ExpiresAt.Local().Format("15:04:05"))
	case "logout":
		if err := c.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "Logged out")
	case "list":
		products, err := c.List(ctx)
		if err != nil {
			return err
		}
		if len(products) == 0 {
			fmt.Fprintln(out, "No products")
		}
		for _, p := range products {
			fmt.Fprintf(out, "%d\t%s\t%s\t%s\n", p.ID, p.Name, p.FormattedPrice, p.Coverage)
		}
	case "get":
		id, err := idArg(args, "get <id>")
		if err != nil {
			return err
		}
		p, err := c.Get(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(out, p)
	case "create":
		if len(args) != 6 {
			return usage("create <name> <description> <price> <coverage> <deductible>")
		}
		patch, err := parsePatch([]string{
			"name=" + args[1], "description=" + args[2], "price=" + args[3],
			"coverage=" + args[4], "deductible=" + args[5],
		})
		if err != nil {
			return err
		}
		p, err := c.Create(ctx, patch)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Created product %d\n", p.ID)
	case "update":
		if len(args) < 3 {
			return usage("update <id> <field>=<value>...")
		}
		id, err := idArg(args, "update <id> <field>=<value>...")
		if err != nil {
			return err
		}
		patch, err := parsePatch(args[2:])
		if err != nil {
			return err
		}
		p, err := c.Update(ctx, id, patch)
		if err != nil {
			return err
		}
		return printJSON(out, p)
	case "delete":
		id, err := idArg(args, "delete <id>")
		if err != nil {
			return err
		}
		p, err := c.Delete(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted product %d (%s)\n", p.ID, p.Name)
	default:
		return fmt.Errorf("unknown command %q, type 'help' for a list of commands", args[0])
	}
	return nil
}

func usage(s string) error {
	return fmt.Errorf("%w: %s", errUsage, s)
}

func idArg(args []string, u string) (int64, error) {
	if len(args) < 2 {
		return 0, usage(u)
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", args[1])
	}
	return id, nil
}

// parsePatch builds a patch from field=value pairs. Underscores in text
// values stand for spaces.
func parsePatch(pairs []string) (models.ProductPatch, error) {
	var p models.ProductPatch
	for _, pair := range pairs {
		field, value, ok := strings.Cut(pair, "=")
		if !ok {
			return p, fmt.Errorf("expected field=value, got %q", pair)
		}
		text := strings.ReplaceAll(value, "_", " ")
		switch field {
		case "name":
			p.Name = &text
		case "description":
			p.Description = &text
		case "coverage":
			p.Coverage = &text
		case "price", "deductible":
			n, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return p, fmt.Errorf("%s must be a number", field)
			}
			if field == "price" {
				p.Price = &n
			} else {
				p.Deductible = &n
			}
		default:
			return p, fmt.Errorf("unknown field %q", field)
		}
	}
	return p, nil
}

func printJSON(out io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(b))
	return err
}
