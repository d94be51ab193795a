package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fwojciec/distill"
)

// Run executes the url command.
func (c *URLCmd) Run(deps *Dependencies) error {
	res, err := deps.URLs.Extract(deps.Ctx, c.URL)
	if err != nil {
		printError(deps.Stderr, err)
		return err
	}

	if deps.Writer != nil {
		path, err := deps.Writer.WriteResult(deps.Ctx, res)
		if err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
		fmt.Fprintf(deps.Stdout, "Wrote %s (%d characters via %v)\n", path, res.Length, res.Meta[distill.MetaProvider])
		return nil
	}

	return printResult(deps.Stdout, res, c.JSON)
}

func printResult(w io.Writer, res *distill.Result, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	if res.Title != "" {
		fmt.Fprintf(w, "%s\n\n", res.Title)
	}
	fmt.Fprintln(w, res.Text)
	return nil
}

func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "error: %s\n", distill.ErrorMessage(err))
	if details := distill.ErrorDetails(err); details != "" {
		fmt.Fprintf(w, "details: %s\n", details)
	}
}
