package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/jirakit/jiracli/internal/cli"
	"github.com/jirakit/jiracli/internal/jira"
	"github.com/jirakit/jiracli/internal/ui"
)

func main() {
	if err := cli.Execute(); err != nil {
		msg := err.Error()
		if errors.Is(err, jira.ErrLoginFailed) {
			msg = "Login failed"
		}
		fmt.Fprintln(os.Stderr, ui.RenderError("Error: "+msg))
		os.Exit(1)
	}
}
