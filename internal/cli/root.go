// Package cli defines the jiracli command line and dispatches the
// selected mode. All errors bubble up to main, which owns the exit code.
package cli

import (
	"fmt"
	"os"

	"github.com/phuslu/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const version = "2.0.0"

var (
	configPath  string
	sessionFile string
	logLevel    string

	jiraURL  string
	user     string
	password string

	apiPath     string
	commentText string
	linkSpec    string
	subtaskSpec string
	subtaskOf   string
	worklogText string

	issueKey   string
	display    bool
	deleteFlag bool
	noop       bool
	resolution string

	summary          string
	description      string
	environment      string
	dueDate          string
	project          string
	issueType        string
	priority         string
	assignee         string
	components       string
	affectsVersions  string
	fixVersions      string
	labels           string
	epicTheme        string
	epicThemeID      string
	prefix           string
	originalEstimate string
	remaining        string
	spent            string

	showVersion bool
)

var rootCmd = &cobra.Command{
	Use:           "jiracli",
	Short:         "Create, query and mutate issues in a remote Jira tracker",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Printf("jiracli version %s\n", version)
			return nil
		}
		setupLogger()
		return run(cmd.Context())
	},
}

func init() {
	f := rootCmd.Flags()

	f.StringVar(&configPath, "config", "", "read configuration from this file")
	f.StringVar(&sessionFile, "sessionfile", "", "store the authentication token in this file")
	f.StringVarP(&logLevel, "loglevel", "l", "info", "log level (debug|info|warn|error)")

	f.StringVarP(&jiraURL, "jiraurl", "U", "", "the Jira URL")
	f.StringVarP(&user, "user", "u", "", "Jira user")
	f.StringVarP(&password, "password", "p", "", "Jira password (prompted if omitted)")

	f.StringVarP(&apiPath, "api", "a", "", "call this read-only API path and print the result")
	f.StringVarP(&commentText, "comment", "c", "", "comment text")
	f.StringVar(&linkSpec, "link", "", "given A,Depends,B links issues A and B with linktype Depends")
	f.StringVar(&subtaskSpec, "subtask", "", "given A,B make issue B into a sub-task of A")
	f.StringVar(&subtaskOf, "subtask-of", "", "make the new issue a subtask of this issue key")
	f.StringVarP(&worklogText, "worklog", "w", "", "log work with this text, with --spent and --remaining")

	f.StringVarP(&issueKey, "issue", "i", "", "Jira issue key (to display, modify or act on)")
	f.BoolVarP(&display, "display", "d", false, "display the issue given by --issue")
	f.BoolVar(&deleteFlag, "delete", false, "delete the issue given by --issue")
	f.BoolVarP(&noop, "noop", "n", false, "print the would-be action without writing to Jira")
	f.StringVarP(&resolution, "resolve", "R", "", "resolve the issue with the given resolution, e.g. 'fixed'")

	f.StringVarP(&summary, "summary", "S", "", "issue summary")
	f.StringVarP(&description, "description", "D", "", "issue description text")
	f.StringVarP(&environment, "environment", "E", "", "issue environment")
	f.StringVar(&dueDate, "duedate", "", "issue due date")
	f.StringVarP(&project, "project", "P", "", "Jira project key")
	f.StringVarP(&issueType, "issuetype", "T", "", "issue type")
	f.StringVarP(&priority, "priority", "Q", "", "issue priority name")
	f.StringVarP(&assignee, "assignee", "A", "", "issue assignee")
	f.StringVarP(&components, "components", "C", "", "project components, comma separated")
	f.StringVarP(&affectsVersions, "affectsVersions", "V", "", "'affects versions', comma separated")
	f.StringVarP(&fixVersions, "fixVersions", "F", "", "'fix versions', comma separated")
	f.StringVar(&labels, "labels", "", "issue labels, comma separated")
	f.StringVarP(&epicTheme, "epic", "H", "", "set the epic/theme for the issue")
	f.StringVar(&epicThemeID, "epic-theme-id", "customfield_10010", "custom field ID holding the epic/theme")
	f.StringVar(&prefix, "prefix", "", "text to prepend to the issue summary")
	f.StringVarP(&originalEstimate, "time", "t", "", "issue time 'original estimate'")
	f.StringVarP(&remaining, "remaining", "r", "", "issue time 'remaining estimate'")
	f.StringVarP(&spent, "spent", "s", "", "issue 'time spent'")

	f.BoolVarP(&showVersion, "version", "v", false, "print version information")
}

// Execute runs the root command and returns its error for main to map to
// an exit code.
func Execute() error {
	return rootCmd.Execute()
}

func setupLogger() {
	log.DefaultLogger = log.Logger{
		Level: log.ParseLevel(logLevel),
		Writer: &log.ConsoleWriter{
			ColorOutput:    true,
			EndWithMessage: true,
			Writer:         os.Stderr,
		},
	}
}

// promptPassword reads a masked password from the terminal.
func promptPassword() (string, error) {
	fmt.Fprintln(os.Stderr, "Please authenticate.")
	fmt.Fprint(os.Stderr, "Jira password: ")
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pw), nil
}
