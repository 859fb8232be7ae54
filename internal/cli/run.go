package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/phuslu/log"

	"github.com/jirakit/jiracli/internal/config"
	"github.com/jirakit/jiracli/internal/jira"
	"github.com/jirakit/jiracli/internal/ui"
)

// run loads configuration, authenticates, and executes the mode selected
// by the flag set, in the same precedence order modes have always had:
// raw API call, delete, display, link, subtask, then per-issue actions,
// then create.
func run(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if jiraURL == "" {
		jiraURL = cfg.Jira.URL
	}
	if user == "" {
		user = cfg.Jira.User
	}
	sessionPath, err := resolveSessionPath(cfg)
	if err != nil {
		return err
	}

	if jiraURL == "" {
		return errors.New("please specify the Jira URL")
	}
	if user == "" {
		return errors.New("please specify a Jira user")
	}

	client := jira.NewClient(jiraURL)
	session := jira.NewSession(client, sessionPath, user, password)
	session.PromptPassword = promptPassword
	if _, err := session.Ensure(ctx); err != nil {
		return err
	}

	if apiPath != "" {
		data, err := client.RawAPI(ctx, apiPath)
		if err != nil {
			return err
		}
		fmt.Println(ui.RenderJSON(data))
		return nil
	}

	if deleteFlag {
		return runDelete(ctx, client)
	}
	if display {
		return runDisplay(ctx, client)
	}
	if linkSpec != "" {
		return runLink(ctx, client)
	}
	if subtaskSpec != "" {
		return runSubtask(ctx, client)
	}

	if issueKey != "" {
		return runExistingIssue(ctx, client, cfg)
	}
	return runCreate(ctx, client, cfg)
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		var err error
		path, err = config.DefaultConfigPath()
		if err != nil {
			return nil, err
		}
	}
	return config.Load(path)
}

func resolveSessionPath(cfg *config.Config) (string, error) {
	if sessionFile != "" {
		return sessionFile, nil
	}
	if cfg.Jira.SessionFile != "" {
		return cfg.Jira.SessionFile, nil
	}
	return config.DefaultSessionPath()
}

func runDelete(ctx context.Context, client *jira.Client) error {
	if issueKey == "" {
		return errors.New("--delete requires --issue")
	}
	if noop {
		fmt.Println(ui.RenderMuted("Would delete " + issueKey))
		return nil
	}
	if err := client.DeleteIssue(ctx, issueKey); err != nil {
		return err
	}
	fmt.Println("Deleted " + ui.RenderKey(client.BrowseURL(ctx, issueKey)))
	return nil
}

func runDisplay(ctx context.Context, client *jira.Client) error {
	if issueKey == "" {
		return errors.New("--display requires --issue")
	}
	data, err := client.GetIssue(ctx, issueKey)
	if err != nil {
		return err
	}
	fmt.Println(ui.RenderJSON(data))
	return nil
}

func runLink(ctx context.Context, client *jira.Client) error {
	parts := strings.Split(linkSpec, ",")
	if len(parts) != 3 {
		return fmt.Errorf("bad link %q: expected FROM,TYPE,TO", linkSpec)
	}
	from, linkType, to := parts[0], parts[1], parts[2]
	fmt.Printf("Create '%s' link from '%s' to '%s'\n", linkType, from, to)
	if noop {
		fmt.Println(ui.RenderMuted(fmt.Sprintf("Would link %s -> %s", from, to)))
		return nil
	}
	return client.LinkIssues(ctx, from, linkType, to, commentText)
}

func runSubtask(ctx context.Context, client *jira.Client) error {
	parts := strings.Split(subtaskSpec, ",")
	if len(parts) != 2 {
		return fmt.Errorf("bad subtask %q: expected PARENT,CHILD", subtaskSpec)
	}
	parent, child := parts[0], parts[1]
	fmt.Printf("Make '%s' a subtask of '%s'\n", child, parent)
	if noop {
		fmt.Println(ui.RenderMuted("Would apply subtask link"))
		return nil
	}
	return client.SubtaskLink(ctx, parent, child)
}

// runExistingIssue applies comment, worklog, resolve and field
// modifications to the issue named by --issue. Comment and worklog
// combine; resolve ends the run.
func runExistingIssue(ctx context.Context, client *jira.Client, cfg *config.Config) error {
	acted := false

	if commentText != "" {
		acted = true
		if noop {
			fmt.Println(ui.RenderMuted(fmt.Sprintf("Add comment to %s: %s", issueKey, commentText)))
		} else if err := client.AddComment(ctx, issueKey, commentText); err != nil {
			return err
		}
	}

	if worklogText != "" {
		acted = true
		if err := logWork(ctx, client, issueKey); err != nil {
			return err
		}
	}

	if resolution != "" {
		return resolveIssue(ctx, client, issueKey)
	}

	if hasFieldFlags() {
		draft, err := buildDraft(ctx, client, cfg, false)
		if err != nil {
			return err
		}
		fields := draft.Fields()
		if noop {
			fmt.Println(ui.RenderMuted("Would modify " + issueKey + ":"))
			fmt.Println(renderFields(fields))
			return nil
		}
		if err := client.ModifyIssue(ctx, issueKey, fields); err != nil {
			return err
		}
		fmt.Println("Modified " + ui.RenderKey(client.BrowseURL(ctx, issueKey)))
		return nil
	}

	if !acted {
		log.Warn().Str("issue", issueKey).Msg("no action given for issue")
	}
	return nil
}

// runCreate builds a new issue from flags and config defaults, creates it,
// and chains the optional subtask link, worklog and resolution.
func runCreate(ctx context.Context, client *jira.Client, cfg *config.Config) error {
	draft, err := buildDraft(ctx, client, cfg, true)
	if err != nil {
		return err
	}
	fields := draft.Fields()

	fmt.Println("Create issue:")
	fmt.Println(renderFields(fields))

	key := "KEY"
	if noop {
		fmt.Println(ui.RenderMuted("Would create issue (dry run)"))
	} else {
		key, err = client.CreateIssue(ctx, fields)
		if err != nil {
			return fmt.Errorf("failed to create issue: %w", err)
		}
		fmt.Println("Created " + ui.RenderKey(client.BrowseURL(ctx, key)))
	}

	if subtaskOf != "" {
		if noop {
			fmt.Println(ui.RenderMuted("Would apply subtask link"))
		} else if err := client.SubtaskLink(ctx, subtaskOf, key); err != nil {
			return err
		}
	}

	if worklogText != "" {
		if err := logWork(ctx, client, key); err != nil {
			return err
		}
	}

	if resolution != "" {
		return resolveIssue(ctx, client, key)
	}
	return nil
}

// logWork submits a worklog entry. A malformed duration is a warning, not
// a failure: the action is skipped and the run continues.
func logWork(ctx context.Context, client *jira.Client, key string) error {
	w := jira.Worklog{Comment: worklogText, Spent: spent, Remaining: remaining}
	if noop {
		fmt.Println(ui.RenderMuted(fmt.Sprintf("Update work log for %s: %s", key, worklogText)))
		return nil
	}
	log.Info().Str("issue", key).Str("comment", worklogText).Msg("update work log")
	if err := client.LogWork(ctx, key, w); err != nil {
		if errors.Is(err, jira.ErrBadDuration) {
			log.Warn().Err(err).Msg("no action taken")
			return nil
		}
		return err
	}
	return nil
}

// resolveIssue transitions an issue to the named resolution.
func resolveIssue(ctx context.Context, client *jira.Client, key string) error {
	if noop {
		fmt.Println(ui.RenderMuted(fmt.Sprintf("Resolve %s %s", key, resolution)))
		return nil
	}
	resolver := jira.NewResolver(client, project)
	table, err := resolver.Table(ctx, "resolutions")
	if err != nil {
		return err
	}
	id, err := table.IDByLabel(resolution)
	if err != nil {
		return fmt.Errorf("resolution %q: %w", resolution, err)
	}
	if err := client.ResolveIssue(ctx, key, id); err != nil {
		return err
	}
	fmt.Println("Resolved " + ui.RenderKey(client.BrowseURL(ctx, key)))
	return nil
}

// hasFieldFlags reports whether any issue-field flag was given, which
// turns an --issue invocation into a modify.
func hasFieldFlags() bool {
	for _, v := range []string{
		summary, description, environment, dueDate, issueType, priority,
		assignee, components, affectsVersions, fixVersions, labels,
		epicTheme, originalEstimate,
	} {
		if v != "" {
			return true
		}
	}
	return false
}

// buildDraft assembles the issue draft from flags and, for creation,
// config defaults. Flag values win over defaults; values apply in a fixed
// field order so list fields accumulate left to right.
func buildDraft(ctx context.Context, client *jira.Client, cfg *config.Config, withDefaults bool) (*jira.Draft, error) {
	defaults := map[string]string{}
	if withDefaults && cfg.Issues != nil {
		defaults = cfg.Issues
	}

	proj := project
	if proj == "" {
		proj = defaults["project"]
	}
	if proj == "" {
		return nil, errors.New("you must specify a project key")
	}

	resolver := jira.NewResolver(client, proj)
	draft := jira.NewDraft(resolver)

	values := []struct {
		field string
		value string
	}{
		{"project", proj},
		{"issuetype", issueType},
		{"priority", priority},
		{"assignee", assignee},
		{"summary", summary},
		{"description", description},
		{"environment", environment},
		{"duedate", dueDate},
		{"versions", affectsVersions},
		{"fixVersions", fixVersions},
		{"components", components},
		{"labels", labels},
	}
	for _, v := range values {
		value := v.value
		if value == "" {
			value = defaults[v.field]
		}
		if v.field == "summary" && value != "" && prefix != "" {
			value = prefix + value
		}
		if value == "" {
			continue
		}
		if err := draft.Set(ctx, v.field, value); err != nil {
			return nil, err
		}
	}

	theme := epicTheme
	if theme == "" {
		theme = defaults["epic_theme"]
	}
	if theme != "" {
		draft.SetCustom(epicThemeID, theme)
	}

	if originalEstimate != "" {
		draft.SetOriginalEstimate(originalEstimate)
	}
	if remaining != "" {
		draft.SetRemainingEstimate(remaining)
	}

	return draft, nil
}

func renderFields(fields map[string]any) string {
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Sprint(fields)
	}
	return ui.RenderJSON(data)
}
