package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SampleConfig is the commented starter config written on first run. The
// {user} placeholder is filled in with the current user name.
const SampleConfig = `# jiracli configuration

jira:
  url: https://jira.example.com
  user: {user}
  # sessionfile: /home/you/.jiracli/session

# Default issue field values, applied when the matching flag is not given.
# Keys must be recognized issue fields.
#issues:
#  project: INFOSYS
#  issuetype: story
#  priority: normal
#  assignee: you
#  components: network
#  fixVersions: backlog
#  epic_theme: infra
`

// WriteSample writes a starter config file at path. The file is restricted
// to owner read/write since it sits next to the session cache.
func WriteSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	content := strings.ReplaceAll(SampleConfig, "{user}", os.Getenv("USER"))
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("writing sample config: %w", err)
	}
	return nil
}
