package jira

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"
)

// durationRx is the duration grammar for time-tracking values: an integer
// magnitude followed by minutes, hours, days or weeks.
var durationRx = regexp.MustCompile(`^\d+[mhdw]$`)

// ErrBadDuration reports a time value outside the duration grammar. The
// worklog submission is skipped locally; nothing is sent.
var ErrBadDuration = errors.New("dubious time format")

// ValidDuration reports whether value matches the duration grammar,
// e.g. "30m", "2h", "3d", "1w".
func ValidDuration(value string) bool {
	return durationRx.MatchString(value)
}

// Worklog is a point-in-time work submission against an issue. Spent and
// Remaining are optional; which of them are present selects how the remote
// service adjusts the remaining estimate.
type Worklog struct {
	Comment   string
	Spent     string
	Remaining string
}

// Validate checks the optional time values against the duration grammar.
func (w Worklog) Validate() error {
	if w.Spent != "" && !ValidDuration(w.Spent) {
		return fmt.Errorf("time spent %q: %w", w.Spent, ErrBadDuration)
	}
	if w.Remaining != "" && !ValidDuration(w.Remaining) {
		return fmt.Errorf("time remaining %q: %w", w.Remaining, ErrBadDuration)
	}
	return nil
}

// worklogStamp renders t as the fixed zero-offset, microsecond-precision
// start timestamp the worklog endpoint expects.
func worklogStamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000") + "-0000"
}

// request builds the request path and body for the submission, started at
// the given instant. One of four shapes results, depending on which of
// {spent, remaining} are present.
func (w Worklog) request(issueKey string, start time.Time) (path string, body map[string]string) {
	path = "rest/api/2/issue/" + issueKey + "/worklog"
	body = map[string]string{
		"startDate": worklogStamp(start),
		"comment":   w.Comment,
	}
	switch {
	case w.Spent == "" && w.Remaining == "":
		// plain worklog entry, no estimate adjustment
	case w.Spent == "":
		path += "?adjustEstimate=new&newEstimate=" + w.Remaining
	case w.Remaining == "":
		path += "?adjustEstimate=auto"
		body["timeSpent"] = w.Spent
	default:
		path += "?adjustEstimate=new&newEstimate=" + w.Remaining
		body["timeSpent"] = w.Spent
	}
	return path, body
}

// LogWork validates and submits a worklog entry for an issue. A value
// outside the duration grammar returns ErrBadDuration without any network
// call; the caller downgrades that to a warning.
func (c *Client) LogWork(ctx context.Context, issueKey string, w Worklog) error {
	if err := w.Validate(); err != nil {
		return err
	}
	path, body := w.request(issueKey, time.Now())
	if _, err := c.Do(ctx, http.MethodPost, path, body); err != nil {
		return fmt.Errorf("logging work on %s: %w", issueKey, err)
	}
	return nil
}
