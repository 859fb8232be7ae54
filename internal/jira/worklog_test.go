package jira

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidDuration(t *testing.T) {
	for _, value := range []string{"3d", "30m", "2h", "1w", "120m"} {
		assert.True(t, ValidDuration(value), value)
	}
	for _, value := range []string{"3days", "d3", "", "3", "m", "3.5h", "3h2m", "-3h"} {
		assert.False(t, ValidDuration(value), value)
	}
}

func TestWorklogValidate(t *testing.T) {
	assert.NoError(t, Worklog{Spent: "2h", Remaining: "1d"}.Validate())
	assert.NoError(t, Worklog{Comment: "only text"}.Validate())
	assert.ErrorIs(t, Worklog{Spent: "2 hours"}.Validate(), ErrBadDuration)
	assert.ErrorIs(t, Worklog{Remaining: "soon"}.Validate(), ErrBadDuration)
}

func TestWorklogStamp(t *testing.T) {
	at := time.Date(2024, 3, 5, 10, 30, 0, 123456000, time.UTC)
	assert.Equal(t, "2024-03-05T10:30:00.123456-0000", worklogStamp(at))
}

func TestWorklogRequestShapes(t *testing.T) {
	at := time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		worklog  Worklog
		wantPath string
		wantBody map[string]string
	}{
		{
			name:     "neither",
			worklog:  Worklog{Comment: "note"},
			wantPath: "rest/api/2/issue/PROJ-1/worklog",
			wantBody: map[string]string{"startDate": "2024-03-05T10:30:00.000000-0000", "comment": "note"},
		},
		{
			name:     "remaining only",
			worklog:  Worklog{Comment: "note", Remaining: "4h"},
			wantPath: "rest/api/2/issue/PROJ-1/worklog?adjustEstimate=new&newEstimate=4h",
			wantBody: map[string]string{"startDate": "2024-03-05T10:30:00.000000-0000", "comment": "note"},
		},
		{
			name:     "spent only",
			worklog:  Worklog{Comment: "note", Spent: "2h"},
			wantPath: "rest/api/2/issue/PROJ-1/worklog?adjustEstimate=auto",
			wantBody: map[string]string{"startDate": "2024-03-05T10:30:00.000000-0000", "comment": "note", "timeSpent": "2h"},
		},
		{
			name:     "both",
			worklog:  Worklog{Comment: "note", Spent: "2h", Remaining: "4h"},
			wantPath: "rest/api/2/issue/PROJ-1/worklog?adjustEstimate=new&newEstimate=4h",
			wantBody: map[string]string{"startDate": "2024-03-05T10:30:00.000000-0000", "comment": "note", "timeSpent": "2h"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path, body := tc.worklog.request("PROJ-1", at)
			assert.Equal(t, tc.wantPath, path)
			assert.Equal(t, tc.wantBody, body)
		})
	}
}

func TestLogWorkSpentOnly(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.RequestURI()
		data, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(data, &gotBody))
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := NewClient(server.URL)
	err := c.LogWork(context.Background(), "PROJ-1", Worklog{Comment: "work", Spent: "2h"})
	require.NoError(t, err)

	assert.Contains(t, gotPath, "adjustEstimate=auto")
	assert.Equal(t, "2h", gotBody["timeSpent"])
	assert.NotContains(t, gotBody, "remainingEstimate")
}

func TestLogWorkBadDurationSkipsNetwork(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for a malformed duration")
	}))
	defer server.Close()

	c := NewClient(server.URL)
	err := c.LogWork(context.Background(), "PROJ-1", Worklog{Spent: "2 hours"})
	assert.ErrorIs(t, err, ErrBadDuration)
}
