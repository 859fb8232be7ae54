package jira

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupRoundTrip(t *testing.T) {
	table := NewLookup()
	require.NoError(t, table.Add(10001, "Network"))
	require.NoError(t, table.Add(10002, "Storage"))

	for id := range map[int]bool{10001: true, 10002: true} {
		label, err := table.LabelByID(id)
		require.NoError(t, err)
		got, err := table.IDByLabel(label)
		require.NoError(t, err)
		assert.Equal(t, id, got)
	}
}

func TestLookupCaseInsensitive(t *testing.T) {
	table := NewLookup()
	require.NoError(t, table.Add(3, "High"))

	id, err := table.IDByLabel("HIGH")
	require.NoError(t, err)
	assert.Equal(t, 3, id)

	label, err := table.LabelByID(3)
	require.NoError(t, err)
	assert.Equal(t, "high", label)
}

func TestLookupDuplicateLabel(t *testing.T) {
	table := NewLookup()
	require.NoError(t, table.Add(1, "fixed"))
	assert.Error(t, table.Add(2, "Fixed"))
	assert.Error(t, table.Add(1, "other"))
}

func TestLookupMiss(t *testing.T) {
	table := NewLookup()
	_, err := table.IDByLabel("nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = table.LabelByID(42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolverPassthrough(t *testing.T) {
	r := NewResolver(NewClient("http://unused"), "PROJ")

	value, ok, err := r.Resolve(context.Background(), "summary", "Fix The Widget")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "fix the widget", value)
}

func TestResolverLookupAndMiss(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/latest/priority" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"1","name":"Critical"},{"id":"3","name":"Normal"}]`))
	}))
	defer server.Close()

	r := NewResolver(NewClient(server.URL), "PROJ")
	ctx := context.Background()

	value, ok, err := r.Resolve(ctx, "priority", "Normal")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "3", value)

	// A miss is a skip signal, not an error.
	_, ok, err = r.Resolve(ctx, "priority", "bananas")
	require.NoError(t, err)
	assert.False(t, ok)

	// The table is fetched once per run.
	_, _, err = r.Resolve(ctx, "priority", "critical")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestResolverVersionsSharedWithFixVersions(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/latest/project/PROJ/versions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"10000","name":"1.0"},{"id":"10001","name":"2.0"}]`))
	}))
	defer server.Close()

	r := NewResolver(NewClient(server.URL), "PROJ")
	ctx := context.Background()

	value, ok, err := r.Resolve(ctx, "versions", "1.0")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "10000", value)

	value, ok, err = r.Resolve(ctx, "fixversions", "2.0")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "10001", value)

	assert.Equal(t, 1, calls, "versions and fixversions share one fetch")
}

func TestResolverProjectTable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/latest/project/INFOSYS" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"10200","key":"INFOSYS","name":"Info Systems"}`))
	}))
	defer server.Close()

	r := NewResolver(NewClient(server.URL), "INFOSYS")
	value, ok, err := r.Resolve(context.Background(), "project", "infosys")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "10200", value)
}

func TestResolverDuplicateRemoteLabels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"1","name":"Fixed"},{"id":"2","name":"fixed"}]`))
	}))
	defer server.Close()

	r := NewResolver(NewClient(server.URL), "PROJ")
	_, err := r.Table(context.Background(), "resolutions")
	assert.Error(t, err, "ambiguous remote labels must not build a table")
}
