package jira

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoSendsCredentialHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Basic sometoken", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	c := NewClient(server.URL)
	c.SetToken("sometoken")
	data, err := c.Do(context.Background(), http.MethodGet, "rest/api/latest/serverInfo", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(data))
}

func TestDoNoHeaderWithoutToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Do(context.Background(), http.MethodGet, "x", nil)
	require.NoError(t, err)
}

func TestDoAuthError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Do(context.Background(), http.MethodGet, "x", nil)
	require.Error(t, err)
	assert.True(t, IsAuthError(err))
}

func TestDoAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`boom`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL).Do(context.Background(), http.MethodGet, "x", nil)
	require.Error(t, err)
	assert.False(t, IsAuthError(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}

func TestDoNonJSONBodyIsEmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	data, err := NewClient(server.URL).Do(context.Background(), http.MethodGet, "x", nil)
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestCreateIssue(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/latest/issue", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		body, _ := io.ReadAll(r.Body)
		var req map[string]any
		require.NoError(t, json.Unmarshal(body, &req))
		fields, ok := req["fields"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "do a task", fields["summary"])

		w.Write([]byte(`{"id":"10500","key":"PROJ-42","self":"..."}`))
	}))
	defer server.Close()

	key, err := NewClient(server.URL).CreateIssue(context.Background(),
		map[string]any{"summary": "do a task"})
	require.NoError(t, err)
	assert.Equal(t, "PROJ-42", key)
}

func TestDeleteIssueCascades(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/rest/api/latest/issue/PROJ-1", r.URL.Path)
		assert.Contains(t, r.URL.RawQuery, "deleteSubtasks")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	require.NoError(t, NewClient(server.URL).DeleteIssue(context.Background(), "PROJ-1"))
}

func TestSubtaskLink(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/latest/issueLink", r.URL.Path)

		body, _ := io.ReadAll(r.Body)
		var req IssueLinkRequest
		require.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "jira_subtask_link", req.Type.Name)
		assert.Equal(t, "PROJ-2", req.InwardIssue.Key)
		assert.Equal(t, "PROJ-1", req.OutwardIssue.Key)
		assert.Nil(t, req.Comment)

		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	require.NoError(t, NewClient(server.URL).SubtaskLink(context.Background(), "PROJ-1", "PROJ-2"))
}

func TestResolveIssue(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/latest/issue/PROJ-1/transitions", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"id":"5"}`, string(body))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	require.NoError(t, NewClient(server.URL).ResolveIssue(context.Background(), "PROJ-1", 5))
}
