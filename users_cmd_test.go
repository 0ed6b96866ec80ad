package main

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michaelmarley-sas/okta-sdk-go/internal/oktahttp"
)

func TestNextLinkURL(t *testing.T) {
	tests := []struct {
		name  string
		links []string
		want  string
	}{
		{
			name:  "no header",
			links: nil,
			want:  "",
		},
		{
			name:  "next and self",
			links: []string{`<https://org.okta.com/api/v1/users?after=abc>; rel="next", <https://org.okta.com/api/v1/users?after=xyz>; rel="self"`},
			want:  "https://org.okta.com/api/v1/users?after=abc",
		},
		{
			name:  "only self, no next",
			links: []string{`<https://org.okta.com/api/v1/users?after=xyz>; rel="self"`},
			want:  "",
		},
		{
			name:  "next split across multiple header values",
			links: []string{`<https://org.okta.com/api/v1/users?after=xyz>; rel="self"`, `<https://org.okta.com/api/v1/users?after=abc>; rel="next"`},
			want:  "https://org.okta.com/api/v1/users?after=abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextLinkURL(tt.links))
		})
	}
}

func TestSplitPageURL(t *testing.T) {
	path, q, err := splitPageURL("https://org.okta.com/api/v1/users?after=abc123&limit=50")
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/users", path)
	assert.Equal(t, []string{"abc123"}, q.Values("after"))
	assert.Equal(t, []string{"50"}, q.Values("limit"))
}

func TestSplitPageURL_Invalid(t *testing.T) {
	_, _, err := splitPageURL("://not-a-url")
	require.Error(t, err)
}

func TestParseUsers(t *testing.T) {
	body := []byte(`[
		{"id": "00u1", "status": "ACTIVE", "profile": {"login": "a@example.com", "email": "a@example.com"}},
		{"id": "00u2", "status": "SUSPENDED", "profile": {"login": "b@example.com", "email": "b@example.com"}}
	]`)

	users := parseUsers(body)
	require.Len(t, users, 2)
	assert.Equal(t, userSummary{ID: "00u1", Login: "a@example.com", Email: "a@example.com", Status: "ACTIVE"}, users[0])
	assert.Equal(t, userSummary{ID: "00u2", Login: "b@example.com", Email: "b@example.com", Status: "SUSPENDED"}, users[1])
}

func TestParseUsers_EmptyArray(t *testing.T) {
	assert.Empty(t, parseUsers([]byte(`[]`)))
}

// pagedExecutor serves a fixed sequence of pages, each carrying a Link
// header pointing at the next, keyed by the request path plus its encoded
// query string ("/api/v1/users?after=cursor1").
type pagedExecutor struct {
	pages map[string]*oktahttp.Response
	calls []string
}

func (p *pagedExecutor) Execute(_ context.Context, req *oktahttp.Request) (*oktahttp.Response, error) {
	key := req.Path
	if enc := req.Query.Encode(); enc != "" {
		key += "?" + enc
	}

	p.calls = append(p.calls, key)

	resp, ok := p.pages[key]
	if !ok {
		return nil, fmt.Errorf("unexpected path %q", key)
	}

	return resp, nil
}

func pageResponse(body string, next string) *oktahttp.Response {
	headers := oktahttp.NewHeaders()
	if next != "" {
		headers.Set("Link", fmt.Sprintf(`<%s>; rel="next"`, next))
	}

	return oktahttp.NewResponse(http.StatusOK, headers, int64(len(body)), []byte(body))
}

func TestFetchAllUsers_WalksPagination(t *testing.T) {
	exec := &pagedExecutor{
		pages: map[string]*oktahttp.Response{
			"/api/v1/users": pageResponse(
				`[{"id":"00u1","status":"ACTIVE","profile":{"login":"a@example.com"}}]`,
				"https://org.okta.com/api/v1/users?after=cursor1",
			),
			"/api/v1/users?after=cursor1": pageResponse(
				`[{"id":"00u2","status":"ACTIVE","profile":{"login":"b@example.com"}}]`,
				"",
			),
		},
	}

	users, err := fetchAllUsers(context.Background(), exec, oktahttp.NewQueryString(), 0)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "00u1", users[0].ID)
	assert.Equal(t, "00u2", users[1].ID)
	assert.Equal(t, []string{"/api/v1/users", "/api/v1/users?after=cursor1"}, exec.calls)
}

func TestFetchAllUsers_StopsAtMaxPages(t *testing.T) {
	exec := &pagedExecutor{
		pages: map[string]*oktahttp.Response{
			"/api/v1/users": pageResponse(
				`[{"id":"00u1","status":"ACTIVE","profile":{"login":"a@example.com"}}]`,
				"https://org.okta.com/api/v1/users?after=cursor1",
			),
		},
	}

	users, err := fetchAllUsers(context.Background(), exec, oktahttp.NewQueryString(), 1)
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, []string{"/api/v1/users"}, exec.calls)
}

type erroringExecutor struct{ err error }

func (e *erroringExecutor) Execute(context.Context, *oktahttp.Request) (*oktahttp.Response, error) {
	return nil, e.err
}

func TestFetchAllUsers_PropagatesExecuteError(t *testing.T) {
	exec := &erroringExecutor{err: fmt.Errorf("boom")}

	_, err := fetchAllUsers(context.Background(), exec, oktahttp.NewQueryString(), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}
