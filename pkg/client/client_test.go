package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/klubi/adminctl/pkg/apis/v1"
)

// recorded is what the fake server saw of the last request.
type recorded struct {
	method  string
	path    string
	query   map[string]string
	body    string
	headers http.Header
	session string
}

func newTestServer(t *testing.T, last *recorded) *httptest.Server {
	t.Helper()

	record := func(r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		last.method = r.Method
		last.path = r.URL.Path
		last.body = string(body)
		last.headers = r.Header.Clone()
		last.query = map[string]string{}
		for k := range r.URL.Query() {
			last.query[k] = r.URL.Query().Get(k)
		}
		last.session = ""
		if c, err := r.Cookie("JSESSIONID"); err == nil {
			last.session = c.Value
		}
	}

	r := mux.NewRouter()
	r.HandleFunc(CurrentUserPath, func(w http.ResponseWriter, r *http.Request) {
		record(r)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v1.CurrentUser{
			User:  v1.User{ID: 1, Email: "admin@ucsb.edu"},
			Roles: []v1.Authority{{Authority: v1.RoleUser}, {Authority: v1.RoleAdmin}},
		})
	}).Methods(http.MethodGet)
	r.HandleFunc("/api/articles", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":7,"title":"Go"}`))
	}).Methods(http.MethodGet, http.MethodPut)
	r.HandleFunc("/api/empty", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		w.WriteHeader(http.StatusNoContent)
	})
	r.HandleFunc("/api/forbidden", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"Forbidden","message":"Access is denied"}`))
	})
	r.HandleFunc("/api/missing", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		http.Error(w, "no such thing", http.StatusNotFound)
	})
	r.HandleFunc("/api/teapot", func(w http.ResponseWriter, r *http.Request) {
		record(r)
		w.WriteHeader(http.StatusTeapot)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestNewRequestCopiesParams(t *testing.T) {
	params := map[string]string{"id": "1"}
	req := NewRequest(http.MethodDelete, "/api/articles", params, nil)
	params["id"] = "2"

	assert.Equal(t, "1", req.Params["id"])
	assert.Nil(t, Get("/api/articles/all", nil).Params)
	assert.Equal(t, http.MethodGet, Get("/api/articles/all", nil).Method)
}

func TestDoSendsParamsBodyAndHeaders(t *testing.T) {
	var last recorded
	srv := newTestServer(t, &last)
	h := New(srv.URL+"/", WithToken("secret"), WithSession("abc123"))

	assert.Equal(t, srv.URL, h.BaseURL())

	req := NewRequest(http.MethodPut, "/api/articles", map[string]string{"id": "7"}, map[string]string{"title": "Go"})
	resp, err := h.Do(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"id":7,"title":"Go"}`, string(resp.Data))

	assert.Equal(t, http.MethodPut, last.method)
	assert.Equal(t, "/api/articles", last.path)
	assert.Equal(t, map[string]string{"id": "7"}, last.query)
	assert.JSONEq(t, `{"title":"Go"}`, last.body)
	assert.Equal(t, "application/json", last.headers.Get("Content-Type"))
	assert.Equal(t, "application/json", last.headers.Get("Accept"))
	assert.Equal(t, "Bearer secret", last.headers.Get("Authorization"))
	assert.Equal(t, "abc123", last.session)

	_, err = uuid.Parse(last.headers.Get("X-Request-ID"))
	assert.NoError(t, err, "expected a uuid request id")
}

func TestDoWithoutCredentials(t *testing.T) {
	var last recorded
	srv := newTestServer(t, &last)
	h := New(srv.URL)

	_, err := h.Do(context.Background(), Get("/api/articles", nil))
	require.NoError(t, err)

	assert.Empty(t, last.headers.Get("Authorization"))
	assert.Empty(t, last.headers.Get("Content-Type"))
	assert.Empty(t, last.session)
	assert.Empty(t, last.body)
}

func TestDoDefaultsToGet(t *testing.T) {
	var last recorded
	srv := newTestServer(t, &last)

	_, err := New(srv.URL).Do(context.Background(), Request{URL: "/api/articles"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, last.method)
}

func TestAPIErrors(t *testing.T) {
	var last recorded
	srv := newTestServer(t, &last)
	h := New(srv.URL)

	tests := []struct {
		name    string
		path    string
		status  int
		message string
	}{
		{"json message", "/api/forbidden", http.StatusForbidden, "Access is denied"},
		{"plain text", "/api/missing", http.StatusNotFound, "no such thing"},
		{"empty body", "/api/teapot", http.StatusTeapot, http.StatusText(http.StatusTeapot)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Do(context.Background(), Get(tt.path, nil))
			require.Error(t, err)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.message, apiErr.Message)
			assert.Contains(t, err.Error(), tt.message)
			assert.True(t, IsStatus(err, tt.status))
			assert.False(t, IsTransport(err))
		})
	}
}

func TestNewAPIErrorPrefersMessage(t *testing.T) {
	assert.Equal(t, "bad", newAPIError(400, []byte(`{"message":"bad","error":"Bad Request"}`)).Message)
	assert.Equal(t, "Bad Request", newAPIError(400, []byte(`{"error":"Bad Request"}`)).Message)
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, WithTimeout(time.Second)).Do(context.Background(), Get("/api/articles/all", nil))
	require.Error(t, err)

	assert.True(t, IsTransport(err))
	assert.False(t, IsStatus(err, http.StatusNotFound))
	assert.Contains(t, err.Error(), "GET /api/articles/all")
}

func TestDoHonoursContext(t *testing.T) {
	var last recorded
	srv := newTestServer(t, &last)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(srv.URL).Do(ctx, Get("/api/articles", nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDoJSON(t *testing.T) {
	var last recorded
	srv := newTestServer(t, &last)
	h := New(srv.URL)

	var article v1.Article
	require.NoError(t, DoJSON(context.Background(), h, Get("/api/articles", nil), &article))
	assert.Equal(t, int64(7), article.ID)
	assert.Equal(t, "Go", article.Title)

	var empty v1.Article
	require.NoError(t, DoJSON(context.Background(), h, Get("/api/empty", nil), &empty))
	assert.Zero(t, empty.ID)

	bad := TransportFunc(func(ctx context.Context, req Request) (*Response, error) {
		return &Response{StatusCode: http.StatusOK, Data: []byte("not json")}, nil
	})
	err := DoJSON(context.Background(), bad, Get("/api/articles", nil), &article)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response body")
}

func TestCurrentUser(t *testing.T) {
	var last recorded
	srv := newTestServer(t, &last)

	u, err := CurrentUser(context.Background(), New(srv.URL))
	require.NoError(t, err)
	assert.Equal(t, "admin@ucsb.edu", u.User.Email)
	assert.Equal(t, []string{v1.RoleUser, v1.RoleAdmin}, u.RoleNames())
	assert.Equal(t, CurrentUserPath, last.path)
}
