// Package apitest runs an in-memory copy of the admin REST API for tests.
// It serves every kind of a resource registry plus /api/currentUser and
// rejects writes from non-admin users the way the real server does.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/klubi/adminctl/internal/resource"
	v1 "github.com/klubi/adminctl/pkg/apis/v1"
	"github.com/klubi/adminctl/pkg/client"
)

// Server is a fake API backed by in-memory collections.
type Server struct {
	*httptest.Server

	router *mux.Router
	logger *zap.Logger

	mu          sync.Mutex
	user        *v1.CurrentUser
	collections map[string]*collection
	calls       map[string]int
	failures    map[string]int
}

type collection struct {
	kind   *resource.Kind
	rows   []resource.Row
	nextID int64
}

// New starts a server for reg. It is closed when the test ends. The
// default user is an admin.
func New(t testing.TB, reg *resource.Registry) *Server {
	t.Helper()
	s := &Server{
		router:      mux.NewRouter(),
		logger:      zaptest.NewLogger(t),
		user:        Admin(),
		collections: make(map[string]*collection),
		calls:       make(map[string]int),
		failures:    make(map[string]int),
	}
	s.registerRoutes(reg)
	s.Server = httptest.NewServer(s)
	t.Cleanup(s.Close)
	return s
}

// Transport returns an HTTP transport pointed at the server.
func (s *Server) Transport(opts ...client.Option) *client.HTTP {
	return client.New(s.URL, opts...)
}

// ServeHTTP counts the call and hands it to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	call := r.Method + " " + r.URL.Path
	s.mu.Lock()
	s.calls[call]++
	fail := s.failures[call]
	if fail != 0 {
		delete(s.failures, call)
	}
	s.mu.Unlock()

	if fail != 0 {
		s.writeError(w, fail, "injected failure")
		return
	}
	s.router.ServeHTTP(w, r)
}

// SetUser changes who is logged in. nil logs out.
func (s *Server) SetUser(u *v1.CurrentUser) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u
}

// FailNext makes the next call to method+path answer with status.
func (s *Server) FailNext(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = status
}

// Calls reports how many times method+path was requested.
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+path]
}

// Seed appends rows to the kind's collection, assigning ids when missing.
func (s *Server) Seed(k *resource.Kind, rows ...resource.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.collection(k)
	for _, r := range rows {
		row := copyRow(r)
		if k.IDField == "id" {
			if _, ok := row["id"]; !ok {
				row["id"] = c.nextID
				c.nextID++
			}
		}
		c.rows = append(c.rows, row)
	}
}

// Rows returns a copy of the kind's collection.
func (s *Server) Rows(k *resource.Kind) []resource.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.collection(k)
	out := make([]resource.Row, len(c.rows))
	for i, r := range c.rows {
		out[i] = copyRow(r)
	}
	return out
}

func (s *Server) collection(k *resource.Kind) *collection {
	c, ok := s.collections[k.Name]
	if !ok {
		c = &collection{kind: k, rows: []resource.Row{}, nextID: 1}
		s.collections[k.Name] = c
	}
	return c
}

// Admin is a user holding ROLE_USER and ROLE_ADMIN.
func Admin() *v1.CurrentUser {
	return &v1.CurrentUser{
		User:  v1.User{ID: 1, Email: "admin@ucsb.edu", FullName: "Admin User", Admin: true},
		Roles: []v1.Authority{{Authority: v1.RoleUser}, {Authority: v1.RoleAdmin}},
	}
}

// Member is a user holding ROLE_USER only.
func Member() *v1.CurrentUser {
	return &v1.CurrentUser{
		User:  v1.User{ID: 2, Email: "member@ucsb.edu", FullName: "Member User"},
		Roles: []v1.Authority{{Authority: v1.RoleUser}},
	}
}

func copyRow(r resource.Row) resource.Row {
	out := make(resource.Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func formatID(v interface{}) string {
	switch id := v.(type) {
	case int64:
		return strconv.FormatInt(id, 10)
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case string:
		return id
	default:
		return ""
	}
}
