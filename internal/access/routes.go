package access

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
)

// Route is one navigable page. Role is the role required to see it; an
// empty Role makes the route public.
type Route struct {
	Name  string // unique, e.g. "articles.edit"
	Path  string // mux template, e.g. "/articles/edit/{id}"
	Role  string
	Title string
	// Nav marks routes listed in the navigation bar.
	Nav bool
}

// Table is the declarative route table of the console.
type Table []Route

// Match is a resolved navigation.
type Match struct {
	Route Route
	Vars  map[string]string
	Query url.Values
}

// Visible returns the routes p may navigate to, in table order.
func (t Table) Visible(p *Principal) Table {
	out := make(Table, 0, len(t))
	for _, r := range t {
		if r.Role == "" || HasRole(p, r.Role) {
			out = append(out, r)
		}
	}
	return out
}

// Router builds a mux router holding only the routes visible to p.
func (t Table) Router(p *Principal) *mux.Router {
	return t.Visible(p).router()
}

func (t Table) router() *mux.Router {
	r := mux.NewRouter()
	for _, rt := range t {
		r.NewRoute().Path(rt.Path).Name(rt.Name)
	}
	return r
}

// Match resolves a navigation target (path plus optional query string)
// against the routes visible to p. Hidden routes do not match.
func (t Table) Match(p *Principal, target string) (Match, bool) {
	u, err := url.Parse(target)
	if err != nil {
		return Match{}, false
	}

	req := &http.Request{Method: http.MethodGet, URL: &url.URL{Path: u.Path}}
	var rm mux.RouteMatch
	if !t.Router(p).Match(req, &rm) || rm.Route == nil {
		return Match{}, false
	}

	route, ok := t.Lookup(rm.Route.GetName())
	if !ok {
		return Match{}, false
	}
	return Match{Route: route, Vars: rm.Vars, Query: u.Query()}, true
}

// Lookup finds a route by name regardless of visibility.
func (t Table) Lookup(name string) (Route, bool) {
	for _, r := range t {
		if r.Name == name {
			return r, true
		}
	}
	return Route{}, false
}

// Path expands the named route's template with the given key/value pairs.
func (t Table) Path(name string, pairs ...string) (string, error) {
	rt := t.router().Get(name)
	if rt == nil {
		return "", fmt.Errorf("unknown route %q", name)
	}
	u, err := rt.URLPath(pairs...)
	if err != nil {
		return "", fmt.Errorf("building path for %q: %w", name, err)
	}
	return u.Path, nil
}
