package access

import (
	"errors"
	"testing"

	v1 "github.com/klubi/adminctl/pkg/apis/v1"
)

var (
	admin    = &Principal{Email: "admin@ucsb.edu", Roles: []string{v1.RoleUser, v1.RoleAdmin}}
	userOnly = &Principal{Email: "user@ucsb.edu", Roles: []string{v1.RoleUser}}
	noRoles  = &Principal{Email: "nobody@ucsb.edu", Roles: []string{}}
)

func TestHasRole(t *testing.T) {
	tests := []struct {
		name string
		p    *Principal
		role string
		want bool
	}{
		{"absent principal", nil, v1.RoleAdmin, false},
		{"empty roles", noRoles, v1.RoleAdmin, false},
		{"admin has admin", &Principal{Roles: []string{v1.RoleAdmin}}, v1.RoleAdmin, true},
		{"user lacks admin", &Principal{Roles: []string{v1.RoleUser}}, v1.RoleAdmin, false},
		{"user has user", userOnly, v1.RoleUser, true},
		{"empty role name never matches", userOnly, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasRole(tt.p, tt.role); got != tt.want {
				t.Errorf("HasRole(%v, %q) = %v, want %v", tt.p, tt.role, got, tt.want)
			}
		})
	}
}

func TestRequire(t *testing.T) {
	if err := Require(admin, v1.RoleAdmin); err != nil {
		t.Fatalf("expected admin to pass, got %v", err)
	}
	err := Require(nil, v1.RoleAdmin)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestFromCurrentUser(t *testing.T) {
	if p := FromCurrentUser(nil); p != nil {
		t.Fatalf("expected nil principal, got %+v", p)
	}

	p := FromCurrentUser(&v1.CurrentUser{
		User:  v1.User{Email: "pconrad@ucsb.edu", FullName: "Phill Conrad"},
		Roles: []v1.Authority{{Authority: v1.RoleUser}, {Authority: v1.RoleAdmin}},
	})
	if p.Email != "pconrad@ucsb.edu" || p.Name != "Phill Conrad" {
		t.Errorf("unexpected identity %+v", p)
	}
	if !HasRole(p, v1.RoleAdmin) {
		t.Error("expected converted principal to hold ROLE_ADMIN")
	}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name  string
		p     *Principal
		known bool
		role  string
		want  Visibility
	}{
		{"pending lookup", admin, false, v1.RoleAdmin, Undecided},
		{"logged out", nil, true, v1.RoleUser, Hidden},
		{"public route logged out", nil, true, "", Visible},
		{"user on admin route", userOnly, true, v1.RoleAdmin, Hidden},
		{"admin on admin route", admin, true, v1.RoleAdmin, Visible},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decide(tt.p, tt.known, tt.role); got != tt.want {
				t.Errorf("Decide = %s, want %s", got, tt.want)
			}
		})
	}
}

func testTable() Table {
	return Table{
		{Name: "home", Path: "/", Title: "Home"},
		{Name: "admin.users", Path: "/admin/users", Role: v1.RoleAdmin, Title: "Users"},
		{Name: "articles.index", Path: "/articles", Role: v1.RoleUser, Title: "Articles"},
		{Name: "articles.create", Path: "/articles/create", Role: v1.RoleAdmin},
		{Name: "articles.edit", Path: "/articles/edit/{id}", Role: v1.RoleAdmin},
	}
}

func TestVisibleRoutes(t *testing.T) {
	table := testTable()

	tests := []struct {
		name string
		p    *Principal
		want []string
	}{
		{"logged out", nil, []string{"home"}},
		{"user", userOnly, []string{"home", "articles.index"}},
		{"admin", admin, []string{"home", "admin.users", "articles.index", "articles.create", "articles.edit"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := table.Visible(tt.p)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d routes, got %d: %+v", len(tt.want), len(got), got)
			}
			for i, name := range tt.want {
				if got[i].Name != name {
					t.Errorf("route %d: expected %s, got %s", i, name, got[i].Name)
				}
			}
		})
	}
}

func TestMatch(t *testing.T) {
	table := testTable()

	m, ok := table.Match(admin, "/articles/edit/7?tab=details")
	if !ok {
		t.Fatal("expected admin to match edit route")
	}
	if m.Route.Name != "articles.edit" {
		t.Errorf("expected articles.edit, got %s", m.Route.Name)
	}
	if m.Vars["id"] != "7" {
		t.Errorf("expected id 7, got %q", m.Vars["id"])
	}
	if m.Query.Get("tab") != "details" {
		t.Errorf("expected query tab=details, got %q", m.Query.Get("tab"))
	}

	if _, ok := table.Match(userOnly, "/articles/edit/7"); ok {
		t.Error("expected hidden route not to match for a regular user")
	}
	if _, ok := table.Match(nil, "/articles"); ok {
		t.Error("expected logged-out user not to match /articles")
	}
	if _, ok := table.Match(admin, "/nowhere"); ok {
		t.Error("expected unknown path not to match")
	}
}

func TestPath(t *testing.T) {
	table := testTable()

	got, err := table.Path("articles.edit", "id", "12")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "/articles/edit/12" {
		t.Errorf("expected /articles/edit/12, got %s", got)
	}

	if _, err := table.Path("missing"); err == nil {
		t.Error("expected error for unknown route")
	}
}

func TestColumns(t *testing.T) {
	base := []Column{{Header: "id", Accessor: "id"}, {Header: "Name", Accessor: "name"}}

	userCols := Columns(userOnly, base, EditColumn, DeleteColumn)
	if len(userCols) != 2 {
		t.Fatalf("expected 2 columns for user, got %d", len(userCols))
	}
	if Allows(userCols, ActionDelete) {
		t.Error("user must not see delete action")
	}

	if got := Columns(nil, base, EditColumn, DeleteColumn); len(got) != 2 {
		t.Errorf("expected 2 columns when logged out, got %d", len(got))
	}

	adminCols := Columns(admin, base, EditColumn, DeleteColumn)
	if len(adminCols) != 4 {
		t.Fatalf("expected 4 columns for admin, got %d", len(adminCols))
	}
	if !Allows(adminCols, ActionEdit) || !Allows(adminCols, ActionDelete) {
		t.Error("admin must see edit and delete actions")
	}

	adminCols[0].Header = "changed"
	if base[0].Header != "id" {
		t.Error("Columns must not alias the base slice")
	}
}
