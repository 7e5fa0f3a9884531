package tui

import (
	"strings"
	"testing"

	"github.com/rivo/tview"

	"github.com/klubi/adminctl/internal/access"
	"github.com/klubi/adminctl/internal/resource"
	v1 "github.com/klubi/adminctl/pkg/apis/v1"
)

var (
	admin  = &access.Principal{Email: "admin@ucsb.edu", Roles: []string{v1.RoleUser, v1.RoleAdmin}}
	member = &access.Principal{Email: "member@ucsb.edu", Roles: []string{v1.RoleUser}}
)

func TestNavItems(t *testing.T) {
	routes := resource.Default().Routes()

	tests := []struct {
		name string
		p    *access.Principal
		want []string
	}{
		{"logged out", nil, []string{"home"}},
		{"member", member, []string{"home", "profile", "articles.index", "menuitems.index", "organizations.index",
			"helprequests.index", "menuitemreviews.index", "recommendationrequests.index", "ucsbdates.index"}},
		{"admin", admin, []string{"home", "profile", "articles.index", "menuitems.index", "organizations.index",
			"helprequests.index", "menuitemreviews.index", "recommendationrequests.index", "ucsbdates.index", "users.index"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := navItems(routes, tt.p)
			if len(items) != len(tt.want) {
				t.Fatalf("expected %d items, got %d", len(tt.want), len(items))
			}
			for i, name := range tt.want {
				if items[i].route.Name != name {
					t.Errorf("item %d: expected %s, got %s", i, name, items[i].route.Name)
				}
				if want := []rune(navKeys)[i]; items[i].key != want {
					t.Errorf("item %d: expected key %c, got %c", i, want, items[i].key)
				}
			}
		})
	}
}

func TestNavItemsIncludeUsersForAdminWhenRoom(t *testing.T) {
	reg := resource.NewRegistry(resource.Articles(), resource.Users())
	items := navItems(reg.Routes(), admin)
	var names []string
	for _, it := range items {
		names = append(names, it.route.Name)
	}
	if got := strings.Join(names, ","); got != "home,profile,articles.index,users.index" {
		t.Errorf("unexpected nav %s", got)
	}
	if len(navItems(reg.Routes(), member)) != 3 {
		t.Error("members must not see the users page")
	}
}

func TestRenderRows(t *testing.T) {
	k := resource.MenuItems()
	rows := []resource.Row{
		{"id": float64(1), "diningCommonsCode": "ortega", "name": "Chicken Caesar Salad", "station": "Entrees"},
		{"id": float64(2), "diningCommonsCode": "de-la-guerra", "name": "Tofu Banh Mi", "station": "Grill"},
	}

	table := tview.NewTable()
	ids := renderRows(table, k, k.Columns(admin), rows, "")
	if len(ids) != 2 || ids[0] != "1" || ids[1] != "2" {
		t.Fatalf("unexpected ids %v", ids)
	}
	if table.GetColumnCount() != 6 {
		t.Errorf("expected 6 columns for admin, got %d", table.GetColumnCount())
	}
	if got := table.GetCell(1, 2).Text; got != "Chicken Caesar Salad" {
		t.Errorf("expected name cell, got %q", got)
	}
	if got := table.GetCell(2, 5).Text; got != "<d>" {
		t.Errorf("expected delete action cell, got %q", got)
	}

	ids = renderRows(table, k, k.Columns(member), rows, "GRILL")
	if len(ids) != 1 || ids[0] != "2" {
		t.Fatalf("expected filter to keep only id 2, got %v", ids)
	}
	if table.GetColumnCount() != 4 {
		t.Errorf("expected 4 columns for member, got %d", table.GetColumnCount())
	}
	if table.GetRowCount() != 2 {
		t.Errorf("expected header plus one row, got %d", table.GetRowCount())
	}
}

func TestFormRoundTrip(t *testing.T) {
	k := resource.Organizations()

	fields := k.FormFields(false)
	if len(fields) != 3 {
		t.Fatalf("expected orgCode to be excluded from the edit form, got %d fields", len(fields))
	}

	initial := resource.Values{"orgCode": "ZPR", "orgTranslationShort": "ZETA PHI RHO", "orgTranslation": "ZETA PHI RHO", "inactive": "true"}
	form := buildForm(fields, initial)
	form.GetFormItem(1).(*tview.InputField).SetText("ZETA PHI RHO FRATERNITY")
	form.GetFormItem(2).(*tview.Checkbox).SetChecked(false)

	got := mergeValues(initial, formValues(form, fields))
	want := resource.Values{
		"orgCode":             "ZPR",
		"orgTranslationShort": "ZETA PHI RHO",
		"orgTranslation":      "ZETA PHI RHO FRATERNITY",
		"inactive":            "false",
	}
	for name, v := range want {
		if got[name] != v {
			t.Errorf("%s: expected %q, got %q", name, v, got[name])
		}
	}
	if err := k.Validate(got); err != nil {
		t.Errorf("expected merged values to validate, got %v", err)
	}
}

func TestDescribe(t *testing.T) {
	text := describeRow(resource.Articles(), resource.Row{"id": float64(3), "title": "[not a tag]"})
	if !strings.Contains(text, "Article") || !strings.Contains(text, "3") {
		t.Errorf("unexpected describe text %q", text)
	}
	if !strings.Contains(text, tview.Escape("[not a tag]")) {
		t.Error("expected values to be escaped")
	}

	if got := describeUser(nil); !strings.Contains(got, "Not logged in") {
		t.Errorf("unexpected profile for nil user: %q", got)
	}
	profile := describeUser(&v1.CurrentUser{
		User:  v1.User{Email: "admin@ucsb.edu", FullName: "Admin User"},
		Roles: []v1.Authority{{Authority: v1.RoleAdmin}},
	})
	if !strings.Contains(profile, "[red]ROLE_ADMIN[-]") {
		t.Errorf("expected admin role highlighted, got %q", profile)
	}

	if home := describeHome(nil, false, nil); !strings.Contains(home, "Checking") {
		t.Errorf("expected loading text, got %q", home)
	}
}
