package resource

import (
	"fmt"
	"strings"

	"github.com/klubi/adminctl/internal/access"
	v1 "github.com/klubi/adminctl/pkg/apis/v1"
)

// Page names, the suffix of a kind's route names.
const (
	PageIndex  = "index"
	PageCreate = "create"
	PageEdit   = "edit"
)

// Application routes that do not belong to a kind.
const (
	RouteHome    = "home"
	RouteProfile = "profile"
)

// Registry is the ordered set of kinds known to the console.
type Registry struct {
	kinds []*Kind
}

// NewRegistry builds a registry from kinds, in display order.
func NewRegistry(kinds ...*Kind) *Registry {
	return &Registry{kinds: kinds}
}

// Kinds returns the registered kinds.
func (r *Registry) Kinds() []*Kind {
	out := make([]*Kind, len(r.kinds))
	copy(out, r.kinds)
	return out
}

// Lookup finds a kind by name or alias, case-insensitively.
func (r *Registry) Lookup(name string) (*Kind, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for _, k := range r.kinds {
		if k.Name == n {
			return k, nil
		}
		for _, a := range k.Aliases {
			if a == n {
				return k, nil
			}
		}
	}
	return nil, fmt.Errorf("%w %q (valid: %s)", ErrUnknownKind, name, strings.Join(r.names(), ", "))
}

func (r *Registry) names() []string {
	out := make([]string, len(r.kinds))
	for i, k := range r.kinds {
		out[i] = k.Name
	}
	return out
}

// Routes is the full route table: home, profile, then every kind's pages.
func (r *Registry) Routes() access.Table {
	t := access.Table{
		{Name: RouteHome, Path: "/", Title: "Home", Nav: true},
		{Name: RouteProfile, Path: "/profile", Role: v1.RoleUser, Title: "Profile", Nav: true},
	}
	for _, k := range r.kinds {
		t = append(t, k.Routes()...)
	}
	return t
}

// Page splits a route name such as "articles.edit" into its kind and page.
// Application routes return a nil kind.
func (r *Registry) Page(routeName string) (*Kind, string) {
	i := strings.LastIndex(routeName, ".")
	if i < 0 {
		return nil, routeName
	}
	for _, k := range r.kinds {
		if k.Name == routeName[:i] {
			return k, routeName[i+1:]
		}
	}
	return nil, routeName
}

// Default returns the registry of every entity served by the API.
func Default() *Registry {
	return NewRegistry(
		Articles(),
		MenuItems(),
		Organizations(),
		HelpRequests(),
		MenuItemReviews(),
		RecommendationRequests(),
		UCSBDates(),
		Users(),
	)
}

func idField() Field {
	return Field{Name: "id", Label: "id", Type: Int, Generated: true}
}

func Articles() *Kind {
	return &Kind{
		Name:     "articles",
		Aliases:  []string{"article"},
		Title:    "Article",
		Plural:   "Articles",
		Endpoint: "/api/articles",
		Route:    "/articles",
		IDField:  "id",
		Fields: []Field{
			idField(),
			{Name: "title", Label: "Title"},
			{Name: "url", Label: "URL"},
			{Name: "explanation", Label: "Explanation"},
			{Name: "email", Label: "Email"},
			{Name: "dateAdded", Label: "Date Added", Type: DateTime},
		},
		newObject: func() interface{} { return &v1.Article{} },
	}
}

func MenuItems() *Kind {
	return &Kind{
		Name:     "menuitems",
		Aliases:  []string{"menuitem", "diningcommonsmenuitem", "ucsbdiningcommonsmenuitem", "items"},
		Title:    "UCSBDiningCommonsMenuItem",
		Plural:   "Dining Commons Menu Items",
		Endpoint: "/api/ucsbdiningcommonsmenuitem",
		Route:    "/diningcommonsmenuitem",
		IDField:  "id",
		Fields: []Field{
			idField(),
			{Name: "diningCommonsCode", Label: "Dining Commons Code"},
			{Name: "name", Label: "Name"},
			{Name: "station", Label: "Station"},
		},
		newObject: func() interface{} { return &v1.MenuItem{} },
	}
}

func Organizations() *Kind {
	return &Kind{
		Name:     "organizations",
		Aliases:  []string{"organization", "orgs", "org", "ucsborganizations"},
		Title:    "UCSBOrganization",
		Plural:   "UCSB Organizations",
		Endpoint: "/api/ucsborganizations",
		Route:    "/ucsborganizations",
		IDField:  "orgCode",
		Fields: []Field{
			{Name: "orgCode", Label: "Org Code", Immutable: true},
			{Name: "orgTranslationShort", Label: "Short Translation"},
			{Name: "orgTranslation", Label: "Translation"},
			{Name: "inactive", Label: "Inactive", Type: Bool},
		},
		newObject: func() interface{} { return &v1.Organization{} },
	}
}

func HelpRequests() *Kind {
	return &Kind{
		Name:     "helprequests",
		Aliases:  []string{"helprequest", "help"},
		Title:    "HelpRequest",
		Plural:   "Help Requests",
		Endpoint: "/api/helprequest",
		Route:    "/helprequest",
		IDField:  "id",
		Fields: []Field{
			idField(),
			{Name: "requesterEmail", Label: "Requester Email"},
			{Name: "teamId", Label: "Team Id"},
			{Name: "tableOrBreakoutRoom", Label: "Table Or Breakout Room"},
			{Name: "requestTime", Label: "Request Time", Type: DateTime},
			{Name: "explanation", Label: "Explanation"},
			{Name: "solved", Label: "Solved", Type: Bool},
		},
		newObject: func() interface{} { return &v1.HelpRequest{} },
	}
}

func MenuItemReviews() *Kind {
	return &Kind{
		Name:     "menuitemreviews",
		Aliases:  []string{"menuitemreview", "reviews", "review"},
		Title:    "MenuItemReview",
		Plural:   "Menu Item Reviews",
		Endpoint: "/api/menuitemreview",
		Route:    "/menuitemreview",
		IDField:  "id",
		Fields: []Field{
			idField(),
			{Name: "itemId", Label: "Item Id", Type: Int},
			{Name: "reviewerEmail", Label: "Reviewer Email"},
			{Name: "stars", Label: "Stars", Type: Int},
			{Name: "dateReviewed", Label: "Date Reviewed", Type: DateTime},
			{Name: "comments", Label: "Comments"},
		},
		newObject: func() interface{} { return &v1.MenuItemReview{} },
	}
}

func RecommendationRequests() *Kind {
	return &Kind{
		Name:     "recommendationrequests",
		Aliases:  []string{"recommendationrequest", "recommendations", "rec"},
		Title:    "RecommendationRequest",
		Plural:   "Recommendation Requests",
		Endpoint: "/api/recommendationrequest",
		Route:    "/recommendationrequest",
		IDField:  "id",
		Fields: []Field{
			idField(),
			{Name: "requesterEmail", Label: "Requester Email"},
			{Name: "professorEmail", Label: "Professor Email"},
			{Name: "explanation", Label: "Explanation"},
			{Name: "dateRequested", Label: "Date Requested", Type: DateTime},
			{Name: "dateNeeded", Label: "Date Needed", Type: DateTime},
			{Name: "done", Label: "Done", Type: Bool},
		},
		newObject: func() interface{} { return &v1.RecommendationRequest{} },
	}
}

func UCSBDates() *Kind {
	return &Kind{
		Name:     "ucsbdates",
		Aliases:  []string{"ucsbdate", "dates", "date"},
		Title:    "UCSBDate",
		Plural:   "UCSB Dates",
		Endpoint: "/api/ucsbdates",
		Route:    "/ucsbdates",
		IDField:  "id",
		Fields: []Field{
			idField(),
			{Name: "quarterYYYYQ", Label: "QuarterYYYYQ"},
			{Name: "name", Label: "Name"},
			{Name: "localDateTime", Label: "Date", Type: DateTime},
		},
		newObject: func() interface{} { return &v1.UCSBDate{} },
	}
}

// Users is the admin-only, read-only list of accounts.
func Users() *Kind {
	return &Kind{
		Name:      "users",
		Aliases:   []string{"user"},
		Title:     "User",
		Plural:    "Users",
		Endpoint:  "/api/admin/users",
		ListPath:  "/api/admin/users",
		Route:     "/admin/users",
		IDField:   "id",
		IndexRole: v1.RoleAdmin,
		ReadOnly:  true,
		Fields: []Field{
			idField(),
			{Name: "givenName", Label: "First Name"},
			{Name: "familyName", Label: "Last Name"},
			{Name: "email", Label: "Email"},
			{Name: "admin", Label: "Admin", Type: Bool},
		},
	}
}
