// Package resource describes the entities managed by the console: where they
// live on the REST API, which cache keys hold them, how they are validated
// and which pages and table columns they expose.
package resource

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/klubi/adminctl/internal/access"
	"github.com/klubi/adminctl/internal/query"
	v1 "github.com/klubi/adminctl/pkg/apis/v1"
	"github.com/klubi/adminctl/pkg/client"
)

var (
	// ErrUnknownKind is returned when a name matches no registered kind.
	ErrUnknownKind = errors.New("unknown resource kind")
	// ErrMissingID is returned when an operation needs an identifier and
	// none was given.
	ErrMissingID = errors.New("missing identifier")
	// ErrReadOnly is returned for writes against a read-only kind.
	ErrReadOnly = errors.New("resource is read-only")
)

// FieldType is the wire type of an entity field.
type FieldType int

const (
	String FieldType = iota
	Int
	Bool
	DateTime
)

func (t FieldType) String() string {
	switch t {
	case Int:
		return "int"
	case Bool:
		return "bool"
	case DateTime:
		return "datetime"
	default:
		return "string"
	}
}

// Field is one attribute of an entity.
type Field struct {
	Name  string // JSON name
	Label string
	Type  FieldType
	// Generated fields are assigned by the server and never sent.
	Generated bool
	// Immutable fields are sent on create only.
	Immutable bool
	// Hidden fields are left out of tables.
	Hidden bool
}

// Values holds form input keyed by JSON field name.
type Values map[string]string

// Row is one entity as decoded from the API.
type Row map[string]interface{}

// Text formats field name of the row for display.
func (r Row) Text(name string) string {
	switch v := r[name].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// Kind describes one entity type.
type Kind struct {
	Name    string // canonical plural, e.g. "articles"
	Aliases []string
	Title   string // singular, e.g. "Article"
	Plural  string

	// Endpoint is the API collection path, e.g. "/api/articles".
	Endpoint string
	// ListPath overrides Endpoint+"/all" for the collection read.
	ListPath string
	// Route is the page prefix, e.g. "/articles".
	Route   string
	IDField string
	Fields  []Field

	// IndexRole guards the index page; writes always need ROLE_ADMIN.
	IndexRole string
	ReadOnly  bool

	newObject func() interface{}
}

// Field returns the named field.
func (k *Kind) Field(name string) (Field, bool) {
	for _, f := range k.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FormFields are the fields a user fills in. On update, immutable fields
// are excluded.
func (k *Kind) FormFields(create bool) []Field {
	var out []Field
	for _, f := range k.Fields {
		if f.Generated || (!create && f.Immutable) {
			continue
		}
		out = append(out, f)
	}
	return out
}

func (k *Kind) listPath() string {
	if k.ListPath != "" {
		return k.ListPath
	}
	return k.Endpoint + "/all"
}

// IndexKey is the cache key holding the full collection.
func (k *Kind) IndexKey() query.Key {
	return query.NewKey(k.listPath())
}

// ItemKey is the cache key holding the entity with the given id.
func (k *Kind) ItemKey(id string) query.Key {
	return query.NewKey(k.Endpoint + "?" + k.IDField + "=" + id)
}

// ListRequest reads the whole collection.
func (k *Kind) ListRequest() client.Request {
	return client.Get(k.listPath(), nil)
}

// GetRequest reads a single entity.
func (k *Kind) GetRequest(id string) client.Request {
	return client.Get(k.Endpoint, map[string]string{k.IDField: id})
}

// CreateRequest posts the form fields as query params, which is how the
// API's /post endpoints take their input.
func (k *Kind) CreateRequest(values Values) client.Request {
	params := make(map[string]string)
	for _, f := range k.FormFields(true) {
		v, ok := values[f.Name]
		if !ok {
			continue
		}
		params[f.Name] = normalize(f, v)
	}
	return client.NewRequest(http.MethodPost, k.Endpoint+"/post", params, nil)
}

// UpdateRequest puts the typed entity body at endpoint?idField=id. The id
// is read from values. Values that do not convert to their field type are
// an error.
func (k *Kind) UpdateRequest(values Values) (client.Request, error) {
	id := values[k.IDField]
	if id == "" {
		return client.Request{}, fmt.Errorf("%s: %w", k.Name, ErrMissingID)
	}
	body, err := k.Body(values, false)
	if err != nil {
		return client.Request{}, fmt.Errorf("invalid input: %w", err)
	}
	return client.NewRequest(http.MethodPut, k.Endpoint, map[string]string{k.IDField: id}, body), nil
}

// DeleteRequest removes the entity with the given id.
func (k *Kind) DeleteRequest(id string) client.Request {
	return client.NewRequest(http.MethodDelete, k.Endpoint, map[string]string{k.IDField: id}, nil)
}

// Routes returns the pages of this kind.
func (k *Kind) Routes() access.Table {
	role := k.IndexRole
	if role == "" {
		role = v1.RoleUser
	}
	t := access.Table{{
		Name:  k.Name + "." + PageIndex,
		Path:  k.Route,
		Role:  role,
		Title: k.Plural,
		Nav:   true,
	}}
	if k.ReadOnly {
		return t
	}
	return append(t,
		access.Route{Name: k.Name + "." + PageCreate, Path: k.Route + "/create", Role: v1.RoleAdmin, Title: "Create " + k.Title},
		access.Route{Name: k.Name + "." + PageEdit, Path: k.Route + "/edit/{" + k.IDField + "}", Role: v1.RoleAdmin, Title: "Edit " + k.Title},
	)
}

// Columns returns the table columns p may see.
func (k *Kind) Columns(p *access.Principal) []access.Column {
	var base []access.Column
	for _, f := range k.Fields {
		if f.Hidden {
			continue
		}
		base = append(base, access.Column{Header: f.Label, Accessor: f.Name})
	}
	if k.ReadOnly {
		return access.Columns(nil, base)
	}
	return access.Columns(p, base, access.EditColumn, access.DeleteColumn)
}

// RowValues converts a row into form values for editing.
func (k *Kind) RowValues(r Row) Values {
	out := make(Values, len(k.Fields))
	for _, f := range k.Fields {
		if _, ok := r[f.Name]; ok {
			out[f.Name] = r.Text(f.Name)
		}
	}
	return out
}

// ID returns the identifier of a row.
func (k *Kind) ID(r Row) string {
	return r.Text(k.IDField)
}

// SortRows orders rows by id, numerically when possible.
func (k *Kind) SortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := k.ID(rows[i]), k.ID(rows[j])
		ai, aerr := strconv.ParseInt(a, 10, 64)
		bi, berr := strconv.ParseInt(b, 10, 64)
		if aerr == nil && berr == nil {
			return ai < bi
		}
		return a < b
	})
}

// Body converts values into a typed JSON-ready map. With create set the
// immutable fields are included.
func (k *Kind) Body(values Values, create bool) (map[string]interface{}, error) {
	out := make(map[string]interface{})
	var errs []string
	for _, f := range k.Fields {
		raw, ok := values[f.Name]
		if !ok || f.Generated || (f.Immutable && !create) {
			continue
		}
		v, err := convert(f, raw)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		out[f.Name] = v
	}
	if len(errs) > 0 {
		return out, errors.New(strings.Join(errs, "; "))
	}
	return out, nil
}

func convert(f Field, raw string) (interface{}, error) {
	raw = strings.TrimSpace(raw)
	switch f.Type {
	case Int:
		if raw == "" {
			return 0, nil
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: must be an integer", f.Name)
		}
		return n, nil
	case Bool:
		if raw == "" {
			return false, nil
		}
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: must be true or false", f.Name)
		}
		return b, nil
	default:
		return normalize(f, raw), nil
	}
}

// normalize accepts the datetime forms people type ("2022-01-02 12:00",
// "2022-01-02T12:00") and turns them into the API layout.
func normalize(f Field, raw string) string {
	raw = strings.TrimSpace(raw)
	switch f.Type {
	case DateTime:
		raw = strings.Replace(raw, " ", "T", 1)
		if len(raw) == len("2006-01-02T15:04") {
			raw += ":00"
		}
	case Bool:
		if b, err := strconv.ParseBool(raw); err == nil {
			raw = strconv.FormatBool(b)
		}
	}
	return raw
}
