package resource

import (
	"fmt"

	"github.com/klubi/adminctl/internal/query"
	v1 "github.com/klubi/adminctl/pkg/apis/v1"
	"github.com/klubi/adminctl/pkg/client"
)

// CurrentUserKey caches the logged-in user.
var CurrentUserKey = query.NewKey("current user")

// ObserveCurrentUser watches the logged-in user. The data stays nil until
// the lookup succeeds.
func ObserveCurrentUser(c *query.Cache) *query.Observer[*v1.CurrentUser] {
	return query.Observe[*v1.CurrentUser](c, CurrentUserKey, client.CurrentUserRequest())
}

// ObserveIndex watches the collection. It reads as an empty list until the
// first response arrives.
func (k *Kind) ObserveIndex(c *query.Cache) *query.Observer[[]Row] {
	return query.Observe(c, k.IndexKey(), k.ListRequest(), query.Fallback([]Row{}))
}

// ObserveItem watches one entity. There is no fallback; edit pages wait for
// HasData before rendering.
func (k *Kind) ObserveItem(c *query.Cache, id string) *query.Observer[Row] {
	return query.Observe[Row](c, k.ItemKey(id), k.GetRequest(id))
}

// CreateMutation posts new entities and invalidates the collection.
func (k *Kind) CreateMutation(c *query.Cache, cb query.Callbacks[Row]) *query.Mutation[Values, Row] {
	return query.NewMutation(c, k.CreateRequest, cb, k.IndexKey())
}

// UpdateMutation edits the entity with the given id. The item key and the
// collection are invalidated so both pages show the edit.
func (k *Kind) UpdateMutation(c *query.Cache, id string, cb query.Callbacks[Row]) *query.Mutation[Values, Row] {
	build := func(values Values) (client.Request, error) {
		if values[k.IDField] == "" {
			values = withID(values, k.IDField, id)
		}
		return k.UpdateRequest(values)
	}
	return query.NewCheckedMutation(c, build, cb, k.ItemKey(id), k.IndexKey())
}

// DeleteMutation removes entities by id and invalidates the collection.
func (k *Kind) DeleteMutation(c *query.Cache, cb query.Callbacks[v1.Message]) *query.Mutation[string, v1.Message] {
	return query.NewMutation(c, k.DeleteRequest, cb, k.IndexKey())
}

// CreatedToast is the notice shown after a successful create.
func (k *Kind) CreatedToast(r Row) string {
	return fmt.Sprintf("New %s Created - %s: %s", k.Title, k.IDField, k.ID(r))
}

// UpdatedToast is the notice shown after a successful update.
func (k *Kind) UpdatedToast(r Row) string {
	return fmt.Sprintf("%s Updated - %s: %s", k.Title, k.IDField, k.ID(r))
}

// DeletedToast prefers the server's message.
func (k *Kind) DeletedToast(id string, m v1.Message) string {
	if m.Message != "" {
		return m.Message
	}
	return fmt.Sprintf("%s with %s %s deleted", k.Title, k.IDField, id)
}

func withID(values Values, field, id string) Values {
	out := make(Values, len(values)+1)
	for name, v := range values {
		out[name] = v
	}
	out[field] = id
	return out
}
