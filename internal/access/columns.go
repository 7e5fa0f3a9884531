package access

import v1 "github.com/klubi/adminctl/pkg/apis/v1"

// Action identifies a per-row table action.
type Action string

const (
	ActionNone   Action = ""
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// Column is one table column. Data columns read Accessor from the row;
// action columns carry an Action instead.
type Column struct {
	Header   string
	Accessor string
	Action   Action
}

// EditColumn and DeleteColumn are the standard admin row actions.
var (
	EditColumn   = Column{Header: "Edit", Action: ActionEdit}
	DeleteColumn = Column{Header: "Delete", Action: ActionDelete}
)

// Columns returns base followed by actions, but only appends actions when p
// is an admin. The returned slice never aliases base.
func Columns(p *Principal, base []Column, actions ...Column) []Column {
	cols := make([]Column, 0, len(base)+len(actions))
	cols = append(cols, base...)
	if HasRole(p, v1.RoleAdmin) {
		cols = append(cols, actions...)
	}
	return cols
}

// Allows reports whether cols exposes the given action.
func Allows(cols []Column, action Action) bool {
	for _, c := range cols {
		if c.Action == action && action != ActionNone {
			return true
		}
	}
	return false
}
