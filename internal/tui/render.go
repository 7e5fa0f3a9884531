package tui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/klubi/adminctl/internal/access"
	"github.com/klubi/adminctl/internal/resource"
	v1 "github.com/klubi/adminctl/pkg/apis/v1"
)

// navItem is one numbered entry of the header navigation bar.
type navItem struct {
	key   rune
	route access.Route
}

// navKeys are the shortcuts of the navigation bar, in order.
const navKeys = "1234567890"

// navItems numbers the navigation routes p may open.
func navItems(routes access.Table, p *access.Principal) []navItem {
	keys := []rune(navKeys)
	var items []navItem
	for _, r := range routes.Visible(p) {
		if !r.Nav {
			continue
		}
		if len(items) == len(keys) {
			break
		}
		items = append(items, navItem{key: keys[len(items)], route: r})
	}
	return items
}

func setTableHeaders(table *tview.Table, headers []string) {
	for col, h := range headers {
		cell := tview.NewTableCell(h).
			SetTextColor(tcell.ColorWhite).
			SetBackgroundColor(tcell.ColorDarkCyan).
			SetAttributes(tcell.AttrBold).
			SetSelectable(false).
			SetExpansion(1)
		table.SetCell(0, col, cell)
	}
}

// matchesFilter returns true if any of the values contain the filter string.
func matchesFilter(filter string, values ...string) bool {
	if filter == "" {
		return true
	}
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), filter) {
			return true
		}
	}
	return false
}

// renderRows fills table with rows under cols and returns the ids of the
// rendered rows in order; ids[i] belongs to table row i+1. Action columns
// show the key that triggers them.
func renderRows(table *tview.Table, k *resource.Kind, cols []access.Column, rows []resource.Row, filter string) []string {
	table.Clear()

	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = c.Header
	}
	setTableHeaders(table, headers)

	filter = strings.ToLower(filter)
	ids := make([]string, 0, len(rows))
	line := 1
	for _, r := range rows {
		values := make([]string, 0, len(cols))
		for _, c := range cols {
			if c.Action == access.ActionNone {
				values = append(values, r.Text(c.Accessor))
			}
		}
		if !matchesFilter(filter, values...) {
			continue
		}

		for col, c := range cols {
			var cell *tview.TableCell
			switch c.Action {
			case access.ActionEdit:
				cell = tview.NewTableCell("<e>").SetTextColor(tcell.ColorDodgerBlue)
			case access.ActionDelete:
				cell = tview.NewTableCell("<d>").SetTextColor(tcell.ColorRed)
			default:
				text := r.Text(c.Accessor)
				cell = tview.NewTableCell(text).SetTextColor(valueColor(text))
			}
			table.SetCell(line, col, cell.SetExpansion(1))
		}
		ids = append(ids, k.ID(r))
		line++
	}

	if table.GetRowCount() > 1 {
		table.Select(1, 0)
	}
	return ids
}

// renderMessage replaces the table with a single status line.
func renderMessage(table *tview.Table, header, msg string, color tcell.Color) {
	table.Clear()
	setTableHeaders(table, []string{header})
	table.SetCell(1, 0, tview.NewTableCell(msg).SetTextColor(color))
}

// valueColor returns the tcell color for a cell value.
func valueColor(v string) tcell.Color {
	switch v {
	case "true":
		return tcell.ColorGreen
	case "false":
		return tcell.ColorGray
	default:
		return tcell.ColorWhite
	}
}

// describeRow formats one entity for the detail panel.
func describeRow(k *resource.Kind, r resource.Row) string {
	width := 0
	for _, f := range k.Fields {
		if len(f.Label) > width {
			width = len(f.Label)
		}
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("[::b]%s[-::-]\n\n", k.Title))
	for _, f := range k.Fields {
		b.WriteString(fmt.Sprintf("[::b]%-*s[-::-]  %s\n", width+1, f.Label+":", tview.Escape(r.Text(f.Name))))
	}
	return b.String()
}

// describeUser formats the profile page.
func describeUser(u *v1.CurrentUser) string {
	if u == nil {
		return "[yellow]Not logged in.[-]"
	}
	var roles []string
	for _, r := range u.RoleNames() {
		color := "white"
		if r == v1.RoleAdmin {
			color = "red"
		}
		roles = append(roles, fmt.Sprintf("[%s]%s[-]", color, r))
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("[::b]Name:[-::-]   %s\n", tview.Escape(u.User.FullName)))
	b.WriteString(fmt.Sprintf("[::b]Email:[-::-]  %s\n", tview.Escape(u.User.Email)))
	b.WriteString(fmt.Sprintf("[::b]Roles:[-::-]  %s\n", strings.Join(roles, ", ")))
	return b.String()
}

// describeHome lists the pages the user can reach.
func describeHome(items []navItem, known bool, p *access.Principal) string {
	var b strings.Builder
	b.WriteString("[::b]team02 admin console[-::-]\n\n")
	switch {
	case !known:
		b.WriteString("[yellow]Checking who you are...[-]\n")
	case p == nil:
		b.WriteString("[yellow]Not logged in. Set a token or session in ~/.adminctl/config.yaml.[-]\n")
	default:
		b.WriteString(fmt.Sprintf("Logged in as %s.\n", tview.Escape(p.Email)))
	}
	b.WriteString("\n")
	for _, it := range items {
		b.WriteString(fmt.Sprintf("  [yellow]<%c>[-] %s  [gray]%s[-]\n", it.key, it.route.Title, it.route.Path))
	}
	return b.String()
}
