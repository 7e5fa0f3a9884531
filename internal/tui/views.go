package tui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/klubi/adminctl/internal/access"
	"github.com/klubi/adminctl/internal/query"
	"github.com/klubi/adminctl/internal/resource"
	v1 "github.com/klubi/adminctl/pkg/apis/v1"
)

// view is the page currently on screen and the cache interest it holds.
type view struct {
	route access.Route
	path  string
	kind  *resource.Kind
	page  string
	id    string

	cols      []access.Column
	canCreate bool
	// ids of the rendered table rows, ids[i] is table row i+1.
	ids []string

	index *query.Observer[[]resource.Row]
	item  *query.Observer[resource.Row]
	form  *tview.Form

	done chan struct{}
}

func (v *view) loading() bool {
	switch {
	case v.index != nil:
		return v.index.State().IsPending()
	case v.item != nil:
		return v.item.State().IsPending()
	}
	return false
}

func (v *view) close() {
	close(v.done)
	if v.index != nil {
		v.index.Close()
	}
	if v.item != nil {
		v.item.Close()
	}
}

// ---------------------------------------------------------------------------
// Navigation
// ---------------------------------------------------------------------------

// navigate opens the page at target. Until the current user is known the
// target is parked; afterwards hidden or unknown pages fall back to home.
func (a *App) navigate(target string) {
	if !a.known {
		a.pending = target
		a.text.SetText(describeHome(nil, false, nil))
		a.content.SwitchToPage(contentText)
		return
	}
	a.pending = ""

	m, ok := a.routes.Match(a.principal, target)
	if !ok {
		a.logger.Debug("navigation refused", zap.String("target", target))
		if target != "/" {
			a.navigate("/")
			a.toast(fmt.Sprintf("%s is not available", target), "red")
		}
		return
	}
	a.open(m, target)
}

func (a *App) currentPath() string {
	if a.current == nil {
		return "/"
	}
	return a.current.path
}

// back leaves a form for its index page, and any other page for home.
func (a *App) back() {
	v := a.current
	if v == nil {
		return
	}
	if v.kind != nil && v.page != resource.PageIndex {
		a.navigate(v.kind.Routes()[0].Path)
		return
	}
	if v.path != "/" {
		a.navigate("/")
	}
}

func (a *App) open(m access.Match, path string) {
	if a.current != nil {
		a.current.close()
	}
	a.hideDescribe()
	a.filter = ""

	k, page := a.registry.Page(m.Route.Name)
	v := &view{route: m.Route, path: path, kind: k, page: page, done: make(chan struct{})}
	a.current = v
	a.logger.Debug("page opened", zap.String("route", m.Route.Name), zap.String("path", path))

	switch {
	case k == nil && page == resource.RouteProfile:
		a.showText(describeUser(a.userData))
	case k == nil:
		a.showText(describeHome(navItems(a.routes, a.principal), a.known, a.principal))
	case page == resource.PageIndex:
		a.openIndex(v)
	case page == resource.PageCreate:
		a.openForm(v, true, resource.Values{})
	case page == resource.PageEdit:
		v.id = m.Vars[k.IDField]
		a.openEdit(v)
	}

	a.updateHeader()
	a.updateFooter()
}

func (a *App) showText(text string) {
	a.text.SetText(text)
	a.content.SwitchToPage(contentText)
	a.app.SetFocus(a.text)
}

// reload invalidates whatever the current page reads.
func (a *App) reload() {
	v := a.current
	switch {
	case v == nil:
	case v.index != nil:
		a.cache.Invalidate(v.kind.IndexKey())
	case v.item != nil:
		a.cache.Invalidate(v.kind.ItemKey(v.id))
	default:
		a.cache.Invalidate(resource.CurrentUserKey)
	}
}

func (a *App) refreshView() {
	if a.current != nil && a.current.index != nil {
		a.renderIndex(a.current)
	}
	a.updateHeader()
}

// ---------------------------------------------------------------------------
// Index pages
// ---------------------------------------------------------------------------

func (a *App) openIndex(v *view) {
	v.cols = v.kind.Columns(a.principal)
	v.canCreate = !v.kind.ReadOnly && access.Decide(a.principal, a.known, v1.RoleAdmin) == access.Visible
	v.index = v.kind.ObserveIndex(a.cache)

	a.content.SwitchToPage(contentTable)
	a.app.SetFocus(a.table)
	a.watch(v.index.Updates(), v.done, func() { a.renderIndex(v) })
	a.renderIndex(v)
}

func (a *App) renderIndex(v *view) {
	if a.current != v {
		return
	}
	st := v.index.State()
	rows := append([]resource.Row(nil), st.Data...)
	v.kind.SortRows(rows)

	if st.IsError() && len(rows) == 0 {
		v.ids = nil
		renderMessage(a.table, "ERROR", fmt.Sprintf("Error: %v", st.Err), tcell.ColorRed)
	} else {
		v.ids = renderRows(a.table, v.kind, v.cols, rows, a.filter)
		if st.IsError() {
			a.toast(fmt.Sprintf("Refresh failed: %v", st.Err), "red")
		}
	}
	a.updateHeader()
}

func (a *App) openCreate() {
	v := a.current
	if v == nil || v.page != resource.PageIndex || !v.canCreate {
		return
	}
	path, err := a.routes.Path(v.kind.Name + "." + resource.PageCreate)
	if err != nil {
		a.toast(err.Error(), "red")
		return
	}
	a.navigate(path)
}

func (a *App) openEditSelected() {
	v := a.current
	if v == nil || v.page != resource.PageIndex || !access.Allows(v.cols, access.ActionEdit) {
		return
	}
	id, ok := a.selectedID()
	if !ok {
		return
	}
	path, err := a.routes.Path(v.kind.Name+"."+resource.PageEdit, v.kind.IDField, id)
	if err != nil {
		a.toast(err.Error(), "red")
		return
	}
	a.navigate(path)
}

func (a *App) confirmDelete() {
	v := a.current
	if v == nil || v.page != resource.PageIndex || !access.Allows(v.cols, access.ActionDelete) {
		return
	}
	id, ok := a.selectedID()
	if !ok {
		return
	}
	k := v.kind

	modal := tview.NewModal().
		SetText(fmt.Sprintf("Delete %s %s %s?", k.Title, k.IDField, id)).
		AddButtons([]string{"Delete", "Cancel"}).
		SetDoneFunc(func(buttonIndex int, buttonLabel string) {
			if buttonLabel == "Delete" {
				a.deleteEntity(k, id)
			}
			a.pages.RemovePage("confirm")
			a.app.SetFocus(a.table)
		})
	modal.SetBackgroundColor(tcell.ColorDarkRed)

	a.pages.AddPage("confirm", modal, true, true)
}

func (a *App) deleteEntity(k *resource.Kind, id string) {
	m := k.DeleteMutation(a.cache, query.Callbacks[v1.Message]{
		OnSuccess: func(msg v1.Message) {
			a.app.QueueUpdateDraw(func() { a.toast(k.DeletedToast(id, msg), "green") })
		},
		OnError: func(err error) {
			a.app.QueueUpdateDraw(func() { a.toast(fmt.Sprintf("Delete failed: %v", err), "red") })
		},
	})
	m.Mutate(id)
}

// ---------------------------------------------------------------------------
// Create & edit forms
// ---------------------------------------------------------------------------

func (a *App) openEdit(v *view) {
	v.item = v.kind.ObserveItem(a.cache, v.id)

	renderMessage(a.table, v.route.Title, "Loading...", tcell.ColorYellow)
	a.content.SwitchToPage(contentTable)
	a.watch(v.item.Updates(), v.done, func() { a.renderEdit(v) })
	a.renderEdit(v)
}

// renderEdit builds the form once the entity has arrived.
func (a *App) renderEdit(v *view) {
	if a.current != v || v.form != nil {
		return
	}
	st := v.item.State()
	switch {
	case st.HasData:
		a.openForm(v, false, v.kind.RowValues(st.Data))
		a.updateFooter()
	case st.IsError():
		renderMessage(a.table, "ERROR", fmt.Sprintf("Error: %v", st.Err), tcell.ColorRed)
	}
	a.updateHeader()
}

func (a *App) openForm(v *view, create bool, initial resource.Values) {
	k := v.kind
	cb := query.Callbacks[resource.Row]{
		OnSuccess: func(r resource.Row) {
			msg := k.UpdatedToast(r)
			if create {
				msg = k.CreatedToast(r)
			}
			a.app.QueueUpdateDraw(func() { a.toast(msg, "green") })
		},
		OnError: func(err error) {
			a.app.QueueUpdateDraw(func() { a.toast(err.Error(), "red") })
		},
	}
	var m *query.Mutation[resource.Values, resource.Row]
	if create {
		m = k.CreateMutation(a.cache, cb)
	} else {
		m = k.UpdateMutation(a.cache, v.id, cb)
	}

	fields := k.FormFields(create)
	form := buildForm(fields, initial)
	form.AddButton("Submit", func() {
		values := mergeValues(initial, formValues(form, fields))
		if err := k.Validate(values); err != nil {
			a.toast(err.Error(), "red")
			return
		}
		m.Mutate(values)
	})
	form.AddButton("Cancel", a.back)
	form.SetBorder(true).SetTitle(" " + v.route.Title + " ")

	v.form = form
	a.content.AddPage(contentForm, form, true, true)
	a.app.SetFocus(form)

	// Leave the page once the write succeeds.
	a.watch(m.Updates(), v.done, func() {
		if a.current == v && m.IsSuccess() {
			a.navigate(k.Routes()[0].Path)
		}
	})
}

// buildForm lays out one input per field. Booleans become checkboxes.
func buildForm(fields []resource.Field, initial resource.Values) *tview.Form {
	form := tview.NewForm()
	for _, f := range fields {
		label := f.Label
		if f.Type == resource.DateTime {
			label += " (YYYY-MM-DDTHH:MM)"
		}
		switch f.Type {
		case resource.Bool:
			form.AddCheckbox(label, initial[f.Name] == "true", nil)
		default:
			form.AddInputField(label, initial[f.Name], 50, nil, nil)
		}
	}
	return form
}

// formValues reads the inputs of a form built by buildForm.
func formValues(form *tview.Form, fields []resource.Field) resource.Values {
	values := make(resource.Values, len(fields))
	for i, f := range fields {
		switch item := form.GetFormItem(i).(type) {
		case *tview.InputField:
			values[f.Name] = item.GetText()
		case *tview.Checkbox:
			if item.IsChecked() {
				values[f.Name] = "true"
			} else {
				values[f.Name] = "false"
			}
		}
	}
	return values
}

func mergeValues(base, over resource.Values) resource.Values {
	out := make(resource.Values, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}
