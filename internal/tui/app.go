// Package tui provides the interactive terminal console for adminctl.
//
// Every page reads through the shared query cache. Observer notifications
// are turned into tview redraws with QueueUpdateDraw, so all App state is
// touched only on the tview event loop.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/klubi/adminctl/internal/access"
	"github.com/klubi/adminctl/internal/query"
	"github.com/klubi/adminctl/internal/resource"
	v1 "github.com/klubi/adminctl/pkg/apis/v1"
)

// App is the main TUI application.
type App struct {
	app         *tview.Application
	pages       *tview.Pages
	content     *tview.Pages
	header      *tview.TextView
	footer      *tview.TextView
	table       *tview.Table
	text        *tview.TextView
	filterInput *tview.InputField
	detailView  *tview.TextView
	layout      *tview.Flex
	mainFlex    *tview.Flex

	cache     *query.Cache
	registry  *resource.Registry
	routes    access.Table
	logger    *zap.Logger
	serverURL string

	user      *query.Observer[*v1.CurrentUser]
	userData  *v1.CurrentUser
	principal *access.Principal
	known     bool

	current *view
	// pending is a navigation target waiting for the user lookup.
	pending string
	filter  string

	describeOpen bool
	filterOpen   bool
	toastSeq     int
	toastActive  bool
}

// NewApp creates the console on top of cache.
func NewApp(cache *query.Cache, registry *resource.Registry, logger *zap.Logger, serverURL string) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{
		app:       tview.NewApplication(),
		cache:     cache,
		registry:  registry,
		routes:    registry.Routes(),
		logger:    logger,
		serverURL: serverURL,
	}

	// -- Header --
	a.header = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	a.header.SetBackgroundColor(tcell.ColorDarkBlue)

	// -- Footer --
	a.footer = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	a.footer.SetBackgroundColor(tcell.ColorDarkBlue)

	// -- Table --
	a.table = tview.NewTable().
		SetSelectable(true, false).
		SetFixed(1, 0).
		SetSeparator(tview.Borders.Vertical)
	a.table.SetBorderPadding(0, 0, 1, 1)

	// -- Plain pages (home, profile) --
	a.text = tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true)
	a.text.SetBorderPadding(1, 1, 2, 2)

	// -- Filter input --
	a.filterInput = tview.NewInputField().
		SetLabel(" Filter: ").
		SetFieldWidth(40).
		SetFieldBackgroundColor(tcell.ColorBlack).
		SetLabelColor(tcell.ColorYellow)
	a.filterInput.SetDoneFunc(func(key tcell.Key) {
		switch key {
		case tcell.KeyEnter:
			a.filter = a.filterInput.GetText()
		case tcell.KeyEscape:
			a.filter = ""
			a.filterInput.SetText("")
		}
		a.hideFilter()
		a.refreshView()
	})

	// -- Detail / Describe view --
	a.detailView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(true)
	a.detailView.SetBorder(true).
		SetTitle(" Describe ").
		SetBorderColor(tcell.ColorDodgerBlue)

	a.content = tview.NewPages().
		AddPage(contentTable, a.table, true, false).
		AddPage(contentText, a.text, true, true)

	a.layout = tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(a.content, 0, 1, true)

	a.mainFlex = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.header, 1, 0, false).
		AddItem(a.layout, 0, 1, true).
		AddItem(a.footer, 1, 0, false)

	a.pages = tview.NewPages().
		AddPage("main", a.mainFlex, true, true)

	a.updateHeader()
	a.updateFooter()
	a.setupKeyBindings()

	a.app.SetRoot(a.pages, true)

	return a
}

const (
	contentTable = "table"
	contentText  = "text"
	contentForm  = "form"
)

// Run starts watching the current user and runs the event loop until the
// user quits.
func (a *App) Run() error {
	a.user = resource.ObserveCurrentUser(a.cache)
	defer a.user.Close()

	done := make(chan struct{})
	defer close(done)
	a.watch(a.user.Updates(), done, a.onUser)

	a.onUser()
	a.navigate("/")

	err := a.app.Run()
	if a.current != nil {
		a.current.close()
	}
	return err
}

// watch redraws with fn on every notification until updates is closed or
// done fires.
func (a *App) watch(updates <-chan struct{}, done <-chan struct{}, fn func()) {
	go func() {
		for {
			select {
			case _, ok := <-updates:
				if !ok {
					return
				}
				a.app.QueueUpdateDraw(fn)
			case <-done:
				return
			}
		}
	}()
}

// onUser applies the latest current-user state.
func (a *App) onUser() {
	st := a.user.State()
	if st.IsPending() && !a.known {
		a.updateHeader()
		return
	}

	wasKnown, before := a.known, a.principal
	a.known = true
	if st.Err == nil && st.HasData {
		a.userData = st.Data
	} else {
		a.userData = nil
		if st.Err != nil {
			a.logger.Warn("current user lookup failed", zap.Error(st.Err))
		}
	}
	a.principal = access.FromCurrentUser(a.userData)
	a.updateHeader()

	switch {
	case a.pending != "":
		a.navigate(a.pending)
	case !wasKnown || !sameRoles(before, a.principal):
		a.navigate(a.currentPath())
	}
}

func sameRoles(a, b *access.Principal) bool {
	if a == nil || b == nil {
		return a == b
	}
	return strings.Join(a.Roles, ",") == strings.Join(b.Roles, ",")
}

// ---------------------------------------------------------------------------
// Key bindings
// ---------------------------------------------------------------------------

func (a *App) setupKeyBindings() {
	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		// When the filter input has focus, let it handle its own keys.
		if a.filterOpen || a.pages.HasPage("confirm") {
			return event
		}

		// Forms take every key except Escape.
		if a.current != nil && a.current.form != nil {
			if event.Key() == tcell.KeyEscape {
				a.back()
				return nil
			}
			return event
		}

		if a.describeOpen && event.Key() == tcell.KeyEscape {
			a.hideDescribe()
			return nil
		}

		switch event.Key() {
		case tcell.KeyRune:
			r := event.Rune()
			for _, it := range navItems(a.routes, a.principal) {
				if it.key == r {
					a.navigate(it.route.Path)
					return nil
				}
			}
			switch r {
			case 'q':
				a.app.Stop()
				return nil
			case '/':
				a.showFilter()
				return nil
			case 'r':
				a.reload()
				return nil
			case 'c':
				a.openCreate()
				return nil
			case 'e':
				a.openEditSelected()
				return nil
			case 'd':
				a.confirmDelete()
				return nil
			case 'j':
				row, _ := a.table.GetSelection()
				if row < a.table.GetRowCount()-1 {
					a.table.Select(row+1, 0)
				}
				return nil
			case 'k':
				row, _ := a.table.GetSelection()
				if row > 1 {
					a.table.Select(row-1, 0)
				}
				return nil
			}
		case tcell.KeyEnter:
			a.showDescribe()
			return nil
		case tcell.KeyEscape:
			if a.filter != "" {
				a.filter = ""
				a.refreshView()
				return nil
			}
			a.back()
			return nil
		}
		return event
	})
}

// ---------------------------------------------------------------------------
// Header & Footer
// ---------------------------------------------------------------------------

func (a *App) updateHeader() {
	var parts []string
	for _, it := range navItems(a.routes, a.principal) {
		if a.current != nil && a.current.route.Name == it.route.Name {
			parts = append(parts, fmt.Sprintf("[::b]<%c>[%s][::-]", it.key, it.route.Title))
		} else {
			parts = append(parts, fmt.Sprintf("<%c>%s", it.key, it.route.Title))
		}
	}

	who := "[yellow]checking login...[-]"
	if a.known {
		switch {
		case a.principal == nil:
			who = "[red]not logged in[-]"
		case access.HasRole(a.principal, v1.RoleAdmin):
			who = fmt.Sprintf("%s [red](admin)[-]", tview.Escape(a.principal.Email))
		default:
			who = tview.Escape(a.principal.Email)
		}
	}

	status := ""
	if a.current != nil && a.current.loading() {
		status = " | [yellow]loading[-]"
	}
	filterInfo := ""
	if a.filter != "" {
		filterInfo = fmt.Sprintf(" | [yellow]filter: %s[-]", tview.Escape(a.filter))
	}

	a.header.SetText(fmt.Sprintf(" [::b]adminctl[::-] | %s | %s | %s%s%s",
		a.serverURL, who, strings.Join(parts, "  "), status, filterInfo))
}

func (a *App) updateFooter() {
	if a.toastActive {
		return
	}
	keys := " [yellow]<0-9>[white]Navigate  [yellow]<q>[white]Quit"
	if a.current != nil && a.current.kind != nil {
		switch {
		case a.current.form != nil:
			keys = " [yellow]<tab>[white]Next field  [yellow]<enter>[white]Press button  [yellow]<esc>[white]Cancel"
		case a.current.page == resource.PageIndex:
			keys = " [yellow]<enter>[white]Describe  [yellow]</>[white]Filter  [yellow]<r>[white]Refresh  [yellow]<q>[white]Quit"
			if a.current.canCreate {
				keys += "  [yellow]<c>[white]Create"
			}
			if access.Allows(a.current.cols, access.ActionEdit) {
				keys += "  [yellow]<e>[white]Edit"
			}
			if access.Allows(a.current.cols, access.ActionDelete) {
				keys += "  [yellow]<d>[white]Delete"
			}
		}
	}
	a.footer.SetText(keys)
}

// toast shows msg in the footer for three seconds.
func (a *App) toast(msg string, color string) {
	a.toastSeq++
	a.toastActive = true
	seq := a.toastSeq
	a.footer.SetText(fmt.Sprintf(" [%s]%s[-]", color, tview.Escape(msg)))
	go func() {
		time.Sleep(3 * time.Second)
		a.app.QueueUpdateDraw(func() {
			if a.toastSeq == seq {
				a.toastActive = false
				a.updateFooter()
			}
		})
	}()
}

// ---------------------------------------------------------------------------
// Describe & filter
// ---------------------------------------------------------------------------

func (a *App) showDescribe() {
	v := a.current
	if v == nil || v.index == nil {
		return
	}
	id, ok := a.selectedID()
	if !ok {
		return
	}
	for _, r := range v.index.State().Data {
		if v.kind.ID(r) == id {
			a.detailView.SetText(describeRow(v.kind, r))
			break
		}
	}
	if !a.describeOpen {
		a.layout.AddItem(a.detailView, 0, 1, false)
		a.describeOpen = true
	}
}

func (a *App) hideDescribe() {
	if a.describeOpen {
		a.layout.RemoveItem(a.detailView)
		a.describeOpen = false
		a.app.SetFocus(a.content)
	}
}

func (a *App) showFilter() {
	if a.filterOpen || a.current == nil || a.current.index == nil {
		return
	}
	a.filterOpen = true
	a.filterInput.SetText(a.filter)

	a.mainFlex.RemoveItem(a.footer)
	a.mainFlex.AddItem(a.filterInput, 1, 0, true)
	a.app.SetFocus(a.filterInput)
}

func (a *App) hideFilter() {
	if !a.filterOpen {
		return
	}
	a.filterOpen = false

	a.mainFlex.RemoveItem(a.filterInput)
	a.mainFlex.AddItem(a.footer, 1, 0, false)
	a.app.SetFocus(a.table)
}

func (a *App) selectedID() (string, bool) {
	row, _ := a.table.GetSelection()
	if a.current == nil || row < 1 || row > len(a.current.ids) {
		return "", false
	}
	return a.current.ids[row-1], true
}
