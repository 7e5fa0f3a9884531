package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klubi/adminctl/internal/access"
	"github.com/klubi/adminctl/internal/resource"
	v1 "github.com/klubi/adminctl/pkg/apis/v1"
)

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "whoami",
		Aliases: []string{"profile"},
		Short:   "Show the logged-in user and roles",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			o := resource.ObserveCurrentUser(a.cache)
			defer o.Close()

			st, err := o.Await(cmd.Context())
			if err != nil {
				return err
			}
			if st.Err != nil || st.Data == nil {
				return fmt.Errorf("not logged in: %v", st.Err)
			}

			out := a.out(cmd)
			if a.output != "table" {
				return printOutput(out, a.output, st.Data, nil)
			}

			p := access.FromCurrentUser(st.Data)
			bold := color.New(color.Bold)
			bold.Fprint(out, "Email:  ")
			fmt.Fprintln(out, p.Email)
			bold.Fprint(out, "Name:   ")
			fmt.Fprintln(out, p.Name)
			bold.Fprint(out, "Roles:  ")
			fmt.Fprintln(out, strings.Join(p.Roles, ", "))
			if access.HasRole(p, v1.RoleAdmin) {
				color.New(color.FgCyan).Fprintln(out, "Admin access enabled.")
			}
			return nil
		},
	}
}

func newRoutesCmd(a *app) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List the pages available to the logged-in user",
		Long: `List the console pages the logged-in user may open. With --all every page
is listed together with whether it is visible.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// A failed lookup is not an error here: the user sees the public pages.
			p, _ := a.principal(cmd.Context())

			table := a.registry.Routes()
			if !all {
				table = table.Visible(p)
			}

			type routeView struct {
				Name    string `json:"name" yaml:"name"`
				Path    string `json:"path" yaml:"path"`
				Role    string `json:"role,omitempty" yaml:"role,omitempty"`
				Title   string `json:"title" yaml:"title"`
				Visible bool   `json:"visible" yaml:"visible"`
			}
			views := make([]routeView, 0, len(table))
			for _, r := range table {
				visible := access.Decide(p, true, r.Role) == access.Visible
				views = append(views, routeView{Name: r.Name, Path: r.Path, Role: r.Role, Title: r.Title, Visible: visible})
			}

			return printOutput(a.out(cmd), a.output, views, func() ([]string, [][]string) {
				headers := []string{"NAME", "PATH", "ROLE", "TITLE"}
				if all {
					headers = append(headers, "VISIBLE")
				}
				rows := make([][]string, 0, len(views))
				for _, v := range views {
					role := v.Role
					if role == "" {
						role = "<public>"
					}
					row := []string{v.Name, v.Path, role, v.Title}
					if all {
						row = append(row, boolColor(fmt.Sprint(v.Visible)))
					}
					rows = append(rows, row)
				}
				return headers, rows
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "List hidden pages too")

	return cmd
}
