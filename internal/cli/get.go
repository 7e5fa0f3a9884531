package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/klubi/adminctl/internal/access"
	"github.com/klubi/adminctl/internal/resource"
)

func kindsHelp(reg *resource.Registry) string {
	var names []string
	for _, k := range reg.Kinds() {
		names = append(names, k.Name)
	}
	return "Kinds: " + strings.Join(names, ", ")
}

func newListCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <kind>",
		Short: "List every entity of a kind",
		Long:  "List every entity of a kind.\n\n" + kindsHelp(a.registry),
		Example: `  adminctl list articles
  adminctl list orgs -o yaml
  adminctl list users`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.list(cmd, args[0])
		},
	}
	return cmd
}

func newGetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <kind> [id]",
		Short: "List entities or get one by id",
		Long:  "Display one or many entities.\n\n" + kindsHelp(a.registry),
		Example: `  adminctl get articles
  adminctl get articles 3
  adminctl get orgs ZPR -o json`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return a.list(cmd, args[0])
			}
			return a.get(cmd, args[0], args[1])
		},
	}
	return cmd
}

// indexAccess checks that p may open the kind's index page.
func (a *app) indexAccess(cmd *cobra.Command, k *resource.Kind) (*access.Principal, error) {
	idx := k.Routes()[0]
	return a.require(cmd.Context(), idx.Role)
}

func (a *app) list(cmd *cobra.Command, kindName string) error {
	k, err := a.kind(kindName)
	if err != nil {
		return err
	}
	p, err := a.indexAccess(cmd, k)
	if err != nil {
		return err
	}

	o := k.ObserveIndex(a.cache)
	defer o.Close()
	st, err := o.Await(cmd.Context())
	if err != nil {
		return err
	}
	if st.Err != nil {
		return fmt.Errorf("listing %s: %w", k.Name, st.Err)
	}

	rows := st.Data
	k.SortRows(rows)
	if len(rows) == 0 && a.output == "table" {
		fmt.Fprintf(a.out(cmd), "No %s found.\n", k.Name)
		return nil
	}
	return printRows(a.out(cmd), a.output, k.Columns(p), rows)
}

func (a *app) get(cmd *cobra.Command, kindName, id string) error {
	k, err := a.kind(kindName)
	if err != nil {
		return err
	}
	if k.ReadOnly {
		return fmt.Errorf("%s can only be listed", k.Name)
	}
	if id == "" {
		return resource.ErrMissingID
	}
	p, err := a.indexAccess(cmd, k)
	if err != nil {
		return err
	}

	o := k.ObserveItem(a.cache, id)
	defer o.Close()
	st, err := o.Await(cmd.Context())
	if err != nil {
		return err
	}
	if st.Err != nil {
		return fmt.Errorf("getting %s %s: %w", k.Title, id, st.Err)
	}
	if !st.HasData {
		return fmt.Errorf("%s %s not found", k.Title, id)
	}
	if a.output != "table" {
		return printOutput(a.out(cmd), a.output, st.Data, nil)
	}
	return printRows(a.out(cmd), a.output, k.Columns(p), []resource.Row{st.Data})
}
