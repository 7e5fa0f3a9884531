package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/klubi/adminctl/internal/query"
	"github.com/klubi/adminctl/internal/resource"
	v1 "github.com/klubi/adminctl/pkg/apis/v1"
)

func newDeleteCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <kind> <id>...",
		Short: "Delete entities",
		Long:  "Delete one or more entities of a kind by id.\n\n" + kindsHelp(a.registry),
		Example: `  adminctl delete articles 3
  adminctl delete orgs ZPR SKY`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := a.kind(args[0])
			if err != nil {
				return err
			}
			if k.ReadOnly {
				return fmt.Errorf("%s: %w", k.Name, resource.ErrReadOnly)
			}
			if _, err := a.require(cmd.Context(), v1.RoleAdmin); err != nil {
				return err
			}

			out := a.out(cmd)
			for _, id := range args[1:] {
				id := id
				m := k.DeleteMutation(a.cache, query.Callbacks[v1.Message]{
					OnSuccess: func(msg v1.Message) { success(out, k.DeletedToast(id, msg)) },
				})
				if _, err := m.Do(cmd.Context(), id); err != nil {
					return fmt.Errorf("deleting %s %s: %w", k.Title, id, err)
				}
			}
			return nil
		},
	}

	return cmd
}
