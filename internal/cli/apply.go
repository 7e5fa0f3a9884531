package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/klubi/adminctl/internal/query"
	"github.com/klubi/adminctl/internal/resource"
	v1 "github.com/klubi/adminctl/pkg/apis/v1"
	"github.com/klubi/adminctl/pkg/manifest"
)

// change is one entity write collected from --set flags or a manifest.
type change struct {
	kind   *resource.Kind
	id     string
	values resource.Values
}

func newCreateCmd(a *app) *cobra.Command {
	var (
		filename string
		sets     []string
	)

	cmd := &cobra.Command{
		Use:   "create [kind]",
		Short: "Create entities from flags or a manifest file",
		Long:  "Create one entity from --set pairs, or every document of a YAML manifest.\n\n" + kindsHelp(a.registry),
		Example: `  adminctl create menuitems --set diningCommonsCode=ortega --set name="Chicken Caesar Salad" --set station=Entrees
  adminctl create -f articles.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			changes, err := a.collect(args, filename, sets, false)
			if err != nil {
				return err
			}
			if _, err := a.require(cmd.Context(), v1.RoleAdmin); err != nil {
				return err
			}
			for _, c := range changes {
				if err := a.create(cmd, c); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&filename, "filename", "f", "", "Path to manifest file")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Field value as name=value (repeatable)")

	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	var (
		filename string
		sets     []string
	)

	cmd := &cobra.Command{
		Use:   "update [kind id]",
		Short: "Edit entities from flags or a manifest file",
		Long: `Edit one entity with --set pairs, or every document of a YAML manifest.
Fields that are not given keep their current value. Manifest documents must
carry the entity's id field.

` + kindsHelp(a.registry),
		Example: `  adminctl update articles 3 --set title="A better title"
  adminctl update orgs ZPR --set inactive=true
  adminctl update -f orgs.yaml`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("expected <kind> <id> or -f, got %d args", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			changes, err := a.collect(args, filename, sets, true)
			if err != nil {
				return err
			}
			if _, err := a.require(cmd.Context(), v1.RoleAdmin); err != nil {
				return err
			}
			for _, c := range changes {
				if err := a.update(cmd, c); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&filename, "filename", "f", "", "Path to manifest file")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Field value as name=value (repeatable)")

	return cmd
}

// collect turns positional args plus --set pairs, or a manifest, into
// changes. Updates need an id for every change.
func (a *app) collect(args []string, filename string, sets []string, update bool) ([]change, error) {
	if filename != "" {
		if len(args) > 0 || len(sets) > 0 {
			return nil, errors.New("use either -f or a kind with --set, not both")
		}
		docs, err := manifest.ParseFile(filename)
		if err != nil {
			return nil, err
		}
		if len(docs) == 0 {
			return nil, fmt.Errorf("no documents found in %s", filename)
		}
		changes := make([]change, 0, len(docs))
		for _, d := range docs {
			k, err := a.kind(d.Kind)
			if err != nil {
				return nil, fmt.Errorf("document at line %d: %w", d.Line, err)
			}
			c := change{kind: k, values: resource.Values(d.Values)}
			if update {
				c.id = d.Values[k.IDField]
				if c.id == "" {
					return nil, fmt.Errorf("document at line %d: %w: %s", d.Line, resource.ErrMissingID, k.IDField)
				}
			}
			changes = append(changes, c)
		}
		return changes, nil
	}

	if len(args) == 0 {
		return nil, errors.New("a kind is required unless -f is given")
	}
	k, err := a.kind(args[0])
	if err != nil {
		return nil, err
	}
	values, err := parseSets(sets)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, errors.New("no fields given: use --set name=value")
	}
	c := change{kind: k, values: values}
	if update {
		c.id = args[1]
	}
	return []change{c}, nil
}

func parseSets(sets []string) (resource.Values, error) {
	values := make(resource.Values, len(sets))
	for _, s := range sets {
		name, value, ok := strings.Cut(s, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --set %q: expected name=value", s)
		}
		values[name] = value
	}
	return values, nil
}

func (a *app) create(cmd *cobra.Command, c change) error {
	k := c.kind
	if k.ReadOnly {
		return fmt.Errorf("%s: %w", k.Name, resource.ErrReadOnly)
	}
	if err := k.Validate(c.values); err != nil {
		return err
	}

	out := a.out(cmd)
	m := k.CreateMutation(a.cache, query.Callbacks[resource.Row]{
		OnSuccess: func(r resource.Row) { success(out, k.CreatedToast(r)) },
	})
	if _, err := m.Do(cmd.Context(), c.values); err != nil {
		return fmt.Errorf("creating %s: %w", k.Title, err)
	}
	return nil
}

func (a *app) update(cmd *cobra.Command, c change) error {
	k := c.kind
	if k.ReadOnly {
		return fmt.Errorf("%s: %w", k.Name, resource.ErrReadOnly)
	}

	current, err := a.current(cmd.Context(), k, c.id)
	if err != nil {
		return err
	}
	values := k.RowValues(current)
	for name, v := range c.values {
		values[name] = v
	}
	values[k.IDField] = c.id
	if err := k.Validate(values); err != nil {
		return err
	}

	out := a.out(cmd)
	m := k.UpdateMutation(a.cache, c.id, query.Callbacks[resource.Row]{
		OnSuccess: func(r resource.Row) { success(out, k.UpdatedToast(r)) },
	})
	if _, err := m.Do(cmd.Context(), values); err != nil {
		return fmt.Errorf("updating %s %s: %w", k.Title, c.id, err)
	}
	return nil
}

// current reads the entity an edit starts from.
func (a *app) current(ctx context.Context, k *resource.Kind, id string) (resource.Row, error) {
	o := k.ObserveItem(a.cache, id)
	defer o.Close()

	st, err := o.Await(ctx)
	if err != nil {
		return nil, err
	}
	if st.Err != nil {
		return nil, fmt.Errorf("reading %s %s: %w", k.Title, id, st.Err)
	}
	if !st.HasData {
		return nil, fmt.Errorf("%s %s not found", k.Title, id)
	}
	return st.Data, nil
}
