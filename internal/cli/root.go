package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/klubi/adminctl/internal/access"
	"github.com/klubi/adminctl/internal/config"
	"github.com/klubi/adminctl/internal/logging"
	"github.com/klubi/adminctl/internal/query"
	"github.com/klubi/adminctl/internal/resource"
	"github.com/klubi/adminctl/pkg/client"
)

// app is the state shared by every subcommand once PersistentPreRunE ran.
type app struct {
	configPath string
	server     string
	token      string
	logLevel   string
	output     string

	cfg      *config.Config
	logger   *zap.Logger
	cache    *query.Cache
	registry *resource.Registry
}

// NewRootCmd creates the top-level adminctl command with all subcommands.
func NewRootCmd() *cobra.Command {
	a := &app{registry: resource.Default()}

	cmd := &cobra.Command{
		Use:   "adminctl",
		Short: "Console for the team02 admin REST API",
		Long: `adminctl lists, creates, edits and deletes the entities served by the
team02 admin API. Writes are offered to ROLE_ADMIN users only.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default ~/.adminctl/config.yaml)")
	cmd.PersistentFlags().StringVar(&a.server, "server", "", "API server URL (overrides config)")
	cmd.PersistentFlags().StringVar(&a.token, "token", "", "Bearer token (overrides config)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug|info|warn|error")
	cmd.PersistentFlags().StringVarP(&a.output, "output", "o", "table", "Output format: table|json|yaml")

	cmd.AddCommand(
		newWhoamiCmd(a),
		newRoutesCmd(a),
		newListCmd(a),
		newGetCmd(a),
		newCreateCmd(a),
		newUpdateCmd(a),
		newDeleteCmd(a),
		newUICmd(a),
	)

	return cmd
}

func (a *app) init(cmd *cobra.Command) error {
	switch a.output {
	case "table", "json", "yaml":
	default:
		return fmt.Errorf("unknown output format %q: use table, json or yaml", a.output)
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("server") {
		cfg.Server.URL = a.server
	}
	if cmd.Flags().Changed("token") {
		cfg.Server.Token = a.token
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	// The terminal UI owns the screen and builds its own file logger.
	if cmd.Name() == "ui" {
		a.logger, err = logging.NewFile(cfg.Log)
	} else {
		a.logger, err = logging.New(cfg.Log)
	}
	if err != nil {
		return err
	}

	opts := []client.Option{client.WithTimeout(cfg.Server.Timeout)}
	if cfg.Server.Token != "" {
		opts = append(opts, client.WithToken(cfg.Server.Token))
	}
	if cfg.Server.Session != "" {
		opts = append(opts, client.WithSession(cfg.Server.Session))
	}
	a.cache = query.NewCache(client.New(cfg.Server.URL, opts...), a.logger)
	return nil
}

func (a *app) close() {
	if a.cache != nil {
		a.cache.Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// principal resolves the logged-in user through the cache. A failed
// lookup yields a nil principal and the lookup error.
func (a *app) principal(ctx context.Context) (*access.Principal, error) {
	o := resource.ObserveCurrentUser(a.cache)
	defer o.Close()

	st, err := o.Await(ctx)
	if err != nil {
		return nil, err
	}
	if st.Err != nil {
		return nil, fmt.Errorf("looking up current user: %w", st.Err)
	}
	return access.FromCurrentUser(st.Data), nil
}

// require checks p against role, explaining a failed user lookup when
// that is the reason.
func (a *app) require(ctx context.Context, role string) (*access.Principal, error) {
	p, lookupErr := a.principal(ctx)
	if err := access.Require(p, role); err != nil {
		if lookupErr != nil {
			return nil, fmt.Errorf("%w (%v)", err, lookupErr)
		}
		return nil, err
	}
	return p, nil
}

func (a *app) kind(name string) (*resource.Kind, error) {
	return a.registry.Lookup(name)
}

func (a *app) out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
