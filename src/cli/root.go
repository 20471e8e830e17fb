package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"housetrades/src/clients/housewatcher"
	"housetrades/src/clients/yahoo"
	"housetrades/src/config"
	"housetrades/src/database"
	"housetrades/src/services"
	"housetrades/src/utils"
	aws_handler "housetrades/src/utils/aws"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	settingsPath string
	env          string
	logLevel     string
}

// environment is what every subcommand needs once flags are parsed.
type environment struct {
	cfg    *config.Config
	logger *logrus.Logger
}

func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	env := &environment{}

	cmd := &cobra.Command{
		Use:   "housetrades-ingest",
		Short: "Loads House trading disclosures, prices and issuer details",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			_ = godotenv.Load(".env")
			cfg, err := config.LoadConfig(opts.settingsPath, opts.env)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if opts.logLevel != "" {
				cfg.Service.LogLevel = opts.logLevel
			}
			env.cfg = cfg
			env.logger = utils.NewLogger(utils.ParseLogLevel(cfg.Service.LogLevel), cfg.Service.LogToFile, cfg.Service.LogFile)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.settingsPath, "settings", "./settings", "directory holding appsettings.yaml")
	pf.StringVar(&opts.env, "env", os.Getenv("ENV"), "settings environment, reads appsettings.<env>.yaml")
	pf.StringVar(&opts.logLevel, "log-level", "", "overrides service.logLevel")

	cmd.AddCommand(
		newMigrateCommand(env),
		newIngestCommand(env),
		newValidateCommand(env),
		newRunsCommand(env),
	)
	return cmd
}

// Execute runs the command tree until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
		return err
	}
	return nil
}

func (e *environment) resolvePassword(cmd *cobra.Command) error {
	return aws_handler.ResolveDatabasePassword(cmd.Context(), e.cfg)
}

// connect resolves the database password and opens the pool.
func (e *environment) connect(ctx context.Context) (*database.Handle, error) {
	if err := aws_handler.ResolveDatabasePassword(ctx, e.cfg); err != nil {
		return nil, err
	}
	return database.NewHandle(ctx, e.cfg)
}

func (e *environment) ingestionService(db *database.Handle) (*services.IngestionService, error) {
	houseWatcher, err := housewatcher.NewClient(e.cfg)
	if err != nil {
		return nil, fmt.Errorf("creating house watcher client: %w", err)
	}
	return services.NewIngestionService(
		e.cfg,
		db,
		services.NewRepositories(db),
		houseWatcher,
		yahoo.NewClient(e.cfg),
		utils.NewMetrics(),
		e.logger,
	), nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}
