package cli

import (
	"fmt"

	"housetrades/src/clients/housewatcher"
	"housetrades/src/database"
	"housetrades/src/models"
	"housetrades/src/services"
	"housetrades/src/utils"

	"github.com/spf13/cobra"
)

func newMigrateCommand(env *environment) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Applies pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := env.resolvePassword(cmd); err != nil {
				return err
			}
			sqlDB, err := database.OpenSQL(database.DSN(env.cfg.Databases.SQL))
			if err != nil {
				return err
			}
			defer sqlDB.Close()
			if err := database.Migrate(sqlDB, dir); err != nil {
				return err
			}
			env.logger.Info("Database migration completed successfully")
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "./migrations", "directory holding the goose migrations")
	return cmd
}

func newIngestCommand(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:       "ingest [transactions|prices|details|all]",
		Short:     "Runs an ingestion kind, all of them by default",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{utils.IngestionKindTransactions, utils.IngestionKindPrices, utils.IngestionKindDetails, utils.IngestionKindAll},
		PreRunE: func(_ *cobra.Command, args []string) error {
			if len(args) == 1 && !utils.IsIngestionKind(args[0]) {
				return fmt.Errorf("unknown ingestion kind %q", args[0])
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := utils.IngestionKindAll
			if len(args) == 1 {
				kind = args[0]
			}

			db, err := env.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			svc, err := env.ingestionService(db)
			if err != nil {
				return err
			}
			runs, runErr := svc.Run(utils.WithLogger(cmd.Context(), env.logger), kind)
			if err := printJSON(cmd, runs); err != nil {
				return err
			}
			return runErr
		},
	}
}

func newValidateCommand(env *environment) *cobra.Command {
	var stored bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Reports missing and malformed fields in the disclosure feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if stored {
				db, err := env.connect(cmd.Context())
				if err != nil {
					return err
				}
				defer db.Close()

				report, err := services.NewValidationService(services.NewRepositories(db).Transactions).ValidateStored(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd, report)
			}

			client, err := housewatcher.NewClient(env.cfg)
			if err != nil {
				return err
			}
			records, err := client.GetTransactions(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, services.NewValidationService(nil).Validate(records))
		},
	}
	cmd.Flags().BoolVar(&stored, "stored", false, "validate the stored transactions instead of the live feed")
	return cmd
}

func newRunsCommand(env *environment) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Lists recent ingestion runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit <= 0 {
				return fmt.Errorf("limit must be positive, got %d", limit)
			}
			db, err := env.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			runs, err := services.NewRepositories(db).IngestionRuns.ListRecent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if runs == nil {
				runs = []models.IngestionRun{}
			}
			return printJSON(cmd, runs)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to list")
	return cmd
}
