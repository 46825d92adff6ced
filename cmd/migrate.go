package cmd

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gitea.kood.tech/petrkubec/roomies/migrations"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down]",
	Short:     "Apply or roll back the database schema",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down"},
	RunE: func(cmd *cobra.Command, args []string) error {
		direction := "up"
		if len(args) > 0 {
			direction = args[0]
		}

		cfg, log, err := setup(false)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()
		if !cfg.UsesDatabase() {
			return errors.New("the memory backend has no schema to migrate")
		}

		db, err := openDB(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer db.Close()

		if direction == "down" {
			if err := migrations.Down(db); err != nil {
				return err
			}
			log.Info("migration down successful")
			return nil
		}

		if err := migrations.Up(db); err != nil {
			return err
		}
		version, dirty, err := migrations.Version(db)
		if err != nil {
			return err
		}
		log.Info("migration up successful", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
