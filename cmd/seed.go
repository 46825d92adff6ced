package cmd

import (
	"errors"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gitea.kood.tech/petrkubec/roomies/interest"
	"gitea.kood.tech/petrkubec/roomies/seed"
	"gitea.kood.tech/petrkubec/roomies/storage/postgres"
)

var seedOpts = seed.DefaultOptions()

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the database with deterministic demo users and interest actions",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := setup(false)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()
		if !cfg.UsesDatabase() {
			return errors.New("seed needs a database; the memory backend is seeded by serve --demo")
		}

		ds, err := seed.Generate(seedOpts)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		b, err := openBackends(ctx, cfg, log)
		if err != nil {
			return err
		}
		defer b.Close()

		if truncate, _ := cmd.Flags().GetBool("truncate"); truncate {
			if err := postgres.Truncate(ctx, b.db); err != nil {
				return err
			}
			log.Info("truncated users, profiles and interest_actions")
		}

		start := time.Now()
		store := interest.NewStore(b.interests, b.profiles, log.Named("interest"))
		if err := seed.Apply(ctx, ds, b.profiles, store, log); err != nil {
			return err
		}
		log.Info("seed complete",
			zap.Duration("took", time.Since(start)),
			zap.Strings("test_users", seed.TestEmails),
			zap.String("test_user_id", ds.Users[0].Profile.ID),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().IntVar(&seedOpts.Count, "count", seedOpts.Count, "number of users to create")
	seedCmd.Flags().Int64Var(&seedOpts.Seed, "seed", seedOpts.Seed, "RNG seed (deterministic)")
	seedCmd.Flags().Float64Var(&seedOpts.LikeRate, "like-rate", seedOpts.LikeRate, "share of other users each user likes (0..1)")
	seedCmd.Flags().Float64Var(&seedOpts.DislikeRate, "dislike-rate", seedOpts.DislikeRate, "share of other users each user dislikes (0..1)")
	seedCmd.Flags().Float64Var(&seedOpts.IncompleteRate, "incomplete-rate", seedOpts.IncompleteRate, "share of users without a finished profile (0..1)")
	seedCmd.Flags().Bool("truncate", false, "TRUNCATE the tables before seeding")
}
