package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gitea.kood.tech/petrkubec/roomies/api"
	"gitea.kood.tech/petrkubec/roomies/config"
	"gitea.kood.tech/petrkubec/roomies/interest"
	"gitea.kood.tech/petrkubec/roomies/matches"
	"gitea.kood.tech/petrkubec/roomies/seed"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("port", "p", "", "port to listen on (default 8080)")
	serveCmd.Flags().Bool("demo", true, "fill the memory backend with demo users")
	_ = v.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	_ = v.BindPFlag("demo", serveCmd.Flags().Lookup("demo"))
}

func serve(ctx context.Context) error {
	cfg, log, err := setup(true)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer b.Close()

	store := interest.NewStore(b.interests, b.profiles, log.Named("interest"))

	if cfg.Interests.Backend == config.BackendMemory && v.GetBool("demo") {
		opts := seed.DefaultOptions()
		opts.Count = 100
		ds, err := seed.Generate(opts)
		if err != nil {
			return err
		}
		if err := seed.Apply(ctx, ds, b.profiles, store, log); err != nil {
			return err
		}
	}

	svc := matches.NewService(b.profiles, store, matches.Config{
		MinScore:     cfg.Matching.MinScore,
		Limit:        cfg.Matching.Limit,
		ExcludeActed: cfg.Matching.ExcludeActed,
	}, log.Named("matches"))

	srv := &http.Server{
		Addr: net.JoinHostPort("", cfg.Server.Port),
		Handler: api.NewRouter(api.Options{
			Service:     svc,
			Profiles:    b.profiles,
			JWTSecret:   []byte(cfg.Auth.JWTSecret),
			CORSOrigins: cfg.Server.CORSOrigins,
			Log:         log.Named("http"),
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting the roomies api",
			zap.String("addr", srv.Addr),
			zap.String("version", version),
			zap.String("interests_backend", cfg.Interests.Backend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
