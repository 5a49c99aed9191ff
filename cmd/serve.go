package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/drillz/internal/api"
	"github.com/abhisek/drillz/internal/identity"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the workout HTTP API",
	Long:  "Serve exposes workouts over JSON HTTP. Requests authenticate with a bearer JWT signed with DRILLZ_JWT_SECRET; see `drillz token`.",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer closeApp(a)

		cfg := a.Config
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.HTTP.Addr = addr
		}
		if cfg.Auth.JWTSecret == "" {
			return errors.New("serve requires a JWT secret (set DRILLZ_JWT_SECRET or auth.jwt_secret)")
		}

		server := api.New(api.Options{
			Service: a.Service(identity.Context{}),
			Topics:  a.Catalog,
			Tokens:  identity.NewJWT(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
			Metrics: a.Metrics,
			Logger:  a.Logger,
		})

		srv := &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           server.Routes(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			a.Logger.Info("http server listening", zap.String("addr", cfg.HTTP.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("listen: %w", err)
			}
			return nil
		case <-cmd.Context().Done():
		}

		a.Logger.Info("shutting down http server")
		ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides http.addr)")
}
