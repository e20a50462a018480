// Package serve starts the triage web service.
package serve

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	api "github.com/vast-survey/triage/internal/api/v2"
	"github.com/vast-survey/triage/internal/conf"
	"github.com/vast-survey/triage/internal/crossmatch"
	"github.com/vast-survey/triage/internal/datastore"
	"github.com/vast-survey/triage/internal/session"
	"github.com/vast-survey/triage/internal/simbad"
)

// Command creates the serve command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the triage web service",
		Long:  "Serve the candidate filter table, cross-match and rating API.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), settings)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.WebServer.Port, "port", viper.GetString("webserver.port"), "Port to listen on")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}

	return nil
}

func runServer(ctx context.Context, settings *conf.Settings) error {
	ds := datastore.New(settings)
	if ds == nil {
		return fmt.Errorf("no database enabled in configuration")
	}
	if err := ds.Open(); err != nil {
		return fmt.Errorf("failed to open datastore: %w", err)
	}
	defer func() {
		if err := ds.Close(); err != nil {
			log.Printf("Error closing datastore: %v", err)
		}
	}()

	simbadClient, err := simbad.NewClient(simbad.ConfigFromSettings(settings))
	if err != nil {
		return fmt.Errorf("failed to initialize SIMBAD client: %w", err)
	}
	defer simbadClient.Close()

	merger := crossmatch.NewMerger(settings.Search.AdapterTimeout, 0,
		&crossmatch.LocalAdapter{Store: ds},
		&crossmatch.PulsarAdapter{Store: ds},
		&crossmatch.SimbadAdapter{Client: simbadClient},
	)
	sessions := session.NewStore(settings.Search.SessionTTL)

	e := echo.New()
	e.HideBanner = true

	controller, err := api.New(e, ds, settings, merger, sessions, log.Default())
	if err != nil {
		return fmt.Errorf("failed to initialize API: %w", err)
	}
	defer controller.Shutdown()

	port := settings.WebServer.Port
	if port == "" {
		port = "8080"
	}

	errChan := make(chan error, 1)
	go func() {
		if err := e.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()
	log.Printf("Triage service listening on port %s", port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("web server failed: %w", err)
	case <-ctx.Done():
	case sig := <-quit:
		log.Printf("Received signal %v, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("web server shutdown failed: %w", err)
	}

	return nil
}
