// Package pulsars imports an ATNF pulsar catalogue export into the local
// mirror used for cross-matching.
package pulsars

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/vast-survey/triage/internal/conf"
	"github.com/vast-survey/triage/internal/datastore"
)

// Command creates the pulsars import command.
func Command(settings *conf.Settings) *cobra.Command {
	var csvPath string

	cmd := &cobra.Command{
		Use:   "pulsars",
		Short: "Import the ATNF pulsar catalogue",
		Long:  "Replace the local pulsar catalogue mirror with the contents of a psrcat CSV export.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd.Context(), settings, csvPath)
		},
	}

	cmd.Flags().StringVar(&csvPath, "file", "psrcat.csv", "Path to the psrcat CSV export")

	return cmd
}

func runImport(ctx context.Context, settings *conf.Settings, csvPath string) error {
	file, err := os.Open(csvPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", csvPath, err)
	}
	defer file.Close()

	pulsars, err := datastore.ParsePulsarCSV(file)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", csvPath, err)
	}

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

	count, err := ds.ReplacePulsars(ctx, pulsars)
	if err != nil {
		return fmt.Errorf("failed to store pulsars: %w", err)
	}

	fmt.Printf("Imported %d pulsars from %s\n", count, csvPath)
	return nil
}
