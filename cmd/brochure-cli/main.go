// Package main provides the brochure CLI entrypoint.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/config"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/observability"
	"github.com/Leadrat/pdfscan-pankaj-joshi/internal/service"
)

// version is set at build time with -ldflags.
var version = "dev"

var (
	// Global flags
	cfgFile    string
	outputJSON bool
	verbose    bool

	cfg      *config.Config
	logger   *observability.Logger
	svc      *service.Service
	closeSvc func() error
	ui       *UI
)

var rootCmd = &cobra.Command{
	Use:   "brochure-cli",
	Short: "Extract, structure and query real-estate brochures",
	Long: `brochure-cli runs the brochure pipeline from the command line.

Use this tool to:
- Extract text and contact fields from brochure PDFs
- OCR brochure images and classify them
- Structure extracted text into a project record
- Ask grounded questions about a structured record
- Purge expired extractions and temp files

All commands support --json for automation.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		if err := config.LoadEnvFiles(); err != nil {
			return fmt.Errorf("load env: %w", err)
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		level := cfg.Observability.LogLevel
		if !verbose {
			level = "warn"
		}
		logFormat := "console"
		if outputJSON {
			logFormat = "json"
		}
		logger = observability.NewLogger(observability.LogConfig{
			Level:       level,
			Format:      logFormat,
			Output:      os.Stderr,
			ServiceName: "brochure-cli",
		})

		ui = NewUI(outputJSON)

		svc, closeSvc, err = service.Bootstrap(context.Background(), cfg, logger)
		if err != nil {
			return fmt.Errorf("initialize: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if closeSvc != nil {
			return closeSvc()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: uses env vars)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(newUploadCmd())
	rootCmd.AddCommand(newExtractCmd())
	rootCmd.AddCommand(newRenderCmd())
	rootCmd.AddCommand(newOCRCmd())
	rootCmd.AddCommand(newStructureCmd())
	rootCmd.AddCommand(newAskCmd())
	rootCmd.AddCommand(newRecordsCmd())
	rootCmd.AddCommand(newPurgeCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputJSON {
				return printJSON(map[string]string{"version": version})
			}
			fmt.Printf("brochure-cli %s\n", version)
			return nil
		},
	}
}
