package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdv-analysis/internal/analyzer"
	"github.com/pdv-analysis/internal/webui"
	"github.com/pdv-analysis/pkg/utils"
)

var (
	// Serve command flags
	dataDir    string
	listenAddr string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start web server to view analysis results",
	Long: `Start an HTTP server to interactively view exported analysis runs.

The serve command starts a lightweight web server that provides:
  - Run selection across all exported run directories
  - Summary, block, null-region and invoice tables
  - A stacked byte-density chart computed from the archived raw file

The server is read-only over the data directory.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	// Set dynamic example using actual binary name
	binName := BinName()
	serveCmd.Example = `  # Start server with default settings (:8080, ./output directory)
  ` + binName + ` serve

  # Specify data directory and listen address
  ` + binName + ` serve -d ./my-output --addr :9090

  # Start server with verbose logging
  ` + binName + ` serve -d ./output -v`

	serveCmd.Flags().StringVarP(&dataDir, "data-dir", "d", "./output", "Data directory containing exported runs")
	serveCmd.Flags().StringVar(&listenAddr, "addr", ":8080", "Listen address for web server")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := GetLogger()
	return startServeMode(dataDir, listenAddr, log)
}

// startServeMode is shared between analyze --serve and serve command
func startServeMode(dataDirectory, addr string, log utils.Logger) error {
	// Verify data directory exists
	if _, err := os.Stat(dataDirectory); os.IsNotExist(err) {
		return fmt.Errorf("data directory not found: %s", dataDirectory)
	}

	engineOpts := analyzer.DefaultOptions()
	if cfg.Analysis.DensityWindow > 0 {
		engineOpts.DensityWindow = cfg.Analysis.DensityWindow
	}
	server := webui.NewServer(dataDirectory, addr, analyzer.New(engineOpts), log)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(ctx)
		os.Exit(0)
	}()

	log.Info("")
	log.Info("PDV Analysis Viewer")
	log.Info("  Open in browser: http://localhost%s", addr)
	log.Info("  Data directory:  %s", dataDirectory)
	log.Info("  Press Ctrl+C to stop")
	log.Info("")

	if err := server.Start(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
