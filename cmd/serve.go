package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/theirongolddev/azcost/internal/client"
	"github.com/theirongolddev/azcost/internal/pipeline"
	"github.com/theirongolddev/azcost/internal/server"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	flagServeAddr         string
	flagServeMaxUploadMB  int
	flagServeEventsBuffer int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the browser dashboard with HTTP/SSE endpoints",
	RunE:  runServe,
}

var serveStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status of a running dashboard server",
	RunE:  runServeStatus,
}

func init() {
	serveCmd.PersistentFlags().StringVar(&flagServeAddr, "addr", "", "HTTP listen address (default from config, 127.0.0.1:8787)")
	serveCmd.Flags().IntVar(&flagServeMaxUploadMB, "max-upload-mb", 0, "Upload size limit in MiB (default from config)")
	serveCmd.Flags().IntVar(&flagServeEventsBuffer, "events-buffer", 0, "Max in-memory events retained (default from config)")

	serveCmd.AddCommand(serveStatusCmd)
	rootCmd.AddCommand(serveCmd)
}

func serveAddr() string {
	if flagServeAddr != "" {
		return flagServeAddr
	}
	return appConfig.Server.Addr
}

func runServe(_ *cobra.Command, _ []string) error {
	opts, err := pipelineOptions()
	if err != nil {
		return err
	}

	sc := appConfig.Server
	if flagServeMaxUploadMB > 0 {
		sc.MaxUploadMB = flagServeMaxUploadMB
	}
	if flagServeEventsBuffer > 0 {
		sc.EventsBuffer = flagServeEventsBuffer
	}

	svc := server.New(server.Config{
		Addr:           serveAddr(),
		MaxUploadBytes: int64(sc.MaxUploadMB) << 20,
		EventsBuffer:   sc.EventsBuffer,
		AllowedOrigins: sc.AllowedOrigins,
		ParseOptions:   pipeline.ParseOptionsFromConfig(appConfig),
		Options:        opts,
		Logger:         logger,
	})

	// A --file (or default_file) is ingested before the first request so
	// the page opens on a dashboard instead of the upload prompt.
	if path, err := resolveFile(); err == nil {
		if err := preload(svc, path); err != nil {
			console.Warning("%s", err)
		}
	}

	fmt.Printf("  azcost dashboard on http://%s\n", serveAddr())
	fmt.Printf("  Upload limit %s, status at http://%s/api/v1/status\n",
		humanize.IBytes(uint64(sc.MaxUploadMB)<<20), serveAddr())
	fmt.Printf("  Stop with Ctrl+C\n")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func preload(svc *server.Service, path string) error {
	//nolint:gosec // input path is supplied by the local user
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("preloading %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	s, err := svc.Ingest(filepath.Base(path), f)
	if err != nil {
		return &loadError{err: err}
	}
	console.Success("Preloaded %s (%d records)", filepath.Base(path), s.KPIs.RecordCount)
	return nil
}

func runServeStatus(_ *cobra.Command, _ []string) error {
	c := client.New(serveAddr())
	fmt.Printf("  Address: %s\n", c.BaseURL())

	st, err := c.Status(context.Background())
	if err != nil {
		var apiErr *client.Error
		if errors.As(err, &apiErr) {
			fmt.Printf("  API status: HTTP %d\n", apiErr.StatusCode)
		} else {
			fmt.Printf("  API status: unreachable (%v)\n", err)
		}
		return nil
	}

	fmt.Printf("  State: %s\n", st.State)
	fmt.Printf("  Up since: %s\n", st.StartedAt.Local().Format(time.RFC3339))
	fmt.Printf("  Uploads: %d\n", st.UploadCount)
	if st.FileName != "" {
		fmt.Printf("  File: %s (%d records)\n", st.FileName, st.Records)
	}
	if st.TotalCost != "" {
		fmt.Printf("  Total cost: %s\n", st.TotalCost)
	}
	if !st.UpdatedAt.IsZero() {
		fmt.Printf("  Updated: %s\n", st.UpdatedAt.Local().Format(time.RFC3339))
	}
	fmt.Printf("  Stream subscribers: %d\n", st.SubscriberCount)
	if st.LastError != "" {
		fmt.Printf("  Last error: %s\n", st.LastError)
	}
	return nil
}
