package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mdview/mdv/internal/config"
	"github.com/mdview/mdv/internal/logging"
	"github.com/mdview/mdv/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the preview server",
	Long: `Start the mdv server: the workspace API, the markdown viewer, the
per-workspace reload stream, and the remote-control websocket.

Examples:
  mdv serve                        # 127.0.0.1:3000
  mdv serve -p 8080                # custom port
  mdv serve --watch-interval 1s    # slower change polling`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", config.DefaultPort, "Port to serve on")
	serveCmd.Flags().String("host", config.DefaultHost, "Host to bind to")
	serveCmd.Flags().Duration("watch-interval", config.DefaultWatchInterval, "Polling interval for workspace change detection")

	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	viper.BindPFlag("watch.interval", serveCmd.Flags().Lookup("watch-interval"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logging.New(&logging.Config{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})

	srv := server.New(cfg, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info(ctx, "shutting down")
		if shutdownErr := srv.Shutdown(ctx); shutdownErr != nil {
			log.Error(ctx, shutdownErr, "error during shutdown")
		}
		cancel()
	}()

	fmt.Printf("Starting mdv server at http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)

	// A bind failure surfaces here; everything later degrades per workspace.
	if err := srv.Start(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
