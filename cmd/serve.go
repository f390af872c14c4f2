package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"examly/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")

		a, err := openApp(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		server := api.NewServer(a.generator, a.evaluator, a.tracker, a.cfg.Timeout)
		httpServer := &http.Server{
			Addr:         addr,
			Handler:      server.Routes(),
			ReadTimeout:  10 * time.Second,
			// Generation and rubric grading make several backend calls,
			// so writes get the full request timeout plus headroom.
			WriteTimeout: a.cfg.Timeout + 30*time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			fmt.Printf("listening on %s (provider: %s)\n", addr, a.cfg.Provider)
			errCh <- httpServer.ListenAndServe()
		}()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-stop:
			fmt.Println("\nshutting down")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return httpServer.Shutdown(ctx)
		}
	},
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "Listen address")
}
