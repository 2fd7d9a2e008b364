package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/jmcleod/ncpass/api"
)

func newServerCmd(a *app) *cobra.Command {
	var (
		port int
		host string
	)
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Serve the local autofill API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			idx, closeIndex, err := a.openIndex()
			if err != nil {
				return err
			}
			defer closeIndex()

			opts := []api.Option{
				api.WithLogger(a.logger),
				api.WithToken(a.cfg.API.Token),
			}
			if a.cfg.requireAccount() == nil {
				s, err := a.newSession()
				if err != nil {
					return err
				}
				c := a.newClient()
				defer a.closeSession(cmd.Context(), c, s)
				opts = append(opts, api.WithGenerator(c, s))
			} else {
				a.logger.Warn("no account configured, password generation disabled")
			}

			r := chi.NewRouter()
			r.Use(middleware.RequestID)
			r.Use(middleware.Recoverer)
			r.Mount("/api/v1", api.New(a.newService(idx), opts...).Router())

			server := &http.Server{
				Addr:              net.JoinHostPort(host, strconv.Itoa(a.v.GetInt(keyPort))),
				Handler:           r,
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       15 * time.Second,
				WriteTimeout:      a.timeout + 15*time.Second,
				IdleTimeout:       60 * time.Second,
			}

			done := make(chan error, 1)
			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					done <- fmt.Errorf("server failed: %w", err)
					return
				}
				done <- nil
			}()

			out := cmd.OutOrStdout()
			printBanner(out)
			fmt.Fprintf(out, "Serving on http://%s/api/v1 (index: %s)...\n", server.Addr, a.cfg.DataDir)

			select {
			case <-cmd.Context().Done():
				fmt.Fprintln(out, "\nShutting down...")
				ctx, cancel := context.WithTimeout(context.WithoutCancel(cmd.Context()), 10*time.Second)
				defer cancel()
				if err := server.Shutdown(ctx); err != nil {
					return fmt.Errorf("server shutdown failed: %w", err)
				}
				return nil
			case err := <-done:
				return err
			}
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", defaultPort, "Port to listen on (overrides api.port)")
	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Address to bind")
	return cmd
}
