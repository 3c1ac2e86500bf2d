package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	nethttp "net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/3-lines-studio/ogimage/internal/adapters/http"
)

const shutdownTimeout = 5 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	var addr string
	var dirFlag string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the og:image options endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.logger(cmd)
			if err != nil {
				return err
			}
			svc, err := ctx.optionsService(dirFlag)
			if err != nil {
				return err
			}

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", addr, err)
			}

			server := &nethttp.Server{
				Handler:           http.NewRouter(http.NewOptionsHandler(svc, logger)),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Serve(ln)
			}()

			logger.Info("serving og:image options", "url", "http://"+ln.Addr().String()+http.OptionsRoute)
			fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s%s\n", ln.Addr(), http.OptionsRoute)

			select {
			case err := <-errCh:
				if errors.Is(err, nethttp.ErrServerClosed) {
					return nil
				}
				return err
			case <-cmd.Context().Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown: %w", err)
			}
			logger.Info("options server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8788", "Listen address")
	cmd.Flags().StringVarP(&dirFlag, "dir", "d", "", "Read pages from this output directory instead of the host")
	return cmd
}
