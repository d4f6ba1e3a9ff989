package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"essaycron/internal/api"
	essaymcp "essaycron/internal/mcp"

	"github.com/spf13/cobra"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var (
		httpAddr string
		withMCP  bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the local HTTP API and/or MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), flags, true)
			if err != nil {
				return err
			}
			defer a.Close()

			withHTTP := cmd.Flags().Changed("http") || !withMCP
			if httpAddr == "" {
				httpAddr = a.cfg.Server.Addr
			}
			return runServers(a, withHTTP, withMCP, httpAddr)
		},
	}
	cmd.Flags().StringVar(&httpAddr, "http", "", "Serve the HTTP API on this address (default from config)")
	cmd.Flags().BoolVar(&withMCP, "mcp", false, "Serve MCP tools on stdio")
	return cmd
}

// runServers blocks until a signal arrives or a server fails. The MCP stdio
// loop has no shutdown hook and ends with the process.
func runServers(a *app, withHTTP, withMCP bool, addr string) error {
	errs := make(chan error, 2)

	if withMCP {
		mcpServer := essaymcp.NewMCPServer(a.scheduler, a.waiter, version, a.logger)
		go func() {
			errs <- mcpServer.Run()
		}()
	}

	var server *api.Server
	if withHTTP {
		var history api.HistoryReader
		if a.history != nil {
			history = a.history
		}
		server = api.NewServer(addr, a.scheduler, a.waiter, history, a.logger)
		go func() {
			if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errs <- err
			}
		}()
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	var runErr error
	select {
	case sig := <-sigs:
		a.logger.Info("received signal", "signal", sig.String())
	case err := <-errs:
		if err != nil {
			a.logger.Error("server error", "err", err)
			runErr = err
		}
	}

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("server shutdown", "err", err)
		}
	}
	a.logger.Info("shutdown complete")
	return runErr
}
