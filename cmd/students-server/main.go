// Command students-server is an MCP server exposing a small student
// directory. It speaks MCP over stdio, or over streamable HTTP with --http.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/recrsn/mcpchat/internal/logging"
	"github.com/recrsn/mcpchat/internal/students"
	"github.com/spf13/pflag"
)

var version = "dev"

func main() {
	httpAddr := pflag.String("http", "", "serve streamable HTTP on this address instead of stdio")
	logLevel := pflag.String("log-level", "warn", "log level (debug, info, warn, error)")
	pflag.Parse()

	level, err := logging.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	// stdout carries the protocol in stdio mode
	logger := logging.New(os.Stderr, level, false)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := newServer()
	if *httpAddr != "" {
		err = serveHTTP(ctx, *httpAddr, server, logger)
	} else {
		err = server.Run(ctx, &mcpsdk.StdioTransport{})
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("students server stopped", "err", err)
		os.Exit(1)
	}
}

func newServer() *mcpsdk.Server {
	server := mcpsdk.NewServer(&mcpsdk.Implementation{Name: "students", Version: version}, nil)
	students.Register(server, students.NewService(nil))
	return server
}

// newRouter mounts the MCP endpoint at /mcp next to a health check
func newRouter(server *mcpsdk.Server) *mux.Router {
	router := mux.NewRouter()
	handler := mcpsdk.NewStreamableHTTPHandler(func(*http.Request) *mcpsdk.Server { return server }, nil)
	router.PathPrefix("/mcp").Handler(handler)
	router.HandleFunc("/healthz", healthCheckHandler).Methods(http.MethodGet)
	return router
}

func healthCheckHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `{"status":"ok"}`)
}

func serveHTTP(ctx context.Context, addr string, server *mcpsdk.Server, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           newRouter(server),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving MCP over HTTP", "addr", addr, "path", "/mcp")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
