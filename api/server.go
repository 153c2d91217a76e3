package api

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Server provides an HTTP server for the API
type Server struct {
	*http.Server
	logger *slog.Logger
}

// NewServer creates and configures a new API server
func NewServer(logger *slog.Logger) (*Server, error) {
	logger.Info("initializing API server")

	api, err := New(logger, viper.GetBool("enable_cors"))
	if err != nil {
		return nil, err
	}

	host := viper.GetString("http_host")
	port := viper.GetString("http_port")

	var addr string
	if strings.Contains(port, ":") {
		addr = port
	} else {
		addr = host + ":" + port
	}

	srv := &Server{
		Server: &http.Server{
			Addr:    addr,
			Handler: api,
			// ReadTimeout stays modest to protect against slowloris attacks;
			// WriteTimeout is left unbounded since slot/freebusy queries over
			// wide windows can legitimately take longer than a fixed cap.
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 0,
			IdleTimeout:  0,
		},
		logger: logger,
	}

	return srv, nil
}

// Start runs the server with graceful shutdown
func (srv *Server) Start() {
	go func() {
		srv.logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			srv.logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)

	sig := <-quit
	srv.logger.Info("server shutting down", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		srv.logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	srv.logger.Info("server gracefully stopped")
}
