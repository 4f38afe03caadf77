// snapocr server - captures displays and serves OCR over HTTP, WebSocket and gRPC
package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GriffinCanCode/snapocr/internal/config"
	"github.com/GriffinCanCode/snapocr/internal/ocr"
	"github.com/GriffinCanCode/snapocr/internal/rpc"
	"github.com/GriffinCanCode/snapocr/internal/screen"
	"github.com/GriffinCanCode/snapocr/internal/server"
	"github.com/GriffinCanCode/snapocr/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	recognizer := ocr.New(ocr.Options{Language: cfg.OCRLanguage, TesseractPath: cfg.TesseractPath})
	sess := session.New(screen.New(), recognizer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.WatchEnabled {
		go sess.Watch(ctx, cfg.WatchRate)
	}

	// Start HTTP server
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.New(sess, cfg.AllowedOrigins).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.HTTPAddr, "ocr_backend", recognizer.Name())
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	// Start gRPC server
	grpcServer := rpc.NewServer(rpc.NewService(sess, httpBase(cfg.HTTPAddr)))
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		slog.Error("failed to listen", "addr", cfg.GRPCAddr, "error", err)
		os.Exit(1)
	}
	go func() {
		slog.Info("grpc server starting", "addr", cfg.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			slog.Error("grpc server error", "error", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	slog.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}
	grpcServer.GracefulStop()
	sess.Stop()
	slog.Info("shutdown complete")
}

// httpBase turns a listen address into the base URL clients reach it on.
func httpBase(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}
