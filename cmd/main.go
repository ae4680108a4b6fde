package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nemaks/recordstore/dependency"
	"go.uber.org/zap"
)

func main() {
	container, err := dependency.NewContainer()
	if err != nil {
		log.Fatal(fmt.Errorf("error initializing dependencies: %w", err))
	}

	cfg := container.Config
	logger := container.Logger

	logger.Info("Starting recordstore")

	router := container.SetupRouter()

	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	go func() {
		logger.Info("HTTP server starting",
			zap.String("address", srv.Addr),
			zap.String("mode", cfg.Server.RunMode),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed to start", zap.Error(err))
		}
	}()

	lis, err := net.Listen("tcp", cfg.GetGrpcAddress())
	if err != nil {
		logger.Fatal("failed to listen for gRPC", zap.String("address", cfg.GetGrpcAddress()), zap.Error(err))
	}

	go func() {
		logger.Info("gRPC server starting", zap.String("address", lis.Addr().String()))
		if err := container.GrpcServer.Serve(lis); err != nil {
			logger.Error("gRPC server stopped", zap.Error(err))
		}
	}()

	logger.Info("Server started successfully",
		zap.String("http", srv.Addr),
		zap.String("grpc", lis.Addr().String()),
		zap.String("domain", cfg.Server.Domain),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("Shutting down server...", zap.String("signal", sig.String()))

	timeout := cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("HTTP server forced to shutdown", zap.Error(err))
	}

	stopped := make(chan struct{})
	go func() {
		container.GrpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-ctx.Done():
		logger.Warn("gRPC graceful stop timed out, forcing")
		container.GrpcServer.Stop()
	}

	if err := container.Shutdown(); err != nil {
		logger.Error("failed to shut down dependencies", zap.Error(err))
	}

	logger.Info("Server exited successfully")
}
