package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/talkincode/storefront/config"
	"github.com/talkincode/storefront/internal/adminapi"
	"github.com/talkincode/storefront/internal/app"
	"github.com/talkincode/storefront/internal/storeapi"
	"github.com/talkincode/storefront/internal/webserver"
	"go.uber.org/zap"
)

const (
	Version   = "1.0.0"
	BuildTime = "dev"
	appName   = "storefront"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Storefront API server",
		Long: `Storefront serves the shop catalog, carts, checkout and order tracking
over a JSON API, plus the admin console endpoints.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath)
		},
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (YAML)")

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the API server (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := initApp(configPath)
			if err != nil {
				return err
			}
			defer a.Release()
			return a.MigrateDB(true)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "initdb",
		Short: "Drop all tables, recreate them and reseed the admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := initApp(configPath)
			if err != nil {
				return err
			}
			defer a.Release()
			a.InitDb()
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})
	return cmd
}

func initApp(configPath string) (*app.Application, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	a := app.NewApplication(cfg)
	if err := a.Init(cfg); err != nil {
		return nil, err
	}
	return a, nil
}

func serve(configPath string) error {
	a, err := initApp(configPath)
	if err != nil {
		return err
	}
	defer a.Release()

	storeapi.Init()
	adminapi.Init()
	srv := webserver.NewServer(a)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "web server")
		}
		return nil
	case sig := <-sigCh:
		zap.S().Infof("Received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zap.S().Errorf("web server shutdown: %v", err)
	}
	a.Notifications().Wait()
	return nil
}
