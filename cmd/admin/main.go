package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"powerfolio/internal/app"
	"powerfolio/internal/core/config"
	"powerfolio/internal/core/logger"
	"powerfolio/internal/core/server"
)

func main() {
	_ = godotenv.Load()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	// 每个子命令共用的启动流程
	boot := func(migrate bool) (*app.App, *zap.Logger, func(), error) {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return nil, nil, nil, err
		}
		log, cleanup := logger.New(cfg.Log)
		a, err := app.New(cfg, log, migrate)
		if err != nil {
			cleanup()
			return nil, nil, nil, err
		}
		return a, log, func() { a.Close(); cleanup() }, nil
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the admin API server (/admin/v1)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, log, done, err := boot(false)
			if err != nil {
				return err
			}
			defer done()
			return runServer(cmd.Context(), a, log)
		},
	}

	promote := &cobra.Command{
		Use:   "promote <email>",
		Short: "Grant the admin role to an existing user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, done, err := boot(false)
			if err != nil {
				return err
			}
			defer done()
			u, err := a.UserSvc.Promote(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %s (%s) is now admin\n", u.Email, u.ID)
			return nil
		},
	}

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, _, done, err := boot(true)
			if err != nil {
				return err
			}
			done()
			fmt.Fprintln(cmd.OutOrStdout(), "migration complete")
			return nil
		},
	}

	root := &cobra.Command{
		Use:          "admin",
		Short:        "PowerFolio admin server and operator commands",
		SilenceUsage: true,
		// 不带子命令时等同 serve
		RunE: serve.RunE,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default $CONFIG_PATH or "+config.DefaultPath+")")
	root.AddCommand(serve, promote, migrate)
	return root
}

func runServer(parent context.Context, a *app.App, log *zap.Logger) error {
	if parent == nil {
		parent = context.Background()
	}
	h := a.Cfg.App.HTTP
	ad := a.Cfg.App.Admin
	addr := server.Addr(ad.Host, ad.Port)
	srv := server.BuildServer(
		addr, a.AdminEngine(),
		time.Duration(h.ReadTimeoutSec)*time.Second,
		time.Duration(h.WriteTimeoutSec)*time.Second,
		time.Duration(h.IdleTimeoutSec)*time.Second,
	)

	baseURL := server.HumanURL(ad.Host, ad.Port)
	log.Info("admin api starting",
		zap.String("addr", addr),
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
		zap.String("admin_v1", baseURL+"/admin/v1"),
	)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := server.Serve(ctx, srv, log, 10*time.Second); err != nil {
		log.Error("admin api FAILED", zap.Error(err))
		return err
	}
	log.Info("admin api stopped gracefully")
	return nil
}
