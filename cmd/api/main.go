package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"campus_hub/internal/config"
	"campus_hub/internal/pkg"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "campus-hub",
		Short:         "campus event management backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		// 不带子命令时直接启动服务
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), configFile)
		},
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default ./config.yaml)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "start the http server",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runServe(cmd.Context(), configFile)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "create tables / indexes",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runMigrate(cmd.Context(), configFile)
			},
		},
		newCreateSuperadminCmd(&configFile),
	)
	return root
}

func newCreateSuperadminCmd(configFile *string) *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "create-superadmin",
		Short: "create a superadmin account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCreateSuperadmin(cmd.Context(), *configFile, name, email, password)
		},
	}
	cmd.Flags().StringVar(&name, "name", "Superadmin", "display name")
	cmd.Flags().StringVar(&email, "email", "", "login email")
	cmd.Flags().StringVar(&password, "password", "", "login password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func loadConfig(configFile string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, err
	}
	log, err := pkg.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func runMigrate(ctx context.Context, configFile string) error {
	cfg, log, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	defer log.Sync()

	st, err := openStorage(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer st.close()
	log.Info("migrate done", zap.String("driver", cfg.Storage.Driver))
	return nil
}

func runCreateSuperadmin(ctx context.Context, configFile, name, email, password string) error {
	cfg, log, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	defer log.Sync()

	st, err := openStorage(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer st.close()

	a, err := newApp(ctx, cfg, log, st)
	if err != nil {
		return err
	}
	defer a.close()

	user, err := a.services.Auth.CreateSuperadmin(ctx, name, email, password)
	if err != nil {
		return err
	}
	log.Info("superadmin created", zap.String("user_id", user.ID), zap.String("email", user.Email))
	return nil
}
