// Package main はフォーム収集 API サーバーと保守用コマンドを提供する。
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/formcollector/api/internal/config"
	"github.com/formcollector/api/internal/server"
	"github.com/spf13/cobra"
)

var (
	// configFile は --config フラグで指定する。
	configFile string

	cfg     config.Config
	backend server.Backend
)

func main() {
	if err := execute(rootCmd); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// execute はコマンドの成否に関わらずストアを切断する。
// PersistentPostRunE は RunE が失敗すると呼ばれないため、ここで閉じる。
func execute(cmd *cobra.Command) error {
	runErr := cmd.Execute()
	if err := closeRuntime(); err != nil {
		return errors.Join(runErr, fmt.Errorf("ストアの切断に失敗: %w", err))
	}
	return runErr
}

var rootCmd = &cobra.Command{
	Use:   "formcollector",
	Short: "Form collector API",
	Long: `Form collector serves operator-defined forms to respondents, stores their
submissions and renders aggregated reports as CSV, JSON, PDF, XLSX or PNG.
Running without a subcommand starts the HTTP server.`,
	SilenceUsage:      true,
	PersistentPreRunE: openRuntime,
	RunE:              runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server and the expiry sweeper",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: environment and .env only)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(seedCmd)
}

// openRuntime は設定を読み込み、ストアへ接続する。
func openRuntime(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("設定の読み込みに失敗: %w", err)
	}
	cfg = loaded

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Timeout)
	defer cancel()

	opened, err := server.OpenBackend(ctx, cfg)
	if err != nil {
		return err
	}
	backend = opened
	cfg.ServerLog.WithField("backend", cfg.StoreBackend).Debug("ストアに接続")
	return nil
}

// closeRuntime は開いているストアを一度だけ切断する。
func closeRuntime() error {
	if backend.Close == nil {
		return nil
	}
	closeFn := backend.Close
	backend = server.Backend{}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return closeFn(ctx)
}

func runServe(cmd *cobra.Command, args []string) error {
	app, err := server.New(cfg, backend, server.Options{})
	if err != nil {
		return err
	}
	if err := app.Run(); err != nil {
		return fmt.Errorf("サーバー起動に失敗: %w", err)
	}
	return nil
}
