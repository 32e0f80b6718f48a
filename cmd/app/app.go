package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/DRSN-tech/imgcluster/internal/app"
	config "github.com/DRSN-tech/imgcluster/internal/cfg"
	"github.com/DRSN-tech/imgcluster/pkg/logger"
	"github.com/spf13/cobra"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "imgcluster",
		Short:         "Группировка изображений по визуальному сходству",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (yaml, json, toml, env)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP and gRPC servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(configPath)
		},
	}

	var (
		centroidsPath string
		pushIndex     bool
	)
	clusterCmd := &cobra.Command{
		Use:   "cluster <dir>",
		Short: "Cluster images of a directory and print groups as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cluster(configPath, args[0], centroidsPath, pushIndex)
		},
	}
	clusterCmd.Flags().StringVar(&centroidsPath, "centroids", "", "Write group centroids to this JSON file")
	clusterCmd.Flags().BoolVar(&pushIndex, "push", false, "Push centroids to the configured index")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(app.Version)
		},
	}

	rootCmd.AddCommand(serveCmd, clusterCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, logger.Logger, error) {
	bootstrap := logger.NewSlogLoggerWithWriter(os.Stderr, logger.ParseLevel(os.Getenv("LOG_LEVEL")))

	cfg, err := config.Load(bootstrap, path)
	if err != nil {
		bootstrap.Errorf(err, "failed to load config")
		return nil, nil, err
	}

	return cfg, app.NewLogger(cfg), nil
}

func serve(configPath string) error {
	cfg, log, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	application, err := app.NewApp(cfg, log)
	if err != nil {
		log.Errorf(err, "failed to initialize app")
		return err
	}

	return application.Run()
}

func cluster(configPath, dir, centroidsPath string, push bool) error {
	cfg, log, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	outcome, err := app.RunBatch(ctx, cfg, log, app.BatchOptions{Dir: dir, PushIndex: push})
	if err != nil {
		return err
	}

	if centroidsPath != "" {
		data, err := json.MarshalIndent(outcome.Centroids, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(centroidsPath, data, 0o644); err != nil {
			return fmt.Errorf("writing centroids: %w", err)
		}
	}

	log.Infof("clustered %d images into %d groups (K=%d, skipped %d)",
		outcome.Report.Images, outcome.GroupCount(), outcome.Report.K, len(outcome.Report.Skipped))

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(outcome.Result)
}
