/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/suparena/storagekit"
	_ "github.com/suparena/storagekit/datastore/azureblob"
	_ "github.com/suparena/storagekit/datastore/azurequeue"
	_ "github.com/suparena/storagekit/datastore/azuretable"
	_ "github.com/suparena/storagekit/datastore/ddb"
	_ "github.com/suparena/storagekit/datastore/gcppubsub"
	_ "github.com/suparena/storagekit/datastore/redisqueue"
	_ "github.com/suparena/storagekit/datastore/s3blob"
	_ "github.com/suparena/storagekit/datastore/sqsqueue"
	"github.com/suparena/storagekit/storagemodels"
)

type globalOptions struct {
	configPath string
	envFiles   []string
	timeout    time.Duration
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:           "storagectl",
		Short:         "storagekit CLI tool",
		Long:          `storagectl reads and writes tables, queues, blobs and topics configured in a storagekit YAML file.`,
		Version:       storagekit.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "storagekit.yaml", "storagekit configuration file")
	flags.StringSliceVar(&opts.envFiles, "env-file", nil, ".env files consulted before the process environment")
	flags.DurationVar(&opts.timeout, "timeout", time.Minute, "overall deadline of the command")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output to stderr")

	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(tableCmd(opts))
	rootCmd.AddCommand(queueCmd(opts))
	rootCmd.AddCommand(blobCmd(opts))
	rootCmd.AddCommand(topicCmd(opts))

	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			info := storagekit.GetVersionInfo()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "storagectl version %s\n", info.Version)
			fmt.Fprintf(out, "Git commit: %s\n", info.GitCommit)
			fmt.Fprintf(out, "Build date: %s\n", info.BuildDate)
			fmt.Fprintf(out, "Go version: %s\n", info.GoVersion)
		},
	}
}

// connect loads the configuration and builds a client bound to a context
// carrying the command deadline. The caller must call the returned cancel.
func (o *globalOptions) connect(cmd *cobra.Command) (context.Context, context.CancelFunc, *storagekit.Client, error) {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := storagekit.LoadConfig(o.configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	cfg.EnvFiles = append(cfg.EnvFiles, o.envFiles...)

	ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
	client, err := storagekit.New(ctx, *cfg, storagemodels.WithLogger(logger))
	if err != nil {
		cancel()
		return nil, nil, nil, err
	}
	return ctx, cancel, client, nil
}
