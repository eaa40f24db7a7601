// Package cmd holds the subcommands of the portfolio binary.
package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/xy-planning-network/portfolio/logger"
	"github.com/xy-planning-network/portfolio/postgres"
	"github.com/xy-planning-network/portfolio/ranger"
)

var envFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:           "portfolio",
	Short:         "Serves and manages the portfolio backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if envFile == "" {
			return nil
		}

		if err := godotenv.Overload(envFile); err != nil {
			return fmt.Errorf("could not load %s: %w", envFile, err)
		}

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&envFile, "env-file", "e", "", "file of environment variables to load over the .env file")
}

// Execute runs the root command
func Execute() error {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}

	return nil
}

// cliLogger logs progress to stderr, keeping stdout for command output.
func cliLogger(cfg *ranger.Config) logger.Logger {
	return logger.New(
		logger.WithColor(true),
		logger.WithEnv(cfg.Env.String()),
		logger.WithLevel(cfg.LogLevel),
		logger.WithLogger(log.New(os.Stderr, "", log.LstdFlags)),
	)
}

// connect opens the database named by the environment variables.
func connect() (*ranger.Config, *postgres.DB, error) {
	cfg, err := ranger.NewConfig()
	if err != nil {
		return nil, nil, err
	}

	db, err := postgres.Connect(cfg.DB, cfg.Env)
	if err != nil {
		return nil, nil, err
	}

	return cfg, db, nil
}
