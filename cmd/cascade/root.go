package main

import (
	"fmt"
	"os"

	"github.com/aretw0/cascade/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cascade",
	Short: "Cascade runs a DAG of generation steps over input artifacts",
	Long: `Cascade walks a flow of named steps for every file in a repository folder.
Each step renders a prompt from the input and the outputs of its upstream steps,
asks a provider for text and hands the result to its downstream steps.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("dir", ".", "Directory holding default_config, agent_config and flow")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text, json)")
	rootCmd.PersistentFlags().String("redis", "", "Redis address for run records and output locks")
	rootCmd.PersistentFlags().String("redis-password", "", "Redis password")
	rootCmd.PersistentFlags().Int("redis-db", 0, "Redis database")
}

// options reads the persistent flags.
func options(cmd *cobra.Command) cli.Options {
	flags := cmd.Flags()
	dir, _ := flags.GetString("dir")
	debug, _ := flags.GetBool("debug")
	level, _ := flags.GetString("log-level")
	format, _ := flags.GetString("log-format")
	redisAddr, _ := flags.GetString("redis")
	redisPassword, _ := flags.GetString("redis-password")
	redisDB, _ := flags.GetInt("redis-db")

	if redisPassword == "" {
		redisPassword = os.Getenv("REDIS_PASSWORD")
	}

	return cli.Options{
		Dir:           dir,
		Debug:         debug,
		LogLevel:      level,
		LogFormat:     format,
		RedisAddr:     redisAddr,
		RedisPassword: redisPassword,
		RedisDB:       redisDB,
	}
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
