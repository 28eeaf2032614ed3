// Package cmd provides the command-line interface for mdv.
//
// Configuration sources, highest priority first:
//  1. Command-line flags (--port, --host, ...)
//  2. Environment variables with the MDV_ prefix (MDV_SERVER_PORT, ...)
//  3. A configuration file (.mdv.yml in the current directory, or the path
//     given via --config or the MDV_CONFIG_FILE environment variable)
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "mdv",
	Short: "Live markdown preview server with editor synchronization",
	Long: `mdv serves rendered markdown out of registered workspace directories
and keeps connected browsers in sync with your editor.

Editors register a workspace over the HTTP API, then report the active
file as you switch buffers; every open browser tab follows along and
reloads automatically when a markdown file changes on disk.

Quick start:
  mdv serve                       Start the server on 127.0.0.1:3000
  curl -X POST localhost:3000/api/workspace/register \
       -d '{"path":"/path/to/docs"}'`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .mdv.yml, can also use MDV_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig wires up viper: explicit --config wins, then MDV_CONFIG_FILE,
// then .mdv.yml in the current directory. A missing config file is not an
// error; flags and environment variables still apply.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("MDV_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".mdv")
	}

	viper.SetEnvPrefix("MDV")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
