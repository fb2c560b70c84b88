package cmd

import (
	"fmt"
	"os"

	"github.com/smartmilk/smart-milk/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configFile string
	v          = viper.New()
)

var rootCmd = &cobra.Command{
	Use:           "smartmilk",
	Short:         "Smart Milk user service and dashboard",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a config file (yaml, json or toml)")
	rootCmd.PersistentFlags().String("db-driver", "", "database driver: postgres or sqlite")
	rootCmd.PersistentFlags().String("db-url", "", "database URL or sqlite file path")
	rootCmd.PersistentFlags().String("log-mode", "", "log mode: development or release")

	mustBind("database.driver", rootCmd.PersistentFlags().Lookup("db-driver"))
	mustBind("database.url", rootCmd.PersistentFlags().Lookup("db-url"))
	mustBind("log.mode", rootCmd.PersistentFlags().Lookup("log-mode"))
}

func loadConfig() (config.Config, error) {
	return config.Load(v, configFile)
}
