package cmd

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "todoserver",
	Short: "collaborative todo list server",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(viper.GetString("log-level"))
		if err != nil {
			return errors.Wrap(err, "parse log level")
		}
		logrus.SetLevel(level)
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Fatal(err)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.Int("port", 8080, "port the HTTP server listens on")
	flags.Int("proxy-count", 0, "number of proxies positioned in front of the server")
	flags.String("database", "sqlite.db", "path to the SQLite database file")
	flags.String("static-dir", "static", "directory served under /.well-known")
	flags.String("allowed-origin", "*", "origin allowed by the CORS layer")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	viper.BindPFlags(flags)
}
