package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const envPrefix = "STEALPOOL"

func newRootCommand() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "stealpool",
		Short:         "Run workloads on a work-stealing thread pool",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := newLogger(v.GetString("log-format"), v.GetString("log-level"))
			if err != nil {
				return err
			}
			zap.ReplaceGlobals(logger)
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = zap.L().Sync()
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("log-format", "dev", "log format: dev or prod")
	flags.String("log-level", "info", "minimum log level")
	mustBind(v, flags)

	cmd.AddCommand(newRunCommand(v))
	return cmd
}

// mustBind exposes every flag of fs through v, so STEALPOOL_<FLAG> env
// variables override flag defaults.
func mustBind(v *viper.Viper, fs *pflag.FlagSet) {
	if err := v.BindPFlags(fs); err != nil {
		panic(err)
	}
}

func newLogger(format, level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log-level: %w", err)
	}

	var cfg zap.Config
	switch format {
	case "dev":
		cfg = zap.NewDevelopmentConfig()
	case "prod":
		cfg = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("log-format: unknown format %q", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
