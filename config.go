package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jcorbin/gogpm/internal/logio"
)

// config collects settings from flags, GPM_* environment variables, and
// the optional config file, in that order of precedence.
type config struct {
	MemLimit  int
	Trace     bool
	Timeout   time.Duration
	Monitor   string
	ItemWidth int
	Dump      bool
}

var cfgFile string

func bindConfigFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.gpm.yaml)")
	flags.Int("mem", defaultMemLimit, "memory capacity in cells")
	flags.Bool("trace", false, "enable trace logging")
	flags.Duration("timeout", 0, "specify a time limit")
	flags.String("monitor", "stdout", `where monitor diagnostics go: "stdout" or "stderr"`)
	flags.Int("item-width", defaultItemWidth, "truncate items printed by the monitor; 0 means no limit")
	flags.Bool("dump", false, "dump machine state after an error")
	for _, name := range []string{"mem", "trace", "timeout", "monitor", "item-width", "dump"} {
		viper.BindPFlag(name, flags.Lookup(name))
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
		viper.SetConfigName(".gpm")
	}

	viper.SetEnvPrefix("gpm")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		logger.Printf("INFO", "using config file %v", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		logger.Errorf("unable to read config: %v", err)
	}
}

func loadConfig(v *viper.Viper) (cfg config, err error) {
	cfg.MemLimit = v.GetInt("mem")
	cfg.Trace = v.GetBool("trace")
	cfg.Timeout = v.GetDuration("timeout")
	cfg.Monitor = v.GetString("monitor")
	cfg.ItemWidth = v.GetInt("item-width")
	cfg.Dump = v.GetBool("dump")

	switch cfg.Monitor {
	case "", "stdout", "stderr":
	default:
		return cfg, fmt.Errorf("invalid monitor stream %q", cfg.Monitor)
	}
	if cfg.MemLimit < 0 {
		return cfg, fmt.Errorf("invalid memory capacity %v", cfg.MemLimit)
	}
	if cfg.ItemWidth < 0 {
		return cfg, fmt.Errorf("invalid item width %v", cfg.ItemWidth)
	}
	return cfg, nil
}

func (cfg config) options(stdout, stderr io.Writer, log *logio.Logger) []VMOption {
	opts := []VMOption{
		WithOutput(stdout),
		WithMemLimit(cfg.MemLimit),
		WithItemWidth(cfg.ItemWidth),
	}
	if cfg.Monitor == "stderr" {
		opts = append(opts, WithMonitor(stderr))
	}
	if cfg.Trace {
		opts = append(opts, WithLogf(log.Leveledf("TRACE")))
	}
	return opts
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".gpm_history")
}
