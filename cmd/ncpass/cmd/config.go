package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmcleod/ncpass/autofill"
	"github.com/jmcleod/ncpass/score"
)

const (
	appName    = "ncpass"
	envPrefix  = "NCPASS"
	configName = "config"
	configType = "toml"

	keyServer    = "server"
	keyUser      = "user"
	keyPassword  = "password"
	keyDataDir   = "data_dir"
	keyPenalty   = "match.penalty"
	keyThreshold = "match.threshold"
	keyLimit     = "match.limit"
	keyPort      = "api.port"
	keyToken     = "api.token"

	defaultPort    = 8477
	configFileMode = 0o600
	configDirMode  = 0o700
)

type config struct {
	Server   string      `mapstructure:"server" toml:"server"`
	User     string      `mapstructure:"user" toml:"user"`
	Password string      `mapstructure:"password" toml:"password,omitempty"`
	DataDir  string      `mapstructure:"data_dir" toml:"data_dir"`
	Match    matchConfig `mapstructure:"match" toml:"match"`
	API      apiConfig   `mapstructure:"api" toml:"api"`
}

type matchConfig struct {
	Penalty   float64 `mapstructure:"penalty" toml:"penalty"`
	Threshold float64 `mapstructure:"threshold" toml:"threshold"`
	Limit     int     `mapstructure:"limit" toml:"limit"`
}

type apiConfig struct {
	Port  int    `mapstructure:"port" toml:"port"`
	Token string `mapstructure:"token" toml:"token,omitempty"`
}

func defaultConfigDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, appName)
}

func defaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "data")
	}
	return filepath.Join(home, ".local", "share", appName)
}

// newViper builds the layered configuration: flags over NCPASS_* environment
// over the config file over defaults. A missing config file is not an error.
func newViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType(configType)
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(defaultConfigDir())
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(keyServer, "")
	v.SetDefault(keyUser, "")
	v.SetDefault(keyPassword, "")
	v.SetDefault(keyDataDir, defaultDataDir())
	v.SetDefault(keyPenalty, score.DefaultPenalty)
	v.SetDefault(keyThreshold, autofill.DefaultThreshold)
	v.SetDefault(keyLimit, autofill.DefaultLimit)
	v.SetDefault(keyPort, defaultPort)
	v.SetDefault(keyToken, "")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	return v, nil
}

func loadConfig(v *viper.Viper) (config, error) {
	var cfg config
	if err := v.Unmarshal(&cfg); err != nil {
		return config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func (c config) requireAccount() error {
	var missing []string
	if c.Server == "" {
		missing = append(missing, keyServer)
	}
	if c.User == "" {
		missing = append(missing, keyUser)
	}
	if c.Password == "" {
		missing = append(missing, keyPassword)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing %s in configuration (set them in the config file or as %s_* variables)",
			strings.Join(missing, ", "), envPrefix)
	}
	return nil
}

func (c config) autofillOptions() []autofill.Option {
	return []autofill.Option{
		autofill.WithPenalty(c.Match.Penalty),
		autofill.WithThreshold(c.Match.Threshold),
		autofill.WithLimit(c.Match.Limit),
	}
}

func newConfigCmd(a *app) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	configCmd.AddCommand(newConfigInitCmd(a), newConfigShowCmd(a))
	return configCmd
}

func newConfigInitCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := a.configPath()
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			starter := a.cfg
			starter.Password = ""
			starter.API.Token = ""
			if starter.Server == "" {
				starter.Server = "https://cloud.example.com"
			}
			if err := writeConfigFile(path, starter); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return err
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func newConfigShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration (secrets redacted)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			shown := a.cfg
			if shown.Password != "" {
				shown.Password = "<redacted>"
			}
			if shown.API.Token != "" {
				shown.API.Token = "<redacted>"
			}
			data, err := toml.Marshal(shown)
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func writeConfigFile(path string, cfg config) error {
	if err := os.MkdirAll(filepath.Dir(path), configDirMode); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, configFileMode); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
