// Copyright (c) 2026 Key Report Team
// Key Report - PGP key expiration reporting
// This source code is licensed under the MIT license found in the LICENSE file.

// Package config resolves runtime settings from defaults, KEY_REPORT_*
// environment variables and command-line flags. There is no config file.
package config

import (
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended (upper-cased, with an underscore) to every key when
// looking it up in the environment, e.g. gpg.binary -> KEY_REPORT_GPG_BINARY.
const EnvPrefix = "key_report"

// Config is the fully resolved configuration for one run.
type Config struct {
	Warning  int          `mapstructure:"warning"`
	Critical int          `mapstructure:"critical"`
	Test     bool         `mapstructure:"test"`
	GPG      GPGConfig    `mapstructure:"gpg"`
	Log      LogConfig    `mapstructure:"log"`
	Drafts   DraftsConfig `mapstructure:"drafts"`
}

// GPGConfig locates the keyring tool and the keyring it should read.
type GPGConfig struct {
	Binary  string        `mapstructure:"binary"`
	Homedir string        `mapstructure:"homedir"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// DraftsConfig enables writing notification drafts when Dir is set.
type DraftsConfig struct {
	Dir      string `mapstructure:"dir"`
	From     string `mapstructure:"from"`
	FromName string `mapstructure:"from_name"`
}

// Defaults returns the default value of every known key. Every key must have
// a default so that viper considers it when unmarshalling env values.
func Defaults() map[string]any {
	return map[string]any{
		"warning":          90,
		"critical":         30,
		"test":             false,
		"gpg.binary":       "gpg",
		"gpg.homedir":      "",
		"gpg.timeout":      30 * time.Second,
		"log.level":        "warn",
		"drafts.dir":       "",
		"drafts.from":      "",
		"drafts.from_name": "",
	}
}

// LoadConfig layers defaults, environment and the flags of cmd (in increasing
// precedence) into a value of type T.
func LoadConfig[T any](cmd *cobra.Command, defaults map[string]any) (T, error) {
	var c T
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cmd != nil {
		if err := v.BindPFlags(cmd.Flags()); err != nil {
			return c, err
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, nil
}

// Load resolves a Config for cmd using Defaults.
func Load(cmd *cobra.Command) (Config, error) {
	c, err := LoadConfig[Config](cmd, Defaults())
	if err != nil {
		return c, err
	}
	if c.GPG.Binary == "" {
		c.GPG.Binary = Defaults()["gpg.binary"].(string)
	}
	return c, nil
}
