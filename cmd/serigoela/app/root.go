// Copyright (C) 2021-2025 Chronicle Labs, Inc.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package app implements the serigoela commands.
package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/serigoela/browser/browser"
	"github.com/serigoela/browser/config"
	"github.com/serigoela/browser/fetch"
)

// EnvPrefix is the prefix of environment variables that override flags,
// e.g. SERIGOELA_LOG_LEVEL.
const EnvPrefix = "SERIGOELA"

// NewRootCmd creates the root command. Every call returns an independent
// command tree with its own flag bindings.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "serigoela [url]",
		Short: "Fetch a URL and print it as text",
		Long: `Fetch a file://, data:, http://, https:// or view-source: URL and print
its body. HTML pages are printed with tags removed and entities decoded.

Without a URL, index.html in the current directory is opened.`,
		Args:              cobra.MaximumNArgs(1),
		SilenceUsage:      true,
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd, v, args)
		},
	}

	pflags := cmd.PersistentFlags()
	pflags.String("config", "", "Path to an HCL configuration file")
	pflags.String("log-level", "info", "Log level (debug, info, warn, error)")
	pflags.Duration("timeout", 0, "Network timeout, overrides the configuration file")
	cmd.Flags().Bool("raw", false, "Print HTML without rendering it")

	cobra.CheckErr(v.BindPFlags(pflags))
	cobra.CheckErr(v.BindPFlags(cmd.Flags()))

	cmd.AddCommand(newSchemesCmd(v))
	return cmd
}

func runLoad(cmd *cobra.Command, v *viper.Viper, args []string) error {
	logger, err := newLogger(v.GetString("log-level"), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	registry, bopts, err := setup(v, logger)
	if err != nil {
		return err
	}

	var url string
	if len(args) > 0 {
		url = args[0]
	} else {
		url, err = browser.DefaultURL(".")
		if errors.Is(err, browser.ErrNoDefaultPage) {
			return fmt.Errorf("no URL given and %w", errNoDefaultPageFn())
		}
		if err != nil {
			return err
		}
	}

	page, err := browser.New(registry, bopts...).Load(cmd.Context(), url)
	if err != nil {
		logger.Debug("Load failed", zap.String("url", url), zap.Error(err))
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), page.Text)
	return err
}

// setup builds the registry and browser options from the configuration
// file and flags. Flags take precedence over the file.
func setup(v *viper.Viper, logger *zap.Logger) (*fetch.Registry, []browser.Option, error) {
	cfg := &config.Config{}
	if path := v.GetString("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, nil, err
		}
		logger.Debug("Configuration loaded", zap.String("path", path))
	}

	fopts, err := cfg.FetchOptions()
	if err != nil {
		return nil, nil, err
	}
	if t := v.GetDuration("timeout"); t > 0 {
		fopts = append(fopts, fetch.WithTimeout(t))
	}
	fopts = append(fopts, fetch.WithLogger(logger))

	bopts := cfg.BrowserOptions()
	if v.GetBool("raw") {
		bopts = append(bopts, browser.WithRaw())
	}
	bopts = append(bopts, browser.WithLogger(logger))

	return fetch.NewDefaultRegistry(fopts...), bopts, nil
}

func errNoDefaultPageFn() error {
	return fmt.Errorf("current directory has no %s", browser.DefaultPage)
}
