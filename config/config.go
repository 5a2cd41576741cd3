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

// Package config loads the HCL configuration file of the browser.
//
// Example:
//
//	variables {
//	  product = "Serigoela"
//	}
//
//	http {
//	  user_agent   = var.product
//	  version      = "1.0.0"
//	  timeout      = "10s"
//	  ca_cert_file = env("SERIGOELA_CA_FILE", "/etc/serigoela/ca.pem")
//	}
//
//	file {
//	  working_dir = env("HOME")
//	}
//
//	render {
//	  enabled = true
//	}
package config

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"golang.org/x/mod/semver"

	"github.com/serigoela/browser/browser"
	"github.com/serigoela/browser/fetch"
)

// Config is the root of a configuration file. Every block is optional.
type Config struct {
	HTTP   *HTTPConfig   `hcl:"http,block"`
	File   *FileConfig   `hcl:"file,block"`
	Render *RenderConfig `hcl:"render,block"`
}

// HTTPConfig configures HTTP(S) fetches.
type HTTPConfig struct {
	// UserAgent is the product name sent in the User-Agent header.
	UserAgent string `hcl:"user_agent,optional"`

	// Version is a semantic version appended to the user agent as
	// "product/version".
	Version string `hcl:"version,optional"`

	// Timeout is a duration string such as "10s".
	Timeout string `hcl:"timeout,optional"`

	// CACertFile is a PEM file with the certificates trusted for https
	// instead of the system roots.
	CACertFile string `hcl:"ca_cert_file,optional"`
}

// FileConfig configures file:// fetches.
type FileConfig struct {
	WorkingDir string `hcl:"working_dir,optional"`
}

// RenderConfig configures HTML rendering.
type RenderConfig struct {
	Enabled *bool `hcl:"enabled,optional"`
}

// Load reads and parses a configuration file.
func Load(path string) (*Config, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errConfigFn(err)
	}
	return Parse(src, path)
}

// Parse parses the source of a configuration file. The filename is only used
// in diagnostics.
func Parse(src []byte, filename string) (*Config, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, errConfigFn(diags)
	}
	ctx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
		Functions: Functions(),
	}
	body, diags := Variables(ctx, file.Body)
	if diags.HasErrors() {
		return nil, errConfigFn(diags)
	}
	cfg := &Config{}
	if diags := gohcl.DecodeBody(body, ctx, cfg); diags.HasErrors() {
		return nil, errConfigFn(diags)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that HCL cannot check by type alone.
func (c *Config) Validate() error {
	if c.HTTP == nil {
		return nil
	}
	if c.HTTP.Version != "" && !semver.IsValid(canonicalVersion(c.HTTP.Version)) {
		return errConfigFn(fmt.Errorf("http.version: invalid semantic version %q", c.HTTP.Version))
	}
	if c.HTTP.Timeout != "" {
		d, err := time.ParseDuration(c.HTTP.Timeout)
		if err != nil {
			return errConfigFn(fmt.Errorf("http.timeout: %w", err))
		}
		if d <= 0 {
			return errConfigFn(fmt.Errorf("http.timeout: must be positive, got %s", d))
		}
	}
	return nil
}

// UserAgent returns the User-Agent header value, or an empty string to use
// the default.
func (c *Config) UserAgent() string {
	if c.HTTP == nil {
		return ""
	}
	ua := c.HTTP.UserAgent
	if c.HTTP.Version == "" {
		return ua
	}
	if ua == "" {
		ua = fetch.DefaultUserAgent
	}
	return ua + "/" + strings.TrimPrefix(c.HTTP.Version, "v")
}

// FetchOptions converts the configuration to registry options.
func (c *Config) FetchOptions() ([]fetch.Option, error) {
	var opts []fetch.Option
	if ua := c.UserAgent(); ua != "" {
		opts = append(opts, fetch.WithUserAgent(ua))
	}
	if c.HTTP != nil && c.HTTP.Timeout != "" {
		d, err := time.ParseDuration(c.HTTP.Timeout)
		if err != nil {
			return nil, errConfigFn(err)
		}
		opts = append(opts, fetch.WithTimeout(d))
	}
	if c.HTTP != nil && c.HTTP.CACertFile != "" {
		pool, err := loadCertPool(c.HTTP.CACertFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, fetch.WithTLSConfig(&tls.Config{RootCAs: pool}))
	}
	if c.File != nil && c.File.WorkingDir != "" {
		opts = append(opts, fetch.WithWorkingDir(c.File.WorkingDir))
	}
	return opts, nil
}

// BrowserOptions converts the configuration to browser options.
func (c *Config) BrowserOptions() []browser.Option {
	var opts []browser.Option
	if c.Render != nil && c.Render.Enabled != nil && !*c.Render.Enabled {
		opts = append(opts, browser.WithRaw())
	}
	return opts
}

func loadCertPool(path string) (*x509.CertPool, error) {
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, errConfigFn(err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, errConfigFn(fmt.Errorf("%s: %w", path, errNoCertificates))
	}
	return pool, nil
}

func canonicalVersion(v string) string {
	if !strings.HasPrefix(v, "v") {
		return "v" + v
	}
	return v
}

var errNoCertificates = errors.New("no PEM certificates found")

func errConfigFn(err error) error {
	return fmt.Errorf("config: %w", err)
}
