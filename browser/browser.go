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

// Package browser loads a URL through a fetch.Registry and turns the
// response into displayable text.
package browser

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	netURL "net/url"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/unicode"

	"github.com/serigoela/browser/fetch"
	"github.com/serigoela/browser/render"
)

// DefaultPage is the file loaded when no URL is given.
const DefaultPage = "index.html"

// ErrNoDefaultPage is returned by DefaultURL when the directory has no
// DefaultPage.
var ErrNoDefaultPage = errors.New("browser: no " + DefaultPage + " in directory")

// Page is a loaded URL.
type Page struct {
	URL      string
	Response *fetch.Response

	// Text is the body decoded as UTF-8, with markup stripped when Rendered
	// is true.
	Text     string
	Rendered bool
}

type Option func(*Browser)

// WithRaw disables HTML rendering.
func WithRaw() Option {
	return func(b *Browser) {
		b.raw = true
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(b *Browser) {
		b.logger = l
	}
}

// Browser loads pages one at a time.
type Browser struct {
	registry *fetch.Registry
	raw      bool
	logger   *zap.Logger
}

// New creates a browser that fetches through the given registry.
func New(registry *fetch.Registry, opts ...Option) *Browser {
	b := &Browser{registry: registry}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}
	return b
}

// Load fetches the URL and converts the body to text.
func (b *Browser) Load(ctx context.Context, url string) (*Page, error) {
	res, err := b.registry.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	text, err := decodeUTF8(res.Body)
	if err != nil {
		return nil, errDecodeFn(url, err)
	}
	page := &Page{URL: url, Response: res, Text: text}
	if !b.raw && IsHTML(res.ContentType, url) {
		page.Text = render.StripTagsAndUnescape(text)
		page.Rendered = true
	}
	b.logger.Debug("Page loaded",
		zap.String("url", url),
		zap.Int("status", res.Status),
		zap.String("contentType", res.ContentType),
		zap.Bool("rendered", page.Rendered),
	)
	return page, nil
}

// IsHTML reports whether a response should be rendered as HTML, judging by
// its content type or, failing that, by the URL.
func IsHTML(contentType, url string) bool {
	return strings.HasPrefix(strings.ToLower(contentType), "text/html") ||
		strings.HasPrefix(url, "data:text/html") ||
		strings.HasSuffix(url, ".html")
}

// DefaultURL returns the file:// URL of DefaultPage in dir.
func DefaultURL(dir string) (string, error) {
	path, err := filepath.Abs(filepath.Join(dir, DefaultPage))
	if err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNoDefaultPage
		}
		return "", err
	}
	if info.IsDir() {
		return "", ErrNoDefaultPage
	}
	u := netURL.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	if !strings.HasPrefix(u.Path, "/") {
		u.Path = "/" + u.Path
	}
	return u.String(), nil
}

// decodeUTF8 replaces every invalid byte with U+FFFD.
func decodeUTF8(b []byte) (string, error) {
	s, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return "", err
	}
	return string(s), nil
}

func errDecodeFn(url string, err error) error {
	return fmt.Errorf("browser: decode %s: %w", url, err)
}
