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

package fetch

import (
	"context"
	"crypto/tls"
	"maps"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Constructor creates a handler for a URL. The registry is passed so that
// handlers can read its settings or resolve nested URLs.
type Constructor func(r *Registry, url string) (Handler, error)

// Schemes maps lowercased scheme names to handler constructors. It is only
// used to build a Registry.
type Schemes map[string]Constructor

// Register adds or replaces the constructor for a scheme.
func (s Schemes) Register(scheme string, c Constructor) {
	s[strings.ToLower(scheme)] = c
}

// DefaultSchemes returns the built-in handlers: file, data, http, https and
// view-source.
func DefaultSchemes() Schemes {
	s := Schemes{}
	RegisterFile(s)
	RegisterData(s)
	RegisterHTTP(s)
	RegisterViewSource(s)
	return s
}

// Registry dispatches URLs to handlers by scheme. A Registry is immutable
// once created and safe to share.
type Registry struct {
	schemes Schemes

	userAgent string
	timeout   time.Duration
	tlsConfig *tls.Config
	dialer    Dialer
	wd        string
	logger    *zap.Logger
}

// NewRegistry creates a registry from a copy of the given schemes.
func NewRegistry(s Schemes, opts ...Option) *Registry {
	r := &Registry{schemes: maps.Clone(s)}
	if r.schemes == nil {
		r.schemes = Schemes{}
	}
	for _, opt := range opts {
		opt(r)
	}
	r.applyDefaults()
	return r
}

// NewDefaultRegistry creates a registry with the built-in handlers.
func NewDefaultRegistry(opts ...Option) *Registry {
	return NewRegistry(DefaultSchemes(), opts...)
}

// SchemeOf returns the lowercased part of the URL before the first colon, or
// the whole URL if it has no colon.
func SchemeOf(url string) string {
	scheme, _, _ := strings.Cut(url, ":")
	return strings.ToLower(scheme)
}

// HandlerFor constructs the handler registered for the URL's scheme.
func (r *Registry) HandlerFor(url string) (Handler, error) {
	scheme := SchemeOf(url)
	c, ok := r.schemes[scheme]
	if !ok {
		return nil, errUnknownSchemeFn(scheme)
	}
	h, err := c(r, url)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("Handler selected", zap.String("scheme", scheme), zap.Stringer("kind", h.Kind()))
	return h, nil
}

// Fetch resolves the URL to a handler and fetches it.
func (r *Registry) Fetch(ctx context.Context, url string) (*Response, error) {
	h, err := r.HandlerFor(url)
	if err != nil {
		return nil, err
	}
	return h.Fetch(ctx)
}

// Schemes returns the registered scheme names in sorted order.
func (r *Registry) Schemes() []string {
	return slices.Sorted(maps.Keys(r.schemes))
}
