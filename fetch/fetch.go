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
	"net"
	"os"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultUserAgent is the product string sent with every HTTP request
	// unless WithUserAgent overrides it.
	DefaultUserAgent = "Serigoela"

	// DefaultTimeout bounds connecting, the TLS handshake and every read
	// of an HTTP(S) fetch.
	DefaultTimeout = 10 * time.Second

	// SourceContentType is the content type forced onto view-source
	// responses.
	SourceContentType = "text/plain"
)

// Response is the normalized result of a fetch. The body is always complete
// when a handler returns it.
type Response struct {
	Status int

	// Headers maps lowercased header names to their trimmed values. When a
	// header is repeated, the last occurrence wins.
	Headers map[string]string

	Body []byte

	// ContentType is empty when the content type is unknown.
	ContentType string
}

func newResponse(body []byte, contentType string) *Response {
	return &Response{
		Status:      200,
		Headers:     map[string]string{},
		Body:        body,
		ContentType: contentType,
	}
}

// HandlerKind enumerates the handler variants.
type HandlerKind int

const (
	KindFile HandlerKind = iota + 1
	KindData
	KindHTTP
	KindViewSource
)

// String implements the fmt.Stringer interface.
func (k HandlerKind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindData:
		return "data"
	case KindHTTP:
		return "http"
	case KindViewSource:
		return "view-source"
	}
	return "unknown"
}

// Handler fetches a single URL. Handlers are short-lived: one is constructed
// per fetch by the Registry.
//
// The set of handlers is closed; only the variants listed by HandlerKind
// implement it.
type Handler interface {
	Kind() HandlerKind
	Fetch(ctx context.Context) (*Response, error)

	handler()
}

// Dialer opens the TCP connection used by HTTP(S) fetches. *net.Dialer
// implements it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

type Option func(*Registry)

// WithUserAgent sets the User-Agent header sent with HTTP(S) requests.
func WithUserAgent(ua string) Option {
	return func(r *Registry) {
		r.userAgent = ua
	}
}

// WithTimeout sets the connect and read timeout of HTTP(S) fetches.
func WithTimeout(d time.Duration) Option {
	return func(r *Registry) {
		r.timeout = d
	}
}

// WithTLSConfig sets the TLS configuration used for https. ServerName is
// always overwritten with the URL's host. By default the system roots are
// used.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(r *Registry) {
		r.tlsConfig = cfg
	}
}

// WithDialer sets the dialer used to open HTTP(S) connections.
func WithDialer(d Dialer) Option {
	return func(r *Registry) {
		r.dialer = d
	}
}

// WithWorkingDir sets the directory that relative file paths are resolved
// against. The process working directory is used by default.
func WithWorkingDir(wd string) Option {
	return func(r *Registry) {
		r.wd = wd
	}
}

// WithLogger sets the logger. Nothing is logged by default.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

func (r *Registry) applyDefaults() {
	if r.userAgent == "" {
		r.userAgent = DefaultUserAgent
	}
	if r.timeout <= 0 {
		r.timeout = DefaultTimeout
	}
	if r.dialer == nil {
		r.dialer = &net.Dialer{Timeout: r.timeout}
	}
	if r.wd == "" {
		if wd, err := os.Getwd(); err == nil {
			r.wd = wd
		}
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
}
