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
	"errors"
	"fmt"
)

// ErrorKind identifies the class of a fetch failure. Every error returned by
// this package carries exactly one kind, which can be tested with errors.Is:
//
//	if errors.Is(err, fetch.ErrNotFound) { ... }
type ErrorKind int

const (
	// ErrUnknownScheme means no handler is registered for the URL's scheme.
	ErrUnknownScheme ErrorKind = iota + 1

	// ErrInvalidURL means the URL is structurally invalid for its scheme.
	ErrInvalidURL

	// ErrMalformedURL means a data URL has no comma separating the
	// metadata from the payload.
	ErrMalformedURL

	// ErrInvalidPort means the authority of an HTTP(S) URL carries a port
	// that is not a number in the 0-65535 range. It also matches
	// ErrInvalidURL.
	ErrInvalidPort

	// ErrNotFound means a local file does not exist.
	ErrNotFound

	// ErrRead means a local file exists but could not be read.
	ErrRead

	// ErrDecode means the payload of a data URL is not valid base64 or
	// percent-encoding.
	ErrDecode

	// ErrTransport means connecting, the TLS handshake, writing the request
	// or reading the response failed, including timeouts.
	ErrTransport

	// ErrMalformedStatusLine means the server sent no status line, or one
	// without a numeric status code.
	ErrMalformedStatusLine

	// ErrInvalidContentLength means the Content-Length header is not a
	// non-negative integer.
	ErrInvalidContentLength

	// ErrTruncatedBody means the peer closed the connection before the
	// number of bytes announced by Content-Length arrived.
	ErrTruncatedBody

	// ErrTruncatedChunkedBody means a chunked body ended before its
	// terminating zero-length chunk.
	ErrTruncatedChunkedBody

	// ErrInvalidChunkSize means a chunk-size line is not hexadecimal.
	ErrInvalidChunkSize

	// ErrNoUnderlyingHandler means the inner URL of a view-source URL could
	// not be resolved to a handler.
	ErrNoUnderlyingHandler
)

var errorKindNames = map[ErrorKind]string{
	ErrUnknownScheme:        "unknown scheme",
	ErrInvalidURL:           "invalid URL",
	ErrMalformedURL:         "malformed URL",
	ErrInvalidPort:          "invalid port",
	ErrNotFound:             "not found",
	ErrRead:                 "read error",
	ErrDecode:               "decode error",
	ErrTransport:            "transport error",
	ErrMalformedStatusLine:  "malformed status line",
	ErrInvalidContentLength: "invalid content length",
	ErrTruncatedBody:        "truncated body",
	ErrTruncatedChunkedBody: "truncated chunked body",
	ErrInvalidChunkSize:     "invalid chunk size",
	ErrNoUnderlyingHandler:  "no underlying handler",
}

// Error implements the error interface.
func (k ErrorKind) Error() string {
	if s, ok := errorKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("unknown error kind %d", int(k))
}

// String implements the fmt.Stringer interface.
func (k ErrorKind) String() string {
	return k.Error()
}

// Error is the single error type returned by handlers and the registry.
type Error struct {
	Kind    ErrorKind
	Subject string // the scheme, path, URL or token the failure is about
	Err     error  // underlying cause, may be nil
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := "fetch: " + e.Kind.Error()
	if e.Subject != "" {
		msg += ": " + e.Subject
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether the error is of the given kind.
func (e *Error) Is(target error) bool {
	k, ok := target.(ErrorKind)
	if !ok {
		return false
	}
	if k == e.Kind {
		return true
	}
	return k == ErrInvalidURL && e.Kind == ErrInvalidPort
}

// KindOf returns the kind of the first *Error in err's chain, or zero if
// there is none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func newError(kind ErrorKind, subject string, err error) error {
	return &Error{Kind: kind, Subject: subject, Err: err}
}

func errUnknownSchemeFn(scheme string) error {
	return newError(ErrUnknownScheme, scheme, nil)
}

func errInvalidURLFn(url string, reason string) error {
	return newError(ErrInvalidURL, url, errors.New(reason))
}

func errInvalidPortFn(port string) error {
	return newError(ErrInvalidPort, port, nil)
}

func errTransportFn(addr string, err error) error {
	return newError(ErrTransport, addr, err)
}
