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
	"errors"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// RegisterHTTP registers the HTTP handler for both http and https.
func RegisterHTTP(s Schemes) {
	s.Register("http", NewHTTPHandler)
	s.Register("https", NewHTTPHandler)
}

// HTTPHandler performs a single GET request over a fresh connection, wrapped
// in TLS for https, and buffers the whole response.
type HTTPHandler struct {
	scheme string
	host   string
	port   int
	path   string

	userAgent string
	timeout   time.Duration
	tlsConfig *tls.Config
	dialer    Dialer
	logger    *zap.Logger
}

// NewHTTPHandler creates a handler for an http:// or https:// URL.
func NewHTTPHandler(r *Registry, url string) (Handler, error) {
	scheme, host, port, path, err := parseHTTPURL(url)
	if err != nil {
		return nil, err
	}
	return &HTTPHandler{
		scheme:    scheme,
		host:      host,
		port:      port,
		path:      path,
		userAgent: r.userAgent,
		timeout:   r.timeout,
		tlsConfig: r.tlsConfig,
		dialer:    r.dialer,
		logger:    r.logger,
	}, nil
}

// parseHTTPURL splits scheme://host[:port][/path]. The path keeps any query
// or fragment verbatim.
func parseHTTPURL(url string) (scheme, host string, port int, path string, err error) {
	scheme = SchemeOf(url)
	_, rest, ok := strings.Cut(url, "://")
	if !ok {
		return "", "", 0, "", errInvalidURLFn(url, "missing ://")
	}
	authority, p, ok := strings.Cut(rest, "/")
	if ok {
		path = "/" + p
	} else {
		path = "/"
	}
	host, rawPort, ok := strings.Cut(authority, ":")
	switch {
	case ok:
		port, err = strconv.Atoi(rawPort)
		if err != nil || port < 0 || port > 65535 {
			return "", "", 0, "", errInvalidPortFn(rawPort)
		}
	case scheme == "https":
		port = 443
	default:
		port = 80
	}
	if host == "" {
		return "", "", 0, "", errInvalidURLFn(url, "empty host")
	}
	return scheme, host, port, path, nil
}

func (*HTTPHandler) handler() {}

// Kind implements the Handler interface.
func (*HTTPHandler) Kind() HandlerKind { return KindHTTP }

// Addr returns the host:port the handler connects to.
func (h *HTTPHandler) Addr() string {
	return net.JoinHostPort(h.host, strconv.Itoa(h.port))
}

// Fetch implements the Handler interface. Cancelling ctx aborts the request.
func (h *HTTPHandler) Fetch(ctx context.Context) (*Response, error) {
	conn, err := h.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if _, err := io.WriteString(conn, h.request()); err != nil {
		return nil, errTransportFn(h.Addr(), err)
	}

	res, err := h.readResponse(newWireReader(conn))
	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			return nil, err
		}
		return nil, errTransportFn(h.Addr(), err)
	}
	return res, nil
}

// connect dials the server and performs the TLS handshake for https. Every
// subsequent read is bounded by the handler's timeout.
func (h *HTTPHandler) connect(ctx context.Context) (net.Conn, error) {
	addr := h.Addr()
	dialCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	conn, err := h.dialer.DialContext(dialCtx, "tcp", addr)
	if err != nil {
		return nil, errTransportFn(addr, err)
	}
	h.logger.Debug("Connected", zap.String("addr", addr), zap.String("scheme", h.scheme))
	conn = &timeoutConn{Conn: conn, timeout: h.timeout}
	if h.scheme != "https" {
		return conn, nil
	}
	cfg := &tls.Config{}
	if h.tlsConfig != nil {
		cfg = h.tlsConfig.Clone()
	}
	cfg.ServerName = h.host
	tlsConn := tls.Client(conn, cfg)
	if err := tlsConn.HandshakeContext(dialCtx); err != nil {
		_ = conn.Close()
		return nil, errTransportFn(addr, err)
	}
	return tlsConn, nil
}

func (h *HTTPHandler) request() string {
	var b strings.Builder
	b.WriteString("GET " + h.path + " HTTP/1.1\r\n")
	b.WriteString("Host: " + h.host + "\r\n")
	b.WriteString("Connection: close\r\n")
	b.WriteString("User-Agent: " + h.userAgent + "\r\n")
	b.WriteString("\r\n")
	return b.String()
}

func (h *HTTPHandler) readResponse(w *wireReader) (*Response, error) {
	sl, err := w.readStatusLine()
	if err != nil {
		return nil, err
	}
	headers, err := w.readHeaders()
	if err != nil {
		return nil, err
	}
	body, err := h.readBody(w, headers)
	if err != nil {
		return nil, err
	}
	if body == nil {
		body = []byte{}
	}
	return &Response{
		Status:      sl.code,
		Headers:     headers,
		Body:        body,
		ContentType: headers["content-type"],
	}, nil
}

// readBody picks the framing: chunked, then Content-Length, then read until
// the peer closes the connection.
func (h *HTTPHandler) readBody(w *wireReader, headers map[string]string) ([]byte, error) {
	if te, ok := headers["transfer-encoding"]; ok && strings.Contains(strings.ToLower(te), "chunked") {
		h.logger.Debug("Reading chunked body", zap.String("addr", h.Addr()))
		return w.readChunked()
	}
	if cl, ok := headers["content-length"]; ok {
		n, err := strconv.ParseInt(cl, 10, 64)
		if err != nil || n < 0 {
			return nil, newError(ErrInvalidContentLength, strconv.Quote(cl), nil)
		}
		h.logger.Debug("Reading fixed-length body", zap.String("addr", h.Addr()), zap.Int64("length", n))
		body, err := w.readN(n)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, newError(ErrTruncatedBody, cl, err)
			}
			return nil, err
		}
		return body, nil
	}
	h.logger.Debug("Reading body until close", zap.String("addr", h.Addr()))
	return w.readAll()
}

// timeoutConn extends the read deadline before every read, so the timeout
// bounds each read rather than the whole response.
type timeoutConn struct {
	net.Conn
	timeout time.Duration
}

func (c *timeoutConn) Read(p []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Read(p)
}

func (c *timeoutConn) Write(p []byte) (int, error) {
	if err := c.Conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Write(p)
}
