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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubHandler struct{ url string }

func (*stubHandler) handler()          {}
func (*stubHandler) Kind() HandlerKind { return KindData }
func (h *stubHandler) Fetch(context.Context) (*Response, error) {
	return newResponse([]byte(h.url), ""), nil
}

func TestSchemeOf(t *testing.T) {
	tc := []struct {
		url  string
		want string
	}{
		{url: "http://example.com", want: "http"},
		{url: "HTTPS://example.com", want: "https"},
		{url: "data:,x", want: "data"},
		{url: "view-source:http://example.com", want: "view-source"},
		{url: "example.com", want: "example.com"},
		{url: "", want: ""},
	}
	for _, tt := range tc {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, SchemeOf(tt.url))
		})
	}
}

func TestSchemesRegister(t *testing.T) {
	first := func(_ *Registry, url string) (Handler, error) { return &stubHandler{url: "first"}, nil }
	second := func(_ *Registry, url string) (Handler, error) { return &stubHandler{url: "second"}, nil }

	s := Schemes{}
	s.Register("FOO", first)
	s.Register("foo", second)
	require.Len(t, s, 1)

	r := NewRegistry(s)
	res, err := r.Fetch(context.Background(), "Foo:bar")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), res.Body)
}

func TestRegistryIsImmutable(t *testing.T) {
	s := Schemes{}
	r := NewRegistry(s)
	s.Register("late", func(*Registry, string) (Handler, error) { return &stubHandler{}, nil })

	_, err := r.HandlerFor("late:x")
	require.ErrorIs(t, err, ErrUnknownScheme)
	assert.Empty(t, r.Schemes())
}

func TestDefaultRegistry(t *testing.T) {
	r := NewDefaultRegistry()
	assert.Equal(t, []string{"data", "file", "http", "https", "view-source"}, r.Schemes())

	tc := []struct {
		url      string
		wantKind HandlerKind
	}{
		{url: "file:///tmp/x", wantKind: KindFile},
		{url: "data:,x", wantKind: KindData},
		{url: "http://example.com", wantKind: KindHTTP},
		{url: "https://example.com", wantKind: KindHTTP},
		{url: "view-source:data:,x", wantKind: KindViewSource},
	}
	for _, tt := range tc {
		t.Run(tt.url, func(t *testing.T) {
			h, err := r.HandlerFor(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, h.Kind())
		})
	}
}

func TestUnknownScheme(t *testing.T) {
	r := NewDefaultRegistry()
	_, err := r.Fetch(context.Background(), "ftp://example.com")
	require.ErrorIs(t, err, ErrUnknownScheme)
	assert.Equal(t, ErrUnknownScheme, KindOf(err))
	assert.Contains(t, err.Error(), "ftp")

	var e *Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "ftp", e.Subject)
}

func TestConstructorErrorsPropagate(t *testing.T) {
	r := NewDefaultRegistry()
	_, err := r.HandlerFor("http://example.com:abc/")
	require.ErrorIs(t, err, ErrInvalidPort)
	require.ErrorIs(t, err, ErrInvalidURL)
}

func TestHandlerKindString(t *testing.T) {
	assert.Equal(t, "file", KindFile.String())
	assert.Equal(t, "data", KindData.String())
	assert.Equal(t, "http", KindHTTP.String())
	assert.Equal(t, "view-source", KindViewSource.String())
	assert.Equal(t, "unknown", HandlerKind(0).String())
}

func TestErrorKind(t *testing.T) {
	err := newError(ErrRead, "/tmp/x", errors.New("boom"))
	assert.Equal(t, "fetch: read error: /tmp/x: boom", err.Error())
	assert.ErrorIs(t, err, ErrRead)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, ErrorKind(0), KindOf(errors.New("plain")))
	assert.Equal(t, "unknown error kind 99", ErrorKind(99).Error())
}
