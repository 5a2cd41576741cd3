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

package browser

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serigoela/browser/fetch"
)

func testdataDir() string {
	_, testFilePath, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(testFilePath), "testdata")
}

func TestIsHTML(t *testing.T) {
	tc := []struct {
		name        string
		contentType string
		url         string
		want        bool
	}{
		{name: "html content type", contentType: "text/html", url: "http://example.com/", want: true},
		{name: "content type with charset", contentType: "TEXT/HTML; charset=utf-8", url: "http://example.com/", want: true},
		{name: "html data URL", url: "data:text/html,<b>x</b>", want: true},
		{name: "html extension", contentType: "application/octet-stream", url: "http://example.com/a.html", want: true},
		{name: "plain text", contentType: "text/plain", url: "http://example.com/a.txt", want: false},
		{name: "no content type", url: "data:,x", want: false},
	}
	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsHTML(tt.contentType, tt.url))
		})
	}
}

func TestLoad(t *testing.T) {
	tc := []struct {
		name         string
		opts         []Option
		url          string
		wantText     string
		wantRendered bool
	}{
		{
			name:         "html data URL is rendered",
			url:          "data:text/html,<p>A%20&amp;%20B</p>",
			wantText:     "A & B",
			wantRendered: true,
		},
		{
			name:     "plain data URL is not rendered",
			url:      "data:,<p>x</p>",
			wantText: "<p>x</p>",
		},
		{
			name:     "view-source is not rendered",
			url:      "view-source:data:text/html,<b>hi</b>",
			wantText: "<b>hi</b>",
		},
		{
			name:     "raw mode",
			opts:     []Option{WithRaw()},
			url:      "data:text/html,<b>hi</b>",
			wantText: "<b>hi</b>",
		},
		{
			name:     "invalid UTF-8 is replaced",
			url:      "data:,a%FFb",
			wantText: "a�b",
		},
		{
			name:         "html file",
			url:          "file://" + filepath.ToSlash(filepath.Join(testdataDir(), "index.html")),
			wantText:     "HiFish & Chips",
			wantRendered: true,
		},
	}
	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			b := New(fetch.NewDefaultRegistry(), tt.opts...)
			page, err := b.Load(context.Background(), tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.url, page.URL)
			assert.Equal(t, tt.wantText, page.Text)
			assert.Equal(t, tt.wantRendered, page.Rendered)
			assert.NotNil(t, page.Response)
		})
	}
}

func TestLoadError(t *testing.T) {
	b := New(fetch.NewDefaultRegistry())
	_, err := b.Load(context.Background(), "ftp://example.com")
	require.ErrorIs(t, err, fetch.ErrUnknownScheme)
}

func TestDefaultURL(t *testing.T) {
	u, err := DefaultURL(testdataDir())
	require.NoError(t, err)
	assert.Contains(t, u, "file:///")
	assert.Contains(t, u, "/testdata/index.html")

	page, err := New(fetch.NewDefaultRegistry()).Load(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, "HiFish & Chips", page.Text)

	_, err = DefaultURL(filepath.Join(testdataDir(), "empty"))
	require.ErrorIs(t, err, ErrNoDefaultPage)
}
