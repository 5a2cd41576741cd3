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
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilePath(t *testing.T) {
	tc := []struct {
		name    string
		url     string
		want    string
		wantErr ErrorKind
	}{
		{name: "absolute", url: "file:///tmp/a.txt", want: "/tmp/a.txt"},
		{name: "upper-case scheme", url: "FILE:///tmp/a.txt", want: "/tmp/a.txt"},
		{name: "percent-encoded", url: "file:///tmp/with%20space.txt", want: "/tmp/with space.txt"},
		{name: "localhost", url: "file://localhost/tmp/a.txt", want: "/tmp/a.txt"},
		{name: "relative", url: "file://a.txt", want: "a.txt"},
		{name: "drive letter", url: "file:///C:/Users/a.txt", want: "C:/Users/a.txt"},
		{name: "empty", url: "file://", wantErr: ErrInvalidURL},
		{name: "malformed escape kept", url: "file:///tmp/100%.txt", want: "/tmp/100%.txt"},
		{name: "invalid escape kept", url: "file:///tmp/%zz", want: "/tmp/%zz"},
		{name: "missing prefix", url: "file:/tmp/a.txt", wantErr: ErrInvalidURL},
	}
	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, err := filePath(tt.url)
			if tt.wantErr != 0 {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFileHandler(t *testing.T) {
	_, testFilePath, _, _ := runtime.Caller(0)
	testdata := filepath.Join(filepath.Dir(testFilePath), "testdata")

	tc := []struct {
		name     string
		opts     []Option
		url      string
		wantErr  ErrorKind
		wantData []byte
		wantType string
	}{
		{
			name:     "absolute path",
			url:      "file://" + filepath.ToSlash(filepath.Join(testdata, "test.txt")),
			wantData: []byte("test content"),
			wantType: guessContentType("test.txt"),
		},
		{
			name:     "relative to working dir",
			opts:     []Option{WithWorkingDir(testdata)},
			url:      "file://index.html",
			wantData: []byte("<html><body><p>A &amp; B</p></body></html>\n"),
			wantType: "text/html",
		},
		{
			name:     "percent-encoded name",
			opts:     []Option{WithWorkingDir(testdata)},
			url:      "file://with%20space.txt",
			wantData: []byte("spaced"),
			wantType: guessContentType("with space.txt"),
		},
		{
			name:     "no extension",
			opts:     []Option{WithWorkingDir(testdata)},
			url:      "file://noext",
			wantData: []byte("no extension"),
		},
		{
			name:    "not found",
			opts:    []Option{WithWorkingDir(testdata)},
			url:     "file://missing.txt",
			wantErr: ErrNotFound,
		},
		{
			name:    "directory",
			url:     "file://" + filepath.ToSlash(testdata),
			wantErr: ErrRead,
		},
	}
	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			r := NewDefaultRegistry(tt.opts...)
			res, err := r.Fetch(context.Background(), tt.url)
			if tt.wantErr != 0 {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 200, res.Status)
			assert.Empty(t, res.Headers)
			assert.Equal(t, tt.wantData, res.Body)
			assert.Equal(t, tt.wantType, res.ContentType)
		})
	}
}

func TestFileHandlerPermissionDenied(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("file permissions are not enforced")
	}
	path := filepath.Join(t.TempDir(), "secret.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o000))

	_, err := NewDefaultRegistry().Fetch(context.Background(), "file://"+path)
	require.ErrorIs(t, err, ErrRead)
	assert.Contains(t, err.Error(), path)
}

func TestFileHandlerMalformedEscape(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "100%.txt"), []byte("full"), 0o600))

	res, err := NewDefaultRegistry(WithWorkingDir(dir)).Fetch(context.Background(), "file://100%.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("full"), res.Body)
}

func TestGuessContentType(t *testing.T) {
	assert.Equal(t, "text/html", guessContentType("/a/index.html"))
	assert.Equal(t, "image/png", guessContentType("/a/b.png"))
	assert.Equal(t, "", guessContentType("/a/b"))
	assert.Equal(t, "", guessContentType("/a/b.unknown-extension"))
}
