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
	"io"
	"io/fs"
	"mime"
	netURL "net/url"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const fileURLPrefix = "file://"

// RegisterFile registers the file handler.
func RegisterFile(s Schemes) {
	s.Register("file", NewFileHandler)
}

// FileHandler reads a local file named by a file:// URL.
type FileHandler struct {
	path   string
	logger *zap.Logger
}

// NewFileHandler creates a handler for a file:// URL. Relative paths are
// resolved against the registry's working directory.
func NewFileHandler(r *Registry, url string) (Handler, error) {
	path, err := filePath(url)
	if err != nil {
		return nil, err
	}
	if !filepath.IsAbs(path) && r.wd != "" {
		path = filepath.Join(r.wd, path)
	}
	return &FileHandler{path: path, logger: r.logger}, nil
}

func (*FileHandler) handler() {}

// Kind implements the Handler interface.
func (*FileHandler) Kind() HandlerKind { return KindFile }

// Path returns the local path the handler reads.
func (h *FileHandler) Path() string { return h.path }

// Fetch implements the Handler interface.
func (h *FileHandler) Fetch(_ context.Context) (*Response, error) {
	f, err := os.Open(h.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, newError(ErrNotFound, h.path, nil)
		}
		return nil, newError(ErrRead, h.path, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, newError(ErrRead, h.path, err)
	}
	h.logger.Debug("File read", zap.String("path", h.path), zap.Int("bytes", len(data)))
	return newResponse(data, guessContentType(h.path)), nil
}

// filePath converts a file:// URL to a local path.
func filePath(url string) (string, error) {
	if len(url) < len(fileURLPrefix) || !strings.EqualFold(url[:len(fileURLPrefix)], fileURLPrefix) {
		return "", errInvalidURLFn(url, "missing file:// prefix")
	}
	path := url[len(fileURLPrefix):]
	if rest, ok := strings.CutPrefix(path, "localhost/"); ok {
		path = "/" + rest
	}
	if isDrivePath(path) {
		path = path[1:]
	}
	// Malformed escapes are kept verbatim, so "100%.txt" names a real file.
	if unescaped, err := netURL.PathUnescape(path); err == nil {
		path = unescaped
	}
	if path == "" {
		return "", errInvalidURLFn(url, "empty file path")
	}
	return path, nil
}

// isDrivePath reports whether p looks like "/C:...".
func isDrivePath(p string) bool {
	if len(p) < 3 || p[0] != '/' || p[2] != ':' {
		return false
	}
	c := p[1]
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// guessContentType returns the media type registered for the file extension
// without parameters, or an empty string.
func guessContentType(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return ""
	}
	t := mime.TypeByExtension(ext)
	if t == "" {
		return ""
	}
	if mt, _, err := mime.ParseMediaType(t); err == nil {
		return mt
	}
	return t
}
