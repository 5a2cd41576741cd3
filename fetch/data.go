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
	"encoding/base64"
	netURL "net/url"
	"strings"
)

const (
	dataURLPrefix = "data:"
	base64Marker  = ";base64"
)

// RegisterData registers the data handler.
func RegisterData(s Schemes) {
	s.Register("data", NewDataHandler)
}

// DataHandler decodes RFC 2397 data URLs of the form
// data:[<mediatype>][;base64],<data>.
type DataHandler struct {
	url string
}

// NewDataHandler creates a handler for a data: URL. The URL is only parsed
// by Fetch.
func NewDataHandler(_ *Registry, url string) (Handler, error) {
	return &DataHandler{url: url}, nil
}

func (*DataHandler) handler() {}

// Kind implements the Handler interface.
func (*DataHandler) Kind() HandlerKind { return KindData }

// Fetch implements the Handler interface.
func (h *DataHandler) Fetch(_ context.Context) (*Response, error) {
	if len(h.url) < len(dataURLPrefix) || !strings.EqualFold(h.url[:len(dataURLPrefix)], dataURLPrefix) {
		return nil, errInvalidURLFn(h.url, "missing data: prefix")
	}
	meta, payload, ok := strings.Cut(h.url[len(dataURLPrefix):], ",")
	if !ok {
		return nil, newError(ErrMalformedURL, h.url, nil)
	}
	contentType := meta
	isBase64 := strings.Contains(meta, base64Marker)
	if isBase64 {
		contentType = strings.ReplaceAll(meta, base64Marker, "")
	}
	var (
		body []byte
		err  error
	)
	if isBase64 {
		body, err = base64.StdEncoding.DecodeString(payload)
	} else {
		var s string
		s, err = netURL.PathUnescape(payload)
		body = []byte(s)
	}
	if err != nil {
		return nil, newError(ErrDecode, h.url, err)
	}
	return newResponse(body, contentType), nil
}
