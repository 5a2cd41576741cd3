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
	"maps"
	"strings"
)

const viewSourcePrefix = "view-source:"

// RegisterViewSource registers the view-source handler.
func RegisterViewSource(s Schemes) {
	s.Register("view-source", NewViewSourceHandler)
}

// ViewSourceHandler wraps the handler of an inner URL and marks its response
// as plain text, so that callers show the source instead of rendering it.
type ViewSourceHandler struct {
	inner Handler
}

// NewViewSourceHandler creates a handler for view-source:<url>. The inner
// URL is resolved through the same registry.
func NewViewSourceHandler(r *Registry, url string) (Handler, error) {
	inner, ok := strings.CutPrefix(url, viewSourcePrefix)
	if !ok {
		return nil, errInvalidURLFn(url, "missing view-source: prefix")
	}
	h, err := r.HandlerFor(inner)
	if err != nil {
		return nil, newError(ErrNoUnderlyingHandler, inner, err)
	}
	return &ViewSourceHandler{inner: h}, nil
}

func (*ViewSourceHandler) handler() {}

// Kind implements the Handler interface.
func (*ViewSourceHandler) Kind() HandlerKind { return KindViewSource }

// Inner returns the wrapped handler.
func (h *ViewSourceHandler) Inner() Handler { return h.inner }

// Fetch implements the Handler interface.
func (h *ViewSourceHandler) Fetch(ctx context.Context) (*Response, error) {
	res, err := h.inner.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	body := res.Body
	if body == nil {
		body = []byte{}
	}
	return &Response{
		Status:      res.Status,
		Headers:     maps.Clone(res.Headers),
		Body:        body,
		ContentType: SourceContentType,
	}, nil
}
