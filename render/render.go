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

// Package render turns HTML into plain text by dropping markup and decoding
// character references. It does not build a document tree.
package render

import (
	"strings"

	"golang.org/x/net/html"
)

// UnescapeEntities decodes named and numeric character references such as
// "&amp;", "&#65;" and "&#x41;".
func UnescapeEntities(s string) string {
	return html.UnescapeString(s)
}

// StripTagsAndUnescape removes everything between a "<" and the next ">" and
// decodes character references outside of tags. A reference extends from
// "&" to the next ";"; an "&" with no ";" after it is kept as it is.
func StripTagsAndUnescape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inTag := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '<':
			inTag = true
		case inTag:
			if c == '>' {
				inTag = false
			}
		case c == '&':
			end := strings.IndexByte(s[i+1:], ';')
			if end < 0 {
				b.WriteByte(c)
				continue
			}
			end += i + 1
			b.WriteString(UnescapeEntities(s[i : end+1]))
			i = end
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
