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

// Package fetch resolves URLs to fully buffered responses.
//
// A Registry maps URL schemes to handler constructors. The built-in handlers
// are:
//
//   - file: reads a local file, e.g. "file:///tmp/index.html"
//   - data: decodes an RFC 2397 data URL, e.g. "data:text/plain;base64,SGVsbG8="
//   - http, https: performs a single GET request over a raw TCP (or TLS)
//     connection and decodes Content-Length, chunked and close-delimited
//     bodies
//   - view-source: fetches the inner URL and forces a text/plain content type
//
// Example:
//
//	r := fetch.NewDefaultRegistry(fetch.WithTimeout(5 * time.Second))
//	res, err := r.Fetch(ctx, "https://example.com/")
//	if err != nil {
//		if errors.Is(err, fetch.ErrUnknownScheme) {
//			...
//		}
//		log.Fatal(err)
//	}
//	fmt.Println(res.Status, res.ContentType, len(res.Body))
//
// Every fetch opens at most one file or connection, which is closed before
// Fetch returns. Nothing is cached, retried or redirected.
package fetch
