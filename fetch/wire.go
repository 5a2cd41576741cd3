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
	"bufio"
	"bytes"
	"errors"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// wireReader reads an HTTP/1.x response off a byte stream. It is the same
// for plain TCP and TLS connections.
type wireReader struct {
	r *bufio.Reader
}

func newWireReader(r io.Reader) *wireReader {
	return &wireReader{r: bufio.NewReader(r)}
}

// readLine reads up to and including the next "\n" and returns the line
// without its "\r\n" or "\n" terminator. At the end of the stream it returns
// whatever was read together with io.EOF; a line with no data at all is
// reported as ("", io.EOF).
func (w *wireReader) readLine() (string, error) {
	b, err := w.r.ReadBytes('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line := latin1(b)
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	if errors.Is(err, io.EOF) && len(b) == 0 {
		return "", io.EOF
	}
	return line, nil
}

// readN reads exactly n bytes. A stream that ends early yields
// io.ErrUnexpectedEOF, or io.EOF if nothing was read.
//
// The buffer grows with the data actually received, so a bogus length
// announced by the peer does not cause a large allocation up front.
func (w *wireReader) readN(n int64) ([]byte, error) {
	var buf bytes.Buffer
	m, err := io.CopyN(&buf, w.r, n)
	if err != nil {
		if errors.Is(err, io.EOF) && m > 0 {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return buf.Bytes(), nil
}

// readAll reads until the peer closes the stream.
func (w *wireReader) readAll() ([]byte, error) {
	return io.ReadAll(w.r)
}

// skipLineTerminator consumes a "\r\n" or a bare "\n" if one is next.
func (w *wireReader) skipLineTerminator() error {
	for _, c := range []byte{'\r', '\n'} {
		b, err := w.r.Peek(1)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if b[0] == c {
			if _, err := w.r.ReadByte(); err != nil {
				return err
			}
		}
	}
	return nil
}

// statusLine holds the parsed first line of a response.
type statusLine struct {
	proto  string
	code   int
	reason string
}

// readStatusLine reads the status line. It is split on single spaces into at
// most three parts, and the second part must be an integer.
func (w *wireReader) readStatusLine() (statusLine, error) {
	line, err := w.readLine()
	if errors.Is(err, io.EOF) {
		return statusLine{}, newError(ErrMalformedStatusLine, "", errors.New("no response from server"))
	}
	if err != nil {
		return statusLine{}, err
	}
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 2 {
		return statusLine{}, newError(ErrMalformedStatusLine, strconv.Quote(line), nil)
	}
	code, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return statusLine{}, newError(ErrMalformedStatusLine, strconv.Quote(line), err)
	}
	sl := statusLine{proto: parts[0], code: code}
	if len(parts) == 3 {
		sl.reason = parts[2]
	}
	return sl, nil
}

// readHeaders reads header lines until a blank line or the end of the
// stream. Names are trimmed and lowercased, values trimmed. Lines without a
// colon are skipped and repeated names keep the last value.
func (w *wireReader) readHeaders() (map[string]string, error) {
	headers := map[string]string{}
	for {
		line, err := w.readLine()
		if errors.Is(err, io.EOF) {
			return headers, nil
		}
		if err != nil {
			return nil, err
		}
		if line == "" {
			return headers, nil
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		headers[strings.ToLower(strings.TrimSpace(name))] = strings.TrimSpace(value)
	}
}

// readChunked decodes a body sent with the chunked transfer coding. Chunk
// extensions are ignored and trailer fields discarded.
func (w *wireReader) readChunked() ([]byte, error) {
	var body []byte
	for {
		line, err := w.readLine()
		if errors.Is(err, io.EOF) {
			return nil, newError(ErrTruncatedChunkedBody, "", errors.New("missing chunk size"))
		}
		if err != nil {
			return nil, err
		}
		token, _, _ := strings.Cut(strings.TrimSpace(line), ";")
		token = strings.TrimSpace(token)
		if token == "" {
			return nil, newError(ErrTruncatedChunkedBody, "", errors.New("empty chunk size line"))
		}
		size, err := strconv.ParseUint(token, 16, 63)
		if err != nil {
			return nil, newError(ErrInvalidChunkSize, strconv.Quote(token), nil)
		}
		if size == 0 {
			return body, w.skipTrailer()
		}
		chunk, err := w.readN(int64(size))
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil, newError(ErrTruncatedChunkedBody, "", err)
			}
			return nil, err
		}
		body = append(body, chunk...)
		if err := w.skipLineTerminator(); err != nil {
			return nil, err
		}
	}
}

func (w *wireReader) skipTrailer() error {
	for {
		line, err := w.readLine()
		if errors.Is(err, io.EOF) || (err == nil && line == "") {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// latin1 decodes ISO-8859-1 bytes, which every byte sequence is valid in.
func latin1(b []byte) string {
	for _, c := range b {
		if c >= 0x80 {
			s, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
			if err != nil {
				return string(b)
			}
			return string(s)
		}
	}
	return string(b)
}
