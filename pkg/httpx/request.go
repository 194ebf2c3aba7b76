// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package httpx

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"
)

const (
	// ReadBufferSize bounds a single request or header line.
	ReadBufferSize = 8 << 10
	maxHeaderLines = 100
	// MaxBodySize bounds the Content-Length a request may declare.
	MaxBodySize = 1 << 20
)

// Request is a decoded request head plus a lazy body reader.
type Request struct {
	Method Method
	// Target is the raw request target, query and fragment included.
	Target string
	Header Header

	body     *bufio.Reader
	consumed bool
}

// ReadRequest decodes a request line and header block from r. The body is
// left unread in r until Body is called.
func ReadRequest(r *bufio.Reader) (*Request, error) {
	line, err := readLine(r)
	if err != nil {
		return nil, errors.Wrap(err, "read request line")
	}

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, ErrMalformedRequestLine
	}
	method, err := ParseMethod(fields[0])
	if err != nil {
		return nil, err
	}
	if len(fields) < 2 || len(fields) > 3 {
		return nil, ErrMalformedRequestLine
	}
	if len(fields) == 3 && !strings.HasPrefix(fields[2], "HTTP/") {
		return nil, ErrMalformedRequestLine
	}

	req := &Request{
		Method: method,
		Target: fields[1],
		Header: make(Header),
		body:   r,
	}

	for n := 0; ; n++ {
		if n > maxHeaderLines {
			return nil, ErrRequestTooLarge
		}
		line, err := readLine(r)
		if err != nil {
			return nil, errors.Wrap(err, "read header")
		}
		if line == "\r\n" {
			break
		}
		line = strings.TrimRight(line, "\r\n")
		if strings.Count(line, ": ") != 1 {
			return nil, errors.Wrapf(ErrIncorrectHeader, "%q", line)
		}
		name, value, _ := strings.Cut(line, ": ")
		req.Header.Set(name, strings.TrimRightFunc(value, unicode.IsSpace))
	}

	return req, nil
}

// readLine returns one line including its terminator.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadSlice('\n')
	switch {
	case errors.Is(err, bufio.ErrBufferFull):
		return "", ErrRequestTooLarge
	case errors.Is(err, io.EOF) && len(line) > 0:
		return "", io.ErrUnexpectedEOF
	case err != nil:
		return "", err
	}
	return string(line), nil
}

// Path returns the target without query and fragment.
func (r *Request) Path() string {
	path, _, _ := strings.Cut(r.Target, "?")
	path, _, _ = strings.Cut(path, "#")
	return path
}

// RawQuery returns the query part of the target, without fragment.
func (r *Request) RawQuery() string {
	_, query, ok := strings.Cut(r.Target, "?")
	if !ok {
		return ""
	}
	query, _, _ = strings.Cut(query, "#")
	return query
}

// Body reads exactly Content-Length bytes from the connection and returns
// them as text. It can be called once.
func (r *Request) Body() (string, error) {
	if r.consumed {
		return "", ErrBodyConsumed
	}
	r.consumed = true

	raw, ok := r.Header.Get("content-length")
	if !ok {
		return "", ErrMissingContentLength
	}
	n, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil || n > MaxBodySize {
		return "", errors.Wrapf(ErrInvalidContentLength, "%q", raw)
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(r.body, buf); err != nil {
		return "", errors.Wrap(err, "read request body")
	}
	if !utf8.Valid(buf) {
		return "", ErrInvalidUTF8
	}
	return string(buf), nil
}

// NewRequest builds a request in memory, as if body had been sent after the
// head. Content-Length is set when body is not empty.
func NewRequest(method Method, target string, header Header, body string) *Request {
	h := make(Header, len(header)+1)
	for k, v := range header {
		h.Set(k, v)
	}
	if body != "" {
		h.Set("content-length", strconv.Itoa(len(body)))
	}
	return &Request{
		Method: method,
		Target: target,
		Header: h,
		body:   bufio.NewReader(strings.NewReader(body)),
	}
}
