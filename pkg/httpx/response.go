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
	"time"

	"github.com/go-arcade/courier/pkg/sse"
)

const (
	ContentTypeText = "text/plain; charset=utf-8"
	ContentTypeHTML = "text/html; charset=utf-8"
	ContentTypeJSON = "application/json; charset=utf-8"
	ContentTypeSSE  = sse.ContentType
)

// Response is the result of handling one request. The concrete types below
// are the only implementations.
type Response interface {
	response()
}

// HTML is a 200 response with an HTML body.
type HTML struct {
	Content string
	Headers []Field
}

// Text is a 200 response with a plain text body.
type Text struct {
	Content string
	Headers []Field
}

// JSON is a 200 response with a JSON body.
type JSON struct {
	Content string
	Headers []Field
}

// Redirect is a 303 See Other to Location.
type Redirect struct {
	Location string
	Headers  []Field
}

// EventSource switches the connection to a server-sent event stream.
type EventSource struct {
	// Retry, when positive, is sent as the client reconnection delay.
	Retry time.Duration
	// Events is read until closed.
	Events <-chan sse.Event
	// Close tells the producer the stream has ended. The producer must then
	// close Events.
	Close func()
}

// BadRequest is a 400 with a fixed plain text body.
type BadRequest struct{}

// InternalServerError is a 500 with a fixed plain text body.
type InternalServerError struct{}

// Empty is a 200 without a body.
type Empty struct{}

func (HTML) response()                {}
func (Text) response()                {}
func (JSON) response()                {}
func (Redirect) response()            {}
func (EventSource) response()         {}
func (BadRequest) response()          {}
func (InternalServerError) response() {}
func (Empty) response()               {}

type status struct {
	code   int
	reason string
}

var (
	statusOK                  = status{200, "OK"}
	statusSeeOther            = status{303, "See Other"}
	statusBadRequest          = status{400, "Bad Request"}
	statusInternalServerError = status{500, "Internal Server Error"}
)

// responseBuilder assembles a response head and optional body.
type responseBuilder struct {
	status  status
	headers []Field
	body    string
	hasBody bool
}

func newResponseBuilder(s status) *responseBuilder {
	return &responseBuilder{status: s}
}

func (b *responseBuilder) header(name, value string) *responseBuilder {
	b.headers = append(b.headers, Field{Name: name, Value: value})
	return b
}

func (b *responseBuilder) with(fields []Field) *responseBuilder {
	b.headers = append(b.headers, fields...)
	return b
}

func (b *responseBuilder) content(contentType, body string) *responseBuilder {
	b.header("Content-Type", contentType)
	b.body = body
	b.hasBody = true
	return b
}

func (b *responseBuilder) writeTo(w *bufio.Writer) error {
	w.WriteString("HTTP/1.1 ")
	w.WriteString(strconv.Itoa(b.status.code))
	w.WriteByte(' ')
	w.WriteString(b.status.reason)
	w.WriteString("\r\n")
	for _, f := range b.headers {
		w.WriteString(f.Name)
		w.WriteString(": ")
		w.WriteString(f.Value)
		w.WriteString("\r\n")
	}
	if b.hasBody {
		w.WriteString("Content-Length: ")
		w.WriteString(strconv.Itoa(len(b.body)))
		w.WriteString("\r\n")
	}
	w.WriteString("\r\n")
	w.WriteString(b.body)
	return w.Flush()
}

// build maps a non-streaming response onto a builder.
func build(resp Response) (*responseBuilder, error) {
	switch r := resp.(type) {
	case HTML:
		return newResponseBuilder(statusOK).with(r.Headers).content(ContentTypeHTML, r.Content), nil
	case Text:
		return newResponseBuilder(statusOK).with(r.Headers).content(ContentTypeText, r.Content), nil
	case JSON:
		return newResponseBuilder(statusOK).with(r.Headers).content(ContentTypeJSON, r.Content), nil
	case Redirect:
		return newResponseBuilder(statusSeeOther).header("Location", r.Location).with(r.Headers), nil
	case BadRequest:
		return newResponseBuilder(statusBadRequest).content(ContentTypeText, "Bad request"), nil
	case InternalServerError:
		return newResponseBuilder(statusInternalServerError).content(ContentTypeText, "Internal Server Error"), nil
	case Empty:
		return newResponseBuilder(statusOK), nil
	case EventSource:
		return nil, ErrStreamingResponse
	default:
		return newResponseBuilder(statusInternalServerError).content(ContentTypeText, "Internal Server Error"), nil
	}
}

// StatusCode returns the status code resp is written with.
func StatusCode(resp Response) int {
	if _, ok := resp.(EventSource); ok {
		return statusOK.code
	}
	b, err := build(resp)
	if err != nil {
		return statusInternalServerError.code
	}
	return b.status.code
}

// WriteResponse encodes a non-streaming response to w.
func WriteResponse(w io.Writer, resp Response) error {
	b, err := build(resp)
	if err != nil {
		return err
	}
	return b.writeTo(bufio.NewWriter(w))
}

// writeEventSourceHead writes the stream preamble: status, headers and the
// optional retry hint.
func writeEventSourceHead(w *bufio.Writer, retry time.Duration) error {
	b := newResponseBuilder(statusOK).
		header("Content-Type", ContentTypeSSE).
		header("Cache-Control", "no-cache")
	// writeTo flushes; the retry line goes out with the next flush
	if err := b.writeTo(w); err != nil {
		return err
	}
	if retry > 0 {
		if err := sse.WriteRetry(w, retry); err != nil {
			return err
		}
	}
	return w.Flush()
}
