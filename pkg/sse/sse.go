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

// Package sse implements the text/event-stream framing.
package sse

import (
	"bytes"
	"io"
	"strconv"
	"strings"
	"time"
)

// ContentType is the media type of an event stream.
const ContentType = "text/event-stream"

// Event is one server-sent event.
type Event struct {
	// Event is the optional type label. Empty means the default "message".
	Event string
	// Data may span several lines; every line is sent as its own data field.
	Data string
	// ID becomes the client's Last-Event-ID.
	ID string
}

// Lines splits data the way the event stream needs it: on LF, dropping a
// trailing CR from each line and a final empty line.
func Lines(data string) []string {
	data = strings.TrimSuffix(data, "\n")
	lines := strings.Split(data, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// Encode returns the wire form of e, terminated by a blank line.
func (e Event) Encode() []byte {
	var buf bytes.Buffer
	if e.Event != "" {
		buf.WriteString("event: ")
		buf.WriteString(e.Event)
		buf.WriteByte('\n')
	}
	for _, line := range Lines(e.Data) {
		buf.WriteString("data: ")
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	buf.WriteString("id: ")
	buf.WriteString(e.ID)
	buf.WriteString("\n\n")
	return buf.Bytes()
}

// WriteTo writes the encoded event to w.
func (e Event) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(e.Encode())
	return int64(n), err
}

// WriteRetry writes the reconnection delay hint.
func WriteRetry(w io.Writer, retry time.Duration) error {
	_, err := io.WriteString(w, "retry: "+strconv.FormatInt(retry.Milliseconds(), 10)+"\n")
	return err
}

// WriteComment writes a comment line. Clients ignore it, proxies see traffic.
func WriteComment(w io.Writer, text string) error {
	_, err := io.WriteString(w, ": "+text+"\n")
	return err
}
