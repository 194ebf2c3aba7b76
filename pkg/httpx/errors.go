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

import "github.com/pkg/errors"

var (
	// ErrIncorrectMethod is returned for a request line whose method is not
	// one of the known HTTP methods.
	ErrIncorrectMethod = errors.New("incorrect method")
	// ErrIncorrectHeader is returned for a header line without exactly one ": ".
	ErrIncorrectHeader = errors.New("incorrect header")
	// ErrMalformedRequestLine is returned when the request line does not have
	// the METHOD TARGET [VERSION] shape.
	ErrMalformedRequestLine = errors.New("malformed request line")
	// ErrRequestTooLarge is returned when a line or the header block exceeds
	// the decoder limits.
	ErrRequestTooLarge = errors.New("request head too large")

	ErrMissingContentLength = errors.New("missing content-length header")
	ErrInvalidContentLength = errors.New("invalid content-length header")
	ErrInvalidUTF8          = errors.New("request body is not valid utf-8")
	ErrBodyConsumed         = errors.New("request body already read")

	// ErrStreamingResponse is returned by WriteResponse for an EventSource,
	// which is written by the event stream loop instead.
	ErrStreamingResponse = errors.New("event source responses are streamed, not written")
)
