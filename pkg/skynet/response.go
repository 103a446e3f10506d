package skynet

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
)

// RawResponse is the view of an HTTP response a Transport hands back.
// *resty.Response satisfies it.
type RawResponse interface {
	StatusCode() int
	Header() http.Header
	Body() []byte
}

// Response is a read-only envelope around one raw Skynet response.
type Response struct {
	raw RawResponse

	decodeOnce sync.Once
	decoded    any
	decodeErr  error
}

// NewResponse wraps a raw transport response.
func NewResponse(raw RawResponse) *Response {
	return &Response{raw: raw}
}

// Raw returns the underlying transport response.
func (r *Response) Raw() RawResponse {
	return r.raw
}

// Body returns the response payload as text.
func (r *Response) Body() string {
	return string(r.raw.Body())
}

// JSON decodes the payload into a generic value: map[string]any, []any or a scalar.
// The result, including a decode error, is computed once per Response.
func (r *Response) JSON() (any, error) {
	r.decodeOnce.Do(func() {
		r.decodeErr = json.Unmarshal(r.raw.Body(), &r.decoded)
	})
	return r.decoded, r.decodeErr
}

// Object decodes the payload into v. Unlike JSON it decodes on every call.
func (r *Response) Object(v any) error {
	return json.Unmarshal(r.raw.Body(), v)
}

// JSONField returns a top-level string field of an object payload.
func (r *Response) JSONField(key string) (string, bool) {
	decoded, err := r.JSON()
	if err != nil {
		return "", false
	}
	obj, ok := decoded.(map[string]any)
	if !ok {
		return "", false
	}
	s, ok := obj[key].(string)
	return s, ok
}

// Header returns every value of the named header joined by ", ".
func (r *Response) Header(name string) string {
	return strings.Join(r.Headers().Values(name), ", ")
}

// Headers returns all response headers.
func (r *Response) Headers() http.Header {
	h := r.raw.Header()
	if h == nil {
		return http.Header{}
	}
	return h
}

// Status returns the HTTP status code.
func (r *Response) Status() int {
	return r.raw.StatusCode()
}

// Successful reports a 2xx status.
func (r *Response) Successful() bool {
	return r.Status() >= 200 && r.Status() < 300
}

// OK reports a 200 status.
func (r *Response) OK() bool {
	return r.Status() == http.StatusOK
}

// ClientError reports a 4xx status.
func (r *Response) ClientError() bool {
	return r.Status() >= 400 && r.Status() < 500
}

// ServerError reports a status of 500 or above.
func (r *Response) ServerError() bool {
	return r.Status() >= 500
}

// Failed reports a client or server error.
func (r *Response) Failed() bool {
	return r.ServerError() || r.ClientError()
}

func (r *Response) String() string {
	return fmt.Sprintf("%d %s", r.Status(), http.StatusText(r.Status()))
}

// StatusClass buckets a status for logs and metrics, e.g. "2xx".
func StatusClass(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return fmt.Sprintf("%dxx", status/100)
}
