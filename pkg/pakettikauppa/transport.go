package pakettikauppa

import (
	"context"
	"encoding/json"
	"net/http"
)

// Request is one call handed to a RequestSender. Form is used for
// form-encoded operations, Body for XML operations.
type Request struct {
	Method  string
	URL     string
	Form    map[string]string
	Body    []byte
	Headers map[string]string
}

// Response is the raw provider answer.
type Response struct {
	StatusCode int
	Body       []byte
}

// Text returns the body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// JSON decodes the body into v.
func (r *Response) JSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return NewError(KindParse, "response is not valid JSON").WithCause(err).WithBody(r.Text())
	}
	return nil
}

// OK reports whether the provider accepted the request.
func (r *Response) OK() bool {
	return r.StatusCode == http.StatusOK || r.StatusCode == http.StatusCreated
}

// RequestSender performs the HTTP exchange. Timeouts and cancellation are the
// sender's concern; implementations must honour ctx.
type RequestSender interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// RequestSenderFunc adapts a function to RequestSender.
type RequestSenderFunc func(ctx context.Context, req *Request) (*Response, error)

// Send calls f.
func (f RequestSenderFunc) Send(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}
