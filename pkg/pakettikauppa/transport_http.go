package pakettikauppa

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPSender is the production RequestSender backed by resty.
type HTTPSender struct {
	client *resty.Client
}

// HTTPSenderConfig holds configuration for the HTTP sender.
type HTTPSenderConfig struct {
	Timeout time.Duration
	Debug   bool
}

// NewHTTPSender creates a new resty-based sender.
func NewHTTPSender(cfg HTTPSenderConfig) *HTTPSender {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	client := resty.New().
		SetTimeout(timeout).
		SetDebug(cfg.Debug)

	return &HTTPSender{client: client}
}

// Send performs req. Non-2xx statuses are returned as a normal Response;
// only failures to complete the exchange are errors.
func (s *HTTPSender) Send(ctx context.Context, req *Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodPost
	}

	r := s.client.R().
		SetContext(ctx).
		SetHeaders(req.Headers)

	switch {
	case req.Body != nil:
		r.SetBody(req.Body)
	case req.Form != nil && method == http.MethodGet:
		r.SetQueryParams(req.Form)
	case req.Form != nil:
		r.SetFormData(req.Form)
	}

	resp, err := r.Execute(method, req.URL)
	if err != nil {
		return nil, Errorf(KindTransport, "%s %s failed", method, req.URL).WithCause(err)
	}

	return &Response{
		StatusCode: resp.StatusCode(),
		Body:       resp.Body(),
	}, nil
}

var _ RequestSender = (*HTTPSender)(nil)
