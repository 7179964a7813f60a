package pakettikauppa

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
)

// Recorder receives per-operation measurements.
type Recorder interface {
	RecordRequest(operation, status string, duration float64)
	RecordError(operation, errorType string)
}

// Dispatcher builds signed requests for operations and hands them to a
// RequestSender. It holds no per-call state and is safe for concurrent use.
type Dispatcher struct {
	credentials *Credentials
	signer      *Signer
	sender      RequestSender
	baseURL     string
	logger      *otelzap.Logger
	tracer      trace.Tracer
	recorder    Recorder
	now         func() time.Time
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithBaseURL overrides the endpoint selected by the credentials.
func WithBaseURL(baseURL string) Option {
	return func(d *Dispatcher) {
		d.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithLogger sets the logger.
func WithLogger(logger *otelzap.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithTracer sets the tracer used for per-operation spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(d *Dispatcher) {
		if tracer != nil {
			d.tracer = tracer
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(recorder Recorder) Option {
	return func(d *Dispatcher) {
		d.recorder = recorder
	}
}

// WithClock replaces time.Now for timestamps and routing times.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		if now != nil {
			d.now = now
		}
	}
}

// NewDispatcher creates a Dispatcher. A nil sender means a default HTTPSender.
func NewDispatcher(credentials *Credentials, sender RequestSender, opts ...Option) *Dispatcher {
	if sender == nil {
		sender = NewHTTPSender(HTTPSenderConfig{})
	}

	d := &Dispatcher{
		credentials: credentials,
		signer:      NewSigner(credentials),
		sender:      sender,
		baseURL:     credentials.Endpoint(),
		logger:      otelzap.New(zap.NewNop()),
		tracer:      noop.NewTracerProvider().Tracer("pakettikauppa"),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Credentials returns the credentials requests are signed with.
func (d *Dispatcher) Credentials() *Credentials { return d.credentials }

// Signer returns the request signer.
func (d *Dispatcher) Signer() *Signer { return d.signer }

// Logger returns the dispatcher's logger.
func (d *Dispatcher) Logger() *otelzap.Logger { return d.logger }

// Now returns the current time from the dispatcher's clock.
func (d *Dispatcher) Now() time.Time { return d.now() }

// Timestamp returns the current unix time in seconds, as signed requests expect.
func (d *Dispatcher) Timestamp() string {
	return strconv.FormatInt(d.now().Unix(), 10)
}

// URL returns the full URL of op.
func (d *Dispatcher) URL(op Operation) (string, error) {
	suffix, err := op.Suffix()
	if err != nil {
		return "", err
	}
	return d.baseURL + suffix, nil
}

// PostForm signs params, appends the hash field and posts them form-encoded.
func (d *Dispatcher) PostForm(ctx context.Context, op Operation, params map[string]any) (*Response, error) {
	url, err := d.URL(op)
	if err != nil {
		return nil, err
	}

	form, err := d.signer.Sign(params)
	if err != nil {
		return nil, err
	}

	return d.do(ctx, op, &Request{
		Method: http.MethodPost,
		URL:    url,
		Form:   form,
		Headers: map[string]string{
			"Content-Type": "application/x-www-form-urlencoded; charset=utf-8",
		},
	})
}

// PostXML posts an XML document. The routing key inside the document is the
// authentication; no hash field is added.
func (d *Dispatcher) PostXML(ctx context.Context, op Operation, body []byte) (*Response, error) {
	url, err := d.URL(op)
	if err != nil {
		return nil, err
	}

	return d.do(ctx, op, &Request{
		Method: http.MethodPost,
		URL:    url,
		Body:   body,
		Headers: map[string]string{
			"Content-Type":     "application/xml; charset=utf-8",
			"Content-Encoding": "utf-8",
		},
	})
}

func (d *Dispatcher) do(ctx context.Context, op Operation, req *Request) (*Response, error) {
	ctx, span := d.tracer.Start(ctx, "pakettikauppa."+string(op),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("pakettikauppa.operation", string(op)),
			attribute.Bool("pakettikauppa.test_mode", d.credentials.TestMode()),
		),
	)
	defer span.End()

	d.logger.Debug("Sending Pakettikauppa request",
		zap.String("operation", string(op)),
		zap.String("url", req.URL),
	)

	start := time.Now()
	resp, err := d.sender.Send(ctx, req)
	duration := time.Since(start).Seconds()

	if err != nil {
		var apiErr *Error
		if !errors.As(err, &apiErr) {
			err = NewError(KindTransport, "request failed").WithCause(err)
		}
		d.fail(span, op, duration, err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if !resp.OK() {
		err := Errorf(KindTransport, "unexpected status %d: %s", resp.StatusCode, resp.Text()).
			WithStatusCode(resp.StatusCode).
			WithBody(resp.Text())
		d.fail(span, op, duration, err)
		return nil, err
	}

	d.logger.Debug("Pakettikauppa response received",
		zap.String("operation", string(op)),
		zap.Int("status_code", resp.StatusCode),
		zap.Int("bytes", len(resp.Body)),
	)
	if d.recorder != nil {
		d.recorder.RecordRequest(string(op), "success", duration)
	}
	return resp, nil
}

func (d *Dispatcher) fail(span trace.Span, op Operation, duration float64, err error) {
	d.logger.Error("Pakettikauppa request failed",
		zap.String("operation", string(op)),
		zap.Error(err),
	)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if d.recorder != nil {
		d.recorder.RecordRequest(string(op), "error", duration)
		d.recorder.RecordError(string(op), string(KindOf(err)))
	}
}

// DecodeJSON parses a JSON response body into generic values.
func DecodeJSON(resp *Response) (any, error) {
	var v any
	if err := resp.JSON(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// DecodeList parses a JSON array of objects.
func DecodeList(resp *Response) ([]map[string]any, error) {
	var list []map[string]any
	if err := resp.JSON(&list); err != nil {
		return nil, err
	}
	return list, nil
}
