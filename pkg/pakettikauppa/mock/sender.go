// Package mock provides an in-memory Pakettikauppa endpoint for tests and
// offline runs.
package mock

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"

	"github.com/tournevent/pakettikauppa/pkg/pakettikauppa"
)

// LabelContent is the document returned base64-encoded by the label operation.
const LabelContent = "%PDF-1.4 mock label data"

// Sender is a RequestSender that answers every operation with canned data.
type Sender struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnSend func(ctx context.Context, req *pakettikauppa.Request) (*pakettikauppa.Response, error)

	mu       sync.Mutex
	requests []*pakettikauppa.Request
}

// NewSender creates a new mock sender with default behavior.
func NewSender() *Sender {
	return &Sender{}
}

// Send records req and returns the canned response for its URL.
func (s *Sender) Send(ctx context.Context, req *pakettikauppa.Request) (*pakettikauppa.Response, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	if s.SimulateLatency > 0 {
		select {
		case <-time.After(s.SimulateLatency):
		case <-ctx.Done():
			return nil, pakettikauppa.NewError(pakettikauppa.KindTransport, "request cancelled").WithCause(ctx.Err())
		}
	}

	if s.SimulateErrors {
		return text(http.StatusInternalServerError, "Simulated API error"), nil
	}

	if s.OnSend != nil {
		return s.OnSend(ctx, req)
	}

	switch {
	case strings.HasSuffix(req.URL, "/shipping-methods/list"):
		return jsonResponse([]map[string]any{
			{"shipping_method_code": "2103", "name": "Postipaketti", "service_provider": "Posti"},
			{"shipping_method_code": "90010", "name": "Noutopistepaketti", "service_provider": "Matkahuolto"},
		})
	case strings.HasSuffix(req.URL, "/additional-services/list"):
		return jsonResponse([]map[string]any{
			{"service_code": "3101", "name": "Postiennakko"},
			{"service_code": "3104", "name": "Särkyvä"},
		})
	case strings.HasSuffix(req.URL, "/pickup-points/search"):
		return jsonResponse([]map[string]any{
			{
				"provider":        "Posti",
				"pickup_point_id": "123456",
				"name":            "K-Market Keskusta",
				"street_address":  "Kauppakatu 1",
				"postcode":        req.Form["postcode"],
				"country":         req.Form["country"],
			},
		})
	case strings.HasSuffix(req.URL, "/shipment/status"):
		return jsonResponse(map[string]any{
			"tracking_code": req.Form["tracking_code"],
			"status_code":   "13",
			"status":        "Delivered",
		})
	case strings.HasSuffix(req.URL, "/prinetti/create-shipment"):
		return shipmentResponse(req), nil
	case strings.HasSuffix(req.URL, "/prinetti/get-shipping-label"):
		return labelResponse(), nil
	case strings.HasSuffix(req.URL, "/customer/create"):
		return jsonResponse(map[string]any{
			"customer_id": uuid.New().String(),
			"name":        req.Form["name"],
		})
	case strings.HasSuffix(req.URL, "/customer/update"):
		return jsonResponse(map[string]any{"customer_id": req.Form["customer_id"], "updated": true})
	case strings.HasSuffix(req.URL, "/customer/list"):
		return jsonResponse([]map[string]any{
			{"customer_id": "c-1", "name": "Example Oy", "business_id": "1234567-8"},
		})
	case strings.HasSuffix(req.URL, "/customer/deactivate"):
		return jsonResponse(map[string]any{"customer_id": req.Form["customer_id"], "active": false})
	}

	return text(http.StatusNotFound, "Unknown endpoint"), nil
}

// Requests returns a copy of every request received so far.
func (s *Sender) Requests() []*pakettikauppa.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*pakettikauppa.Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// LastRequest returns the most recent request, or nil.
func (s *Sender) LastRequest() *pakettikauppa.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return nil
	}
	return s.requests[len(s.requests)-1]
}

// Reset forgets recorded requests.
func (s *Sender) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

var _ pakettikauppa.RequestSender = (*Sender)(nil)

// ============================================================================
// Canned responses
// ============================================================================

func text(status int, body string) *pakettikauppa.Response {
	return &pakettikauppa.Response{StatusCode: status, Body: []byte(body)}
}

func jsonResponse(v any) (*pakettikauppa.Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &pakettikauppa.Response{StatusCode: http.StatusOK, Body: body}, nil
}

// ShipmentResponseXML renders a provider answer for a shipment creation.
// An empty reference or trackingCode leaves that element out.
func ShipmentResponseXML(status, message, referenceUUID, reference, trackingURL, trackingCode string) []byte {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("Response")
	root.CreateElement("response.status").SetText(status)
	root.CreateElement("response.message").SetText(message)
	if reference != "" {
		ref := root.CreateElement("response.reference")
		ref.CreateAttr("uuid", referenceUUID)
		ref.SetText(reference)
	}
	if trackingCode != "" {
		trk := root.CreateElement("response.trackingcode")
		trk.CreateAttr("tracking_url", trackingURL)
		trk.SetText(trackingCode)
	}
	body, _ := doc.WriteToBytes()
	return body
}

// LabelResponseXML renders a provider answer carrying a base64 file. An empty
// content leaves response.file out.
func LabelResponseXML(status, message string, content []byte) []byte {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement("Response")
	root.CreateElement("response.status").SetText(status)
	root.CreateElement("response.message").SetText(message)
	if len(content) > 0 {
		file := root.CreateElement("response.file")
		file.CreateAttr("encoding", "base64")
		file.SetText(base64.StdEncoding.EncodeToString(content))
	}
	body, _ := doc.WriteToBytes()
	return body
}

func shipmentResponse(req *pakettikauppa.Request) *pakettikauppa.Response {
	reference := "REF-" + uuid.New().String()[:8]

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(req.Body); err == nil {
		if el := doc.FindElement("//Shipment.Consignment/Consignment.Reference"); el != nil && el.Text() != "" {
			reference = el.Text()
		}
	}

	code := fmt.Sprintf("JJFI%014d", time.Now().UnixNano()%100000000000000)
	body := ShipmentResponseXML("0", "", uuid.New().String(), reference,
		"https://www.posti.fi/fi/seuranta#/lahetys/"+code, code)
	return &pakettikauppa.Response{StatusCode: http.StatusOK, Body: body}
}

func labelResponse() *pakettikauppa.Response {
	return &pakettikauppa.Response{
		StatusCode: http.StatusOK,
		Body:       LabelResponseXML("0", "", []byte(LabelContent)),
	}
}
