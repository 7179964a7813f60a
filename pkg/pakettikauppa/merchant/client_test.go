package merchant_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/tournevent/pakettikauppa/pkg/pakettikauppa"
	"github.com/tournevent/pakettikauppa/pkg/pakettikauppa/merchant"
	"github.com/tournevent/pakettikauppa/pkg/pakettikauppa/mock"
)

func newTestClient(t *testing.T) (*merchant.Client, *mock.Sender) {
	t.Helper()
	creds, err := pakettikauppa.MerchantCredentials("", "", true)
	require.NoError(t, err)

	sender := mock.NewSender()
	d := pakettikauppa.NewDispatcher(creds, sender,
		pakettikauppa.WithLogger(otelzap.New(zap.NewNop())),
		pakettikauppa.WithClock(func() time.Time { return time.Unix(1512575546, 0) }),
	)
	return merchant.New(d), sender
}

func TestClient_ShippingMethods(t *testing.T) {
	client, sender := newTestClient(t)

	methods, err := client.ShippingMethods(context.Background(), "")
	require.NoError(t, err)
	assert.NotEmpty(t, methods)

	req := sender.LastRequest()
	require.NotNil(t, req)
	assert.Equal(t, "https://apitest.pakettikauppa.fi/shipping-methods/list", req.URL)
	assert.Equal(t, "EN", req.Form["language"])
	assert.Equal(t, "1512575546", req.Form["timestamp"])
	assert.Equal(t, pakettikauppa.TestMerchantAPIKey, req.Form["api_key"])
	assert.Equal(t, "19e34dd8cb75e345b4175aaab68ec85ad6c5dd01d68fa69f40b1e945d48b3360", req.Form["hash"])
}

func TestClient_AdditionalServicesLanguage(t *testing.T) {
	client, sender := newTestClient(t)

	_, err := client.AdditionalServices(context.Background(), "fi")
	require.NoError(t, err)

	req := sender.LastRequest()
	assert.Equal(t, "https://apitest.pakettikauppa.fi/additional-services/list", req.URL)
	assert.Equal(t, "FI", req.Form["language"])
}

func TestClient_SearchPickupPoints(t *testing.T) {
	client, sender := newTestClient(t)

	points, err := client.SearchPickupPoints(context.Background(), merchant.PickupPointQuery{PostalCode: "33100", Country: "se"})
	require.NoError(t, err)
	require.Len(t, points, 1)

	req := sender.LastRequest()
	assert.Equal(t, "33100", req.Form["postcode"])
	assert.Equal(t, "SE", req.Form["country"])
	assert.Equal(t, "5", req.Form["limit"])
	assert.NotContains(t, req.Form, "address")
	assert.NotContains(t, req.Form, "service_provider")

	expected, err := pakettikauppa.HMACDigest(pakettikauppa.TestMerchantSecret, map[string]any{
		"api_key":   pakettikauppa.TestMerchantAPIKey,
		"postcode":  "33100",
		"timestamp": "1512575546",
		"limit":     5,
		"country":   "SE",
	})
	require.NoError(t, err)
	assert.Equal(t, expected, req.Form["hash"])
}

func TestClient_SearchPickupPointsOptional(t *testing.T) {
	client, sender := newTestClient(t)

	_, err := client.SearchPickupPoints(context.Background(), merchant.PickupPointQuery{
		PostalCode:      "00100",
		StreetAddress:   "Mannerheimintie 1",
		ServiceProvider: "Posti",
		Limit:           10,
	})
	require.NoError(t, err)

	req := sender.LastRequest()
	assert.Equal(t, "FI", req.Form["country"])
	assert.Equal(t, "10", req.Form["limit"])
	assert.Equal(t, "Mannerheimintie 1", req.Form["address"])
	assert.Equal(t, "Posti", req.Form["service_provider"])
}

func TestClient_SearchPickupPointsNeedsPostcode(t *testing.T) {
	client, sender := newTestClient(t)

	_, err := client.SearchPickupPoints(context.Background(), merchant.PickupPointQuery{})
	assert.True(t, errors.Is(err, pakettikauppa.ErrInput))
	assert.Empty(t, sender.Requests())
}

func TestClient_ShipmentStatus(t *testing.T) {
	client, sender := newTestClient(t)

	status, err := client.ShipmentStatus(context.Background(), "JJFI123")
	require.NoError(t, err)

	doc, ok := status.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "JJFI123", doc["tracking_code"])
	assert.Equal(t, "https://apitest.pakettikauppa.fi/shipment/status", sender.LastRequest().URL)

	_, err = client.ShipmentStatus(context.Background(), "")
	assert.True(t, errors.Is(err, pakettikauppa.ErrInput))
}

func TestClient_CreateShipment(t *testing.T) {
	client, sender := newTestClient(t)

	result, err := client.CreateShipment(context.Background(), sampleShipment())
	require.NoError(t, err)

	assert.Equal(t, merchant.StatusOK, result.Status)
	require.NotNil(t, result.Reference)
	assert.Equal(t, "3211479032410", result.Reference.Value)
	require.NotNil(t, result.TrackingCode)
	assert.NotEmpty(t, result.TrackingCode.Value)

	req := sender.LastRequest()
	assert.Equal(t, "https://apitest.pakettikauppa.fi/prinetti/create-shipment", req.URL)
	assert.Equal(t, "application/xml; charset=utf-8", req.Headers["Content-Type"])
	assert.NotContains(t, req.Form, "hash")

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(req.Body))
	assert.Equal(t, "9de2903abd77fc4a48b2c33a77420de8", doc.FindElement("//Routing.Key").Text())
}

func TestClient_CreateShipmentRoundTrip(t *testing.T) {
	client, sender := newTestClient(t)
	sender.OnSend = func(_ context.Context, req *pakettikauppa.Request) (*pakettikauppa.Response, error) {
		return &pakettikauppa.Response{
			StatusCode: http.StatusOK,
			Body:       mock.ShipmentResponseXML("0", "", "u1", "REF", "http://x", "TRK"),
		}, nil
	}

	result, err := client.CreateShipment(context.Background(), sampleShipment())
	require.NoError(t, err)
	assert.Equal(t, &merchant.ShipmentResult{
		Status:       merchant.StatusOK,
		Reference:    &merchant.Reference{UUID: "u1", Value: "REF"},
		TrackingCode: &merchant.TrackingCode{URL: "http://x", Value: "TRK"},
	}, result)
}

func TestClient_CreateShipmentRejected(t *testing.T) {
	client, sender := newTestClient(t)
	sender.OnSend = func(_ context.Context, _ *pakettikauppa.Request) (*pakettikauppa.Response, error) {
		return &pakettikauppa.Response{
			StatusCode: http.StatusOK,
			Body:       mock.ShipmentResponseXML("1", "bad input", "", "", "", ""),
		}, nil
	}

	result, err := client.CreateShipment(context.Background(), sampleShipment())
	require.NoError(t, err)
	assert.Equal(t, merchant.StatusError, result.Status)
	assert.Equal(t, "bad input", result.Message)
	assert.Nil(t, result.Reference)
	assert.Nil(t, result.TrackingCode)
}

func TestClient_CreateShipmentInvalidRequestIsNotSent(t *testing.T) {
	client, sender := newTestClient(t)
	req := sampleShipment()
	req.Consignment.Parcels[0].PackageType = "AB"

	_, err := client.CreateShipment(context.Background(), req)
	assert.True(t, errors.Is(err, pakettikauppa.ErrInvalidCode))
	assert.Empty(t, sender.Requests())
}

func TestClient_CreateShipmentTransportError(t *testing.T) {
	client, sender := newTestClient(t)
	sender.SimulateErrors = true

	_, err := client.CreateShipment(context.Background(), sampleShipment())
	require.Error(t, err)
	assert.True(t, errors.Is(err, pakettikauppa.ErrTransport))
	assert.Contains(t, err.Error(), "Simulated API error")
}

func TestClient_ShippingLabel(t *testing.T) {
	client, sender := newTestClient(t)

	result, err := client.ShippingLabel(context.Background(), &merchant.LabelRequest{
		Routing:       merchant.RoutingInfo{ID: "1479035179"},
		TrackingCodes: []string{"JJFITESTLABEL601"},
	})
	require.NoError(t, err)
	assert.Equal(t, merchant.StatusOK, result.Status)

	pdf, err := result.DecodePDF()
	require.NoError(t, err)
	assert.Equal(t, mock.LabelContent, string(pdf))
	assert.Equal(t, "https://apitest.pakettikauppa.fi/prinetti/get-shipping-label", sender.LastRequest().URL)
}

func TestClient_ShippingLabelMissingFile(t *testing.T) {
	client, sender := newTestClient(t)
	sender.OnSend = func(_ context.Context, _ *pakettikauppa.Request) (*pakettikauppa.Response, error) {
		return &pakettikauppa.Response{
			StatusCode: http.StatusOK,
			Body:       mock.LabelResponseXML("0", "", nil),
		}, nil
	}

	result, err := client.ShippingLabel(context.Background(), &merchant.LabelRequest{
		Routing:       merchant.RoutingInfo{ID: "1479035179"},
		TrackingCodes: []string{"JJFITESTLABEL601"},
	})
	require.NoError(t, err)
	assert.Equal(t, merchant.StatusError, result.Status)
	assert.Equal(t, merchant.MissingPDFMessage, result.Message)
}
