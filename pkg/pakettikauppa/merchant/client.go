// Package merchant provides the merchant operations of the Pakettikauppa API:
// shipping method and additional service lists, pickup point search,
// shipment status, shipment creation and label retrieval.
package merchant

import (
	"context"
	"strconv"
	"strings"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/tournevent/pakettikauppa/pkg/pakettikauppa"
)

const (
	defaultLanguage    = "EN"
	defaultCountry     = "FI"
	defaultPickupLimit = 5
)

// PickupPointQuery describes a pickup point search.
type PickupPointQuery struct {
	PostalCode    string
	Country       string
	StreetAddress string
	// ServiceProvider limits the search to one provider, for example
	// "Posti", "Matkahuolto" or "Db Schenker".
	ServiceProvider string
	// Limit defaults to 5.
	Limit int
}

// Client runs merchant operations through a Dispatcher.
type Client struct {
	dispatcher *pakettikauppa.Dispatcher
	encoder    *Encoder
	logger     *otelzap.Logger
}

// New creates a merchant client. The dispatcher must carry merchant credentials.
func New(dispatcher *pakettikauppa.Dispatcher) *Client {
	encoder := NewEncoder(dispatcher.Credentials())
	encoder.Now = dispatcher.Now

	return &Client{
		dispatcher: dispatcher,
		encoder:    encoder,
		logger:     dispatcher.Logger(),
	}
}

// Encoder returns the XML encoder used for shipment and label requests.
func (c *Client) Encoder() *Encoder {
	return c.encoder
}

// ShippingMethods lists the shipping methods available to the account.
// An empty language means EN.
func (c *Client) ShippingMethods(ctx context.Context, language string) ([]map[string]any, error) {
	return c.list(ctx, pakettikauppa.OpShippingMethodList, language)
}

// AdditionalServices lists the additional services available to the account.
func (c *Client) AdditionalServices(ctx context.Context, language string) ([]map[string]any, error) {
	return c.list(ctx, pakettikauppa.OpAdditionalServiceList, language)
}

func (c *Client) list(ctx context.Context, op pakettikauppa.Operation, language string) ([]map[string]any, error) {
	language = strings.ToUpper(language)
	if language == "" {
		language = defaultLanguage
	}

	resp, err := c.dispatcher.PostForm(ctx, op, map[string]any{
		"api_key":   c.dispatcher.Credentials().APIKey(),
		"timestamp": c.dispatcher.Timestamp(),
		"language":  language,
	})
	if err != nil {
		return nil, err
	}
	return pakettikauppa.DecodeList(resp)
}

// SearchPickupPoints finds pickup points near a postal code.
func (c *Client) SearchPickupPoints(ctx context.Context, q PickupPointQuery) ([]map[string]any, error) {
	if q.PostalCode == "" {
		return nil, pakettikauppa.NewError(pakettikauppa.KindInput, "postal code is required").WithField("postcode")
	}

	country := strings.ToUpper(q.Country)
	if country == "" {
		country = defaultCountry
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultPickupLimit
	}

	params := map[string]any{
		"api_key":   c.dispatcher.Credentials().APIKey(),
		"postcode":  q.PostalCode,
		"timestamp": c.dispatcher.Timestamp(),
		"limit":     strconv.Itoa(limit),
		"country":   country,
	}
	if q.StreetAddress != "" {
		params["address"] = q.StreetAddress
	}
	if q.ServiceProvider != "" {
		params["service_provider"] = q.ServiceProvider
	}

	resp, err := c.dispatcher.PostForm(ctx, pakettikauppa.OpSearchPickupPoints, params)
	if err != nil {
		return nil, err
	}
	return pakettikauppa.DecodeList(resp)
}

// ShipmentStatus returns the provider's status document for a tracking code.
func (c *Client) ShipmentStatus(ctx context.Context, trackingCode string) (any, error) {
	if trackingCode == "" {
		return nil, pakettikauppa.NewError(pakettikauppa.KindInput, "tracking code is required").WithField("tracking_code")
	}

	resp, err := c.dispatcher.PostForm(ctx, pakettikauppa.OpShipmentStatus, map[string]any{
		"api_key":       c.dispatcher.Credentials().APIKey(),
		"tracking_code": trackingCode,
		"timestamp":     c.dispatcher.Timestamp(),
	})
	if err != nil {
		return nil, err
	}
	return pakettikauppa.DecodeJSON(resp)
}

// CreateShipment submits a shipment. A provider-side rejection is returned
// as a StatusError result, not as an error.
func (c *Client) CreateShipment(ctx context.Context, req *ShipmentRequest) (*ShipmentResult, error) {
	body, err := c.encoder.EncodeShipment(req)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Creating Pakettikauppa shipment",
		zap.String("routing_id", req.Routing.ID),
		zap.String("product", req.Consignment.ProductCode),
		zap.Int("parcel_count", len(req.Consignment.Parcels)),
	)

	resp, err := c.dispatcher.PostXML(ctx, pakettikauppa.OpCreateShipment, body)
	if err != nil {
		return nil, err
	}

	result, err := DecodeShipmentResult(resp.Body)
	if err != nil {
		return nil, err
	}

	if result.Status != StatusOK {
		c.logger.Error("Pakettikauppa rejected shipment",
			zap.String("routing_id", req.Routing.ID),
			zap.String("message", result.Message),
		)
		return result, nil
	}

	c.logger.Info("Pakettikauppa shipment created",
		zap.String("reference", result.Reference.Value),
		zap.String("tracking_code", result.TrackingCode.Value),
	)
	return result, nil
}

// ShippingLabel fetches the labels of the given tracking codes.
func (c *Client) ShippingLabel(ctx context.Context, req *LabelRequest) (*LabelResult, error) {
	body, err := c.encoder.EncodeLabel(req)
	if err != nil {
		return nil, err
	}

	resp, err := c.dispatcher.PostXML(ctx, pakettikauppa.OpShippingLabel, body)
	if err != nil {
		return nil, err
	}

	result, err := DecodeLabelResult(resp.Body)
	if err != nil {
		return nil, err
	}
	if result.Status != StatusOK {
		c.logger.Error("Pakettikauppa label request failed",
			zap.Strings("tracking_codes", req.TrackingCodes),
			zap.String("message", result.Message),
		)
	}
	return result, nil
}
