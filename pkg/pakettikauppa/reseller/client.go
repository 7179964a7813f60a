// Package reseller provides the reseller operations of the Pakettikauppa API:
// creating, updating, listing and deactivating customer accounts.
package reseller

import (
	"context"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"

	"github.com/tournevent/pakettikauppa/pkg/pakettikauppa"
)

// Client runs reseller operations through a Dispatcher.
type Client struct {
	dispatcher *pakettikauppa.Dispatcher
	logger     *otelzap.Logger
}

// New creates a reseller client. The dispatcher must carry reseller credentials.
func New(dispatcher *pakettikauppa.Dispatcher) *Client {
	return &Client{
		dispatcher: dispatcher,
		logger:     dispatcher.Logger(),
	}
}

// CreateCustomer registers a new customer. fields must hold every customer key.
func (c *Client) CreateCustomer(ctx context.Context, fields CustomerFields) (any, error) {
	if err := ValidateNewCustomer(fields); err != nil {
		return nil, err
	}

	params := map[string]any{
		"api_key": c.dispatcher.Credentials().APIKey(),
	}
	for _, key := range customerKeys {
		params[key] = normalize(key, fields[key])
	}

	c.logger.Info("Creating Pakettikauppa customer",
		zap.String("name", fields["name"]),
		zap.String("business_id", fields["business_id"]),
	)

	resp, err := c.dispatcher.PostForm(ctx, pakettikauppa.OpCreateCustomer, params)
	if err != nil {
		return nil, err
	}
	return pakettikauppa.DecodeJSON(resp)
}

// UpdateCustomer changes the given attributes of a customer. Empty values are
// skipped. When nothing is left to send it returns nil without a request.
func (c *Client) UpdateCustomer(ctx context.Context, customerID string, fields CustomerFields) (any, error) {
	if customerID == "" {
		return nil, pakettikauppa.NewError(pakettikauppa.KindInput, "customer id is required").WithField("customer_id")
	}
	if err := checkKeys(fields); err != nil {
		return nil, err
	}

	params := map[string]any{
		"api_key":     c.dispatcher.Credentials().APIKey(),
		"customer_id": customerID,
	}
	updated := 0
	for _, key := range customerKeys {
		if v := fields[key]; v != "" {
			params[key] = normalize(key, v)
			updated++
		}
	}
	if updated == 0 {
		c.logger.Debug("No customer fields to update", zap.String("customer_id", customerID))
		return nil, nil
	}

	c.logger.Info("Updating Pakettikauppa customer",
		zap.String("customer_id", customerID),
		zap.Int("field_count", updated),
	)

	resp, err := c.dispatcher.PostForm(ctx, pakettikauppa.OpUpdateCustomer, params)
	if err != nil {
		return nil, err
	}
	return pakettikauppa.DecodeJSON(resp)
}

// ListCustomers returns the reseller's customers.
func (c *Client) ListCustomers(ctx context.Context) (any, error) {
	resp, err := c.dispatcher.PostForm(ctx, pakettikauppa.OpListCustomers, map[string]any{
		"api_key":   c.dispatcher.Credentials().APIKey(),
		"timestamp": c.dispatcher.Timestamp(),
	})
	if err != nil {
		return nil, err
	}
	return pakettikauppa.DecodeJSON(resp)
}

// DeactivateCustomer deactivates a customer account.
func (c *Client) DeactivateCustomer(ctx context.Context, customerID string) (any, error) {
	if customerID == "" {
		return nil, pakettikauppa.NewError(pakettikauppa.KindInput, "customer id is required").WithField("customer_id")
	}

	c.logger.Info("Deactivating Pakettikauppa customer", zap.String("customer_id", customerID))

	resp, err := c.dispatcher.PostForm(ctx, pakettikauppa.OpDeactivateCustomer, map[string]any{
		"api_key":     c.dispatcher.Credentials().APIKey(),
		"customer_id": customerID,
		"timestamp":   c.dispatcher.Timestamp(),
	})
	if err != nil {
		return nil, err
	}
	return pakettikauppa.DecodeJSON(resp)
}
