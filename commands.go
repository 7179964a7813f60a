package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tournevent/pakettikauppa/pkg/pakettikauppa/merchant"
	"github.com/tournevent/pakettikauppa/pkg/pakettikauppa/reseller"
)

// statusConcurrency bounds parallel status lookups.
const statusConcurrency = 4

var (
	language    string
	pickupQuery merchant.PickupPointQuery
	labelFlags  struct {
		routingID string
		format    string
		out       string
	}
)

var shippingMethodsCmd = &cobra.Command{
	Use:   "shipping-methods",
	Short: "List the shipping methods available to the account",
	Args:  cobra.NoArgs,
	RunE: merchantCommand(func(ctx context.Context, c *merchant.Client, args []string) (any, error) {
		return c.ShippingMethods(ctx, language)
	}),
}

var additionalServicesCmd = &cobra.Command{
	Use:   "additional-services",
	Short: "List the additional services available to the account",
	Args:  cobra.NoArgs,
	RunE: merchantCommand(func(ctx context.Context, c *merchant.Client, args []string) (any, error) {
		return c.AdditionalServices(ctx, language)
	}),
}

var pickupPointsCmd = &cobra.Command{
	Use:   "pickup-points",
	Short: "Search pickup points near a postal code",
	Args:  cobra.NoArgs,
	RunE: merchantCommand(func(ctx context.Context, c *merchant.Client, args []string) (any, error) {
		return c.SearchPickupPoints(ctx, pickupQuery)
	}),
}

var statusCmd = &cobra.Command{
	Use:   "status CODE...",
	Short: "Show the status of one or more shipments",
	Args:  cobra.MinimumNArgs(1),
	RunE:  merchantCommand(shipmentStatuses),
}

var labelCmd = &cobra.Command{
	Use:   "label CODE...",
	Short: "Fetch shipping labels for tracking codes",
	Args:  cobra.MinimumNArgs(1),
	RunE:  merchantCommand(shippingLabel),
}

var customersCmd = &cobra.Command{
	Use:   "customers",
	Short: "Manage reseller customers",
}

var customersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the reseller's customers",
	Args:  cobra.NoArgs,
	RunE: resellerCommand(func(ctx context.Context, c *reseller.Client, args []string) (any, error) {
		return c.ListCustomers(ctx)
	}),
}

var customersDeactivateCmd = &cobra.Command{
	Use:   "deactivate ID",
	Short: "Deactivate a customer",
	Args:  cobra.ExactArgs(1),
	RunE: resellerCommand(func(ctx context.Context, c *reseller.Client, args []string) (any, error) {
		return c.DeactivateCustomer(ctx, args[0])
	}),
}

func init() {
	for _, cmd := range []*cobra.Command{shippingMethodsCmd, additionalServicesCmd} {
		cmd.Flags().StringVar(&language, "lang", "EN", "response language")
	}

	f := pickupPointsCmd.Flags()
	f.StringVar(&pickupQuery.PostalCode, "postcode", "", "postal code to search around")
	f.StringVar(&pickupQuery.Country, "country", "FI", "country code")
	f.StringVar(&pickupQuery.StreetAddress, "address", "", "street address")
	f.StringVar(&pickupQuery.ServiceProvider, "provider", "", "limit to one service provider")
	f.IntVar(&pickupQuery.Limit, "limit", 5, "maximum number of results")
	pickupPointsCmd.MarkFlagRequired("postcode")

	f = labelCmd.Flags()
	f.StringVar(&labelFlags.routingID, "routing-id", "", "routing id of the request")
	f.StringVar(&labelFlags.format, "format", merchant.ResponseFormatFile, "response format (File or inline)")
	f.StringVar(&labelFlags.out, "out", "", "write the decoded PDF to this file")
	labelCmd.MarkFlagRequired("routing-id")

	customersCmd.AddCommand(customersListCmd, customersDeactivateCmd)
	rootCmd.AddCommand(
		shippingMethodsCmd,
		additionalServicesCmd,
		pickupPointsCmd,
		statusCmd,
		labelCmd,
		customersCmd,
	)
}

type merchantFunc func(ctx context.Context, c *merchant.Client, args []string) (any, error)

type resellerFunc func(ctx context.Context, c *reseller.Client, args []string) (any, error)

func merchantCommand(fn merchantFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, "stderr")
		if err != nil {
			return err
		}
		defer a.close(ctx)

		d, err := a.merchantDispatcher()
		if err != nil {
			return err
		}
		result, err := fn(ctx, merchant.New(d), args)
		if err != nil {
			return err
		}
		return printJSON(cmd, result)
	}
}

func resellerCommand(fn resellerFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, "stderr")
		if err != nil {
			return err
		}
		defer a.close(ctx)

		d, err := a.resellerDispatcher()
		if err != nil {
			return err
		}
		result, err := fn(ctx, reseller.New(d), args)
		if err != nil {
			return err
		}
		return printJSON(cmd, result)
	}
}

// shipmentStatuses looks codes up concurrently and keeps the argument order.
func shipmentStatuses(ctx context.Context, c *merchant.Client, codes []string) (any, error) {
	statuses := make([]any, len(codes))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(statusConcurrency)
	for i, code := range codes {
		g.Go(func() error {
			status, err := c.ShipmentStatus(ctx, code)
			if err != nil {
				return fmt.Errorf("status of %s: %w", code, err)
			}
			statuses[i] = status
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(statuses) == 1 {
		return statuses[0], nil
	}
	return statuses, nil
}

func shippingLabel(ctx context.Context, c *merchant.Client, codes []string) (any, error) {
	result, err := c.ShippingLabel(ctx, &merchant.LabelRequest{
		Routing:        merchant.RoutingInfo{ID: labelFlags.routingID},
		ResponseFormat: labelFlags.format,
		TrackingCodes:  codes,
	})
	if err != nil {
		return nil, err
	}
	if labelFlags.out == "" || result.Status != merchant.StatusOK {
		return result, nil
	}

	pdf, err := result.DecodePDF()
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(labelFlags.out, pdf, 0o644); err != nil {
		return nil, fmt.Errorf("writing label: %w", err)
	}
	return map[string]any{
		"status": result.Status,
		"file":   labelFlags.out,
		"bytes":  len(pdf),
	}, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
