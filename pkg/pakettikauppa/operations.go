package pakettikauppa

// Operation names one provider API call.
type Operation string

// Merchant operations.
const (
	OpShippingMethodList    Operation = "get_shipping_method_list"
	OpAdditionalServiceList Operation = "get_additional_service_list"
	OpSearchPickupPoints    Operation = "search_pickup_points"
	OpShipmentStatus        Operation = "get_shipment_status"
	OpCreateShipment        Operation = "create_shipment"
	OpShippingLabel         Operation = "get_shipping_label"
)

// Reseller operations.
const (
	OpCreateCustomer     Operation = "create_customer"
	OpUpdateCustomer     Operation = "update_customer"
	OpListCustomers      Operation = "list_customer"
	OpDeactivateCustomer Operation = "deactivate_customer"
)

var operationSuffixes = map[Operation]string{
	OpShippingMethodList:    "/shipping-methods/list",
	OpAdditionalServiceList: "/additional-services/list",
	OpSearchPickupPoints:    "/pickup-points/search",
	OpShipmentStatus:        "/shipment/status",
	OpCreateShipment:        "/prinetti/create-shipment",
	OpShippingLabel:         "/prinetti/get-shipping-label",
	OpCreateCustomer:        "/customer/create",
	OpUpdateCustomer:        "/customer/update",
	OpListCustomers:         "/customer/list",
	OpDeactivateCustomer:    "/customer/deactivate",
}

// Suffix returns the URL path of the operation.
func (o Operation) Suffix() (string, error) {
	if o == "" {
		return "", NewError(KindInput, "missing operation name")
	}
	suffix, ok := operationSuffixes[o]
	if !ok {
		return "", Errorf(KindInput, "unknown operation %q", string(o))
	}
	return suffix, nil
}

// Operations returns every known operation.
func Operations() []Operation {
	return []Operation{
		OpShippingMethodList,
		OpAdditionalServiceList,
		OpSearchPickupPoints,
		OpShipmentStatus,
		OpCreateShipment,
		OpShippingLabel,
		OpCreateCustomer,
		OpUpdateCustomer,
		OpListCustomers,
		OpDeactivateCustomer,
	}
}
