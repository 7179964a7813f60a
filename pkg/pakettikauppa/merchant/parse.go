package merchant

import (
	"slices"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"github.com/tournevent/pakettikauppa/pkg/pakettikauppa"
)

// ParseShipmentRequest builds a ShipmentRequest from the provider-shaped
// nested mapping (eChannel > ROUTING, Shipment > Shipment.Sender, ...).
//
// Structural keys are checked in document order, so the first missing one
// is the one reported. Address and parcel keys are checked against their
// whitelists in sorted order.
func ParseShipmentRequest(data map[string]any) (*ShipmentRequest, error) {
	channel, err := requireMap(data, "eChannel")
	if err != nil {
		return nil, err
	}
	routingData, err := requireMap(channel, "ROUTING")
	if err != nil {
		return nil, err
	}
	shipmentData, err := requireMap(channel, "Shipment")
	if err != nil {
		return nil, err
	}
	senderData, err := requireMap(shipmentData, "Shipment.Sender")
	if err != nil {
		return nil, err
	}
	recipientData, err := requireMap(shipmentData, "Shipment.Recipient")
	if err != nil {
		return nil, err
	}
	consignmentData, err := requireMap(shipmentData, "Shipment.Consignment")
	if err != nil {
		return nil, err
	}

	req := &ShipmentRequest{}
	if req.Routing, err = parseRouting(routingData); err != nil {
		return nil, err
	}
	if req.Sender, err = parseAddress(senderData, "Sender"); err != nil {
		return nil, err
	}
	if req.Recipient, err = parseAddress(recipientData, "Recipient"); err != nil {
		return nil, err
	}
	if req.Consignment, err = parseConsignment(consignmentData); err != nil {
		return nil, err
	}
	return req, nil
}

// ParseLabelRequest builds a LabelRequest from the nested mapping
// eChannel > ROUTING, PrintLabel{responseFormat, content{TrackingCode}}.
// TrackingCode may be a string, a {"Code": ...} mapping or a list of either.
func ParseLabelRequest(data map[string]any) (*LabelRequest, error) {
	channel, err := requireMap(data, "eChannel")
	if err != nil {
		return nil, err
	}
	routingData, err := requireMap(channel, "ROUTING")
	if err != nil {
		return nil, err
	}
	printLabel, err := requireMap(channel, "PrintLabel")
	if err != nil {
		return nil, err
	}
	content, err := requireMap(printLabel, "content")
	if err != nil {
		return nil, err
	}

	req := &LabelRequest{}
	if req.Routing, err = parseRouting(routingData); err != nil {
		return nil, err
	}
	if req.ResponseFormat, err = stringValue(printLabel["responseFormat"], "responseFormat"); err != nil {
		return nil, err
	}

	for _, key := range sortedKeys(content) {
		if key != "TrackingCode" {
			return nil, pakettikauppa.InvalidField(key)
		}
	}

	var codes []any
	switch v := content["TrackingCode"].(type) {
	case nil:
	case []any:
		codes = v
	case []string:
		for _, c := range v {
			codes = append(codes, c)
		}
	default:
		codes = []any{v}
	}

	for _, item := range codes {
		if m, ok := item.(map[string]any); ok {
			item = m["Code"]
		}
		code, err := stringValue(item, "TrackingCode")
		if err != nil {
			return nil, err
		}
		if code != "" {
			req.TrackingCodes = append(req.TrackingCodes, code)
		}
	}
	if len(req.TrackingCodes) == 0 {
		return nil, pakettikauppa.MissingField("TrackingCode")
	}
	return req, nil
}

// ============================================================================
// Section parsers
// ============================================================================

func parseRouting(data map[string]any) (RoutingInfo, error) {
	var routing RoutingInfo
	var err error

	if routing.ID, err = stringValue(data["Routing.Id"], "Routing.Id"); err != nil {
		return routing, err
	}
	if routing.ID == "" {
		return routing, pakettikauppa.MissingField("Routing.Id")
	}
	if routing.Account, err = stringValue(data["Routing.Account"], "Routing.Account"); err != nil {
		return routing, err
	}
	if routing.Name, err = stringValue(data["Routing.Name"], "Routing.Name"); err != nil {
		return routing, err
	}

	ts, err := stringValue(data["Routing.Time"], "Routing.Time")
	if err != nil {
		return routing, err
	}
	if ts != "" {
		routing.Time, err = time.ParseInLocation(RoutingTimeLayout, ts, time.Local)
		if err != nil {
			return routing, pakettikauppa.Errorf(pakettikauppa.KindInput, "Routing.Time must use layout %s", RoutingTimeLayout).
				WithField("Routing.Time").
				WithCause(err)
		}
	}
	return routing, nil
}

func parseAddress(data map[string]any, prefix string) (Address, error) {
	var addr Address
	fields := map[string]*string{
		prefix + ".Name1":    &addr.Name1,
		prefix + ".Name2":    &addr.Name2,
		prefix + ".Addr1":    &addr.Addr1,
		prefix + ".Addr2":    &addr.Addr2,
		prefix + ".Addr3":    &addr.Addr3,
		prefix + ".Postcode": &addr.Postcode,
		prefix + ".City":     &addr.City,
		prefix + ".Country":  &addr.Country,
		prefix + ".Phone":    &addr.Phone,
		prefix + ".Vatcode":  &addr.VATCode,
		prefix + ".Email":    &addr.Email,
	}
	if prefix == "Sender" {
		fields["Sender.Contractid"] = &addr.ContractID
	} else {
		fields["Recipient.Code"] = &addr.Code
	}

	for _, key := range sortedKeys(data) {
		target, ok := fields[key]
		if !ok {
			return addr, pakettikauppa.InvalidField(key)
		}
		v, err := stringValue(data[key], key)
		if err != nil {
			return addr, err
		}
		*target = v
	}
	return addr, nil
}

func parseConsignment(data map[string]any) (Consignment, error) {
	var c Consignment
	var err error

	strFields := []struct {
		key    string
		target *string
	}{
		{"Consignment.Currency", &c.Currency},
		{"Consignment.Product", &c.ProductCode},
		{"Consignment.Reference", &c.Reference},
		{"Consignment.Invoicenumber", &c.InvoiceNumber},
		{"Consignment.Contentcode", &c.ContentCode},
		{"Consignment.ReturnInstruction", &c.ReturnInstruction},
	}
	for _, f := range strFields {
		if *f.target, err = stringValue(data[f.key], f.key); err != nil {
			return c, err
		}
	}

	switch info := data["Consignment.AdditionalInfo"].(type) {
	case nil:
	case map[string]any:
		if c.AdditionalInfoText, err = stringValue(info["AdditionalInfo.Text"], "AdditionalInfo.Text"); err != nil {
			return c, err
		}
	default:
		if c.AdditionalInfoText, err = stringValue(info, "Consignment.AdditionalInfo"); err != nil {
			return c, err
		}
	}

	value, ok, err := decimalValue(data["Consignment.Merchandisevalue"], "Consignment.Merchandisevalue")
	if err != nil {
		return c, err
	}
	if ok {
		c.MerchandiseValue = &value
	}

	services, err := mapList(data["Consignment.AdditionalService"], "Consignment.AdditionalService")
	if err != nil {
		return c, err
	}
	for _, s := range services {
		svc, err := parseAdditionalService(s)
		if err != nil {
			return c, err
		}
		c.AdditionalServices = append(c.AdditionalServices, svc)
	}

	parcels, err := mapList(data["Consignment.Parcel"], "Consignment.Parcel")
	if err != nil {
		return c, err
	}
	for _, p := range parcels {
		if len(p) == 0 {
			continue
		}
		parcel, err := parseParcel(p)
		if err != nil {
			return c, err
		}
		c.Parcels = append(c.Parcels, parcel)
	}
	return c, nil
}

func parseAdditionalService(data map[string]any) (AdditionalService, error) {
	var svc AdditionalService
	var err error

	if svc.ServiceCode, err = stringValue(data["AdditionalService.ServiceCode"], "AdditionalService.ServiceCode"); err != nil {
		return svc, err
	}

	specs, err := mapList(data["AdditionalService.Specifier"], "AdditionalService.Specifier")
	if err != nil {
		return svc, err
	}
	for _, s := range specs {
		if len(s) == 0 {
			continue
		}
		var spec Specifier
		if spec.Name, err = stringValue(s["name"], "AdditionalService.Specifier.name"); err != nil {
			return svc, err
		}
		if spec.Value, err = stringValue(s["value"], "AdditionalService.Specifier.value"); err != nil {
			return svc, err
		}
		svc.Specifiers = append(svc.Specifiers, spec)
	}
	return svc, nil
}

func parseParcel(data map[string]any) (Parcel, error) {
	var p Parcel
	var err error

	for _, key := range sortedKeys(data) {
		if !slices.Contains(parcelKeys, key) {
			return p, pakettikauppa.InvalidField(key)
		}
	}

	strFields := []struct {
		key    string
		target *string
	}{
		{"Parcel.Reference", &p.Reference},
		{"Parcel.Packagetype", &p.PackageType},
		{"Parcel.Infocode", &p.InfoCode},
		{"Parcel.Contents", &p.Contents},
		{"Parcel.ReturnService", &p.ReturnService},
	}
	for _, f := range strFields {
		if *f.target, err = stringValue(data[f.key], f.key); err != nil {
			return p, err
		}
	}

	if p.Weight, err = parseMeasure(data["Parcel.Weight"], "Parcel.Weight", true); err != nil {
		return p, err
	}
	if p.Volume, err = parseMeasure(data["Parcel.Volume"], "Parcel.Volume", false); err != nil {
		return p, err
	}
	if p.ContentLine, err = parseContentLine(data["Parcel.contentline"]); err != nil {
		return p, err
	}

	services, err := mapList(data["Parcel.ParcelService"], "Parcel.ParcelService")
	if err != nil {
		return p, err
	}
	for _, s := range services {
		code, err := stringValue(s["ParcelService.Servicecode"], "ParcelService.Servicecode")
		if err != nil {
			return p, err
		}
		if code != "" {
			p.Services = append(p.Services, code)
		}
	}
	return p, nil
}

// parseMeasure reads {"unit"|"weight_unit": ..., "value": ...}. Weight units
// are mandatory; volume units default later.
func parseMeasure(v any, field string, unitRequired bool) (*Measure, error) {
	if v == nil {
		return nil, nil
	}
	data, ok := v.(map[string]any)
	if !ok {
		return nil, pakettikauppa.Errorf(pakettikauppa.KindInput, "%s must be a mapping", field).WithField(field)
	}

	raw := data["unit"]
	if w, ok := data["weight_unit"]; ok {
		raw = w
	}
	unit, err := stringValue(raw, field+".unit")
	if err != nil {
		return nil, err
	}
	if unit == "" && unitRequired {
		return nil, pakettikauppa.MissingField(field + ".unit")
	}

	value, ok, err := decimalValue(data["value"], field+".value")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, pakettikauppa.MissingField(field + ".value")
	}
	return &Measure{Unit: unit, Value: value}, nil
}

func parseContentLine(v any) (*ContentLine, error) {
	if v == nil {
		return nil, nil
	}
	data, ok := v.(map[string]any)
	if !ok {
		return nil, pakettikauppa.NewError(pakettikauppa.KindInput, "Parcel.contentline must be a mapping").WithField("Parcel.contentline")
	}
	if len(data) == 0 {
		return nil, nil
	}
	for _, key := range sortedKeys(data) {
		if !slices.Contains(contentLineKeys, key) {
			return nil, pakettikauppa.InvalidField(key)
		}
	}

	line := &ContentLine{}
	var err error
	strFields := []struct {
		key    string
		target *string
	}{
		{"contentline.description", &line.Description},
		{"contentline.currency", &line.Currency},
		{"contentline.countryoforigin", &line.CountryOfOrigin},
		{"contentline.tariffcode", &line.TariffCode},
	}
	for _, f := range strFields {
		if *f.target, err = stringValue(data[f.key], f.key); err != nil {
			return nil, err
		}
	}

	if q := data["contentline.quantity"]; q != nil {
		if line.Quantity, err = cast.ToIntE(q); err != nil {
			return nil, pakettikauppa.NewError(pakettikauppa.KindInput, "contentline.quantity must be an integer").
				WithField("contentline.quantity").
				WithCause(err)
		}
	}
	if line.NetWeight, _, err = decimalValue(data["contentline.netweight"], "contentline.netweight"); err != nil {
		return nil, err
	}
	if line.Value, _, err = decimalValue(data["contentline.value"], "contentline.value"); err != nil {
		return nil, err
	}
	return line, nil
}

// ============================================================================
// Value helpers
// ============================================================================

func requireMap(data map[string]any, key string) (map[string]any, error) {
	v, ok := data[key]
	if !ok || v == nil {
		return nil, pakettikauppa.MissingField(key)
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, pakettikauppa.Errorf(pakettikauppa.KindInput, "%s must be a mapping", key).WithField(key)
	}
	return m, nil
}

// mapList accepts nil, a single mapping or a list of mappings.
func mapList(v any, field string) ([]map[string]any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return []map[string]any{t}, nil
	case []map[string]any:
		return t, nil
	case []any:
		out := make([]map[string]any, 0, len(t))
		for _, item := range t {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, pakettikauppa.Errorf(pakettikauppa.KindInput, "%s entries must be mappings", field).WithField(field)
			}
			out = append(out, m)
		}
		return out, nil
	}
	return nil, pakettikauppa.Errorf(pakettikauppa.KindInput, "%s must be a mapping or a list of mappings", field).WithField(field)
}

func stringValue(v any, field string) (string, error) {
	if v == nil {
		return "", nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", pakettikauppa.Errorf(pakettikauppa.KindInput, "%s must be a scalar value", field).
			WithField(field).
			WithCause(err)
	}
	return s, nil
}

// decimalValue reports ok=false for nil and empty values.
func decimalValue(v any, field string) (decimal.Decimal, bool, error) {
	s, err := stringValue(v, field)
	if err != nil || s == "" {
		return decimal.Zero, false, err
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false, pakettikauppa.Errorf(pakettikauppa.KindInput, "%s must be numeric", field).
			WithField(field).
			WithCause(err)
	}
	return d, true, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
