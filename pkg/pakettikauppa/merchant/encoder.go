package merchant

import (
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"

	"github.com/tournevent/pakettikauppa/pkg/pakettikauppa"
)

const xmlIndent = 3

// Encoder serializes shipment and label requests to the provider's XML
// schema. Element order is significant to the provider and is fixed here.
type Encoder struct {
	signer  *pakettikauppa.Signer
	account string

	// LegacyParcelReference emits an empty Parcel.Reference as the first
	// child of every parcel, followed by the real reference. The provider
	// has always received this shape. Turned off, a single Parcel.Reference
	// carries the value.
	LegacyParcelReference bool

	// Now supplies Routing.Time when the request leaves it zero.
	Now func() time.Time
}

// NewEncoder creates an Encoder that derives routing keys from credentials.
func NewEncoder(credentials *pakettikauppa.Credentials) *Encoder {
	return &Encoder{
		signer:                pakettikauppa.NewSigner(credentials),
		account:               credentials.APIKey(),
		LegacyParcelReference: true,
		Now:                   time.Now,
	}
}

// EncodeShipment renders a create-shipment document.
func (e *Encoder) EncodeShipment(req *ShipmentRequest) ([]byte, error) {
	if req == nil {
		return nil, pakettikauppa.NewError(pakettikauppa.KindInput, "missing shipment request")
	}

	doc := newDocument()
	root := doc.CreateElement("eChannel")

	if err := e.writeRouting(root, req.Routing); err != nil {
		return nil, err
	}

	shipment := root.CreateElement("Shipment")
	writeAddress(shipment.CreateElement("Shipment.Recipient"), "Recipient", req.Recipient)
	writeAddress(shipment.CreateElement("Shipment.Sender"), "Sender", req.Sender)

	if err := e.writeConsignment(shipment.CreateElement("Shipment.Consignment"), &req.Consignment); err != nil {
		return nil, err
	}

	return serialize(doc)
}

// EncodeLabel renders a label request document.
func (e *Encoder) EncodeLabel(req *LabelRequest) ([]byte, error) {
	if req == nil {
		return nil, pakettikauppa.NewError(pakettikauppa.KindInput, "missing label request")
	}

	format := req.ResponseFormat
	if format == "" {
		format = ResponseFormatFile
	}
	if err := ValidateResponseFormat(format); err != nil {
		return nil, err
	}
	if len(req.TrackingCodes) == 0 {
		return nil, pakettikauppa.MissingField("TrackingCode")
	}

	doc := newDocument()
	root := doc.CreateElement("eChannel")

	if err := e.writeRouting(root, req.Routing); err != nil {
		return nil, err
	}

	printLabel := root.CreateElement("PrintLabel")
	printLabel.CreateAttr("responseFormat", format)
	for _, code := range req.TrackingCodes {
		if code == "" {
			return nil, pakettikauppa.NewError(pakettikauppa.KindInput, "empty tracking code").WithField("TrackingCode")
		}
		printLabel.CreateElement("TrackingCode").SetText(code)
	}

	return serialize(doc)
}

// ============================================================================
// Element writers
// ============================================================================

func newDocument() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)
	return doc
}

func serialize(doc *etree.Document) ([]byte, error) {
	doc.Indent(xmlIndent)
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, pakettikauppa.NewError(pakettikauppa.KindInput, "failed to serialize XML").WithCause(err)
	}
	return out, nil
}

func (e *Encoder) writeRouting(parent *etree.Element, routing RoutingInfo) error {
	key, err := e.signer.RoutingKey(routing.ID)
	if err != nil {
		return err
	}

	account := routing.Account
	if account == "" {
		account = e.account
	}

	ts := routing.Time
	if ts.IsZero() {
		ts = e.Now()
	}

	el := parent.CreateElement("ROUTING")
	el.CreateElement("Routing.Account").SetText(account)
	el.CreateElement("Routing.Id").SetText(routing.ID)
	el.CreateElement("Routing.Key").SetText(key)
	el.CreateElement("Routing.Name").SetText(routing.Name)
	el.CreateElement("Routing.Time").SetText(ts.Format(RoutingTimeLayout))
	return nil
}

func writeAddress(el *etree.Element, prefix string, addr Address) {
	switch prefix {
	case "Sender":
		if addr.ContractID != "" {
			el.CreateElement("Sender.Contractid").SetText(addr.ContractID)
		}
	case "Recipient":
		if addr.Code != "" {
			el.CreateElement("Recipient.Code").SetText(addr.Code)
		}
	}

	fields := []struct {
		name  string
		value string
	}{
		{"Name1", addr.Name1},
		{"Name2", addr.Name2},
		{"Addr1", addr.Addr1},
		{"Addr2", addr.Addr2},
		{"Addr3", addr.Addr3},
		{"Postcode", addr.Postcode},
		{"City", addr.City},
		{"Country", addr.Country},
		{"Phone", addr.Phone},
		{"Vatcode", addr.VATCode},
		{"Email", addr.Email},
	}
	for _, f := range fields {
		el.CreateElement(prefix + "." + f.name).SetText(f.value)
	}
}

func (e *Encoder) writeConsignment(el *etree.Element, c *Consignment) error {
	currency := strings.ToUpper(c.Currency)
	if currency == "" {
		currency = DefaultCurrency
	}
	if c.ProductCode == "" {
		return pakettikauppa.MissingField("Consignment.Product")
	}
	if err := ValidateContentCode(c.ContentCode); err != nil {
		return err
	}
	if err := ValidateReturnInstruction(c.ReturnInstruction); err != nil {
		return err
	}

	el.CreateElement("Consignment.Currency").SetText(currency)
	el.CreateElement("Consignment.Product").SetText(c.ProductCode)
	el.CreateElement("Consignment.Reference").SetText(c.Reference)
	el.CreateElement("Consignment.Invoicenumber").SetText(c.InvoiceNumber)
	if c.AdditionalInfoText != "" {
		el.CreateElement("Consignment.AdditionalInfo").
			CreateElement("AdditionalInfo.Text").SetText(c.AdditionalInfoText)
	}
	el.CreateElement("Consignment.Contentcode").SetText(c.ContentCode)
	el.CreateElement("Consignment.Infocode")
	el.CreateElement("Consignment.ReturnInstruction").SetText(c.ReturnInstruction)

	merchandise := el.CreateElement("Consignment.Merchandisevalue")
	if c.MerchandiseValue != nil {
		merchandise.SetText(c.MerchandiseValue.String())
	}

	for _, svc := range c.AdditionalServices {
		writeAdditionalService(el.CreateElement("Consignment.AdditionalService"), svc)
	}

	for i := range c.Parcels {
		if err := e.writeParcel(el.CreateElement("Consignment.Parcel"), &c.Parcels[i]); err != nil {
			return err
		}
	}
	return nil
}

func writeAdditionalService(el *etree.Element, svc AdditionalService) {
	if svc.ServiceCode != "" {
		el.CreateElement("AdditionalService.ServiceCode").SetText(svc.ServiceCode)
	}
	for _, spec := range svc.Specifiers {
		child := el.CreateElement("AdditionalService.Specifier")
		child.CreateAttr("name", spec.Name)
		child.SetText(spec.Value)
	}
}

func (e *Encoder) writeParcel(el *etree.Element, p *Parcel) error {
	packageType := p.PackageType
	if packageType == "" {
		packageType = DefaultPackageType
	}
	if err := ValidatePackageType(packageType); err != nil {
		return err
	}
	if p.Weight != nil && p.Weight.Unit == "" {
		return pakettikauppa.MissingField("Parcel.Weight.unit")
	}

	el.CreateAttr("type", "normal")

	if e.LegacyParcelReference {
		el.CreateElement("Parcel.Reference")
		if p.Reference != "" {
			el.CreateElement("Parcel.Reference").SetText(p.Reference)
		}
	} else {
		el.CreateElement("Parcel.Reference").SetText(p.Reference)
	}

	el.CreateElement("Parcel.Packagetype").SetText(packageType)

	if p.Weight != nil {
		weight := el.CreateElement("Parcel.Weight")
		weight.CreateAttr("unit", p.Weight.Unit)
		weight.SetText(p.Weight.Value.String())
	}

	if p.Volume != nil {
		unit := p.Volume.Unit
		if unit == "" {
			unit = DefaultVolumeUnit
		}
		volume := el.CreateElement("Parcel.Volume")
		volume.CreateAttr("unit", unit)
		volume.SetText(p.Volume.Value.String())
	}

	setOptional(el, "Parcel.Infocode", p.InfoCode)
	setOptional(el, "Parcel.Contents", p.Contents)
	setOptional(el, "Parcel.ReturnService", p.ReturnService)

	if line := p.ContentLine; line != nil {
		cl := el.CreateElement("Parcel.contentline")
		cl.CreateElement("contentline.description").SetText(line.Description)
		cl.CreateElement("contentline.quantity").SetText(strconv.Itoa(line.Quantity))
		cl.CreateElement("contentline.currency").SetText(strings.ToUpper(line.Currency))
		cl.CreateElement("contentline.netweight").SetText(line.NetWeight.String())
		cl.CreateElement("contentline.value").SetText(line.Value.String())
		cl.CreateElement("contentline.countryoforigin").SetText(line.CountryOfOrigin)
		cl.CreateElement("contentline.tariffcode").SetText(line.TariffCode)
	}

	for _, code := range p.Services {
		el.CreateElement("Parcel.ParcelService").
			CreateElement("ParcelService.Servicecode").SetText(code)
	}
	return nil
}

func setOptional(parent *etree.Element, tag, value string) {
	if value != "" {
		parent.CreateElement(tag).SetText(value)
	}
}
