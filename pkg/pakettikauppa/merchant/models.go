package merchant

import (
	"encoding/base64"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tournevent/pakettikauppa/pkg/pakettikauppa"
)

// RoutingTimeLayout is the wire layout of Routing.Time.
const RoutingTimeLayout = "20060102150405"

// RoutingInfo identifies the account and order a shipment or label request
// belongs to. The routing key is derived from ID and the credentials.
type RoutingInfo struct {
	// Account defaults to the API key of the client.
	Account string
	ID      string
	Name    string
	// Time defaults to the current time.
	Time time.Time
}

// Address is a sender or recipient. ContractID is only emitted for senders
// and Code only for recipients.
type Address struct {
	ContractID string
	Code       string
	Name1      string
	Name2      string
	Addr1      string
	Addr2      string
	Addr3      string
	Postcode   string
	City       string
	Country    string
	Phone      string
	VATCode    string
	Email      string
}

// Measure is a weight or volume with its unit.
type Measure struct {
	Unit  string
	Value decimal.Decimal
}

// ContentLine is the customs declaration of one parcel.
type ContentLine struct {
	Description     string
	Quantity        int
	Currency        string
	NetWeight       decimal.Decimal
	Value           decimal.Decimal
	CountryOfOrigin string
	TariffCode      string
}

// Parcel is one package of a consignment.
type Parcel struct {
	Reference     string
	PackageType   string
	Weight        *Measure
	Volume        *Measure
	InfoCode      string
	Contents      string
	ReturnService string
	ContentLine   *ContentLine
	// Services are parcel-level service codes.
	Services []string
}

// Specifier parameterizes an additional service.
type Specifier struct {
	Name  string
	Value string
}

// AdditionalService is an add-on such as cash on delivery or pickup point
// delivery.
type AdditionalService struct {
	ServiceCode string
	Specifiers  []Specifier
}

// Consignment is the shipment-level data shared by all parcels.
type Consignment struct {
	Currency           string
	ProductCode        string
	Reference          string
	InvoiceNumber      string
	AdditionalInfoText string
	ContentCode        string
	ReturnInstruction  string
	MerchandiseValue   *decimal.Decimal
	AdditionalServices []AdditionalService
	Parcels            []Parcel
}

// ShipmentRequest is the unit submitted to create a shipment.
type ShipmentRequest struct {
	Routing     RoutingInfo
	Sender      Address
	Recipient   Address
	Consignment Consignment
}

// LabelRequest asks for the labels of already created shipments.
type LabelRequest struct {
	Routing RoutingInfo
	// ResponseFormat is File or inline. Empty means File.
	ResponseFormat string
	TrackingCodes  []string
}

// Status is the outcome reported by the provider.
type Status string

const (
	StatusOK    Status = "OK"
	StatusError Status = "ERROR"
)

// Reference is the provider's reference for a created shipment.
type Reference struct {
	UUID  string `json:"uuid"`
	Value string `json:"value"`
}

// TrackingCode is the tracking code assigned to a created shipment.
type TrackingCode struct {
	URL   string `json:"tracking_url"`
	Value string `json:"value"`
}

// ShipmentResult is the parsed answer to a create-shipment request.
// Reference and TrackingCode are set only when Status is StatusOK.
type ShipmentResult struct {
	Status       Status        `json:"status"`
	Message      string        `json:"message"`
	Reference    *Reference    `json:"reference"`
	TrackingCode *TrackingCode `json:"trackingcode"`
}

// LabelResult is the parsed answer to a label request.
type LabelResult struct {
	Status           Status `json:"status"`
	Message          string `json:"message"`
	PDFContentBase64 string `json:"pdf_content,omitempty"`
	ContentEncoded   bool   `json:"content_encoded"`
}

// DecodePDF returns the raw label document.
func (r *LabelResult) DecodePDF() ([]byte, error) {
	if !r.ContentEncoded || r.PDFContentBase64 == "" {
		return nil, pakettikauppa.NewError(pakettikauppa.KindParse, "label result carries no PDF content")
	}
	pdf, err := base64.StdEncoding.DecodeString(r.PDFContentBase64)
	if err != nil {
		return nil, pakettikauppa.NewError(pakettikauppa.KindParse, "PDF content is not valid base64").WithCause(err)
	}
	return pdf, nil
}
