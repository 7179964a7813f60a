package merchant

import (
	"strings"

	"github.com/beevik/etree"

	"github.com/tournevent/pakettikauppa/pkg/pakettikauppa"
)

// MissingPDFMessage is reported when a label response has no file element.
const MissingPDFMessage = "Unable to find PDF content from response data"

// statusSuccess is the response.status text the provider uses for success.
const statusSuccess = "0"

// DecodeShipmentResult parses a create-shipment response document.
func DecodeShipmentResult(body []byte) (*ShipmentResult, error) {
	root, err := parseResponse(body)
	if err != nil {
		return nil, err
	}

	result := &ShipmentResult{
		Status:  responseStatus(root),
		Message: childText(root, "response.message"),
	}
	if result.Status != StatusOK {
		return result, nil
	}

	ref := root.SelectElement("response.reference")
	if ref == nil {
		return nil, missingElement("response.reference")
	}
	trk := root.SelectElement("response.trackingcode")
	if trk == nil {
		return nil, missingElement("response.trackingcode")
	}

	result.Reference = &Reference{
		UUID:  ref.SelectAttrValue("uuid", ""),
		Value: strings.TrimSpace(ref.Text()),
	}
	result.TrackingCode = &TrackingCode{
		URL:   trk.SelectAttrValue("tracking_url", ""),
		Value: strings.TrimSpace(trk.Text()),
	}
	return result, nil
}

// DecodeLabelResult parses a label response document. A response without a
// file element is a StatusError result, not an error.
func DecodeLabelResult(body []byte) (*LabelResult, error) {
	root, err := parseResponse(body)
	if err != nil {
		return nil, err
	}

	file := root.SelectElement("response.file")
	if file == nil {
		return &LabelResult{
			Status:  StatusError,
			Message: MissingPDFMessage,
		}, nil
	}

	return &LabelResult{
		Status:           responseStatus(root),
		Message:          childText(root, "response.message"),
		PDFContentBase64: strings.TrimSpace(file.Text()),
		ContentEncoded:   true,
	}, nil
}

func parseResponse(body []byte) (*etree.Element, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, pakettikauppa.NewError(pakettikauppa.KindParse, "response is not valid XML").
			WithCause(err).
			WithBody(string(body))
	}
	root := doc.Root()
	if root == nil {
		return nil, pakettikauppa.NewError(pakettikauppa.KindParse, "response has no root element").
			WithBody(string(body))
	}
	return root, nil
}

func responseStatus(root *etree.Element) Status {
	if childText(root, "response.status") == statusSuccess {
		return StatusOK
	}
	return StatusError
}

func childText(root *etree.Element, tag string) string {
	el := root.SelectElement(tag)
	if el == nil {
		return ""
	}
	return strings.TrimSpace(el.Text())
}

func missingElement(tag string) *pakettikauppa.Error {
	return pakettikauppa.Errorf(pakettikauppa.KindParse, "successful response is missing %s", tag).WithField(tag)
}
