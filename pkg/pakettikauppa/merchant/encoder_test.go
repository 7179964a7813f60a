package merchant_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tournevent/pakettikauppa/pkg/pakettikauppa"
	"github.com/tournevent/pakettikauppa/pkg/pakettikauppa/merchant"
)

var routingTime = time.Date(2016, 5, 29, 15, 24, 36, 0, time.UTC)

func testEncoder(t *testing.T) *merchant.Encoder {
	t.Helper()
	creds, err := pakettikauppa.MerchantCredentials("", "", true)
	require.NoError(t, err)
	enc := merchant.NewEncoder(creds)
	enc.Now = func() time.Time { return routingTime }
	return enc
}

func sampleShipment() *merchant.ShipmentRequest {
	merchandise := decimal.RequireFromString("150.50")
	return &merchant.ShipmentRequest{
		Routing: merchant.RoutingInfo{
			ID:   "1464524676",
			Name: "ORDER001",
			Time: routingTime,
		},
		Sender: merchant.Address{
			Name1:    "Vilkas Group Oy",
			Addr1:    "Finlaysoninkuja 19",
			Postcode: "33210",
			City:     "Tampere",
			Country:  "FI",
			VATCode:  "1234567-8",
			Email:    "sender@example.com",
		},
		Recipient: merchant.Address{
			Name1:    "Receiver name",
			Addr1:    "Nikinväylä 3",
			Postcode: "33100",
			City:     "Tampere",
			Country:  "FI",
			Phone:    "123456789",
			Email:    "recipient@example.com",
		},
		Consignment: merchant.Consignment{
			ProductCode:        "90010",
			Reference:          "3211479032410",
			InvoiceNumber:      "ORDER001",
			AdditionalInfoText: "Handle with care",
			ContentCode:        "D",
			ReturnInstruction:  "E",
			MerchandiseValue:   &merchandise,
			AdditionalServices: []merchant.AdditionalService{
				{
					ServiceCode: "2106",
					Specifiers:  []merchant.Specifier{{Name: "pickup_point_id", Value: "8547"}},
				},
				{
					ServiceCode: "3101",
					Specifiers: []merchant.Specifier{
						{Name: "amount", Value: "150"},
						{Name: "account", Value: "FI2180000012345678"},
					},
				},
			},
			Parcels: []merchant.Parcel{
				{
					Reference: "123456",
					Weight:    &merchant.Measure{Unit: "kg", Value: decimal.RequireFromString("1.2")},
					Volume:    &merchant.Measure{Value: decimal.RequireFromString("0.6")},
					Contents:  "Test products",
				},
			},
		},
	}
}

func parseXML(t *testing.T, body []byte) *etree.Element {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromBytes(body))
	require.NotNil(t, doc.Root())
	return doc.Root()
}

func childTags(el *etree.Element) []string {
	var tags []string
	for _, c := range el.ChildElements() {
		tags = append(tags, c.Tag)
	}
	return tags
}

func TestEncodeShipment_Document(t *testing.T) {
	body, err := testEncoder(t).EncodeShipment(sampleShipment())
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(body, []byte(`<?xml version="1.0" encoding="utf-8"?>`)))
	assert.Contains(t, string(body), "\n   <ROUTING>\n      <Routing.Account>")

	root := parseXML(t, body)
	assert.Equal(t, "eChannel", root.Tag)
	assert.Equal(t, []string{"ROUTING", "Shipment"}, childTags(root))
}

func TestEncodeShipment_Routing(t *testing.T) {
	body, err := testEncoder(t).EncodeShipment(sampleShipment())
	require.NoError(t, err)

	routing := parseXML(t, body).SelectElement("ROUTING")
	require.NotNil(t, routing)
	assert.Equal(t, []string{"Routing.Account", "Routing.Id", "Routing.Key", "Routing.Name", "Routing.Time"}, childTags(routing))
	assert.Equal(t, pakettikauppa.TestMerchantAPIKey, routing.SelectElement("Routing.Account").Text())
	assert.Equal(t, "9de2903abd77fc4a48b2c33a77420de8", routing.SelectElement("Routing.Key").Text())
	assert.Equal(t, "ORDER001", routing.SelectElement("Routing.Name").Text())
	assert.Equal(t, "20160529152436", routing.SelectElement("Routing.Time").Text())
}

func TestEncodeShipment_RoutingDefaultsTime(t *testing.T) {
	req := sampleShipment()
	req.Routing.Time = time.Time{}
	req.Routing.Account = "custom-account"

	body, err := testEncoder(t).EncodeShipment(req)
	require.NoError(t, err)

	routing := parseXML(t, body).SelectElement("ROUTING")
	assert.Equal(t, "custom-account", routing.SelectElement("Routing.Account").Text())
	assert.Equal(t, "20160529152436", routing.SelectElement("Routing.Time").Text())
}

func TestEncodeShipment_MissingRoutingID(t *testing.T) {
	req := sampleShipment()
	req.Routing.ID = ""

	_, err := testEncoder(t).EncodeShipment(req)
	assert.True(t, errors.Is(err, pakettikauppa.ErrInput))
}

func TestEncodeShipment_RecipientBeforeSender(t *testing.T) {
	body, err := testEncoder(t).EncodeShipment(sampleShipment())
	require.NoError(t, err)

	shipment := parseXML(t, body).SelectElement("Shipment")
	assert.Equal(t, []string{"Shipment.Recipient", "Shipment.Sender", "Shipment.Consignment"}, childTags(shipment))

	sender := shipment.SelectElement("Shipment.Sender")
	assert.Equal(t, []string{
		"Sender.Name1", "Sender.Name2", "Sender.Addr1", "Sender.Addr2", "Sender.Addr3",
		"Sender.Postcode", "Sender.City", "Sender.Country", "Sender.Phone", "Sender.Vatcode", "Sender.Email",
	}, childTags(sender))
	assert.Equal(t, "Vilkas Group Oy", sender.SelectElement("Sender.Name1").Text())
	assert.Equal(t, "1234567-8", sender.SelectElement("Sender.Vatcode").Text())
}

func TestEncodeShipment_AddressIdentifiers(t *testing.T) {
	req := sampleShipment()
	req.Sender.ContractID = "C-1"
	req.Recipient.Code = "R-1"

	body, err := testEncoder(t).EncodeShipment(req)
	require.NoError(t, err)

	shipment := parseXML(t, body).SelectElement("Shipment")
	assert.Equal(t, "Sender.Contractid", childTags(shipment.SelectElement("Shipment.Sender"))[0])
	assert.Equal(t, "Recipient.Code", childTags(shipment.SelectElement("Shipment.Recipient"))[0])
}

func TestEncodeShipment_ConsignmentOrder(t *testing.T) {
	body, err := testEncoder(t).EncodeShipment(sampleShipment())
	require.NoError(t, err)

	consignment := parseXML(t, body).FindElement("Shipment/Shipment.Consignment")
	require.NotNil(t, consignment)
	assert.Equal(t, []string{
		"Consignment.Currency",
		"Consignment.Product",
		"Consignment.Reference",
		"Consignment.Invoicenumber",
		"Consignment.AdditionalInfo",
		"Consignment.Contentcode",
		"Consignment.Infocode",
		"Consignment.ReturnInstruction",
		"Consignment.Merchandisevalue",
		"Consignment.AdditionalService",
		"Consignment.AdditionalService",
		"Consignment.Parcel",
	}, childTags(consignment))

	assert.Equal(t, "90010", consignment.SelectElement("Consignment.Product").Text())
	assert.Equal(t, "3211479032410", consignment.SelectElement("Consignment.Reference").Text())
	assert.Equal(t, "Handle with care", consignment.FindElement("Consignment.AdditionalInfo/AdditionalInfo.Text").Text())
	assert.Equal(t, "D", consignment.SelectElement("Consignment.Contentcode").Text())
	assert.Equal(t, "", consignment.SelectElement("Consignment.Infocode").Text())
	assert.Equal(t, "E", consignment.SelectElement("Consignment.ReturnInstruction").Text())
	assert.Equal(t, "150.5", consignment.SelectElement("Consignment.Merchandisevalue").Text())
}

func TestEncodeShipment_OptionalConsignmentFields(t *testing.T) {
	req := sampleShipment()
	req.Consignment.AdditionalInfoText = ""
	req.Consignment.ReturnInstruction = ""
	req.Consignment.MerchandiseValue = nil
	req.Consignment.AdditionalServices = nil

	body, err := testEncoder(t).EncodeShipment(req)
	require.NoError(t, err)

	consignment := parseXML(t, body).FindElement("Shipment/Shipment.Consignment")
	assert.Nil(t, consignment.SelectElement("Consignment.AdditionalInfo"))
	assert.Nil(t, consignment.SelectElement("Consignment.AdditionalService"))
	require.NotNil(t, consignment.SelectElement("Consignment.ReturnInstruction"))
	assert.Equal(t, "", consignment.SelectElement("Consignment.ReturnInstruction").Text())
	require.NotNil(t, consignment.SelectElement("Consignment.Merchandisevalue"))
	assert.Equal(t, "", consignment.SelectElement("Consignment.Merchandisevalue").Text())
}

func TestEncodeShipment_Currency(t *testing.T) {
	tests := []struct {
		name     string
		currency string
		expected string
	}{
		{name: "default", currency: "", expected: "EUR"},
		{name: "upper-cased", currency: "sek", expected: "SEK"},
		{name: "unchanged", currency: "USD", expected: "USD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := sampleShipment()
			req.Consignment.Currency = tt.currency

			body, err := testEncoder(t).EncodeShipment(req)
			require.NoError(t, err)

			el := parseXML(t, body).FindElement("Shipment/Shipment.Consignment/Consignment.Currency")
			require.NotNil(t, el)
			assert.Equal(t, tt.expected, el.Text())
		})
	}
}

func TestEncodeShipment_AdditionalServices(t *testing.T) {
	body, err := testEncoder(t).EncodeShipment(sampleShipment())
	require.NoError(t, err)

	services := parseXML(t, body).FindElements("Shipment/Shipment.Consignment/Consignment.AdditionalService")
	require.Len(t, services, 2)

	assert.Equal(t, "2106", services[0].SelectElement("AdditionalService.ServiceCode").Text())
	specs := services[0].SelectElements("AdditionalService.Specifier")
	require.Len(t, specs, 1)
	assert.Equal(t, "pickup_point_id", specs[0].SelectAttrValue("name", ""))
	assert.Equal(t, "8547", specs[0].Text())

	specs = services[1].SelectElements("AdditionalService.Specifier")
	require.Len(t, specs, 2)
	assert.Equal(t, "account", specs[1].SelectAttrValue("name", ""))
	assert.Equal(t, "FI2180000012345678", specs[1].Text())
}

func TestEncodeShipment_Parcel(t *testing.T) {
	body, err := testEncoder(t).EncodeShipment(sampleShipment())
	require.NoError(t, err)

	parcel := parseXML(t, body).FindElement("Shipment/Shipment.Consignment/Consignment.Parcel")
	require.NotNil(t, parcel)
	assert.Equal(t, "normal", parcel.SelectAttrValue("type", ""))
	assert.Equal(t, []string{
		"Parcel.Reference",
		"Parcel.Reference",
		"Parcel.Packagetype",
		"Parcel.Weight",
		"Parcel.Volume",
		"Parcel.Contents",
	}, childTags(parcel))

	refs := parcel.SelectElements("Parcel.Reference")
	assert.Equal(t, "", refs[0].Text())
	assert.Equal(t, "123456", refs[1].Text())
	assert.Equal(t, "PC", parcel.SelectElement("Parcel.Packagetype").Text())

	weight := parcel.SelectElement("Parcel.Weight")
	assert.Equal(t, "kg", weight.SelectAttrValue("unit", ""))
	assert.Equal(t, "1.2", weight.Text())

	volume := parcel.SelectElement("Parcel.Volume")
	assert.Equal(t, "m3", volume.SelectAttrValue("unit", ""))
	assert.Equal(t, "0.6", volume.Text())
}

func TestEncodeShipment_SingleParcelReference(t *testing.T) {
	enc := testEncoder(t)
	enc.LegacyParcelReference = false

	body, err := enc.EncodeShipment(sampleShipment())
	require.NoError(t, err)

	parcel := parseXML(t, body).FindElement("Shipment/Shipment.Consignment/Consignment.Parcel")
	refs := parcel.SelectElements("Parcel.Reference")
	require.Len(t, refs, 1)
	assert.Equal(t, "123456", refs[0].Text())
}

func TestEncodeShipment_ParcelDetails(t *testing.T) {
	req := sampleShipment()
	req.Consignment.Parcels = append(req.Consignment.Parcels, merchant.Parcel{
		PackageType:   "ZPE",
		InfoCode:      "1012",
		ReturnService: "123",
		ContentLine: &merchant.ContentLine{
			Description:     "Puita",
			Quantity:        2,
			Currency:        "eur",
			NetWeight:       decimal.NewFromInt(1),
			Value:           decimal.NewFromInt(100),
			CountryOfOrigin: "FI",
			TariffCode:      "9608101000",
		},
		Services: []string{"PS1", "PS2"},
	})

	body, err := testEncoder(t).EncodeShipment(req)
	require.NoError(t, err)

	parcels := parseXML(t, body).FindElements("Shipment/Shipment.Consignment/Consignment.Parcel")
	require.Len(t, parcels, 2)

	parcel := parcels[1]
	assert.Equal(t, []string{
		"Parcel.Reference",
		"Parcel.Packagetype",
		"Parcel.Infocode",
		"Parcel.ReturnService",
		"Parcel.contentline",
		"Parcel.ParcelService",
		"Parcel.ParcelService",
	}, childTags(parcel))

	line := parcel.SelectElement("Parcel.contentline")
	assert.Equal(t, []string{
		"contentline.description", "contentline.quantity", "contentline.currency",
		"contentline.netweight", "contentline.value", "contentline.countryoforigin",
		"contentline.tariffcode",
	}, childTags(line))
	assert.Equal(t, "2", line.SelectElement("contentline.quantity").Text())
	assert.Equal(t, "EUR", line.SelectElement("contentline.currency").Text())

	services := parcel.SelectElements("Parcel.ParcelService")
	assert.Equal(t, "PS2", services[1].SelectElement("ParcelService.Servicecode").Text())
}

func TestEncodeShipment_PackageType(t *testing.T) {
	req := sampleShipment()
	req.Consignment.Parcels[0].PackageType = "AB"

	_, err := testEncoder(t).EncodeShipment(req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, pakettikauppa.ErrInvalidCode))

	req.Consignment.Parcels[0].PackageType = "PC"
	_, err = testEncoder(t).EncodeShipment(req)
	assert.NoError(t, err)
}

func TestEncodeShipment_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *merchant.ShipmentRequest)
		target error
		field  string
	}{
		{
			name:   "missing product",
			mutate: func(r *merchant.ShipmentRequest) { r.Consignment.ProductCode = "" },
			target: pakettikauppa.ErrMissingField,
			field:  "Consignment.Product",
		},
		{
			name:   "missing content code",
			mutate: func(r *merchant.ShipmentRequest) { r.Consignment.ContentCode = "" },
			target: pakettikauppa.ErrMissingField,
			field:  "Consignment.Contentcode",
		},
		{
			name:   "invalid content code",
			mutate: func(r *merchant.ShipmentRequest) { r.Consignment.ContentCode = "X" },
			target: pakettikauppa.ErrInvalidCode,
			field:  "Consignment.Contentcode",
		},
		{
			name:   "invalid return instruction",
			mutate: func(r *merchant.ShipmentRequest) { r.Consignment.ReturnInstruction = "Z" },
			target: pakettikauppa.ErrInvalidCode,
			field:  "Consignment.ReturnInstruction",
		},
		{
			name:   "weight without unit",
			mutate: func(r *merchant.ShipmentRequest) { r.Consignment.Parcels[0].Weight.Unit = "" },
			target: pakettikauppa.ErrMissingField,
			field:  "Parcel.Weight.unit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := sampleShipment()
			tt.mutate(req)

			_, err := testEncoder(t).EncodeShipment(req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target))

			var apiErr *pakettikauppa.Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.field, apiErr.Field)
		})
	}
}

func TestEncodeLabel(t *testing.T) {
	body, err := testEncoder(t).EncodeLabel(&merchant.LabelRequest{
		Routing:       merchant.RoutingInfo{ID: "1479035179", Name: "ORDER001"},
		TrackingCodes: []string{"JJFITESTLABEL601", "JJFITESTLABEL602"},
	})
	require.NoError(t, err)

	root := parseXML(t, body)
	assert.Equal(t, []string{"ROUTING", "PrintLabel"}, childTags(root))

	printLabel := root.SelectElement("PrintLabel")
	assert.Equal(t, "File", printLabel.SelectAttrValue("responseFormat", ""))

	codes := printLabel.SelectElements("TrackingCode")
	require.Len(t, codes, 2)
	assert.Equal(t, "JJFITESTLABEL601", codes[0].Text())
	assert.Equal(t, "JJFITESTLABEL602", codes[1].Text())
}

func TestEncodeLabel_Errors(t *testing.T) {
	enc := testEncoder(t)
	routing := merchant.RoutingInfo{ID: "1"}

	_, err := enc.EncodeLabel(&merchant.LabelRequest{Routing: routing, ResponseFormat: "pdf", TrackingCodes: []string{"A"}})
	assert.True(t, errors.Is(err, pakettikauppa.ErrInvalidCode))

	_, err = enc.EncodeLabel(&merchant.LabelRequest{Routing: routing})
	assert.True(t, errors.Is(err, pakettikauppa.ErrMissingField))

	body, err := enc.EncodeLabel(&merchant.LabelRequest{Routing: routing, ResponseFormat: "inline", TrackingCodes: []string{"A"}})
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `responseFormat="inline"`))
}
