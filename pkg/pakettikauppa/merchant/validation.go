package merchant

import (
	"slices"

	"github.com/tournevent/pakettikauppa/pkg/pakettikauppa"
)

// DefaultPackageType is used when a parcel has no package type.
const DefaultPackageType = "PC"

// DefaultCurrency is used when a consignment has no currency.
const DefaultCurrency = "EUR"

// DefaultVolumeUnit is used when a volume has no unit.
const DefaultVolumeUnit = "m3"

// Label response formats.
const (
	ResponseFormatFile   = "File"
	ResponseFormatInline = "inline"
)

var (
	packageTypes = []string{
		"PC",  // parcel or letter
		"PU",  // roll cage
		"ZPF", // FIN pallet 100x120
		"ZPE", // EUR pallet 80x120
		"ZPT", // half pallet 80x60
		"CG",  // cage
		"ZPX", // furniture pallet
		"PM",  // thermo box 40 l
		"TB",  // thermo box 102 l
		"TC",  // thermo box 65 l
		"TU",  // thermo roll cage
		"LTK", // box
		"KA",  // bag
		"VA",  // trolley
	}

	contentCodes = []string{
		"D", // documents
		"E", // document pack
		"G", // gift
		"M", // merchandise
		"S", // sample
	}

	returnInstructionCodes = []string{
		"E", // most economical route
		"H", // abandon
		"L", // by air
	}

	responseFormats = []string{ResponseFormatFile, ResponseFormatInline}
)

var (
	senderKeys = []string{
		"Sender.Contractid", "Sender.Name1", "Sender.Name2", "Sender.Addr1",
		"Sender.Addr2", "Sender.Addr3", "Sender.Postcode", "Sender.City",
		"Sender.Country", "Sender.Phone", "Sender.Vatcode", "Sender.Email",
	}

	recipientKeys = []string{
		"Recipient.Code", "Recipient.Name1", "Recipient.Name2", "Recipient.Addr1",
		"Recipient.Addr2", "Recipient.Addr3", "Recipient.Postcode", "Recipient.City",
		"Recipient.Country", "Recipient.Phone", "Recipient.Vatcode", "Recipient.Email",
	}

	parcelKeys = []string{
		"Parcel.Reference", "Parcel.Packagetype", "Parcel.Weight", "Parcel.Volume",
		"Parcel.Infocode", "Parcel.Contents", "Parcel.ReturnService",
		"Parcel.contentline", "Parcel.ParcelService",
	}

	contentLineKeys = []string{
		"contentline.description", "contentline.quantity", "contentline.currency",
		"contentline.netweight", "contentline.value", "contentline.countryoforigin",
		"contentline.tariffcode",
	}
)

// PackageTypes returns the accepted package type codes.
func PackageTypes() []string { return slices.Clone(packageTypes) }

// ContentCodes returns the accepted content codes.
func ContentCodes() []string { return slices.Clone(contentCodes) }

// ReturnInstructionCodes returns the accepted return instruction codes.
func ReturnInstructionCodes() []string { return slices.Clone(returnInstructionCodes) }

// SenderKeys returns the field names accepted in Shipment.Sender, in wire order.
func SenderKeys() []string { return slices.Clone(senderKeys) }

// RecipientKeys returns the field names accepted in Shipment.Recipient, in wire order.
func RecipientKeys() []string { return slices.Clone(recipientKeys) }

// ParcelKeys returns the field names accepted in Consignment.Parcel, in wire order.
func ParcelKeys() []string { return slices.Clone(parcelKeys) }

// ValidatePackageType checks code against the package type table.
func ValidatePackageType(code string) error {
	return validateCode("Parcel.Packagetype", code, packageTypes)
}

// ValidateContentCode checks code against the content code table.
// Content code is mandatory, so an empty code is a MissingField error.
func ValidateContentCode(code string) error {
	if code == "" {
		return pakettikauppa.MissingField("Consignment.Contentcode")
	}
	return validateCode("Consignment.Contentcode", code, contentCodes)
}

// ValidateReturnInstruction checks code against the return instruction
// table. The empty code is allowed.
func ValidateReturnInstruction(code string) error {
	if code == "" {
		return nil
	}
	return validateCode("Consignment.ReturnInstruction", code, returnInstructionCodes)
}

// ValidateResponseFormat checks a label response format.
func ValidateResponseFormat(format string) error {
	return validateCode("responseFormat", format, responseFormats)
}

func validateCode(field, code string, allowed []string) error {
	if !slices.Contains(allowed, code) {
		return pakettikauppa.InvalidCode(field, code, allowed)
	}
	return nil
}
