package reseller

import (
	"slices"
	"sort"
	"strings"
	"unicode"

	"github.com/tournevent/pakettikauppa/pkg/pakettikauppa"
)

// Payment service providers accepted for a customer.
const (
	PSPCheckout   = "CHECKOUT"
	PSPCreditCard = "CREDIT_CARD"
)

var customerKeys = []string{
	"name",
	"business_id",
	"payment_service_provider",
	"psp_merchant_id",
	"marketing_name",
	"street_address",
	"post_office",
	"postcode",
	"country",
	"phone",
	"email",
	"contact_person_name",
	"contact_person_phone",
	"contact_person_email",
	"customer_service_phone",
	"customer_service_email",
}

var mandatoryKeys = []string{
	"name",
	"business_id",
	"street_address",
	"post_office",
	"postcode",
	"country",
	"phone",
	"email",
	"contact_person_name",
	"contact_person_phone",
	"contact_person_email",
}

var phoneKeys = []string{"phone", "contact_person_phone", "customer_service_phone"}

var paymentServiceProviders = []string{PSPCheckout, PSPCreditCard}

// CustomerKeys returns the accepted customer field names in wire order.
func CustomerKeys() []string { return slices.Clone(customerKeys) }

// CustomerFields is a set of customer attributes keyed by their wire names.
type CustomerFields map[string]string

// Customer is the typed form of a complete customer record.
type Customer struct {
	Name                   string
	BusinessID             string
	PaymentServiceProvider string
	PSPMerchantID          string
	MarketingName          string
	StreetAddress          string
	PostOffice             string
	Postcode               string
	Country                string
	Phone                  string
	Email                  string
	ContactPersonName      string
	ContactPersonPhone     string
	ContactPersonEmail     string
	CustomerServicePhone   string
	CustomerServiceEmail   string
}

// Fields returns every customer key, empty values included.
func (c *Customer) Fields() CustomerFields {
	return CustomerFields{
		"name":                     c.Name,
		"business_id":              c.BusinessID,
		"payment_service_provider": c.PaymentServiceProvider,
		"psp_merchant_id":          c.PSPMerchantID,
		"marketing_name":           c.MarketingName,
		"street_address":           c.StreetAddress,
		"post_office":              c.PostOffice,
		"postcode":                 c.Postcode,
		"country":                  c.Country,
		"phone":                    c.Phone,
		"email":                    c.Email,
		"contact_person_name":      c.ContactPersonName,
		"contact_person_phone":     c.ContactPersonPhone,
		"contact_person_email":     c.ContactPersonEmail,
		"customer_service_phone":   c.CustomerServicePhone,
		"customer_service_email":   c.CustomerServiceEmail,
	}
}

// CleanPhone strips every non-digit character.
func CleanPhone(phone string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, phone)
}

// ValidateNewCustomer checks a field set for customer creation. Every
// customer key must be present, even when empty.
func ValidateNewCustomer(fields CustomerFields) error {
	if len(fields) < len(customerKeys) {
		return pakettikauppa.Errorf(pakettikauppa.KindTooFewFields,
			"customer creation needs all %d fields, got %d", len(customerKeys), len(fields))
	}
	if err := checkKeys(fields); err != nil {
		return err
	}

	for _, key := range mandatoryKeys {
		if fields[key] == "" {
			return pakettikauppa.MissingField(key)
		}
	}

	psp := fields["payment_service_provider"]
	if psp == "" {
		return nil
	}
	if !slices.Contains(paymentServiceProviders, psp) {
		return pakettikauppa.InvalidCode("payment_service_provider", psp, paymentServiceProviders)
	}
	if psp == PSPCheckout && fields["psp_merchant_id"] == "" {
		return pakettikauppa.MissingField("psp_merchant_id")
	}
	return nil
}

func checkKeys(fields CustomerFields) error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if !slices.Contains(customerKeys, k) {
			return pakettikauppa.InvalidField(k)
		}
	}
	return nil
}

func normalize(key, value string) string {
	if slices.Contains(phoneKeys, key) {
		return CleanPhone(value)
	}
	return value
}
