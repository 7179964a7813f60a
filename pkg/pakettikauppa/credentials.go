// Package pakettikauppa is a client for the Pakettikauppa parcel shipping API.
//
// The package holds what merchant and reseller operations share: credentials,
// request signing, the operation table, the transport contract and the
// Dispatcher that ties them together. Operation sets live in the merchant and
// reseller subpackages.
package pakettikauppa

import "fmt"

// Provider endpoints, selected by the test-mode flag of the credentials.
const (
	TestEndpoint = "https://apitest.pakettikauppa.fi"
	LiveEndpoint = "https://api.pakettikauppa.fi"
)

// Sandbox credentials published for the provider's test endpoint.
const (
	TestMerchantAPIKey = "00000000-0000-0000-0000-000000000000"
	TestMerchantSecret = "1234567890ABCDEF"
	TestResellerAPIKey = "11111111-1111-1111-1111-111111111111"
	TestResellerSecret = "FEDCBA0987654321"
)

// Credentials is an immutable API key / secret pair bound to an endpoint.
type Credentials struct {
	apiKey   string
	secret   string
	testMode bool
}

// MerchantCredentials builds credentials for merchant operations. In test mode
// an empty key or secret falls back to the merchant sandbox pair.
func MerchantCredentials(apiKey, secret string, testMode bool) (*Credentials, error) {
	return newCredentials(apiKey, secret, testMode, TestMerchantAPIKey, TestMerchantSecret)
}

// ResellerCredentials builds credentials for reseller operations. In test mode
// an empty key or secret falls back to the reseller sandbox pair.
func ResellerCredentials(apiKey, secret string, testMode bool) (*Credentials, error) {
	return newCredentials(apiKey, secret, testMode, TestResellerAPIKey, TestResellerSecret)
}

func newCredentials(apiKey, secret string, testMode bool, sandboxKey, sandboxSecret string) (*Credentials, error) {
	if testMode {
		if apiKey == "" {
			apiKey = sandboxKey
		}
		if secret == "" {
			secret = sandboxSecret
		}
	}
	if apiKey == "" {
		return nil, NewError(KindConfiguration, "missing API key").WithField("api_key")
	}
	if secret == "" {
		return nil, NewError(KindConfiguration, "missing API secret").WithField("secret")
	}
	return &Credentials{apiKey: apiKey, secret: secret, testMode: testMode}, nil
}

// APIKey returns the API key.
func (c *Credentials) APIKey() string { return c.apiKey }

// Secret returns the signing secret.
func (c *Credentials) Secret() string { return c.secret }

// TestMode reports whether the credentials target the test endpoint.
func (c *Credentials) TestMode() bool { return c.testMode }

// Endpoint returns the provider host for these credentials.
func (c *Credentials) Endpoint() string {
	if c.testMode {
		return TestEndpoint
	}
	return LiveEndpoint
}

// String never includes the secret.
func (c *Credentials) String() string {
	return fmt.Sprintf("Credentials{apiKey: %s, testMode: %t}", c.apiKey, c.testMode)
}
