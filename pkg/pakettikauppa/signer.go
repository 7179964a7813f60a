package pakettikauppa

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/spf13/cast"
)

// HashField is the form field carrying the request digest.
const HashField = "hash"

// HMACDigest signs params with secret. Values are ordered by key, joined
// with "&" and hashed with HMAC-SHA256; keys themselves are not part of the
// signed text. The digest is returned as lowercase hex.
func HMACDigest(secret string, params map[string]any) (string, error) {
	if len(params) == 0 {
		return "", NewError(KindInput, "no parameters to sign")
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make([]string, len(keys))
	for i, k := range keys {
		v, err := cast.ToStringE(params[k])
		if err != nil {
			return "", Errorf(KindInput, "cannot sign value of %s", k).WithField(k).WithCause(err)
		}
		values[i] = v
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strings.Join(values, "&")))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// RoutingKey derives the per-shipment routing key: MD5 over
// apiKey + routingID + secret, in that order.
func RoutingKey(apiKey, secret, routingID string) (string, error) {
	switch {
	case apiKey == "":
		return "", NewError(KindInput, "routing key needs an API key").WithField("api_key")
	case secret == "":
		return "", NewError(KindInput, "routing key needs a secret").WithField("secret")
	case routingID == "":
		return "", NewError(KindInput, "routing key needs a routing id").WithField("Routing.Id")
	}
	sum := md5.Sum([]byte(apiKey + routingID + secret))
	return hex.EncodeToString(sum[:]), nil
}

// Signer signs requests with one credential pair.
type Signer struct {
	credentials *Credentials
}

// NewSigner creates a Signer bound to credentials.
func NewSigner(credentials *Credentials) *Signer {
	return &Signer{credentials: credentials}
}

// Sign stringifies params and returns them with the digest under HashField.
// The input map is not modified.
func (s *Signer) Sign(params map[string]any) (map[string]string, error) {
	digest, err := HMACDigest(s.credentials.Secret(), params)
	if err != nil {
		return nil, err
	}

	form := make(map[string]string, len(params)+1)
	for k, v := range params {
		form[k] = cast.ToString(v)
	}
	form[HashField] = digest
	return form, nil
}

// RoutingKey derives the routing key for routingID with the signer's credentials.
func (s *Signer) RoutingKey(routingID string) (string, error) {
	return RoutingKey(s.credentials.APIKey(), s.credentials.Secret(), routingID)
}
