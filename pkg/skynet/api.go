package skynet

import (
	"context"
	"fmt"
)

// DefaultBaseURL is the Skynet production API root.
const DefaultBaseURL = "https://api.skynet.co.za:3227/api/"

// Transport issues requests relative to the Skynet base URL.
// This abstraction allows the resty client in production and
// mock implementations in tests.
type Transport interface {
	// Post sends body as JSON.
	Post(ctx context.Context, path string, body any) (RawResponse, error)

	// Get sends query as URL query parameters.
	Get(ctx context.Context, path string, query map[string]string) (RawResponse, error)
}

// Endpoint paths, relative to the base URL. The casing matches the vendor documentation.
const (
	PathSecurityToken        = "Security/GetSecurityToken"
	PathValidateSuburb       = "Validation/ValidateSuburbPostalCode"
	PathPostalCodes          = "Validation/GetPostalCode"
	PathQuote                = "Financial/GetQuote"
	PathDeliveryETA          = "Waybill/GetWaybillETA"
	PathCreateWaybill        = "waybill/CreateWaybill"
	PathWaybillPOD           = "Waybill/GetWaybillPOD"
	PathTrackWaybill         = "waybill/GetWaybillTracking"
	trackWaybillReferenceKey = "WaybillReference"
)

// Operation names, used in spans, logs, metrics and Invoke.
const (
	OpSecurityToken       = "SecurityToken"
	OpValidateSuburb      = "ValidateSuburbAndPostalCode"
	OpPostalCodes         = "PostalCodesFromSuburb"
	OpQuote               = "Quote"
	OpDeliveryETA         = "DeliveryETA"
	OpCreateWaybill       = "CreateWaybill"
	OpWaybillPOD          = "WaybillPOD"
	OpTrackWaybill        = "TrackWaybill"
	securityTokenWireName = "SecurityToken"
)

// Params carries caller-supplied request parameters keyed in kebab-case,
// e.g. "from-suburb" or "parcel-weight".
type Params map[string]any

// lookup treats a nil value the same as an absent key.
func (p Params) lookup(key string) (any, bool) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// String returns the parameter formatted as text, or "" when absent.
func (p Params) String(key string) string {
	v, ok := p.lookup(key)
	if !ok {
		return ""
	}
	return fmt.Sprint(v)
}

// TokenPayload selects what authenticated requests send as their SecurityToken field.
type TokenPayload string

const (
	// TokenPayloadString sends only the token string.
	TokenPayloadString TokenPayload = "string"

	// TokenPayloadResponse sends the whole decoded token response object,
	// for integrations recorded against that request shape.
	TokenPayloadResponse TokenPayload = "response"
)
