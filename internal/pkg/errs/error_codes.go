/*
Package errs provides the custom error type and application-level error codes.

Codes identify a failure both in logs and in the JSON body returned to clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request Content-Type is not JSON.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body is not valid JSON.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates trailing data after the JSON document.
	ErrExtraContentInBody = 1004
)

// 2xxx: Voice Channel and Presence Errors
const (
	// ErrChannelIDRequired indicates a grant request without a channel identifier.
	ErrChannelIDRequired = 2001

	// ErrInvalidWebhookPayload indicates a webhook envelope without an event kind.
	ErrInvalidWebhookPayload = 2002
)

// 3xxx: Authentication Errors
const (
	// ErrMissingAuthHeader indicates an absent or non-Bearer Authorization header.
	ErrMissingAuthHeader = 3001

	// ErrInvalidIdentityToken indicates the homeserver did not vouch for the bearer token.
	// Rejections and homeserver outages are reported identically.
	ErrInvalidIdentityToken = 3002
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified server error.
	ErrUnknown = 5000
)
