package errs

import "net/http"

// errorMap holds the client message and HTTP status for every application error code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:        {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType: {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusBadRequest},
	ErrInvalidJSONFormat:    {Code: ErrInvalidJSONFormat, Message: "Invalid JSON body.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:   {Code: ErrExtraContentInBody, Message: "Request contains unexpected data.", Status: http.StatusBadRequest},

	// 2xxx: Voice Channel and Presence Errors
	ErrChannelIDRequired:     {Code: ErrChannelIDRequired, Message: "channelId is required", Status: http.StatusBadRequest},
	ErrInvalidWebhookPayload: {Code: ErrInvalidWebhookPayload, Message: "Invalid webhook payload", Status: http.StatusBadRequest},

	// 3xxx: Authentication Errors
	ErrMissingAuthHeader:    {Code: ErrMissingAuthHeader, Message: "Missing or invalid Authorization header", Status: http.StatusUnauthorized},
	ErrInvalidIdentityToken: {Code: ErrInvalidIdentityToken, Message: "Invalid Matrix access token", Status: http.StatusUnauthorized},

	// 5xxx: Internal System Errors
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
