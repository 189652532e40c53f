/*
Package req provides helpers for decoding HTTP request bodies.
*/
package req

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"voicesvc/internal/pkg/errs"
)

// MaxJSONBodySize caps the JSON body accepted by BindJSON and DecodeJSON.
const MaxJSONBodySize int64 = 1 << 20 // 1 MB

// BindJSON decodes a JSON request body into dst. The Content-Type must be JSON
// and nothing may trail the document. Fields dst does not declare are ignored,
// so clients may send extra keys.
func BindJSON(w http.ResponseWriter, r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBodySize)

	decoder := json.NewDecoder(r.Body)

	if err := decoder.Decode(dst); err != nil {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	return nil
}

// DecodeJSON leniently decodes a JSON body from a third-party sender. Any
// Content-Type is accepted and unknown fields are ignored. An empty body
// leaves dst untouched and is not an error.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) *errs.CustomError {
	r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBodySize)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	return nil
}
