package httpkit

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxRequestBodyBytes bounds how much of a request body DecodeJSON will
// read, so a hostile or buggy client cannot exhaust memory with an
// unbounded body.
const maxRequestBodyBytes = 1 << 20

// DecodeJSON decodes the request body into dst, capping it at
// maxRequestBodyBytes.
func DecodeJSON(r *http.Request, dst any) error {
	body := io.LimitReader(r.Body, maxRequestBodyBytes)
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if err == io.EOF {
			return fmt.Errorf("request body must not be empty")
		}
		return fmt.Errorf("malformed request body: %w", err)
	}
	return nil
}
