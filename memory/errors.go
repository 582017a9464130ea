package memory

import "errors"

// RequestFailedError is returned when the context service could not be reached, or answered
// with a non-2xx status, and no cached payload was available.
type RequestFailedError struct {
	Cause error
}

func (e *RequestFailedError) Error() string {
	return "API request failed: " + e.Cause.Error()
}

func (e *RequestFailedError) Unwrap() error {
	return e.Cause
}

// InvalidJSONError is returned when the service answered but the body was not a JSON object.
type InvalidJSONError struct {
	Body  string
	Cause error
}

func (e *InvalidJSONError) Error() string {
	return "Invalid JSON response: " + e.Cause.Error()
}

func (e *InvalidJSONError) Unwrap() error {
	return e.Cause
}

// Describe splits a client error into the message and details reported to callers.
func Describe(err error) (message, details string) {
	var rfe *RequestFailedError
	if errors.As(err, &rfe) {
		return "API request failed", rfe.Cause.Error()
	}
	var ije *InvalidJSONError
	if errors.As(err, &ije) {
		return "Invalid JSON response", ije.Body
	}
	return "API request failed", err.Error()
}
