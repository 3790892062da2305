package api

import (
	"errors"
	"fmt"
)

// FetchError reports a failed HTTP exchange: a transport error (Status 0),
// a non-2xx status, a body that is not valid JSON, or a 2xx body carrying a
// server-side {"error": ...} payload.
type FetchError struct {
	Status  int    // HTTP status, 0 for transport failures
	Message string
	URL     string
	err     error
}

func (e *FetchError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("fetch %s: status %d: %s", e.URL, e.Status, e.Message)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Message)
}

func (e *FetchError) Unwrap() error { return e.err }

// DataShapeError reports a syntactically valid response whose records are
// missing required fields. These are rejected outright rather than patched
// with placeholder values.
type DataShapeError struct {
	Endpoint string
	Reason   string
	err      error
}

func (e *DataShapeError) Error() string {
	return fmt.Sprintf("malformed response from %s: %s", e.Endpoint, e.Reason)
}

func (e *DataShapeError) Unwrap() error { return e.err }

// AsFetchError unwraps err to a *FetchError if one is in the chain.
func AsFetchError(err error) (*FetchError, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// AsDataShapeError unwraps err to a *DataShapeError if one is in the chain.
func AsDataShapeError(err error) (*DataShapeError, bool) {
	var de *DataShapeError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// UserMessage renders err as the short inline message shown in place of a
// loading row. Fetch and shape errors keep their structured form; anything
// else falls back to the raw error text.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if fe, ok := AsFetchError(err); ok {
		if fe.Status > 0 {
			return fmt.Sprintf("request failed (%d): %s", fe.Status, fe.Message)
		}
		return fmt.Sprintf("request failed: %s", fe.Message)
	}
	if de, ok := AsDataShapeError(err); ok {
		return fmt.Sprintf("bad data from server: %s", de.Reason)
	}
	return err.Error()
}
