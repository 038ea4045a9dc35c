package port

import (
	"context"
	"net/http"
)

// NoRange requests the whole resource
const NoRange int64 = -1

// HTTPClient defines the interface for fetching download sources
type HTTPClient interface {
	// Get issues a GET request for rawURL. A rangeStart >= 0 adds
	// "Range: bytes=<rangeStart>-". The caller closes the response body.
	Get(ctx context.Context, rawURL string, rangeStart int64) (*http.Response, error)
}
