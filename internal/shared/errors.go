package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Catalog errors
	ErrCatalogRequest   = fmt.Errorf("catalog request failed")
	ErrNothingFound     = fmt.Errorf("nothing found")
	ErrRateLimited      = fmt.Errorf("rate limited")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")

	// Device errors
	ErrDeviceRequest      = fmt.Errorf("device request failed")
	ErrRegionUnavailable  = fmt.Errorf("content not available in region")
	ErrDeviceUnavailable  = fmt.Errorf("device unavailable")
	ErrTimeout            = fmt.Errorf("operation timed out")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
