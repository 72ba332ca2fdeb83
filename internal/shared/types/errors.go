package types

import "errors"

var (
	ErrNoFleetsConfigured     = errors.New("no fleets configured. Pass --fleets or set fleets in the config file")
	ErrMissingBaseURL         = errors.New("dashboard base URL is not set. Pass --base-url or set dashboard.base_url")
	ErrFleetFailures          = errors.New("one or more fleets failed")
	ErrManualLoginUnavailable = errors.New("manual login requires a headed browser. Re-run with --headed")
)
