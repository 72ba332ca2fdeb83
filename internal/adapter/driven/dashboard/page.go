package dashboard

import (
	"context"
	"net/url"
	"strings"
)

// Browser owns one authenticated browser profile and opens pages in it.
type Browser interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// Page is the small set of interactions the extraction protocol needs.
type Page interface {
	Navigate(ctx context.Context, url string) error
	// WaitAny blocks until one of the selectors matches and returns its index.
	WaitAny(ctx context.Context, selectors ...string) (int, error)
	// Texts returns the trimmed visible text of every element matching selector.
	Texts(ctx context.Context, selector string) ([]string, error)
	Click(ctx context.Context, selector string) error
	// ClickByText clicks the first element matching selector whose text equals
	// text exactly. It reports false when no such element shows up.
	ClickByText(ctx context.Context, selector, text string) (bool, error)
	Close() error
}

// FleetURL builds the fleet-scoped usage page URL.
func FleetURL(baseURL, fleetID, billingPeriod string) string {
	return strings.TrimRight(baseURL, "/") +
		"/usage?fleetId=" + url.QueryEscape(fleetID) +
		"&billingPeriod=" + url.QueryEscape(billingPeriod) +
		"&activeTab=usage-imr-goal"
}
