package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/diillson/fleetburn-go/internal/domain/entity"
	"github.com/diillson/fleetburn-go/internal/domain/repository"
	"github.com/diillson/fleetburn-go/internal/shared/types"
)

// Config holds the fixed protocol parameters of the dashboard.
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	SettleDelay time.Duration
	Locators    Locators
}

// DashboardRepositoryImpl implementa o DashboardRepository sobre um Browser.
//
// Each ExtractFleet call opens one page, walks it through the two period
// views in a fixed order and always closes the page before returning.
type DashboardRepositoryImpl struct {
	browser Browser
	session repository.SessionRepository
	prompt  repository.LoginPrompt
	console types.ConsoleInterface
	cfg     Config
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewDashboardRepository cria uma nova implementação do DashboardRepository.
func NewDashboardRepository(
	browser Browser,
	session repository.SessionRepository,
	prompt repository.LoginPrompt,
	console types.ConsoleInterface,
	cfg Config,
) *DashboardRepositoryImpl {
	if cfg.Locators.Fields == nil {
		cfg.Locators = DefaultLocators()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &DashboardRepositoryImpl{
		browser: browser,
		session: session,
		prompt:  prompt,
		console: console,
		cfg:     cfg,
		now:     time.Now,
		sleep:   sleepContext,
	}
}

// ExtractFleet runs the extraction protocol for one fleet.
func (r *DashboardRepositoryImpl) ExtractFleet(ctx context.Context, fleetID, billingPeriod string) (entity.RawExtraction, error) {
	raw := entity.RawExtraction{FleetID: fleetID}

	page, err := r.browser.NewPage(ctx)
	if err != nil {
		return raw, entity.NewExtractionError(fleetID, entity.PhaseInit, entity.KindNetwork, err)
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			r.console.LogWarning("Closing page for fleet %s: %s", fleetID, cerr)
		}
	}()

	fleetURL := FleetURL(r.cfg.BaseURL, fleetID, billingPeriod)

	// Init
	if err := r.navigate(ctx, page, fleetURL); err != nil {
		return raw, entity.NewExtractionError(fleetID, entity.PhaseInit, entity.KindNetwork, err)
	}

	// AuthCheck
	if err := r.authenticate(ctx, page, fleetURL); err != nil {
		return raw, err.withFleet(fleetID)
	}

	// A trusted session skips the login probe, so the page may still be rendering.
	if err := r.waitForDashboard(ctx, page, fleetID); err != nil {
		return raw, err
	}

	// ExtractIdentity
	name, err := r.readIdentity(ctx, page, fleetID)
	if err != nil {
		return raw, entity.NewExtractionError(fleetID, entity.PhaseExtractIdentity, entity.KindNetwork, err)
	}
	raw.FleetName = name

	// SelectFullYearView + ExtractBudget
	if err := r.selectPeriod(ctx, page, fleetID, entity.PhaseSelectFullYearView, PeriodFullYear); err != nil {
		return raw, err
	}
	raw.IMRGoalText, err = r.readField(ctx, page, fleetID, entity.PhaseExtractBudget, FieldIMRGoal)
	if err != nil {
		return raw, err
	}

	// SelectYearToDateView + ExtractSpend
	if err := r.selectPeriod(ctx, page, fleetID, entity.PhaseSelectYearToDateView, PeriodYearToDate); err != nil {
		return raw, err
	}
	raw.YTDSpendText, err = r.readField(ctx, page, fleetID, entity.PhaseExtractSpend, FieldYTDSpend)
	if err != nil {
		return raw, err
	}

	raw.ExtractedAt = r.now()
	return raw, nil
}

// authError carries the failure kind out of the session callback.
type authError struct {
	kind entity.ErrorKind
	err  error
}

func (e *authError) withFleet(fleetID string) *entity.ExtractionError {
	return entity.NewExtractionError(fleetID, entity.PhaseAuthCheck, e.kind, e.err)
}

func (r *DashboardRepositoryImpl) authenticate(ctx context.Context, page Page, fleetURL string) *authError {
	prompted := false

	check := func(ctx context.Context) (bool, error) {
		return r.probeLogin(ctx, page)
	}
	prompt := func(ctx context.Context) error {
		prompted = true
		if r.prompt == nil {
			return types.ErrManualLoginUnavailable
		}
		r.console.LogWarning("Dashboard session is not logged in")
		return r.prompt(ctx)
	}

	if err := r.session.EnsureAuthenticated(ctx, check, prompt); err != nil {
		kind := entity.KindAuth
		if !prompted && !errors.Is(err, errNoLoginMarker) {
			kind = entity.KindNetwork
		}
		return &authError{kind: kind, err: err}
	}

	// The login flow may have left the page elsewhere.
	if prompted {
		if err := r.navigate(ctx, page, fleetURL); err != nil {
			return &authError{kind: entity.KindNetwork, err: err}
		}
	}
	return nil
}

var errNoLoginMarker = errors.New("neither dashboard nor login form found")

func (r *DashboardRepositoryImpl) probeLogin(ctx context.Context, page Page) (bool, error) {
	tctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	idx, err := page.WaitAny(tctx, r.cfg.Locators.DashboardMarker, r.cfg.Locators.LoginMarker)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return false, errNoLoginMarker
		}
		return false, err
	}
	return idx == 0, nil
}

// waitForDashboard blocks until the dashboard content is on the page. Finding
// the login form instead means the stored session went stale early; it is
// invalidated so the next run checks the login again.
func (r *DashboardRepositoryImpl) waitForDashboard(ctx context.Context, page Page, fleetID string) error {
	tctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	idx, err := page.WaitAny(tctx, r.cfg.Locators.DashboardMarker, r.cfg.Locators.LoginMarker)
	switch {
	case err == nil && idx == 0:
		return nil
	case err == nil:
		if ierr := r.session.Invalidate(); ierr != nil {
			r.console.LogWarning("Invalidating session: %s", ierr)
		}
		return entity.NewExtractionError(fleetID, entity.PhaseAuthCheck, entity.KindAuth,
			errors.New("dashboard shows the login form although the session was trusted"))
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		return entity.ProtocolError(fleetID, entity.PhaseExtractIdentity,
			"dashboard marker %q did not render within %s", r.cfg.Locators.DashboardMarker, r.cfg.Timeout)
	}
	return entity.NewExtractionError(fleetID, entity.PhaseExtractIdentity, entity.KindNetwork, err)
}

func (r *DashboardRepositoryImpl) readIdentity(ctx context.Context, page Page, fleetID string) (string, error) {
	nameSelector := r.cfg.Locators.Fields[FieldFleetName].Selector

	// The name may render after the dashboard marker. A timeout here only
	// means the fallback label is used.
	wctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	_, err := page.WaitAny(wctx, nameSelector)
	cancel()
	if err != nil && (ctx.Err() != nil || !errors.Is(err, context.DeadlineExceeded)) {
		return "", err
	}

	nameTexts, err := r.texts(ctx, page, nameSelector)
	if err != nil {
		return "", err
	}
	name := firstNonEmpty(nameTexts)
	if name == "" {
		name = fmt.Sprintf("Fleet %s", fleetID)
		r.console.LogWarning("Fleet name not found for %s, using %q", fleetID, name)
	}

	idTexts, err := r.texts(ctx, page, r.cfg.Locators.Fields[FieldFleetID].Selector)
	if err != nil {
		return "", err
	}
	if shown := firstNonEmpty(idTexts); shown != "" && !strings.Contains(shown, fleetID) {
		r.console.LogWarning("Dashboard shows fleet id %q while extracting %s", shown, fleetID)
	}
	return name, nil
}

func (r *DashboardRepositoryImpl) selectPeriod(ctx context.Context, page Page, fleetID string, phase entity.Phase, label string) error {
	tctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	if err := page.Click(tctx, r.cfg.Locators.PeriodSelector); err != nil {
		if ctx.Err() != nil {
			return entity.NewExtractionError(fleetID, phase, entity.KindNetwork, ctx.Err())
		}
		return entity.ProtocolError(fleetID, phase, "period selector %q not available: %s", r.cfg.Locators.PeriodSelector, err)
	}

	found, err := page.ClickByText(tctx, r.cfg.Locators.PeriodOption, label)
	if err != nil {
		return entity.NewExtractionError(fleetID, phase, entity.KindNetwork, err)
	}
	if !found {
		return entity.ProtocolError(fleetID, phase, "period option %q not found", label)
	}

	// The view refreshes client-side with no navigation event to wait for.
	if err := r.sleep(ctx, r.cfg.SettleDelay); err != nil {
		return entity.NewExtractionError(fleetID, phase, entity.KindNetwork, err)
	}
	return nil
}

func (r *DashboardRepositoryImpl) readField(ctx context.Context, page Page, fleetID string, phase entity.Phase, field Field) (string, error) {
	loc := r.cfg.Locators.Fields[field]

	texts, err := r.texts(ctx, page, loc.Selector)
	if err != nil {
		return "", entity.NewExtractionError(fleetID, phase, entity.KindNetwork, err)
	}
	if len(texts) <= loc.Index {
		r.console.LogWarning("Fleet %s: expected at least %d %q elements for %s, found %d",
			fleetID, loc.Index+1, loc.Selector, field, len(texts))
		return "", entity.ProtocolError(fleetID, phase, "expected at least %d %q elements, found %d",
			loc.Index+1, loc.Selector, len(texts))
	}
	return texts[loc.Index], nil
}

func (r *DashboardRepositoryImpl) navigate(ctx context.Context, page Page, url string) error {
	tctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()
	return page.Navigate(tctx, url)
}

func (r *DashboardRepositoryImpl) texts(ctx context.Context, page Page, selector string) ([]string, error) {
	tctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()
	return page.Texts(tctx, selector)
}

func firstNonEmpty(values []string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
