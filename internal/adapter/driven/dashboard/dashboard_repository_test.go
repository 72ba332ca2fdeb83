package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/diillson/fleetburn-go/internal/adapter/driven/session"
	"github.com/diillson/fleetburn-go/internal/domain/entity"
	"github.com/diillson/fleetburn-go/internal/domain/repository"
	"github.com/diillson/fleetburn-go/internal/shared/types"
	"github.com/diillson/fleetburn-go/pkg/console/consoletest"
)

// fakePage models the dashboard: a period selector that swaps which texts
// the key-metric and right-cell selectors return. The identity elements only
// render once something has waited for the dashboard marker.
type fakePage struct {
	loggedIn    bool
	rendered    bool
	markerErr   error
	navigateErr error
	options     []string
	name        []string
	fleetIDText []string
	byView      map[string]map[string][]string

	view      string
	opened    bool
	closed    bool
	navigated []string
	actions   []string
}

func newFakePage() *fakePage {
	loc := DefaultLocators()
	return &fakePage{
		loggedIn:    true,
		options:     []string{PeriodFullYear, PeriodYearToDate, "Month"},
		name:        []string{"Platform Fleet"},
		fleetIDText: []string{"fleet-42"},
		byView: map[string]map[string][]string{
			PeriodFullYear: {
				loc.Fields[FieldIMRGoal].Selector:  {"$10.0K", "$2.36MM", "$5K"},
				loc.Fields[FieldYTDSpend].Selector: {"stale", "stale"},
			},
			PeriodYearToDate: {
				loc.Fields[FieldIMRGoal].Selector:  {"stale", "stale"},
				loc.Fields[FieldYTDSpend].Selector: {"Total", "$150.9K"},
			},
		},
	}
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	p.navigated = append(p.navigated, url)
	return p.navigateErr
}

func (p *fakePage) WaitAny(ctx context.Context, selectors ...string) (int, error) {
	loc := DefaultLocators()
	if len(selectors) == 1 && selectors[0] == loc.Fields[FieldFleetName].Selector {
		p.actions = append(p.actions, "wait:name")
		if p.rendered && len(p.name) > 0 {
			return 0, nil
		}
		<-ctx.Done()
		return -1, ctx.Err()
	}

	p.actions = append(p.actions, "probe")
	if p.markerErr != nil {
		return -1, p.markerErr
	}
	if p.loggedIn {
		p.rendered = true
		return 0, nil
	}
	return 1, nil
}

func (p *fakePage) Texts(ctx context.Context, selector string) ([]string, error) {
	loc := DefaultLocators()
	switch selector {
	case loc.Fields[FieldFleetName].Selector:
		if !p.rendered {
			return nil, nil
		}
		return p.name, nil
	case loc.Fields[FieldFleetID].Selector:
		if !p.rendered {
			return nil, nil
		}
		return p.fleetIDText, nil
	}
	p.actions = append(p.actions, "read:"+p.view+":"+selector)
	return p.byView[p.view][selector], nil
}

func (p *fakePage) Click(ctx context.Context, selector string) error {
	if selector != DefaultLocators().PeriodSelector {
		return errors.New("no such element")
	}
	p.opened = true
	return nil
}

func (p *fakePage) ClickByText(ctx context.Context, selector, text string) (bool, error) {
	if !p.opened {
		return false, nil
	}
	for _, o := range p.options {
		if o == text {
			p.view = text
			p.opened = false
			p.actions = append(p.actions, "select:"+text)
			return true, nil
		}
	}
	return false, nil
}

func (p *fakePage) Close() error {
	p.closed = true
	return nil
}

type fakeBrowser struct {
	page *fakePage
	err  error
}

func (b *fakeBrowser) NewPage(ctx context.Context) (Page, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.page, nil
}

func (b *fakeBrowser) Close() error { return nil }

// fakeSession always runs the check, then the prompt when logged out.
type fakeSession struct {
	checks int
}

func (s *fakeSession) EnsureAuthenticated(ctx context.Context, check repository.LoginCheck, prompt repository.LoginPrompt) error {
	s.checks++
	ok, err := check(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return prompt(ctx)
	}
	return nil
}

func (s *fakeSession) State() (entity.SessionState, error) { return entity.SessionState{}, nil }

func (s *fakeSession) Invalidate() error { return nil }

func newTestRepo(page *fakePage, prompt repository.LoginPrompt) (*DashboardRepositoryImpl, *consoletest.Recorder) {
	return newTestRepoWithSession(page, &fakeSession{}, prompt)
}

func newTestRepoWithSession(page *fakePage, sess repository.SessionRepository, prompt repository.LoginPrompt) (*DashboardRepositoryImpl, *consoletest.Recorder) {
	rec := &consoletest.Recorder{}
	repo := NewDashboardRepository(&fakeBrowser{page: page}, sess, prompt, rec, Config{
		BaseURL: "https://dash.example.com/",
		Timeout: 100 * time.Millisecond,
	})
	repo.now = func() time.Time { return time.Date(2026, 1, 6, 9, 0, 0, 0, time.UTC) }
	return repo, rec
}

func requirePhase(t *testing.T, err error, phase entity.Phase, kind entity.ErrorKind) {
	t.Helper()
	var xerr *entity.ExtractionError
	if !errors.As(err, &xerr) {
		t.Fatalf("error = %v (%T), want *entity.ExtractionError", err, err)
	}
	if xerr.Phase != phase {
		t.Errorf("Phase = %s, want %s", xerr.Phase, phase)
	}
	if xerr.Kind != kind {
		t.Errorf("Kind = %s, want %s", xerr.Kind, kind)
	}
}

func TestExtractFleet_ReadsBothViews(t *testing.T) {
	page := newFakePage()
	repo, _ := newTestRepo(page, nil)

	raw, err := repo.ExtractFleet(context.Background(), "fleet-42", "2025-12-01")
	if err != nil {
		t.Fatalf("ExtractFleet() error = %v", err)
	}

	if raw.IMRGoalText != "$2.36MM" {
		t.Errorf("IMRGoalText = %q, want $2.36MM", raw.IMRGoalText)
	}
	if raw.YTDSpendText != "$150.9K" {
		t.Errorf("YTDSpendText = %q, want $150.9K", raw.YTDSpendText)
	}
	if raw.FleetName != "Platform Fleet" || raw.FleetID != "fleet-42" {
		t.Errorf("identity = %q/%q", raw.FleetName, raw.FleetID)
	}
	if raw.ExtractedAt.IsZero() {
		t.Error("ExtractedAt not set")
	}
	if !page.closed {
		t.Error("page not closed after success")
	}

	wantURL := "https://dash.example.com/usage?fleetId=fleet-42&billingPeriod=2025-12-01&activeTab=usage-imr-goal"
	if len(page.navigated) != 1 || page.navigated[0] != wantURL {
		t.Errorf("navigated = %v, want [%s]", page.navigated, wantURL)
	}
}

func TestExtractFleet_StepOrder(t *testing.T) {
	page := newFakePage()
	repo, _ := newTestRepo(page, nil)

	if _, err := repo.ExtractFleet(context.Background(), "fleet-42", "2025-12-01"); err != nil {
		t.Fatal(err)
	}

	loc := DefaultLocators()
	want := []string{
		"probe",
		"probe",
		"wait:name",
		"select:" + PeriodFullYear,
		"read:" + PeriodFullYear + ":" + loc.Fields[FieldIMRGoal].Selector,
		"select:" + PeriodYearToDate,
		"read:" + PeriodYearToDate + ":" + loc.Fields[FieldYTDSpend].Selector,
	}
	if len(page.actions) != len(want) {
		t.Fatalf("actions = %v, want %v", page.actions, want)
	}
	for i := range want {
		if page.actions[i] != want[i] {
			t.Errorf("action[%d] = %s, want %s", i, page.actions[i], want[i])
		}
	}
}

func TestExtractFleet_MissingFullYearOption(t *testing.T) {
	page := newFakePage()
	page.options = []string{PeriodYearToDate}
	repo, _ := newTestRepo(page, nil)

	_, err := repo.ExtractFleet(context.Background(), "fleet-42", "2025-12-01")
	requirePhase(t, err, entity.PhaseSelectFullYearView, entity.KindProtocol)
	if !page.closed {
		t.Error("page not closed after failure")
	}
}

func TestExtractFleet_OptionTextMustMatchExactly(t *testing.T) {
	page := newFakePage()
	page.options = []string{"Full Year (2025)", PeriodYearToDate}
	repo, _ := newTestRepo(page, nil)

	_, err := repo.ExtractFleet(context.Background(), "fleet-42", "2025-12-01")
	requirePhase(t, err, entity.PhaseSelectFullYearView, entity.KindProtocol)
}

func TestExtractFleet_TooFewKeyMetrics(t *testing.T) {
	page := newFakePage()
	page.byView[PeriodFullYear][DefaultLocators().Fields[FieldIMRGoal].Selector] = []string{"$1"}
	repo, rec := newTestRepo(page, nil)

	_, err := repo.ExtractFleet(context.Background(), "fleet-42", "2025-12-01")
	requirePhase(t, err, entity.PhaseExtractBudget, entity.KindProtocol)
	if !rec.HasWarning("found 1") {
		t.Errorf("warnings = %v, want element-count drift warning", rec.Warnings)
	}
}

func TestExtractFleet_TooFewSpendCells(t *testing.T) {
	page := newFakePage()
	page.byView[PeriodYearToDate][DefaultLocators().Fields[FieldYTDSpend].Selector] = nil
	repo, _ := newTestRepo(page, nil)

	_, err := repo.ExtractFleet(context.Background(), "fleet-42", "2025-12-01")
	requirePhase(t, err, entity.PhaseExtractSpend, entity.KindProtocol)
	if !page.closed {
		t.Error("page not closed after failure")
	}
}

func TestExtractFleet_MissingNameFallsBack(t *testing.T) {
	page := newFakePage()
	page.name = nil
	repo, rec := newTestRepo(page, nil)

	raw, err := repo.ExtractFleet(context.Background(), "fleet-42", "2025-12-01")
	if err != nil {
		t.Fatal(err)
	}
	if raw.FleetName != "Fleet fleet-42" {
		t.Errorf("FleetName = %q, want %q", raw.FleetName, "Fleet fleet-42")
	}
	if len(rec.Warnings) == 0 {
		t.Error("expected a warning for the missing name")
	}
}

func TestExtractFleet_TrustedSessionStillWaitsForDashboard(t *testing.T) {
	sess := session.NewSessionRepository(t.TempDir(), time.Hour)
	validated := func(context.Context) (bool, error) { return true, nil }
	if err := sess.EnsureAuthenticated(context.Background(), validated, nil); err != nil {
		t.Fatal(err)
	}

	page := newFakePage()
	repo, rec := newTestRepoWithSession(page, sess, nil)

	for i := 0; i < 2; i++ {
		page.rendered = false
		page.actions = nil

		raw, err := repo.ExtractFleet(context.Background(), "fleet-42", "2025-12-01")
		if err != nil {
			t.Fatalf("run %d: ExtractFleet() error = %v", i, err)
		}
		if raw.FleetName != "Platform Fleet" {
			t.Errorf("run %d: FleetName = %q, want the rendered name", i, raw.FleetName)
		}
		if page.actions[0] != "probe" || page.actions[1] != "wait:name" {
			t.Errorf("run %d: actions = %v, want one dashboard wait then the name wait", i, page.actions)
		}
	}
	if len(rec.Warnings) != 0 {
		t.Errorf("warnings = %v", rec.Warnings)
	}
}

func TestExtractFleet_TrustedSessionShowingLoginIsInvalidated(t *testing.T) {
	sess := session.NewSessionRepository(t.TempDir(), time.Hour)
	validated := func(context.Context) (bool, error) { return true, nil }
	if err := sess.EnsureAuthenticated(context.Background(), validated, nil); err != nil {
		t.Fatal(err)
	}

	page := newFakePage()
	page.loggedIn = false
	repo, _ := newTestRepoWithSession(page, sess, nil)

	_, err := repo.ExtractFleet(context.Background(), "fleet-42", "2025-12-01")
	requirePhase(t, err, entity.PhaseAuthCheck, entity.KindAuth)

	state, err := sess.State()
	if err != nil {
		t.Fatal(err)
	}
	if state.LastValidatedAt != nil {
		t.Errorf("LastValidatedAt = %v, want session invalidated", state.LastValidatedAt)
	}
}

func TestExtractFleet_DashboardNeverRenders(t *testing.T) {
	page := newFakePage()
	page.markerErr = context.DeadlineExceeded
	sess := session.NewSessionRepository(t.TempDir(), time.Hour)
	_ = sess.EnsureAuthenticated(context.Background(), func(context.Context) (bool, error) { return true, nil }, nil)
	repo, _ := newTestRepoWithSession(page, sess, nil)

	_, err := repo.ExtractFleet(context.Background(), "fleet-42", "2025-12-01")
	requirePhase(t, err, entity.PhaseExtractIdentity, entity.KindProtocol)
	if !page.closed {
		t.Error("page not closed after failure")
	}
}

func TestExtractFleet_NavigationFailureIsNetwork(t *testing.T) {
	page := newFakePage()
	page.navigateErr = context.DeadlineExceeded
	repo, _ := newTestRepo(page, nil)

	_, err := repo.ExtractFleet(context.Background(), "fleet-42", "2025-12-01")
	requirePhase(t, err, entity.PhaseInit, entity.KindNetwork)
	if !page.closed {
		t.Error("page not closed after failure")
	}
}

func TestExtractFleet_LoggedOutWithoutPromptIsAuthError(t *testing.T) {
	page := newFakePage()
	page.loggedIn = false
	repo, _ := newTestRepo(page, nil)

	_, err := repo.ExtractFleet(context.Background(), "fleet-42", "2025-12-01")
	requirePhase(t, err, entity.PhaseAuthCheck, entity.KindAuth)
}

func TestExtractFleet_ManualLoginRenavigates(t *testing.T) {
	page := newFakePage()
	page.loggedIn = false
	prompted := 0
	prompt := func(context.Context) error {
		prompted++
		page.loggedIn = true
		return nil
	}
	repo, _ := newTestRepo(page, prompt)

	if _, err := repo.ExtractFleet(context.Background(), "fleet-42", "2025-12-01"); err != nil {
		t.Fatal(err)
	}
	if prompted != 1 {
		t.Errorf("prompted = %d, want 1", prompted)
	}
	if len(page.navigated) != 2 {
		t.Errorf("navigations = %d, want 2 (initial + after login)", len(page.navigated))
	}
}

func TestExtractFleet_LoginProbeFailureIsNetwork(t *testing.T) {
	page := newFakePage()
	page.markerErr = errors.New("target closed")
	repo, _ := newTestRepo(page, nil)

	_, err := repo.ExtractFleet(context.Background(), "fleet-42", "2025-12-01")
	requirePhase(t, err, entity.PhaseAuthCheck, entity.KindNetwork)
}

func TestExtractFleet_NewPageFailure(t *testing.T) {
	rec := &consoletest.Recorder{}
	repo := NewDashboardRepository(&fakeBrowser{err: errors.New("browser gone")}, &fakeSession{}, nil, rec, Config{BaseURL: "https://x"})

	_, err := repo.ExtractFleet(context.Background(), "f", "2025-12-01")
	requirePhase(t, err, entity.PhaseInit, entity.KindNetwork)
}

func TestLocators_WithOverrides(t *testing.T) {
	idx := 3
	loc := DefaultLocators().WithOverrides(types.SelectorsConfig{
		KeyMetric:      "[data-testid='budget']",
		KeyMetricIndex: &idx,
	})

	got := loc.Fields[FieldIMRGoal]
	if got.Selector != "[data-testid='budget']" || got.Index != 3 {
		t.Errorf("IMR locator = %+v", got)
	}
	if loc.Fields[FieldYTDSpend] != DefaultLocators().Fields[FieldYTDSpend] {
		t.Error("unrelated locator changed")
	}
	if DefaultLocators().Fields[FieldIMRGoal].Index != 1 {
		t.Error("defaults mutated by WithOverrides")
	}
}

func TestFleetURL_EscapesID(t *testing.T) {
	got := FleetURL("https://dash.example.com", "a b&c", "2026-02-01")
	want := "https://dash.example.com/usage?fleetId=a+b%26c&billingPeriod=2026-02-01&activeTab=usage-imr-goal"
	if got != want {
		t.Errorf("FleetURL() = %s, want %s", got, want)
	}
}
