// Package engine runs the appliance: it owns the session state, routes
// input to the menu screens, executes orders and serves sync commands.
package engine

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"k8s.io/utils/clock"

	"github.com/hammamikhairi/ottobar/internal/dispense"
	"github.com/hammamikhairi/ottobar/internal/domain"
	"github.com/hammamikhairi/ottobar/internal/gateway"
	"github.com/hammamikhairi/ottobar/internal/inventory"
	"github.com/hammamikhairi/ottobar/internal/logger"
	"github.com/hammamikhairi/ottobar/internal/menu"
	"github.com/hammamikhairi/ottobar/internal/metrics"
	"github.com/hammamikhairi/ottobar/internal/order"
	"github.com/hammamikhairi/ottobar/internal/stats"
)

// Compile-time interface check.
var _ gateway.Backend = (*Appliance)(nil)

// Defaults for the utility menu.
const (
	DefaultRandomMax     = 200
	DefaultCleanDuration = 10 * time.Second
)

// User-facing texts.
const (
	promptCup       = "Please insert a cup."
	promptClean     = "Cleaning the lines..."
	alertNoDrink    = "Please select a drink first."
	alertStalled    = "Dispensing stopped: no flow detected. Please check the bottles."
	alertNoStockFmt = "Not enough stock left for a %s %s."
)

// Option configures the appliance.
type Option func(*Appliance)

// WithClock injects the clock used between dispatch steps.
func WithClock(clk clock.Clock) Option {
	return func(a *Appliance) {
		a.clock = clk
	}
}

// WithPollInterval sets the idle dispatch cadence.
func WithPollInterval(d time.Duration) Option {
	return func(a *Appliance) {
		a.poll = d
	}
}

// WithLongPressThreshold sets how many samples a touch is held beyond
// before it opens the recipe detail.
func WithLongPressThreshold(samples int) Option {
	return func(a *Appliance) {
		a.press = menu.NewLongPress(samples)
	}
}

// WithRandomMax caps the volume of a random drink.
func WithRandomMax(ml int) Option {
	return func(a *Appliance) {
		a.randomMax = ml
	}
}

// WithCleanDuration sets how long the clean cycle runs the pumps.
func WithCleanDuration(d time.Duration) Option {
	return func(a *Appliance) {
		a.cleanFor = d
	}
}

// WithSelectorOptions tunes the custom drink editor.
func WithSelectorOptions(opts ...order.Option) Option {
	return func(a *Appliance) {
		a.selectorOpts = append(a.selectorOpts, opts...)
	}
}

// WithSync attaches the sync gateway inbox.
func WithSync(inbox *gateway.Inbox) Option {
	return func(a *Appliance) {
		a.inbox = inbox
	}
}

// handler reacts to a fresh press on one screen.
type handler func(ctx context.Context, el domain.Element)

// Appliance is the single session object. Everything except View is meant
// to be called from one goroutine, the dispatch loop.
type Appliance struct {
	store    *inventory.Store
	tracker  *stats.Tracker
	ctrl     *dispense.Controller
	input    domain.InputSource
	notifier domain.Notifier
	log      *logger.Logger

	nav          *menu.Navigator
	selector     *order.Selector
	selectorOpts []order.Option
	press        *menu.LongPress
	routes       map[domain.Screen]handler
	inbox        *gateway.Inbox
	sync         *gateway.Handler

	clock     clock.Clock
	poll      time.Duration
	randomMax int
	cleanFor  time.Duration

	last            domain.Element
	cancelRequested bool
	view            atomic.Pointer[domain.View]
}

// New assembles an appliance over loaded state and hardware.
func New(store *inventory.Store, tracker *stats.Tracker, ctrl *dispense.Controller, input domain.InputSource, notifier domain.Notifier, log *logger.Logger, opts ...Option) *Appliance {
	a := &Appliance{
		store:     store,
		tracker:   tracker,
		ctrl:      ctrl,
		input:     input,
		notifier:  notifier,
		log:       log,
		nav:       menu.NewNavigator(log.Named("menu")),
		press:     menu.NewLongPress(menu.DefaultLongPressThreshold),
		clock:     clock.RealClock{},
		poll:      ctrl.Config().PollInterval,
		randomMax: DefaultRandomMax,
		cleanFor:  DefaultCleanDuration,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.selector = order.NewSelector(store, log.Named("order"), a.selectorOpts...)
	a.sync = gateway.NewHandler(a, log.Named("sync"))
	a.routes = map[domain.Screen]handler{
		domain.ScreenPresetMenu:           a.onPresetMenu,
		domain.ScreenCustomMenu:           a.onCustomMenu,
		domain.ScreenUtilityMenu:          a.onUtilityMenu,
		domain.ScreenCancellableOperation: a.onOperation,
		domain.ScreenError:                a.onAlert,
		domain.ScreenRecipeDetail:         a.onDetail,
	}
	metrics.SetStock(store.Stock())
	a.publish()
	return a
}

// Run steps the dispatch loop until ctx is cancelled.
func (a *Appliance) Run(ctx context.Context) error {
	a.log.Info("dispatch loop started (poll=%s)", a.poll)
	for {
		a.Step(ctx)
		select {
		case <-ctx.Done():
			a.log.Info("dispatch loop stopped")
			return nil
		case <-a.clock.After(a.poll):
		}
	}
}

// Step is the shared dispatch routine: one input sample, routed to the
// current screen, then at most one sync command. Blocking operations call
// it between their polls, so input and sync keep flowing while pouring.
func (a *Appliance) Step(ctx context.Context) {
	t := a.input.Poll()

	if el, ok := a.press.Observe(t); ok {
		a.onLongPress(el)
	}

	fresh := t.Pressed && t.Element != a.last
	a.last = domain.Element{}
	if t.Pressed {
		a.last = t.Element
	}
	if fresh {
		a.routes[a.nav.Screen()](ctx, t.Element)
	}

	a.serveSync(!a.nav.InOperation())
	a.publish()
}

// View returns the latest published snapshot. Safe from any goroutine.
func (a *Appliance) View() domain.View {
	return *a.view.Load()
}

// Submit executes the staged order: cup wait, pour, bookkeeping. It
// returns the outcome, or an error when the order never started.
func (a *Appliance) Submit(ctx context.Context) (domain.Outcome, error) {
	candidate := a.selector.Candidate()
	if !candidate.Selected() {
		a.alert(ctx, alertNoDrink)
		return 0, domain.ErrNothingSelected
	}
	if !a.store.RecipeAvailableScaled(candidate.Recipe, candidate.Size) {
		a.alert(ctx, fmt.Sprintf(alertNoStockFmt, candidate.Size, candidate.Recipe.Name))
		return 0, domain.ErrUnavailable
	}
	candidate, err := a.selector.Take()
	if err != nil {
		return 0, err
	}

	id := newOrderID()
	log := a.log.Named("order " + id)
	log.Info("%s %s (%v ml)", candidate.Size, candidate.Recipe.Name, candidate.Recipe.Amounts)

	cancelled := func() bool { return a.pollCancel(ctx) }
	a.begin(promptCup)

	var res dispense.Result
	res.Outcome = domain.OutcomeCancelled
	if a.ctrl.WaitForCup(ctx, cancelled) == dispense.CupDetected {
		a.begin(fmt.Sprintf("Pouring %s...", candidate.Recipe.Name))
		res = a.ctrl.Pour(ctx, candidate, cancelled)
	}

	a.tracker.Record(candidate, res.Outcome, a.store.Catalog())
	a.selector.StockChanged()
	metrics.RecordOrder(res.Outcome, candidate.Category())
	metrics.RecordPoured(res.Poured)
	metrics.SetStock(a.store.Stock())
	log.Info("%s, poured %v", res.Outcome, res.Poured)

	switch res.Outcome {
	case domain.OutcomeTimeout:
		a.alert(ctx, alertStalled)
	case domain.OutcomeCompleted:
		a.dismiss()
		a.notify(ctx, fmt.Sprintf("Your %s is ready. Enjoy!", candidate.Recipe.Name))
	default:
		a.dismiss()
	}
	return res.Outcome, nil
}

// Clean runs the pumps to rinse the lines until the configured duration
// elapses or the operator cancels.
func (a *Appliance) Clean(ctx context.Context) domain.Outcome {
	a.begin(promptClean)
	outcome := a.ctrl.Clean(ctx, a.cleanFor, func() bool { return a.pollCancel(ctx) })
	a.dismiss()
	return outcome
}

// Catalog returns the current menu.
func (a *Appliance) Catalog() domain.Catalog { return a.store.Catalog() }

// Stock returns the current stock.
func (a *Appliance) Stock() domain.Stock { return a.store.Stock() }

// Stats returns the current counters.
func (a *Appliance) Stats() domain.Stats { return a.tracker.Snapshot() }

// ReplaceCatalog installs a new menu, resets the popularity of renamed
// slots and revalidates the selection.
func (a *Appliance) ReplaceCatalog(c domain.Catalog) {
	old := a.store.ReplaceCatalog(c)
	a.tracker.ResetRenamed(old, c)
	a.selector.CatalogReplaced(c)
	a.publish()
}

// ReplaceStock overwrites the stock levels.
func (a *Appliance) ReplaceStock(s domain.Stock) {
	a.store.ReplaceStock(s)
	a.selector.StockChanged()
	metrics.SetStock(a.store.Stock())
	a.publish()
}

// pollCancel re-enters the dispatch routine once and reports whether the
// operator pressed cancel during it.
func (a *Appliance) pollCancel(ctx context.Context) bool {
	a.cancelRequested = false
	a.Step(ctx)
	return a.cancelRequested
}

func (a *Appliance) onLongPress(el domain.Element) {
	if a.nav.Screen() != domain.ScreenPresetMenu || el.Kind != domain.ElementPresetTile {
		return
	}
	if a.store.Catalog().At(el.Index).Name == "" {
		return
	}
	a.transition(a.nav.OpenDetail(el.Index))
}

// onMenu handles the controls shared by the three menus.
func (a *Appliance) onMenu(ctx context.Context, el domain.Element) {
	switch el.Kind {
	case domain.ElementTab:
		a.transition(a.nav.SelectTab(el.Index))
	case domain.ElementOrder:
		if _, err := a.Submit(ctx); err != nil {
			a.log.Debug("order refused: %v", err)
		}
	case domain.ElementSize:
		a.selector.SetSize(domain.Size(el.Index))
	case domain.ElementDeselect:
		a.selector.Deselect()
	}
}

func (a *Appliance) onPresetMenu(ctx context.Context, el domain.Element) {
	if el.Kind == domain.ElementPresetTile {
		a.selector.SelectPreset(el.Index)
		return
	}
	a.onMenu(ctx, el)
}

func (a *Appliance) onCustomMenu(ctx context.Context, el domain.Element) {
	switch el.Kind {
	case domain.ElementAdjustPlus:
		a.selector.Adjust(el.Index, +1)
	case domain.ElementAdjustMinus:
		a.selector.Adjust(el.Index, -1)
	default:
		a.onMenu(ctx, el)
	}
}

func (a *Appliance) onUtilityMenu(ctx context.Context, el domain.Element) {
	switch el.Kind {
	case domain.ElementRandom:
		a.selector.SelectRandom(a.randomMax)
	case domain.ElementClean:
		a.Clean(ctx)
	default:
		a.onMenu(ctx, el)
	}
}

// onOperation only listens for cancel. The operation that opened the
// overlay closes it.
func (a *Appliance) onOperation(_ context.Context, el domain.Element) {
	if el.Kind == domain.ElementCancel {
		a.cancelRequested = true
	}
}

func (a *Appliance) onAlert(_ context.Context, el domain.Element) {
	switch el.Kind {
	case domain.ElementAcknowledge, domain.ElementCancel, domain.ElementBack:
		a.dismiss()
	}
}

func (a *Appliance) onDetail(_ context.Context, el domain.Element) {
	switch el.Kind {
	case domain.ElementBack, domain.ElementCancel:
		a.dismiss()
	}
}

func (a *Appliance) serveSync(allowPost bool) {
	if a.inbox == nil {
		return
	}
	env, ok := a.inbox.Next(allowPost)
	if !ok {
		return
	}
	cmd := env.Command
	out, err := a.sync.Handle(cmd)
	result := "ok"
	if err != nil {
		result = "rejected"
		a.log.Warn("sync %s: %v", cmd, err)
	}
	metrics.RecordSyncCommand(cmd.Verb.String(), cmd.Resource, result)
	if out != nil && env.Reply != nil {
		env.Reply(out)
	}
}

func (a *Appliance) begin(prompt string) {
	a.transition(a.nav.BeginOperation(prompt))
	a.publish()
}

func (a *Appliance) dismiss() {
	a.transition(a.nav.Dismiss())
}

func (a *Appliance) alert(ctx context.Context, msg string) {
	a.transition(a.nav.ShowError(msg))
	if err := a.notifier.NotifyUrgent(ctx, msg); err != nil {
		a.log.Warn("alert notification: %v", err)
	}
}

func (a *Appliance) notify(ctx context.Context, msg string) {
	if err := a.notifier.Notify(ctx, msg); err != nil {
		a.log.Warn("notification: %v", err)
	}
}

// transition logs an illegal navigator move. Callers only attempt legal
// moves, so this flags a routing bug rather than user error.
func (a *Appliance) transition(err error) {
	if err != nil {
		a.log.Error("navigator: %v", err)
	}
}

func (a *Appliance) publish() {
	catalog := a.store.Catalog()
	v := &domain.View{
		Screen:       a.nav.Screen(),
		Overlay:      a.nav.Overlay(),
		Catalog:      catalog.Recipes(),
		Stock:        a.store.Stock(),
		Custom:       a.selector.Draft(),
		Candidate:    a.selector.Candidate(),
		SelectedSlot: a.selector.SelectedSlot(),
		DetailSlot:   a.nav.DetailSlot(),
		Top:          a.tracker.Top(domain.TopN, catalog),
		Stats:        a.tracker.Snapshot(),
	}
	for i, r := range v.Catalog {
		v.Available[i] = !r.IsEmpty() && a.store.RecipeAvailable(r)
	}
	a.view.Store(v)
}
