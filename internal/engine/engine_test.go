package engine

import (
	"context"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testclock "k8s.io/utils/clock/testing"

	"github.com/hammamikhairi/ottobar/internal/dispense"
	"github.com/hammamikhairi/ottobar/internal/domain"
	"github.com/hammamikhairi/ottobar/internal/gateway"
	"github.com/hammamikhairi/ottobar/internal/hardware"
	"github.com/hammamikhairi/ottobar/internal/inventory"
	"github.com/hammamikhairi/ottobar/internal/logger"
	"github.com/hammamikhairi/ottobar/internal/recipe"
	"github.com/hammamikhairi/ottobar/internal/stats"
	"github.com/hammamikhairi/ottobar/internal/storage"
)

// collectingNotifier captures messages for assertions.
type collectingNotifier struct {
	mu     sync.Mutex
	normal []string
	urgent []string
}

func (n *collectingNotifier) Notify(_ context.Context, msg string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.normal = append(n.normal, msg)
	return nil
}

func (n *collectingNotifier) NotifyUrgent(_ context.Context, msg string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.urgent = append(n.urgent, msg)
	return nil
}

// script feeds touches by poll number; unlisted polls are releases. Hooks
// run before the touch of their poll is returned.
type script struct {
	polls int
	at    map[int]domain.Touch
	hooks map[int]func()
}

func (s *script) Poll() domain.Touch {
	s.polls++
	if h := s.hooks[s.polls]; h != nil {
		h()
	}
	return s.at[s.polls]
}

type fixture struct {
	app     *Appliance
	input   *script
	rig     *hardware.Rig
	clock   *testclock.FakeClock
	store   *inventory.Store
	tracker *stats.Tracker
	saver   *storage.Saver
	repo    *storage.MemoryRepository
	inbox   *gateway.Inbox
	notes   *collectingNotifier
}

func newFixture(t *testing.T, loaded domain.Stats, opts ...Option) *fixture {
	t.Helper()
	log := logger.New(logger.LevelOff, nil)
	clk := testclock.NewFakeClock(time.Unix(0, 0))

	catalog := recipe.DefaultCatalog(log)
	repo := storage.NewMemoryRepository(catalog, recipe.DefaultStock(), log)
	saver := storage.NewSaver(repo, log)
	store := inventory.New(catalog, recipe.DefaultStock(), saver, log,
		inventory.WithRand(rand.New(rand.NewPCG(1, 1))))
	tracker := stats.NewTracker(loaded, saver, log)
	rig := hardware.NewRig(clk, log, hardware.WithFlowRate(20))
	ctrl := dispense.NewController(rig, rig, store, log, dispense.WithClock(clk))
	input := &script{at: map[int]domain.Touch{}, hooks: map[int]func(){}}
	inbox := gateway.NewInbox(4, log)
	notes := &collectingNotifier{}

	opts = append([]Option{WithClock(clk), WithSync(inbox), WithLongPressThreshold(3)}, opts...)
	app := New(store, tracker, ctrl, input, notes, log, opts...)
	return &fixture{
		app: app, input: input, rig: rig, clock: clk, store: store,
		tracker: tracker, saver: saver, repo: repo, inbox: inbox, notes: notes,
	}
}

func (f *fixture) steps(n int) {
	for i := 0; i < n; i++ {
		f.app.Step(context.Background())
	}
}

var (
	orderButton = domain.Press(domain.ElementOrder, 0)
	cancelBtn   = domain.Press(domain.ElementCancel, 0)
)

func TestOrderCompletes(t *testing.T) {
	f := newFixture(t, domain.Stats{})
	f.input.at[1] = domain.Press(domain.ElementPresetTile, 0) // Martini 60/10
	f.input.at[3] = orderButton
	f.input.hooks[6] = func() {
		assert.Equal(t, domain.ScreenCancellableOperation, f.app.View().Screen)
		assert.Equal(t, promptCup, f.app.View().Overlay)
		f.rig.PlaceCup(30)
	}

	f.steps(3)

	v := f.app.View()
	assert.Equal(t, domain.ScreenPresetMenu, v.Screen)
	assert.False(t, v.Candidate.Selected(), "a submitted candidate is consumed")
	assert.InDelta(t, 640, v.Stock[0].Remaining, 2.5)
	assert.InDelta(t, 690, v.Stock[1].Remaining, 2.5)
	assert.Equal(t, 1500.0, v.Stock[2].Remaining, "unused pumps are never run")

	want := domain.Stats{OrdersCompleted: 1, PresetOrders: 1}
	want.PresetCounts[0] = 1
	assert.Equal(t, want, f.tracker.Snapshot())
	assert.Equal(t, []string{"Your Martini is ready. Enjoy!"}, f.notes.normal)
	assert.Empty(t, f.notes.urgent)

	require.NoError(t, f.saver.Flush(context.Background()))
	saved, err := f.repo.LoadStock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, v.Stock, saved, "debits reach the repository")
}

func TestOrderStallEndsInAlert(t *testing.T) {
	f := newFixture(t, domain.Stats{})
	f.rig.Jam(0, true)
	f.input.at[1] = domain.Press(domain.ElementPresetTile, 0)
	f.input.at[3] = orderButton
	f.input.hooks[4] = func() { f.rig.PlaceCup(30) }

	f.steps(3)

	v := f.app.View()
	assert.Equal(t, domain.ScreenError, v.Screen)
	assert.Equal(t, alertStalled, v.Overlay)
	assert.Equal(t, []string{alertStalled}, f.notes.urgent)
	assert.Equal(t, 700.0, v.Stock[0].Remaining)
	assert.Equal(t, 700.0, v.Stock[1].Remaining, "the order stops at the stalled ingredient")
	assert.Equal(t, 1, f.tracker.Snapshot().OrdersTimedOut)
	assert.Zero(t, f.tracker.Snapshot().PresetOrders)

	f.input.at[f.input.polls+1] = domain.Press(domain.ElementAcknowledge, 0)
	f.steps(1)
	assert.Equal(t, domain.ScreenPresetMenu, f.app.View().Screen)
}

func TestCancelDuringPourDebitsPartial(t *testing.T) {
	f := newFixture(t, domain.Stats{})
	f.input.at[1] = domain.Press(domain.ElementPresetTile, 0)
	f.input.at[3] = orderButton
	f.input.hooks[4] = func() { f.rig.PlaceCup(30) }
	// The cup is confirmed on poll 13; the pour polls from 14 on.
	f.input.at[20] = cancelBtn

	f.steps(3)

	v := f.app.View()
	assert.Equal(t, domain.ScreenPresetMenu, v.Screen)
	assert.Less(t, v.Stock[0].Remaining, 700.0)
	assert.Greater(t, v.Stock[0].Remaining, 640.0)
	assert.Equal(t, 700.0, v.Stock[1].Remaining)
	assert.Equal(t, 1, f.tracker.Snapshot().OrdersCancelled)
	assert.Empty(t, f.notes.normal, "cancelling is silent")
	assert.Empty(t, f.notes.urgent)
}

func TestCancelCupWait(t *testing.T) {
	f := newFixture(t, domain.Stats{})
	f.input.at[1] = domain.Press(domain.ElementPresetTile, 1)
	f.input.at[3] = orderButton
	f.input.at[7] = cancelBtn

	f.steps(3)

	v := f.app.View()
	assert.Equal(t, domain.ScreenPresetMenu, v.Screen)
	assert.Equal(t, recipe.DefaultStock(), v.Stock)
	assert.Equal(t, 1, f.tracker.Snapshot().OrdersCancelled)
	assert.False(t, f.rig.Pumping()[0])
}

func TestSubmitWithoutSelectionAlerts(t *testing.T) {
	f := newFixture(t, domain.Stats{})
	f.input.at[1] = orderButton
	f.steps(1)

	v := f.app.View()
	assert.Equal(t, domain.ScreenError, v.Screen)
	assert.Equal(t, alertNoDrink, v.Overlay)
	assert.Equal(t, domain.Stats{}, f.tracker.Snapshot())

	// Menu controls are dead while the alert is up.
	f.input.at[2] = domain.Press(domain.ElementTab, 1)
	f.input.at[4] = domain.Press(domain.ElementAcknowledge, 0)
	f.steps(3)
	assert.Equal(t, domain.ScreenPresetMenu, f.app.View().Screen)
}

func TestSubmitRechecksScaledAvailability(t *testing.T) {
	f := newFixture(t, domain.Stats{})
	stock := f.store.Stock()
	stock[0].Remaining = 75 // 60 ml medium fits, 75 ml large does not
	f.app.ReplaceStock(stock)

	f.input.at[1] = domain.Press(domain.ElementPresetTile, 0)
	f.input.at[2] = domain.Press(domain.ElementSize, int(domain.SizeLarge))
	f.input.at[3] = orderButton
	f.steps(3)

	v := f.app.View()
	assert.Equal(t, domain.ScreenError, v.Screen)
	assert.Contains(t, v.Overlay, "large Martini")
	assert.True(t, v.Candidate.Selected(), "a refused order keeps its selection")
}

func TestLongPressOpensDetail(t *testing.T) {
	f := newFixture(t, domain.Stats{})
	for p := 1; p <= 5; p++ {
		f.input.at[p] = domain.Press(domain.ElementPresetTile, 4)
	}
	f.input.at[7] = domain.Press(domain.ElementBack, 0)

	f.steps(4)
	v := f.app.View()
	assert.Equal(t, domain.ScreenRecipeDetail, v.Screen)
	assert.Equal(t, 4, v.DetailSlot)

	f.steps(3)
	assert.Equal(t, domain.ScreenPresetMenu, f.app.View().Screen)
}

func TestCustomAndRandomMenus(t *testing.T) {
	f := newFixture(t, domain.Stats{})
	f.input.at[1] = domain.Press(domain.ElementTab, 1)
	f.input.at[3] = domain.Press(domain.ElementAdjustPlus, 2)
	f.input.at[5] = domain.Press(domain.ElementAdjustPlus, 2)
	f.steps(5)

	v := f.app.View()
	assert.Equal(t, domain.ScreenCustomMenu, v.Screen)
	assert.Equal(t, domain.CategoryCustom, v.Candidate.Category())
	assert.Equal(t, 20, v.Candidate.Recipe.Amounts[2])

	f.input.at[7] = domain.Press(domain.ElementTab, 2)
	f.input.at[9] = domain.Press(domain.ElementRandom, 0)
	f.steps(4)
	v = f.app.View()
	assert.Equal(t, domain.ScreenUtilityMenu, v.Screen)
	assert.Equal(t, domain.CategoryRandom, v.Candidate.Category())
	assert.LessOrEqual(t, v.Candidate.Recipe.Total(), DefaultRandomMax)
}

func TestCleanRunsAllPumps(t *testing.T) {
	f := newFixture(t, domain.Stats{}, WithCleanDuration(time.Second))
	f.input.at[1] = domain.Press(domain.ElementTab, 2)
	f.input.at[3] = domain.Press(domain.ElementClean, 0)
	f.input.hooks[5] = func() {
		assert.Equal(t, [domain.IngredientCount]bool{true, true, true, true}, f.rig.Pumping())
		assert.Equal(t, promptClean, f.app.View().Overlay)
	}
	start := f.clock.Now()

	f.steps(3)

	assert.Equal(t, time.Second, f.clock.Since(start))
	assert.Equal(t, [domain.IngredientCount]bool{}, f.rig.Pumping())
	assert.Equal(t, recipe.DefaultStock(), f.store.Stock(), "cleaning never debits")
	assert.Equal(t, domain.ScreenPresetMenu, f.app.View().Screen)
}

func TestSyncDuringOrder(t *testing.T) {
	f := newFixture(t, domain.Stats{})
	catalog := f.store.Catalog().Recipes()
	catalog[0].Name = "Gibson"
	renamed, err := domain.NewCatalog(catalog...)
	require.NoError(t, err)
	payload, err := gateway.EncodeMenu(renamed)
	require.NoError(t, err)

	var replies [][]byte
	reply := func(b []byte) { replies = append(replies, b) }

	f.input.at[1] = domain.Press(domain.ElementPresetTile, 0)
	f.input.at[3] = orderButton
	f.input.hooks[4] = func() { f.rig.PlaceCup(30) }
	f.input.hooks[8] = func() {
		f.inbox.Deliver(gateway.Envelope{Command: gateway.Command{Verb: gateway.VerbPost, Resource: "Menu", Payload: payload}})
		f.inbox.Deliver(gateway.Envelope{Command: gateway.Command{Verb: gateway.VerbRequest, Resource: "Stats"}, Reply: reply})
	}
	f.input.hooks[12] = func() {
		assert.Len(t, replies, 1, "REQUEST is answered while pouring")
		assert.Equal(t, "Martini", f.app.Catalog().At(0).Name, "POST waits for the order to end")
	}

	// The step that ran the order serves the held POST once it is over.
	f.steps(3)
	assert.Equal(t, "Gibson", f.app.Catalog().At(0).Name)
	s := f.tracker.Snapshot()
	assert.Equal(t, 1, s.PresetOrders)
	assert.Zero(t, s.PresetCounts[0], "renamed slot loses its popularity")
}

func TestPostMenuResetsOnlyRenamedSlots(t *testing.T) {
	loaded := domain.Stats{PresetCounts: [domain.CatalogCapacity]int{3, 4, 5, 6, 7}}
	f := newFixture(t, loaded)

	recipes := f.store.Catalog().Recipes()
	recipes[2] = domain.Recipe{Name: "Gibson", Amounts: domain.Amounts{60, 10, 0, 0}}
	renamed, _ := domain.NewCatalog(recipes...)
	payload, _ := gateway.EncodeMenu(renamed)
	f.inbox.Deliver(gateway.Envelope{Command: gateway.Command{Verb: gateway.VerbPost, Resource: "Menu", Payload: payload}})

	f.steps(1)

	assert.Equal(t, [domain.CatalogCapacity]int{3, 4, 0, 6, 7}, f.tracker.Snapshot().PresetCounts)
	assert.Equal(t, "Gibson", f.app.View().Catalog[2].Name)
}

func TestMalformedPostChangesNothing(t *testing.T) {
	f := newFixture(t, domain.Stats{})
	before := f.app.View()
	f.inbox.Deliver(gateway.Envelope{Command: gateway.Command{Verb: gateway.VerbPost, Resource: "Stock", Payload: []byte(`{"name":"Gin"}`)}})
	f.steps(1)
	assert.Equal(t, before.Stock, f.app.View().Stock)
}

func TestViewReportsAvailability(t *testing.T) {
	f := newFixture(t, domain.Stats{})
	stock := f.store.Stock()
	stock[2].Remaining = 100 // not enough tonic for 150 ml mixes
	f.app.ReplaceStock(stock)

	v := f.app.View()
	assert.True(t, v.Available[0], "Martini uses no tonic")
	assert.False(t, v.Available[1], "Gin Tonic needs 150 ml of tonic")
	assert.Len(t, v.Top, domain.TopN)
}

func TestRunStopsOnCancel(t *testing.T) {
	log := logger.Nop()
	catalog := recipe.DefaultCatalog(log)
	saver := storage.NewSaver(storage.NewMemoryRepository(catalog, recipe.DefaultStock(), log), log)
	store := inventory.New(catalog, recipe.DefaultStock(), saver, log)
	rig := hardware.NewRig(testclock.NewFakeClock(time.Unix(0, 0)), log)
	ctrl := dispense.NewController(rig, rig, store, log)
	input := &script{at: map[int]domain.Touch{}, hooks: map[int]func(){}}
	app := New(store, stats.NewTracker(domain.Stats{}, saver, log), ctrl, input, &collectingNotifier{}, log,
		WithPollInterval(time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, app.Run(ctx))
	assert.Greater(t, input.polls, 1)
}
