package session_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydroviewer/hydroviewer/internal/render"
	"github.com/hydroviewer/hydroviewer/internal/selection"
	"github.com/hydroviewer/hydroviewer/internal/session"
	"github.com/hydroviewer/hydroviewer/internal/view"
)

// fakeComposer returns one discharge chart panel per selection. Requests for gated
// station ids block until the gate is closed.
type fakeComposer struct {
	mu      sync.Mutex
	calls   int
	gates   map[string]chan struct{}
	started chan string
}

func (f *fakeComposer) Compose(_ context.Context, req view.Request) view.View {
	f.mu.Lock()
	f.calls++
	gate := f.gates[req.Selection.StationID]
	f.mu.Unlock()

	if gate != nil {
		f.started <- req.Selection.StationID
		<-gate
	}

	v := view.View{Request: req}
	if !req.Selection.IsZero() {
		v.Panels = []view.Panel{{
			ID:      view.PanelDischarge,
			Visible: true,
			State:   view.StateChart,
			Chart:   &render.Spec{Title: "Discharge " + req.Selection.StationID, Kind: render.KindLine},
		}}
	}
	return v
}

type stubBackend struct {
	err error
}

func (b stubBackend) Draw(w io.Writer, spec render.Spec) error {
	if b.err != nil {
		return b.err
	}
	_, err := io.WriteString(w, "png:"+spec.Title)
	return err
}

func newStore(composer session.Composer, backend render.Backend, clock clockwork.Clock) *session.Store {
	return session.NewStore(session.StoreConfig{
		Composer: composer,
		Renderer: render.NewRenderer(backend, zerolog.Nop()),
		IdleTTL:  10 * time.Minute,
		Clock:    clock,
		Logger:   zerolog.Nop(),
	})
}

func TestSession_SelectBindsCharts(t *testing.T) {
	st := newStore(&fakeComposer{}, stubBackend{}, clockwork.NewFakeClock())
	s := st.Create(context.Background())

	assert.True(t, strings.HasPrefix(s.ID(), "ses_"))
	assert.Empty(t, s.View().Panels)

	v, err := s.Select(context.Background(), selection.SelectDischarge("1108000"))
	require.NoError(t, err)
	assert.Equal(t, "1108000", v.Request.Selection.StationID)

	chart, ok := s.Chart(view.PanelDischarge)
	require.True(t, ok)
	assert.Equal(t, "png:Discharge 1108000", string(chart.PNG))

	snap := s.Snapshot()
	assert.Equal(t, []string{"discharge"}, snap.Charts)
	assert.Equal(t, "1108000", snap.Selectors.Discharge)
	assert.Empty(t, snap.Selectors.Tide)
}

func TestSession_SelectorsStayExclusive(t *testing.T) {
	st := newStore(&fakeComposer{}, stubBackend{}, clockwork.NewFakeClock())
	s := st.Create(context.Background())

	_, err := s.Select(context.Background(), selection.SelectDischarge("1108000"))
	require.NoError(t, err)
	_, err = s.Select(context.Background(), selection.SelectTide("8454000"))
	require.NoError(t, err)

	snap := s.Snapshot()
	assert.Empty(t, snap.Selectors.Discharge)
	assert.Equal(t, "8454000", snap.Selectors.Tide)
	assert.True(t, snap.Selection.IsTide())
}

func TestSession_RebindReplacesChart(t *testing.T) {
	st := newStore(&fakeComposer{}, stubBackend{}, clockwork.NewFakeClock())
	s := st.Create(context.Background())

	_, _ = s.Select(context.Background(), selection.SelectDischarge("1108000"))
	first, ok := s.Chart(view.PanelDischarge)
	require.True(t, ok)

	_, _ = s.Select(context.Background(), selection.SelectDischarge("1109000"))
	second, ok := s.Chart(view.PanelDischarge)
	require.True(t, ok)

	assert.Greater(t, second.Instance, first.Instance)
	assert.Equal(t, "png:Discharge 1109000", string(second.PNG))
}

func TestSession_InvalidSelection(t *testing.T) {
	st := newStore(&fakeComposer{}, stubBackend{}, clockwork.NewFakeClock())
	s := st.Create(context.Background())

	_, err := s.Select(context.Background(), selection.SelectDischarge("   "))
	assert.ErrorIs(t, err, session.ErrInvalidSelection)
	assert.True(t, s.Snapshot().Selection.IsZero())
}

func TestSession_DrawFailureBecomesPanelError(t *testing.T) {
	st := newStore(&fakeComposer{}, stubBackend{err: errors.New("font missing")}, clockwork.NewFakeClock())
	s := st.Create(context.Background())

	v, err := s.Select(context.Background(), selection.SelectDischarge("1108000"))
	require.NoError(t, err)

	p, ok := v.Panel(view.PanelDischarge)
	require.True(t, ok)
	assert.Equal(t, view.StateError, p.State)
	assert.Equal(t, render.FailureText, p.Message)

	_, ok = s.Chart(view.PanelDischarge)
	assert.False(t, ok)
}

func TestSession_SetStorm(t *testing.T) {
	composer := &fakeComposer{}
	st := newStore(composer, stubBackend{}, clockwork.NewFakeClock())
	s := st.Create(context.Background())

	_, _ = s.Select(context.Background(), selection.SelectDischarge("1108000"))
	v := s.SetStorm(context.Background(), "SANDY_2012")
	assert.Equal(t, "SANDY_2012", v.Request.StormID)

	v = s.SetStorm(context.Background(), "")
	assert.Empty(t, v.Request.StormID)
	assert.Equal(t, 4, composer.calls)
}

func TestSession_StaleViewIsDiscarded(t *testing.T) {
	composer := &fakeComposer{
		gates:   map[string]chan struct{}{"1108000": make(chan struct{})},
		started: make(chan string),
	}
	st := newStore(composer, stubBackend{}, clockwork.NewFakeClock())
	s := st.Create(context.Background())

	done := make(chan view.View, 1)
	go func() {
		v, _ := s.Select(context.Background(), selection.SelectDischarge("1108000"))
		done <- v
	}()
	assert.Equal(t, "1108000", <-composer.started)

	// A newer selection completes while the first is still composing.
	_, err := s.Select(context.Background(), selection.SelectTide("8454000"))
	require.NoError(t, err)

	close(composer.gates["1108000"])
	late := <-done

	assert.Equal(t, "8454000", late.Request.Selection.StationID)
	assert.Equal(t, "8454000", s.View().Request.Selection.StationID)

	chart, ok := s.Chart(view.PanelDischarge)
	require.True(t, ok)
	assert.Equal(t, "png:Discharge 8454000", string(chart.PNG))
	assert.Equal(t, uint64(1), s.Snapshot().Stale)
}

func TestStore_GetAndDelete(t *testing.T) {
	st := newStore(&fakeComposer{}, stubBackend{}, clockwork.NewFakeClock())
	s := st.Create(context.Background())

	got, err := st.Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)

	require.NoError(t, st.Delete(s.ID()))
	_, err = st.Get(s.ID())
	assert.ErrorIs(t, err, session.ErrNotFound)
	assert.ErrorIs(t, st.Delete(s.ID()), session.ErrNotFound)
}

func TestStore_IdleSessionsExpire(t *testing.T) {
	clock := clockwork.NewFakeClock()
	st := newStore(&fakeComposer{}, stubBackend{}, clock)
	active := st.Create(context.Background())
	idle := st.Create(context.Background())

	clock.Advance(6 * time.Minute)
	_, err := st.Get(active.ID())
	require.NoError(t, err)

	clock.Advance(6 * time.Minute)
	_, err = st.Get(idle.ID())
	assert.ErrorIs(t, err, session.ErrNotFound)

	_, err = st.Get(active.ID())
	assert.NoError(t, err)
	assert.Equal(t, 1, st.Len())
}

func TestStore_Sweep(t *testing.T) {
	clock := clockwork.NewFakeClock()
	st := newStore(&fakeComposer{}, stubBackend{}, clock)
	s := st.Create(context.Background())
	_, _ = s.Select(context.Background(), selection.SelectDischarge("1108000"))
	st.Create(context.Background())

	clock.Advance(11 * time.Minute)
	assert.Equal(t, 2, st.Sweep())
	assert.Equal(t, 0, st.Len())

	_, ok := s.Chart(view.PanelDischarge)
	assert.False(t, ok, "swept sessions release their charts")
}

func TestStore_RunSweepsPeriodically(t *testing.T) {
	clock := clockwork.NewFakeClock()
	st := newStore(&fakeComposer{}, stubBackend{}, clock)
	st.Create(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go st.Run(ctx, time.Minute)

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(11 * time.Minute)

	assert.Eventually(t, func() bool { return st.Len() == 0 }, time.Second, 5*time.Millisecond)
}
