package place

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pixelbattle/pixel-battle-backend/internal/canvas"
	"github.com/pixelbattle/pixel-battle-backend/internal/hub"
	"github.com/pixelbattle/pixel-battle-backend/internal/store"
)

type capturePub struct {
	mu     sync.Mutex
	events []hub.Event
}

func (c *capturePub) Publish(e hub.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *capturePub) all() []hub.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]hub.Event(nil), c.events...)
}

func intp(v int) *int { return &v }

func newTestService(t *testing.T) (*Service, *store.Store, *capturePub, *clockwork.FakeClock) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	st, err := store.New(db)
	require.NoError(t, err)

	pub := &capturePub{}
	clock := clockwork.NewFakeClock()
	svc := NewService(st, pub, clock, 60*time.Second, zap.NewNop())
	return svc, st, pub, clock
}

func TestSelectTeam_FirstChoiceIsFinal(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	team, err := svc.SelectTeam(ctx, "u1", canvas.TeamRed)
	require.NoError(t, err)
	require.Equal(t, canvas.TeamRed, team)

	// A second call with a different team returns the original.
	team, err = svc.SelectTeam(ctx, "u1", canvas.TeamBlue)
	require.NoError(t, err)
	require.Equal(t, canvas.TeamRed, team)
}

func TestSelectTeam_Validation(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.SelectTeam(ctx, "", canvas.TeamRed)
	require.ErrorIs(t, err, ErrMissingField)

	_, err = svc.SelectTeam(ctx, "u1", "")
	require.ErrorIs(t, err, ErrMissingField)

	_, err = svc.SelectTeam(ctx, "u1", "mauve")
	require.ErrorIs(t, err, ErrInvalidTeam)
}

func TestPlacePixel_MissingFields(t *testing.T) {
	svc, st, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.SelectTeam(ctx, "u1", canvas.TeamRed)
	require.NoError(t, err)

	for _, req := range []Request{
		{Y: intp(5), Color: "red"},
		{X: intp(5), Color: "red"},
		{X: intp(5), Y: intp(5)},
	} {
		_, err := svc.PlacePixel(ctx, "u1", req)
		require.ErrorIs(t, err, ErrMissingField)
	}

	pixels, err := st.ListPixels(ctx)
	require.NoError(t, err)
	require.Empty(t, pixels)
}

func TestPlacePixel_OutOfBounds(t *testing.T) {
	svc, st, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.SelectTeam(ctx, "u1", canvas.TeamRed)
	require.NoError(t, err)

	for _, c := range [][2]int{{-1, 5}, {1000, 5}, {5, -1}, {5, 1000}} {
		_, err := svc.PlacePixel(ctx, "u1", Request{X: intp(c[0]), Y: intp(c[1]), Color: "red"})
		require.ErrorIs(t, err, ErrOutOfBounds)
	}

	pixels, err := st.ListPixels(ctx)
	require.NoError(t, err)
	require.Empty(t, pixels)
}

func TestPlacePixel_InvalidColor(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.SelectTeam(ctx, "u1", canvas.TeamRed)
	require.NoError(t, err)

	_, err = svc.PlacePixel(ctx, "u1", Request{X: intp(5), Y: intp(5), Color: "chartreuse"})
	require.ErrorIs(t, err, ErrInvalidColor)
}

func TestPlacePixel_UnknownUser(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	_, err := svc.PlacePixel(context.Background(), "stranger", Request{X: intp(5), Y: intp(5), Color: "red"})
	require.ErrorIs(t, err, ErrUnknownUser)
}

func TestPlacePixel_CooldownBoundary(t *testing.T) {
	svc, st, _, clock := newTestService(t)
	ctx := context.Background()

	_, err := svc.SelectTeam(ctx, "u1", canvas.TeamRed)
	require.NoError(t, err)

	first, err := svc.PlacePixel(ctx, "u1", Request{X: intp(1), Y: intp(1), Color: "red"})
	require.NoError(t, err)

	// Still inside the window one second before it expires.
	clock.Advance(59 * time.Second)
	_, err = svc.PlacePixel(ctx, "u1", Request{X: intp(2), Y: intp(2), Color: "red"})
	require.ErrorIs(t, err, ErrCooldown)

	// Failed attempt changed nothing.
	u, err := st.GetUser(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, first.PlacedAt, u.LastPlaced)

	// Exactly at the boundary the placement goes through.
	clock.Advance(1 * time.Second)
	second, err := svc.PlacePixel(ctx, "u1", Request{X: intp(2), Y: intp(2), Color: "red"})
	require.NoError(t, err)
	require.Equal(t, first.PlacedAt+60, second.PlacedAt)

	u, err = st.GetUser(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, second.PlacedAt, u.LastPlaced)
}

// Color and team share one enumeration but are deliberately not
// cross-checked: a red-team user may place a blue pixel. The stored
// team still comes from the user row.
func TestPlacePixel_ColorNeedNotMatchTeam(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.SelectTeam(ctx, "u1", canvas.TeamRed)
	require.NoError(t, err)

	p, err := svc.PlacePixel(ctx, "u1", Request{X: intp(5), Y: intp(5), Color: "blue"})
	require.NoError(t, err)
	require.Equal(t, canvas.TeamRed, p.Team)
	require.Equal(t, canvas.TeamBlue, p.Color)
}

func TestPlacePixel_PublishesNewPixelEvent(t *testing.T) {
	svc, _, pub, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.SelectTeam(ctx, "u1", canvas.TeamRed)
	require.NoError(t, err)

	p, err := svc.PlacePixel(ctx, "u1", Request{X: intp(5), Y: intp(5), Color: "red"})
	require.NoError(t, err)

	events := pub.all()
	require.Len(t, events, 1)
	require.Equal(t, "new_pixel", events[0].Type)
	require.Equal(t, p, events[0].Data)
}

func TestPlacePixel_FailedAttemptPublishesNothing(t *testing.T) {
	svc, _, pub, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.PlacePixel(ctx, "stranger", Request{X: intp(5), Y: intp(5), Color: "red"})
	require.ErrorIs(t, err, ErrUnknownUser)
	require.Empty(t, pub.all())
}

// select red, place at t=0, immediate retry hits the cooldown, retry at
// t=60 lands, and the counts come out {red: 2}.
func TestScenario_TwoPlacementsOneCooldown(t *testing.T) {
	svc, st, _, clock := newTestService(t)
	ctx := context.Background()

	team, err := svc.SelectTeam(ctx, "u1", canvas.TeamRed)
	require.NoError(t, err)
	require.Equal(t, canvas.TeamRed, team)

	_, err = svc.PlacePixel(ctx, "u1", Request{X: intp(5), Y: intp(5), Color: "red"})
	require.NoError(t, err)

	_, err = svc.PlacePixel(ctx, "u1", Request{X: intp(5), Y: intp(5), Color: "red"})
	require.ErrorIs(t, err, ErrCooldown)

	pixels, err := st.ListPixels(ctx)
	require.NoError(t, err)
	require.Len(t, pixels, 1)

	clock.Advance(60 * time.Second)
	_, err = svc.PlacePixel(ctx, "u1", Request{X: intp(5), Y: intp(5), Color: "red"})
	require.NoError(t, err)

	pixels, err = st.ListPixels(ctx)
	require.NoError(t, err)
	require.Len(t, pixels, 2)

	counts, err := st.TeamCounts(ctx)
	require.NoError(t, err)
	require.Len(t, counts, 1)
	require.Equal(t, canvas.TeamRed, counts[0].Team)
	require.EqualValues(t, 2, counts[0].PixelCount)
}

func TestPlacePixel_ConcurrentSameIdentity(t *testing.T) {
	svc, st, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.SelectTeam(ctx, "u1", canvas.TeamRed)
	require.NoError(t, err)

	// Many simultaneous attempts inside one cooldown window: exactly
	// one may win.
	var wg sync.WaitGroup
	var okCount sync.Map
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := svc.PlacePixel(ctx, "u1", Request{X: intp(i), Y: intp(i), Color: "red"}); err == nil {
				okCount.Store(i, true)
			}
		}(i)
	}
	wg.Wait()

	wins := 0
	okCount.Range(func(_, _ any) bool { wins++; return true })
	require.Equal(t, 1, wins)

	pixels, err := st.ListPixels(ctx)
	require.NoError(t, err)
	require.Len(t, pixels, 1)
}
