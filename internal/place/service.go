package place

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/pixelbattle/pixel-battle-backend/internal/canvas"
	"github.com/pixelbattle/pixel-battle-backend/internal/hub"
	"github.com/pixelbattle/pixel-battle-backend/internal/store"
)

var ErrMissingField = errors.New("missing required field")
var ErrInvalidTeam = errors.New("invalid team")
var ErrInvalidColor = errors.New("color not allowed")
var ErrOutOfBounds = errors.New("coordinates out of bounds")
var ErrUnknownUser = errors.New("user not found")
var ErrCooldown = errors.New("placement cooldown active")

// Publisher is the slice of the hub the service needs.
type Publisher interface {
	Publish(e hub.Event)
}

// Request carries a placement attempt. X and Y are pointers so a
// missing coordinate is distinguishable from 0.
type Request struct {
	X     *int   `json:"x"`
	Y     *int   `json:"y"`
	Color string `json:"color"`
}

type Service struct {
	store    *store.Store
	pub      Publisher
	clock    clockwork.Clock
	cooldown time.Duration
	log      *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex // per-identity placement serialization
}

func NewService(st *store.Store, pub Publisher, clock clockwork.Clock, cooldown time.Duration, log *zap.Logger) *Service {
	return &Service{
		store:    st,
		pub:      pub,
		clock:    clock,
		cooldown: cooldown,
		log:      log,
		locks:    make(map[string]*sync.Mutex),
	}
}

// identityLock returns the mutex serializing placements for one
// identity. Entries are never reclaimed; one mutex per identity ever
// seen is cheap relative to their user rows.
func (s *Service) identityLock(identity string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[identity]
	if !ok {
		l = &sync.Mutex{}
		s.locks[identity] = l
	}
	return l
}

// SelectTeam assigns the identity to a team on first contact. The first
// choice is final: if the user already exists the stored team comes
// back and requestedTeam is ignored, even when it differs.
func (s *Service) SelectTeam(ctx context.Context, identity string, requestedTeam canvas.Team) (canvas.Team, error) {
	if identity == "" || requestedTeam == "" {
		return "", ErrMissingField
	}
	if !canvas.ValidTeam(requestedTeam) {
		return "", ErrInvalidTeam
	}

	if u, err := s.store.GetUser(ctx, identity); err == nil {
		return u.Team, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("get user: %w", err)
	}

	u, err := s.store.CreateUser(ctx, identity, requestedTeam)
	if errors.Is(err, store.ErrAlreadyExists) {
		// Lost a creation race; the winner's team stands.
		existing, gerr := s.store.GetUser(ctx, identity)
		if gerr != nil {
			return "", fmt.Errorf("get user after create race: %w", gerr)
		}
		return existing.Team, nil
	}
	if err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}

	s.log.Info("team selected",
		zap.String("identity", identity),
		zap.String("team", string(u.Team)))
	return u.Team, nil
}

// PlacePixel validates and executes one placement. The cooldown check
// and the store write run under the identity's lock so two
// near-simultaneous attempts can't both pass the check.
func (s *Service) PlacePixel(ctx context.Context, identity string, req Request) (*store.Pixel, error) {
	if identity == "" || req.X == nil || req.Y == nil || req.Color == "" {
		return nil, ErrMissingField
	}
	x, y := *req.X, *req.Y
	if !canvas.InBounds(x, y) {
		return nil, ErrOutOfBounds
	}
	color := canvas.Team(req.Color)
	if !canvas.ValidColor(color) {
		return nil, ErrInvalidColor
	}

	lock := s.identityLock(identity)
	lock.Lock()
	defer lock.Unlock()

	user, err := s.store.GetUser(ctx, identity)
	if errors.Is(err, store.ErrNotFound) {
		// Team selection must happen before the first placement.
		return nil, ErrUnknownUser
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	now := s.clock.Now().Unix()
	if now-user.LastPlaced < int64(s.cooldown.Seconds()) {
		return nil, ErrCooldown
	}

	// The pixel's team is the user's stored team, never client input.
	// Any of the eight colors is accepted regardless of team; color and
	// team share one enumeration but are not cross-checked.
	pixel, err := s.store.RecordPlacement(ctx, identity, user.Team, x, y, color, now)
	if err != nil {
		return nil, fmt.Errorf("record placement: %w", err)
	}

	s.pub.Publish(hub.NewPixelEvent(pixel))

	s.log.Info("pixel placed",
		zap.String("identity", identity),
		zap.Int("x", x),
		zap.Int("y", y),
		zap.String("color", string(color)))
	return pixel, nil
}
