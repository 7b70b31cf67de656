package swipe

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/gdugdh24/matchmaker-backend/internal/domain"
	"github.com/gdugdh24/matchmaker-backend/internal/infrastructure/logger"
	"github.com/gdugdh24/matchmaker-backend/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notification struct {
	a, b string
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []notification
	err   error
}

func (n *fakeNotifier) NotifyUnlocked(_ context.Context, a, b string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notification{a, b})
	return n.err
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.calls)
}

type fakeInvalidator struct {
	mu    sync.Mutex
	users []string
}

func (f *fakeInvalidator) InvalidateUser(_ context.Context, userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users = append(f.users, userID)
}

const (
	alice = "11111111-1111-4111-8111-111111111111"
	bob   = "22222222-2222-4222-8222-222222222222"
	carol = "33333333-3333-4333-8333-333333333333"
)

type fixture struct {
	uc       *SwipeUseCase
	db       *memory.DB
	notifier *fakeNotifier
	cache    *fakeInvalidator
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	db := memory.New()
	for _, id := range []string{alice, bob, carol} {
		require.NoError(t, db.Save(context.Background(), &domain.Profile{ID: id, Name: id}))
	}
	n := &fakeNotifier{}
	c := &fakeInvalidator{}
	return &fixture{
		uc:       NewSwipeUseCase(db, db, n, c, opts, logger.Discard()),
		db:       db,
		notifier: n,
		cache:    c,
	}
}

func (f *fixture) mutual(t *testing.T, actor, candidate string) bool {
	t.Helper()
	ok, err := f.db.IsMutual(context.Background(), actor, candidate)
	require.NoError(t, err)
	return ok
}

func (f *fixture) canMessage(t *testing.T, sender, recipient string) bool {
	t.Helper()
	ok, err := f.uc.CanMessage(context.Background(), sender, recipient)
	require.NoError(t, err)
	return ok
}

func TestSwipe_RightWithoutReciprocal(t *testing.T) {
	f := newFixture(t, Options{})

	resp, err := f.uc.Swipe(context.Background(), alice, bob, domain.DirectionRight)
	require.NoError(t, err)
	assert.False(t, resp.IsMatch)
	assert.Empty(t, resp.RoomID)
	assert.False(t, resp.Swipe.Mutual)
	assert.Equal(t, 0, f.notifier.count())
	assert.Equal(t, []string{alice}, f.cache.users)
}

func TestSwipe_MutualMatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	_, err := f.uc.Swipe(ctx, alice, bob, domain.DirectionRight)
	require.NoError(t, err)
	resp, err := f.uc.Swipe(ctx, bob, alice, domain.DirectionRight)
	require.NoError(t, err)

	assert.True(t, resp.IsMatch)
	assert.True(t, resp.Swipe.Mutual)
	assert.Equal(t, domain.RoomID(alice, bob), resp.RoomID)
	assert.True(t, f.mutual(t, alice, bob))
	assert.True(t, f.mutual(t, bob, alice))
	assert.True(t, f.canMessage(t, alice, bob))
	assert.True(t, f.canMessage(t, bob, alice))

	require.Equal(t, 1, f.notifier.count())
	assert.Equal(t, notification{bob, alice}, f.notifier.calls[0])
}

func TestSwipe_Idempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	_, err := f.uc.Swipe(ctx, alice, bob, domain.DirectionRight)
	require.NoError(t, err)
	_, err = f.uc.Swipe(ctx, bob, alice, domain.DirectionRight)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		resp, err := f.uc.Swipe(ctx, alice, bob, domain.DirectionRight)
		require.NoError(t, err)
		assert.True(t, resp.IsMatch)
	}
	assert.Equal(t, 1, f.notifier.count())

	right := domain.DirectionRight
	ids, err := f.db.ListCandidateIDs(ctx, alice, &right)
	require.NoError(t, err)
	assert.Equal(t, []string{bob}, ids)
}

func TestSwipe_ConvergesInEitherOrder(t *testing.T) {
	ctx := context.Background()
	orders := [][2]string{{alice, bob}, {bob, alice}}
	for _, order := range orders {
		f := newFixture(t, Options{})
		_, err := f.uc.Swipe(ctx, order[0], order[1], domain.DirectionRight)
		require.NoError(t, err)
		_, err = f.uc.Swipe(ctx, order[1], order[0], domain.DirectionRight)
		require.NoError(t, err)

		assert.True(t, f.mutual(t, alice, bob))
		assert.True(t, f.mutual(t, bob, alice))
	}
}

func TestSwipe_ConcurrentConverges(t *testing.T) {
	ctx := context.Background()
	for i := 0; i < 50; i++ {
		f := newFixture(t, Options{})

		var wg sync.WaitGroup
		errs := make(chan error, 2)
		for _, pair := range [][2]string{{alice, bob}, {bob, alice}} {
			wg.Add(1)
			go func(actor, candidate string) {
				defer wg.Done()
				_, err := f.uc.Swipe(ctx, actor, candidate, domain.DirectionRight)
				errs <- err
			}(pair[0], pair[1])
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		assert.True(t, f.mutual(t, alice, bob))
		assert.True(t, f.mutual(t, bob, alice))
		assert.GreaterOrEqual(t, f.notifier.count(), 1)
	}
}

func TestSwipe_Self(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	_, err := f.uc.Swipe(ctx, alice, alice, domain.DirectionRight)
	assert.True(t, errors.Is(err, domain.ErrCannotSwipeSelf))
	assert.True(t, errors.Is(err, domain.ErrInvalidOperation))

	_, err = f.db.Get(ctx, alice, alice)
	assert.True(t, errors.Is(err, domain.ErrSwipeNotFound))
}

func TestSwipe_InvalidDirection(t *testing.T) {
	f := newFixture(t, Options{})

	_, err := f.uc.Swipe(context.Background(), alice, bob, domain.Direction("up"))
	assert.True(t, errors.Is(err, domain.ErrInvalidOperation))
}

func TestSwipe_UnknownCandidate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	_, err := f.uc.Swipe(ctx, alice, "44444444-4444-4444-8444-444444444444", domain.DirectionRight)
	assert.True(t, errors.Is(err, domain.ErrProfileNotFound))

	ids, err := f.db.ListCandidateIDs(ctx, alice, nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSwipe_LeftKeepsMutualFlag(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	_, err := f.uc.Swipe(ctx, alice, bob, domain.DirectionRight)
	require.NoError(t, err)
	_, err = f.uc.Swipe(ctx, bob, alice, domain.DirectionRight)
	require.NoError(t, err)

	resp, err := f.uc.Swipe(ctx, alice, bob, domain.DirectionLeft)
	require.NoError(t, err)
	assert.False(t, resp.IsMatch)
	assert.True(t, resp.Swipe.Mutual)
	assert.True(t, f.mutual(t, alice, bob))
	assert.False(t, f.canMessage(t, alice, bob))
}

func TestSwipe_NotifierErrorIsSwallowed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})
	f.notifier.err = errors.New("hub down")

	_, err := f.uc.Swipe(ctx, alice, bob, domain.DirectionRight)
	require.NoError(t, err)
	resp, err := f.uc.Swipe(ctx, bob, alice, domain.DirectionRight)
	require.NoError(t, err)
	assert.True(t, resp.IsMatch)
}

func TestCanMessage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	assert.False(t, f.canMessage(t, alice, bob))
	assert.False(t, f.canMessage(t, alice, alice))

	_, err := f.uc.Swipe(ctx, alice, bob, domain.DirectionRight)
	require.NoError(t, err)
	assert.False(t, f.canMessage(t, alice, bob))
	assert.False(t, f.canMessage(t, bob, alice))
}

func TestUnmatch_Asymmetric(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	_, err := f.uc.Swipe(ctx, alice, bob, domain.DirectionRight)
	require.NoError(t, err)
	_, err = f.uc.Swipe(ctx, bob, alice, domain.DirectionRight)
	require.NoError(t, err)

	swipe, err := f.uc.Unmatch(ctx, alice, bob)
	require.NoError(t, err)
	assert.Equal(t, domain.DirectionLeft, swipe.Action)
	assert.True(t, swipe.Mutual)

	assert.False(t, f.canMessage(t, alice, bob))
	assert.True(t, f.canMessage(t, bob, alice))
	assert.True(t, f.mutual(t, alice, bob))
	assert.True(t, f.mutual(t, bob, alice))

	rec, err := f.db.Get(ctx, bob, alice)
	require.NoError(t, err)
	assert.Equal(t, domain.DirectionRight, rec.Action)
}

func TestUnmatch_ClearsMutual(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{UnmatchClearsMutual: true})

	_, err := f.uc.Swipe(ctx, alice, bob, domain.DirectionRight)
	require.NoError(t, err)
	_, err = f.uc.Swipe(ctx, bob, alice, domain.DirectionRight)
	require.NoError(t, err)

	swipe, err := f.uc.Unmatch(ctx, alice, bob)
	require.NoError(t, err)
	assert.False(t, swipe.Mutual)
	assert.False(t, f.mutual(t, alice, bob))
	assert.False(t, f.mutual(t, bob, alice))
	assert.False(t, f.canMessage(t, bob, alice))

	// Swiping right again re-establishes the match and notifies again.
	resp, err := f.uc.Swipe(ctx, alice, bob, domain.DirectionRight)
	require.NoError(t, err)
	assert.True(t, resp.IsMatch)
	assert.Equal(t, 2, f.notifier.count())
}

func TestUnmatch_NoSwipe(t *testing.T) {
	f := newFixture(t, Options{})

	_, err := f.uc.Unmatch(context.Background(), alice, bob)
	assert.True(t, errors.Is(err, domain.ErrSwipeNotFound))
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestListMutualMatches(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	_, err := f.uc.Swipe(ctx, alice, bob, domain.DirectionRight)
	require.NoError(t, err)
	_, err = f.uc.Swipe(ctx, bob, alice, domain.DirectionRight)
	require.NoError(t, err)
	_, err = f.uc.Swipe(ctx, alice, carol, domain.DirectionRight)
	require.NoError(t, err)

	matches, err := f.uc.ListMutualMatches(ctx, alice)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, domain.NewMatch(alice, bob), matches[0])

	matches, err = f.uc.ListMutualMatches(ctx, carol)
	require.NoError(t, err)
	assert.Empty(t, matches)

	_, err = f.uc.Unmatch(ctx, alice, bob)
	require.NoError(t, err)
	matches, err = f.uc.ListMutualMatches(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestGetLikesReceived(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, Options{})

	_, err := f.uc.Swipe(ctx, alice, carol, domain.DirectionRight)
	require.NoError(t, err)
	_, err = f.uc.Swipe(ctx, bob, carol, domain.DirectionRight)
	require.NoError(t, err)

	likes, err := f.uc.GetLikesReceived(ctx, carol, 0, -5)
	require.NoError(t, err)
	assert.Len(t, likes, 2)

	// Answering a like removes it from the pending list.
	_, err = f.uc.Swipe(ctx, carol, alice, domain.DirectionLeft)
	require.NoError(t, err)
	likes, err = f.uc.GetLikesReceived(ctx, carol, 10, 0)
	require.NoError(t, err)
	require.Len(t, likes, 1)
	assert.Equal(t, bob, likes[0].UserID)

	likes, err = f.uc.GetLikesReceived(ctx, carol, 10, 1)
	require.NoError(t, err)
	assert.Empty(t, likes)
}
