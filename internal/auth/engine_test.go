package auth

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(store Store, clk *fakeClock) *Engine {
	e := NewEngine(store, 6, 2*time.Minute, zap.NewNop())
	e.now = clk.Now
	return e
}

func TestEngineIssue(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeStore()
	clk := newFakeClock()
	e := newTestEngine(store, clk)
	user := store.addUser("a@example.com")

	tok, err := e.Issue(ctx, user.ID, "123456")
	require.NoError(t, err)

	assert.Equal(t, user.ID, tok.UserID)
	assert.Equal(t, HashCode("123456"), tok.CodeHash)
	assert.Nil(t, tok.UsedAt)
	assert.Equal(t, clk.Now(), tok.CreatedAt)
	assert.Equal(t, clk.Now().Add(2*time.Minute), tok.ExpiresAt)
	assert.True(t, tok.ExpiresAt.After(tok.CreatedAt))
}

func TestEngineIssue_RejectsMalformedCode(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeStore()
	e := newTestEngine(store, newFakeClock())
	user := store.addUser("a@example.com")

	_, err := e.Issue(ctx, user.ID, "12345")
	assert.ErrorIs(t, err, ErrBadCode)
	assert.Empty(t, store.tokens)
}

func TestEngineRedeem_Success(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeStore()
	clk := newFakeClock()
	e := newTestEngine(store, clk)
	user := store.addUser("a@example.com")

	issued, err := e.Issue(ctx, user.ID, "123456")
	require.NoError(t, err)

	got, err := e.Redeem(ctx, user.ID, "123456")
	require.NoError(t, err)
	assert.Equal(t, issued.ID, got.ID)
	assert.Nil(t, got.UsedAt)
}

func TestEngineRedeem_WrongCode(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeStore()
	e := newTestEngine(store, newFakeClock())
	user := store.addUser("a@example.com")

	_, err := e.Issue(ctx, user.ID, "123456")
	require.NoError(t, err)

	_, err = e.Redeem(ctx, user.ID, "654321")
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestEngineRedeem_NeverSucceedsTwice(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeStore()
	e := newTestEngine(store, newFakeClock())
	user := store.addUser("a@example.com")

	_, err := e.Issue(ctx, user.ID, "123456")
	require.NoError(t, err)

	tok, err := e.Redeem(ctx, user.ID, "123456")
	require.NoError(t, err)
	require.NoError(t, e.MarkUsed(ctx, tok))
	require.NotNil(t, tok.UsedAt)

	_, err = e.Redeem(ctx, user.ID, "123456")
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestEngineRedeem_Expired(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeStore()
	clk := newFakeClock()
	e := newTestEngine(store, clk)
	user := store.addUser("a@example.com")

	_, err := e.Issue(ctx, user.ID, "123456")
	require.NoError(t, err)

	clk.Advance(2*time.Minute + time.Second)

	_, err = e.Redeem(ctx, user.ID, "123456")
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestEngineRedeem_MalformedCodeSkipsStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeStore()
	e := newTestEngine(store, newFakeClock())
	user := store.addUser("a@example.com")

	_, err := e.Redeem(ctx, user.ID, "12a456")
	assert.ErrorIs(t, err, ErrBadCode)
	_, err = e.Redeem(ctx, user.ID, "1234567")
	assert.ErrorIs(t, err, ErrBadCode)

	assert.Zero(t, store.tokenQueries, "malformed codes must not reach the store")
}

func TestEngineRedeem_PrefersNewestMatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeStore()
	clk := newFakeClock()
	e := newTestEngine(store, clk)
	user := store.addUser("a@example.com")

	first, err := e.Issue(ctx, user.ID, "123456")
	require.NoError(t, err)
	clk.Advance(30 * time.Second)
	second, err := e.Issue(ctx, user.ID, "123456")
	require.NoError(t, err)

	got, err := e.Redeem(ctx, user.ID, "123456")
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
	assert.NotEqual(t, first.ID, got.ID)
}

func TestEngineReapExpired_Idempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeStore()
	clk := newFakeClock()
	e := newTestEngine(store, clk)
	user := store.addUser("a@example.com")

	_, err := e.Issue(ctx, user.ID, "111111")
	require.NoError(t, err)
	tok, err := e.Issue(ctx, user.ID, "222222")
	require.NoError(t, err)

	// Used tokens past expiry get swept too.
	require.NoError(t, e.MarkUsed(ctx, tok))

	clk.Advance(3 * time.Minute)

	n, err := e.ReapExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = e.ReapExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}
