package session

import (
	"context"
	"testing"
	"time"

	"universe/pkg/otp"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSession() *Session {
	s := New()
	s.Pending = &PendingSignup{
		Name:      "Ada",
		Email:     "a@x.com",
		PINHash:   []byte("hash"),
		Challenge: otp.Challenge{Code: "4821", ExpiresAt: time.Now().Add(time.Minute).UTC()},
	}
	return s
}

func TestSessionFlags(t *testing.T) {
	s := New()
	assert.True(t, s.Empty())
	assert.False(t, s.Authenticated())
	s.AccountID = "01"
	assert.True(t, s.Authenticated())
	assert.False(t, s.Empty())
	assert.NotEqual(t, New().ID, New().ID)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	clock := time.Now()
	m.now = func() time.Time { return clock }

	s := sampleSession()
	require.NoError(t, m.Save(ctx, s, time.Minute))

	got, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", got.Pending.Email)
	assert.Equal(t, "4821", got.Pending.Challenge.Code)

	// returned sessions are copies
	got.Pending.Email = "changed"
	again, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", again.Pending.Email)

	clock = clock.Add(2 * time.Minute)
	_, err = m.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, m.Len())
}

func TestMemoryStoreSweepsAbandonedSessions(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	clock := time.Now()
	m.now = func() time.Time { return clock }

	for i := 0; i < 1000; i++ {
		require.NoError(t, m.Save(ctx, New(), time.Millisecond))
	}
	require.Equal(t, 1000, m.Len())

	// a later save past the sweep interval drops the expired entries
	clock = clock.Add(sweepInterval)
	keep := sampleSession()
	require.NoError(t, m.Save(ctx, keep, time.Hour))
	assert.Equal(t, 1, m.Len())

	_, err := m.Get(ctx, keep.ID)
	assert.NoError(t, err)
}

func TestMemoryStoreSweep(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	clock := time.Now()
	m.now = func() time.Time { return clock }

	require.NoError(t, m.Save(ctx, New(), time.Second))
	require.NoError(t, m.Save(ctx, New(), time.Hour))
	clock = clock.Add(2 * time.Second)
	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, 1, m.Len())
}

func TestMemoryStoreJanitor(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	for i := 0; i < 100; i++ {
		require.NoError(t, m.Save(ctx, New(), time.Millisecond))
	}
	m.StartJanitor(5 * time.Millisecond)
	defer m.Close()

	assert.Eventually(t, func() bool { return m.Len() == 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, m.Close())
	// closing twice is harmless
	require.NoError(t, m.Close())
}

func TestMemoryStoreDestroy(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	s := sampleSession()
	require.NoError(t, m.Save(ctx, s, time.Minute))
	require.NoError(t, m.Destroy(ctx, s.ID))
	_, err := m.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	r, err := NewRedisStore(ctx, mr.Addr(), "", 0)
	require.NoError(t, err)
	defer r.Close()

	s := sampleSession()
	s.AccountID = "acc"
	require.NoError(t, r.Save(ctx, s, time.Minute))
	assert.True(t, mr.Exists("session:"+s.ID))

	got, err := r.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "acc", got.AccountID)
	assert.Equal(t, []byte("hash"), got.Pending.PINHash)

	mr.FastForward(2 * time.Minute)
	_, err = r.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreDestroy(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	r, err := NewRedisStore(ctx, mr.Addr(), "", 0)
	require.NoError(t, err)
	defer r.Close()

	s := sampleSession()
	require.NoError(t, r.Save(ctx, s, time.Minute))
	require.NoError(t, r.Destroy(ctx, s.ID))
	_, err = r.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewRedisStoreConnectionFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := NewRedisStore(ctx, "127.0.0.1:1", "", 0)
	assert.Error(t, err)
}

func TestCodec(t *testing.T) {
	c := NewCodec([]byte("secret"))
	v, err := c.Encode("abc", time.Hour)
	require.NoError(t, err)

	sid, err := c.Decode(v)
	require.NoError(t, err)
	assert.Equal(t, "abc", sid)

	_, err = NewCodec([]byte("other")).Decode(v)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = c.Decode(v + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := c.Encode("abc", -time.Minute)
	require.NoError(t, err)
	_, err = c.Decode(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
