package otp

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRange(t *testing.T) {
	for i := 0; i < 500; i++ {
		code, err := Generate()
		require.NoError(t, err)
		require.Len(t, code, 4)
		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 1000)
		assert.LessOrEqual(t, n, 9999)
	}
}

func TestIssueSetsExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c, err := DefaultPolicy().Issue(now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(10*time.Minute), c.ExpiresAt)
	assert.Equal(t, now, c.SentAt)
	assert.Zero(t, c.Attempts)
}

func TestCheck(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	p := DefaultPolicy()
	c := Challenge{Code: "4821", SentAt: now, ExpiresAt: now.Add(p.TTL)}

	assert.ErrorIs(t, p.Check(&c, "1111", now), ErrMismatch)
	assert.Equal(t, 1, c.Attempts)
	assert.Equal(t, "4821", c.Code)

	assert.NoError(t, p.Check(&c, " 4821 ", now.Add(9*time.Minute)))
	assert.ErrorIs(t, p.Check(&c, "4821", now.Add(10*time.Minute)), ErrExpired)
	assert.True(t, c.Expired(now.Add(11*time.Minute)))
}

func TestCheckAttemptLimit(t *testing.T) {
	now := time.Now()
	p := Policy{TTL: time.Minute, MaxAttempts: 3}
	c := Challenge{Code: "1234", ExpiresAt: now.Add(time.Minute)}

	assert.ErrorIs(t, p.Check(&c, "0000", now), ErrMismatch)
	assert.ErrorIs(t, p.Check(&c, "0000", now), ErrMismatch)
	assert.ErrorIs(t, p.Check(&c, "0000", now), ErrTooManyAttempts)
}

func TestCheckUnlimitedAttempts(t *testing.T) {
	now := time.Now()
	p := Policy{TTL: time.Minute}
	c := Challenge{Code: "1234", ExpiresAt: now.Add(time.Minute)}
	for i := 0; i < 50; i++ {
		require.ErrorIs(t, p.Check(&c, "0000", now), ErrMismatch)
	}
	assert.NoError(t, p.Check(&c, "1234", now))
}

func TestReissue(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	p := DefaultPolicy()
	c := Challenge{Code: "1234", SentAt: now, ExpiresAt: now.Add(p.TTL), Attempts: 2}

	assert.ErrorIs(t, p.Reissue(&c, now.Add(10*time.Second)), ErrCooldown)
	assert.Equal(t, 2, c.Attempts)

	later := now.Add(time.Minute)
	require.NoError(t, p.Reissue(&c, later))
	assert.Equal(t, later, c.SentAt)
	assert.Equal(t, later.Add(p.TTL), c.ExpiresAt)
	assert.Zero(t, c.Attempts)
}
