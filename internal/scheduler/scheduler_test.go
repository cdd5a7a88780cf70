package scheduler

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCronSpec(t *testing.T) {
	assert.Equal(t, "0 7 * * *", cronSpec(7, 0))
	assert.Equal(t, "30 18 * * *", cronSpec(18, 30))
}

func TestDailyRejectsInvalidTime(t *testing.T) {
	s := New(time.UTC, testLogger())
	assert.Error(t, s.Daily(24, 0, func() {}))
	assert.Error(t, s.Daily(7, 60, func() {}))
	assert.Error(t, s.Daily(-1, 0, func() {}))
}

func TestNextRunInLocation(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	s := New(loc, testLogger())
	assert.True(t, s.Next().IsZero())

	require.NoError(t, s.Daily(7, 0, func() {}))
	s.Start()
	defer s.Stop()

	next := s.Next().In(loc)
	assert.Equal(t, 7, next.Hour())
	assert.Equal(t, 0, next.Minute())
	assert.True(t, next.After(time.Now()))
	assert.True(t, next.Before(time.Now().Add(25*time.Hour)))
}

func TestDailyReplacesJob(t *testing.T) {
	s := New(time.UTC, testLogger())
	require.NoError(t, s.Daily(7, 0, func() {}))
	require.NoError(t, s.Daily(9, 15, func() {}))
	s.Start()
	defer s.Stop()

	next := s.Next().UTC()
	assert.Equal(t, 9, next.Hour())
	assert.Equal(t, 15, next.Minute())
}

func TestStopIdempotent(t *testing.T) {
	s := New(time.UTC, testLogger())
	s.Stop()
	s.Start()
	s.Start()
	s.Stop()
	s.Stop()
}
