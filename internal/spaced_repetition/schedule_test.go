package spaced_repetition

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIntervalClampsToTable(t *testing.T) {
	s := NewSchedule()
	tests := []struct {
		correct int
		want    time.Duration
	}{
		{-3, time.Hour},
		{0, time.Hour},
		{1, 4 * time.Hour},
		{2, 24 * time.Hour},
		{3, 72 * time.Hour},
		{4, 168 * time.Hour},
		{5, 336 * time.Hour},
		{6, 720 * time.Hour},
		{7, 720 * time.Hour},
		{100, 720 * time.Hour},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, s.Interval(tc.correct), "correct=%d", tc.correct)
	}
}

func TestIntervalNonDecreasing(t *testing.T) {
	s := NewSchedule()
	prev := time.Duration(0)
	for i := 0; i < 20; i++ {
		cur := s.Interval(i)
		assert.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
}

func TestCalculateNextReview(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	next := NewSchedule().CalculateNextReview(2, now)
	assert.Equal(t, now.Add(24*time.Hour), next)
}

func TestMasteryLevel(t *testing.T) {
	tests := []struct {
		name               string
		correct, incorrect int
		want               int
	}{
		{"no attempts", 0, 0, 0},
		{"single correct", 1, 0, 10},
		{"single incorrect", 0, 1, 0},
		{"nine of ten", 9, 1, 90},
		{"five of five", 5, 0, 50},
		{"eight of ten", 8, 2, 80},
		{"twenty of twenty", 20, 0, 100},
		{"half of four", 2, 2, 20},
		{"two of three", 2, 1, 20},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MasteryLevel(tc.correct, tc.incorrect))
		})
	}
}

func TestMasteryLevelBoundsAndFormula(t *testing.T) {
	for c := 0; c <= 30; c++ {
		for i := 0; i <= 30; i++ {
			got := MasteryLevel(c, i)
			assert.GreaterOrEqual(t, got, 0)
			assert.LessOrEqual(t, got, 100)

			total := c + i
			want := 0
			if total > 0 {
				want = int(math.Round(float64(c) / float64(total) * 100 * (math.Min(float64(total), 10) / 10)))
			}
			assert.Equal(t, want, got, "correct=%d incorrect=%d", c, i)
		}
	}
}

func TestIsMastered(t *testing.T) {
	assert.False(t, IsMastered(79))
	assert.True(t, IsMastered(80))
	assert.True(t, IsMastered(100))
}
