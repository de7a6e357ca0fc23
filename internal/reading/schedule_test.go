package reading

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func utcHour(hour int) time.Time {
	return time.Date(2025, 6, 15, hour, 0, 0, 0, time.UTC)
}

func TestDueNow(t *testing.T) {
	testCases := []struct {
		name      string
		frequency int
		tz        string
		now       time.Time
		expectDue bool
	}{
		{
			name:      "once a day fires at noon",
			frequency: 1,
			tz:        "UTC",
			now:       utcHour(12),
			expectDue: true,
		},
		{
			name:      "once a day is silent outside noon",
			frequency: 1,
			tz:        "UTC",
			now:       utcHour(13),
			expectDue: false,
		},
		{
			name:      "four times a day fires at 16",
			frequency: 4,
			tz:        "UTC",
			now:       utcHour(16),
			expectDue: true,
		},
		{
			name:      "four times a day is silent at 13",
			frequency: 4,
			tz:        "UTC",
			now:       utcHour(13),
			expectDue: false,
		},
		{
			name:      "slots evaluated in user timezone",
			frequency: 1,
			tz:        "Europe/Moscow", // UTC+3: 09:00 UTC is noon in Moscow
			now:       utcHour(9),
			expectDue: true,
		},
		{
			name:      "user timezone shifts slot away from UTC noon",
			frequency: 1,
			tz:        "Europe/Moscow",
			now:       utcHour(12), // 15:00 in Moscow
			expectDue: false,
		},
		{
			name:      "unknown timezone falls back to UTC",
			frequency: 1,
			tz:        "Not/AZone",
			now:       utcHour(12),
			expectDue: true,
		},
		{
			name:      "unsupported frequency is never due",
			frequency: 3,
			tz:        "UTC",
			now:       utcHour(12),
			expectDue: false,
		},
		{
			name:      "twelve per day is silent at night",
			frequency: 12,
			tz:        "UTC",
			now:       utcHour(3),
			expectDue: false,
		},
		{
			name:      "twelve per day fires during the day",
			frequency: 12,
			tz:        "UTC",
			now:       utcHour(14),
			expectDue: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expectDue, DueNow(tc.frequency, tc.tz, tc.now))
		})
	}
}

func TestValidFrequency(t *testing.T) {
	for _, n := range []int{1, 2, 4, 6, 12} {
		assert.True(t, ValidFrequency(n), "frequency %d should be valid", n)
	}
	for _, n := range []int{0, 3, 5, 7, 24, -1} {
		assert.False(t, ValidFrequency(n), "frequency %d should be invalid", n)
	}
}
