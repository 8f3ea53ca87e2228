package locale

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in     string
		want   time.Time
		wantOK bool
	}{
		{"2024-03-05T08:15:00Z", time.Date(2024, 3, 5, 8, 15, 0, 0, time.UTC), true},
		{"2024-03-05T10:15:00+02:00", time.Date(2024, 3, 5, 8, 15, 0, 0, time.UTC), true},
		{"2024-03-05", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"05.03.2024 08:15", time.Date(2024, 3, 5, 8, 15, 0, 0, time.UTC), true},
		{"05.03.2024-08:15", time.Date(2024, 3, 5, 8, 15, 0, 0, time.UTC), true},
		{"5.3.2024", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"05/03/24 0815", time.Date(2024, 3, 5, 8, 15, 0, 0, time.UTC), true},
		{"05/03/24 08:15", time.Date(2024, 3, 5, 8, 15, 0, 0, time.UTC), true},
		{"2024-03-05 08:15", time.Date(2024, 3, 5, 8, 15, 0, 0, time.UTC), true},
		{"2024-03-05  08:15:42", time.Date(2024, 3, 5, 8, 15, 42, 0, time.UTC), true},
		{"31.02.2024 10:00", time.Time{}, false},
		{"05.03.2024 25:00", time.Time{}, false},
		{"yesterday", time.Time{}, false},
		{"", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDate(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.True(t, tt.want.Equal(got), "got %s", got)
			}
		})
	}
}
