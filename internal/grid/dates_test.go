package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"2024-03-05T10:00:00Z", "2024-03-05"},
		{"2024-03-05T23:30:00-05:00", "2024-03-06"},
		{"2024-03-05T10:00:00.123Z", "2024-03-05"},
		{"2024-03-05", "2024-03-05"},
		{"2024-03-05 08:15:00", "2024-03-05"},
		{"03/05/2024", "2024-03-05"},
		{"", ""},
		{"next week", "next week"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDate(tt.in))
		})
	}
}

func TestFormatDate(t *testing.T) {
	got := FormatDate("2024-03-05")
	assert.Equal(t, "Mar 05, 2024", got)
	assert.Contains(t, got, "2024")
	assert.Contains(t, got, "Mar")

	assert.Equal(t, "Mar 05, 2024", FormatDate(NormalizeDate("2024-03-05T10:00:00Z")))
	assert.Equal(t, "pending", FormatDate("pending"))
}
