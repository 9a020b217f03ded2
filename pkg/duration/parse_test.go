package duration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := []struct {
		input string
		want  time.Duration
	}{
		{"30m", 30 * time.Minute},
		{"2h", 2 * time.Hour},
		{"1d", Day},
		{"3d", 3 * Day},
		{"1w", Week},
		{"2w", 2 * Week},
		{"1w2d", Week + 2*Day},
		{"1d12h", Day + 12*time.Hour},
		{"1w2d12h30m", Week + 2*Day + 12*time.Hour + 30*time.Minute},
		{" 2d ", 2 * Day},
	}
	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := Parse(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, input := range []string{"", "d", "abc", "2x", "1y", "d2"} {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			assert.Error(t, err)
		})
	}
}
