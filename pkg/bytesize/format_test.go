package bytesize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{1, "1 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1 << 20, "1.0 MB"},
		{5 << 30, "5.0 GB"},
		{3 << 40, "3.0 TB"},
		{-1, "-1 B"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Format(tc.n), "Format(%d)", tc.n)
	}
}
