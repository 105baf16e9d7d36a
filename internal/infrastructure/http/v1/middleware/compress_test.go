package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAcceptsZstd(t *testing.T) {
	tests := []struct {
		header string
		want   bool
	}{
		{"", false},
		{"gzip, deflate", false},
		{"zstd", true},
		{"gzip, ZSTD;q=0.5", true},
		{"br, zstd; q=0", false},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, acceptsZstd(tt.header))
		})
	}
}
