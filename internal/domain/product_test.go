package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProduct_HasTag(t *testing.T) {
	p := Product{ID: "1", Tags: []string{"Go", " SaaS ", "crypto"}}

	tests := []struct {
		tag  string
		want bool
	}{
		{"go", true},
		{"GO", true},
		{"saas", true},
		{" Crypto ", true},
		{"rust", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.want, p.HasTag(tt.tag))
		})
	}
}

func TestProduct_HasTag_NoTags(t *testing.T) {
	assert.False(t, Product{ID: "1"}.HasTag("go"))
}
