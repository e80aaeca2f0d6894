package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.InDeltaSlice(t, []float64{0.6, 0.8}, Normalize([]float64{3, 4}), 1e-9)
	assert.Equal(t, []float64{0, 0}, Normalize([]float64{0, 0}))
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"intro", "go", "1", "22", "don't"}, Tokenize("The Intro to Go 1.22 - don't"))
	assert.Nil(t, Tokenize("  --  "))
}
