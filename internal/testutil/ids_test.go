package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequence(t *testing.T) {
	seq := NewSequence("fm")

	assert.Equal(t, "fm-0001", seq.Next())
	assert.Equal(t, "fm-0002", seq.Next())

	seq.Reset()
	assert.Equal(t, "fm-0001", seq.Next())
}

func TestSequence_DefaultPrefix(t *testing.T) {
	assert.Equal(t, "id-0001", NewSequence("").Next())
}
