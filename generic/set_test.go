package generic

import (
	"errors"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	assert := assert_.New(t)

	assert.False(NewSet[string]().Contains("playlist"))

	s := NewSet(3, 1, 2, 3)
	assert.True(s.Contains(1, 2, 3))
	assert.True(s.Contains())
	assert.False(s.Contains(1, 4))
}

func TestResult(t *testing.T) {
	assert := assert_.New(t)

	v, err := NewResult(42, nil).Parts()
	assert.Equal(42, v)
	assert.NoError(err)

	_, err = NewResult(0, errors.New("boom")).Parts()
	assert.EqualError(err, "boom")

	assert.Panics(func() { Unwrap_(errors.New("boom")) })
	assert.NotPanics(func() { Unwrap_(nil) })
}
