package async

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun(t *testing.T) {
	assert := assert.New(t)
	a := <-Run(func() int {
		return 123
	})
	assert.Equal(123, a)
}

func TestRun_NoReceiver(t *testing.T) {
	done := make(chan struct{})
	_ = Run(func() int {
		defer close(done)
		return 1
	})
	// The goroutine must finish without anyone receiving
	<-done
}

func TestRunResult(t *testing.T) {
	assert := assert.New(t)
	a := <-RunResult(func() (int, error) {
		return 123, nil
	})
	assert.Equal(123, a.Value)
	assert.NoError(a.Error)
	b := <-RunResult(func() (int, error) {
		return 0, fmt.Errorf("error")
	})
	assert.Error(b.Error)
}
