package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	cb := NewCircuitBreaker(Settings{Name: "test", MaxFailures: 2, Timeout: time.Minute})
	boom := errors.New("boom")
	calls := 0
	fail := func() error { calls++; return boom }

	assert.ErrorIs(t, cb.Execute(fail), boom)
	assert.ErrorIs(t, cb.Execute(fail), boom)
	assert.Equal(t, "open", cb.State())

	assert.ErrorIs(t, cb.Execute(fail), ErrOpen)
	assert.Equal(t, 2, calls)
}

func TestBreakerStaysClosedOnSuccess(t *testing.T) {
	cb := NewCircuitBreaker(Settings{Name: "test", MaxFailures: 1})
	assert.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, "closed", cb.State())
}
