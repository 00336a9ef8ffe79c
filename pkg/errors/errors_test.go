package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	e1 := New("cause1")
	e2 := New("cause2").Wrap(e1)
	e := New("dummy").Wrap(e2)
	e3 := e.Unwrap()
	assert.True(t, Is(e, e1))
	assert.True(t, Is(e, e2))
	assert.True(t, e3 == e2)
}

func TestSentinel(t *testing.T) {
	sentinel := New("boom")
	wrapped := sentinel.Wrap(New("cause"))
	assert.True(t, Is(wrapped, sentinel))
	assert.Equal(t, "boom", sentinel.Error())
	assert.Equal(t, "boom: cause", wrapped.Error())

	// wrapping the same sentinel again must not disturb earlier errors
	other := sentinel.Wrap(New("other cause"))
	assert.True(t, Is(other, sentinel))
	assert.Equal(t, "boom: cause", wrapped.Error())
	assert.Equal(t, "boom: other cause", other.Error())
}
