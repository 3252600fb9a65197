package fault

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, Wrap(nil))
	})

	t.Run("deadline becomes timeout", func(t *testing.T) {
		assert.Equal(t, KindTimeout, Wrap(context.DeadlineExceeded).Kind)
		assert.Equal(t, KindTimeout, Wrap(fmt.Errorf("do: %w", context.Canceled)).Kind)
	})

	t.Run("classified errors pass through", func(t *testing.T) {
		orig := New(KindBlocked, "nope")
		assert.Equal(t, KindBlocked, Wrap(orig).Kind)
	})

	t.Run("anything else is unknown", func(t *testing.T) {
		assert.Equal(t, KindUnknown, Wrap(errors.New("boom")).Kind)
	})
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindInvalidInput, KindOf(New(KindInvalidInput, "bad")))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
}

func TestIs(t *testing.T) {
	err := NotConfigured("murf")
	assert.True(t, Is(err, KindNotConfigured))
	assert.False(t, Is(err, KindTimeout))
	assert.False(t, Is(errors.New("plain"), KindNotConfigured))
	assert.Contains(t, err.Error(), "murf not configured")
}
