package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(Validation("bad input")))
	assert.Equal(t, KindNotFound, KindOf(NotFound("conversation %s not found", "c1")))
	assert.Equal(t, KindStorage, KindOf(Storage("write failed", errors.New("io"))))
	assert.Equal(t, KindGenerator, KindOf(Generator("model failed", nil)))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("submitting message: %w", Storage("write failed", errors.New("io")))
	assert.True(t, IsKind(err, KindStorage))
	assert.False(t, IsKind(err, KindValidation))
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := context.DeadlineExceeded
	err := GeneratorTimeout("reply generation timed out", cause)

	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Contains(t, err.Error(), "reply generation timed out")
	assert.Contains(t, err.Error(), cause.Error())
}

func TestIsTimeout(t *testing.T) {
	assert.True(t, IsTimeout(GeneratorTimeout("slow", nil)))
	assert.False(t, IsTimeout(Generator("broken", nil)))
	assert.False(t, IsTimeout(errors.New("plain")))
}
