package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	e := New(ErrCodeScoringFailed, "novelty evaluation failed")
	assert.Equal(t, "[SCORE_001] novelty evaluation failed", e.Error())

	withDetail := e.WithDetail("paper p-1")
	assert.Equal(t, "[SCORE_001] novelty evaluation failed: paper p-1", withDetail.Error())
	// The receiver is untouched.
	assert.Empty(t, e.Detail)
}

func TestWrapPreservesChain(t *testing.T) {
	cause := stderrors.New("connection refused")
	wrapped := Wrap(cause, ErrCodeCacheError, "score cache lookup failed")

	require.NotNil(t, wrapped)
	assert.ErrorIs(t, wrapped, cause)
	assert.True(t, IsCode(wrapped, ErrCodeCacheError))

	rewrapped := fmt.Errorf("request aborted: %w", wrapped)
	assert.True(t, IsCode(rewrapped, ErrCodeCacheError))
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeInternal, "never constructed"))
}

func TestWrapUnknownCodeInheritsOriginal(t *testing.T) {
	inner := New(ErrCodeLLMRateLimited, "429 from provider")
	outer := Wrap(inner, CodeUnknown, "dimension call failed")
	assert.Equal(t, ErrCodeLLMRateLimited, outer.Code)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(NewNotFound("no such paper")))
	assert.True(t, IsNotFound(New(ErrCodeCacheMiss, "miss")))
	assert.False(t, IsNotFound(New(ErrCodeTimeout, "deadline")))
	assert.False(t, IsNotFound(nil))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeOK, GetCode(nil))
	assert.Equal(t, CodeUnknown, GetCode(stderrors.New("plain")))
	assert.Equal(t, ErrCodeValidation, GetCode(NewValidation("bad weights")))
}
