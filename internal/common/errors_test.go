package common

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidation(t *testing.T) {
	err := NewValidationError("match_value", "regex does not compile")
	assert.True(t, IsValidation(err))
	assert.True(t, IsValidation(fmt.Errorf("create rule: %w", err)))
	assert.False(t, IsValidation(errors.New("boom")))
	assert.False(t, IsValidation(ErrRuleNotFound))
	assert.Contains(t, err.Error(), "match_value")
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(context.DeadlineExceeded))
	assert.True(t, IsRetryable(&RetryableError{Err: errors.New("locked"), Retryable: true}))
	assert.False(t, IsRetryable(&RetryableError{Err: errors.New("corrupt"), Retryable: false}))
	assert.False(t, IsRetryable(errors.New("boom")))
}
