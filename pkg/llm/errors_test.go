package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantType      ErrorType
		wantRetryable bool
	}{
		{"rate limited", errors.New("status 429: rate limit exceeded"), ErrorTypeTransport, true},
		{"server error", errors.New("502 bad gateway"), ErrorTypeTransport, true},
		{"overloaded", errors.New("anthropic: overloaded_error"), ErrorTypeTransport, true},
		{"timeout", errors.New("request timed out"), ErrorTypeTransport, true},
		{"auth", errors.New("401 unauthorized"), ErrorTypeAuth, false},
		{"bad key", errors.New("invalid api key provided"), ErrorTypeAuth, false},
		{"unknown model", errors.New("model gpt-99 does not exist"), ErrorTypeModel, false},
		{"unknown", errors.New("something odd"), ErrorTypeTransport, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classified := ClassifyError(tt.err)
			require.NotNil(t, classified)
			assert.Equal(t, tt.wantType, classified.Type)
			assert.Equal(t, tt.wantRetryable, classified.IsRetryable())
		})
	}
}

func TestClassifyError_PassesThroughStructuredErrors(t *testing.T) {
	orig := NewError(ErrorTypeMalformed, "bad payload", false, nil)
	classified := ClassifyError(orig)
	assert.Same(t, orig, classified)
}

func TestClassifyError_Nil(t *testing.T) {
	assert.Nil(t, ClassifyError(nil))
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := NewError(ErrorTypeTransport, "transport failure", true, cause)
	assert.ErrorIs(t, err, cause)
}
