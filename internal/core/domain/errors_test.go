package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"remote fetch", RemoteFetchError(502, "/users", nil), KindRemoteFetch},
		{"aggregation", AggregationError(errors.New("x")), KindAggregation},
		{"validation", ValidationError("bad"), KindValidation},
		{"not found", NotFoundError(1), KindNotFound},
		{"conflict", ConflictError(1), KindConflict},
		{"storage", StorageError("op", errors.New("x")), KindStorage},
		{"foreign error", errors.New("plain"), KindUnhandled},
		{"nil", nil, KindUnhandled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestKindOfSeesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("handling request: %w", NotFoundError(9))
	assert.Equal(t, KindNotFound, KindOf(err))

	de := AsError(err)
	require.NotNil(t, de)
	assert.Equal(t, "User with ID 9 not found", de.Message)
}

func TestMessages(t *testing.T) {
	assert.Equal(t, "User with ID 42 not found", NotFoundError(42).Error())
	assert.Equal(t, "User with ID 42 already exists", ConflictError(42).Error())
	assert.Equal(t, "failed to fetch data from /posts?userId=3", RemoteFetchError(500, "/posts?userId=3", nil).Error())
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := StorageError("upsert user", cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestAggregationWrapsFetchFailure(t *testing.T) {
	fetch := RemoteFetchError(503, "/comments?postId=1", nil)
	agg := AggregationError(fetch)

	// Outermost kind wins for boundary mapping; the cause stays reachable.
	assert.Equal(t, KindAggregation, KindOf(agg))
	assert.ErrorIs(t, agg, fetch)

	inner := AsError(agg.Err)
	require.NotNil(t, inner)
	assert.Equal(t, 503, inner.Status)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "not_found", KindNotFound.String())
	assert.Equal(t, "unhandled", KindUnhandled.String())
	assert.Equal(t, "storage", KindStorage.String())
}
