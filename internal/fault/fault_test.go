package fault

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFaultMatching(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
		kind   Kind
	}{
		{
			name:   "not found matches sentinel",
			err:    NotFound("event not found"),
			target: ErrNotFound,
			want:   true,
			kind:   KindNotFound,
		},
		{
			name:   "wrapped expiry still matches",
			err:    fmt.Errorf("submit: %w", New(KindExpired, "link expired", nil)),
			target: ErrExpired,
			want:   true,
			kind:   KindExpired,
		},
		{
			name:   "different kinds do not match",
			err:    Invalid("bad payload"),
			target: ErrNoData,
			want:   false,
			kind:   KindInvalid,
		},
		{
			name:   "plain errors are internal",
			err:    errors.New("socket closed"),
			target: ErrNotFound,
			want:   false,
			kind:   KindInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.Is(tt.err, tt.target))
			assert.Equal(t, tt.kind, KindOf(tt.err))
		})
	}
}

func TestFaultUnwrap(t *testing.T) {
	cause := errors.New("font missing")
	err := RenderFailure("render pdf", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "[RenderFailure] render pdf: font missing", err.Error())
	assert.Equal(t, "render pdf", MessageOf(err))
	assert.Equal(t, "internal server error", MessageOf(cause))
}
