package annealing

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "kind only",
			err:  NewError(KindEmptyTour, ""),
			want: "empty tour",
		},
		{
			name: "with message",
			err:  NewErrorf(KindInvalidMetric, "unsupported type: %s", "l3"),
			want: "invalid metric: unsupported type: l3",
		},
		{
			name: "with operation and cause",
			err:  WrapError(errors.New("boom"), KindInvalidSchedule, "bad step").WithOperation("schedule.Validate"),
			want: "schedule.Validate: invalid schedule: bad step: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestErrorIs(t *testing.T) {
	err := fmt.Errorf("building tour: %w", NewError(KindInvalidPermutation, "town 3 repeated"))

	assert.True(t, errors.Is(err, ErrInvalidPermutation))
	assert.False(t, errors.Is(err, ErrEmptyTour))

	e, ok := IsAnnealingError(errors.Unwrap(err))
	assert.True(t, ok)
	assert.Equal(t, KindInvalidPermutation, e.Kind)

	assert.Nil(t, WrapError(nil, KindUnknown, "ignored"))
}

func TestOrderPair(t *testing.T) {
	tests := []struct {
		a, b, lo, hi int
	}{
		{1, 2, 1, 2},
		{2, 1, 1, 2},
		{2, 2, 2, 2},
	}
	for _, tt := range tests {
		lo, hi := OrderPair(tt.a, tt.b)
		assert.Equal(t, tt.lo, lo)
		assert.Equal(t, tt.hi, hi)
	}
}
