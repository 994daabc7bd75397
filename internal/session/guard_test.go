package session_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blastview/internal/session"
)

func TestGuardPassesResults(t *testing.T) {
	v, err := session.Guard("is_preparation_completed", func() (any, error) { return 1, nil })
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestGuardWrapsErrors(t *testing.T) {
	reg := session.NewRegistry(nil)
	h, err := reg.Init(session.Options{})
	require.NoError(t, err)
	require.NoError(t, reg.Release(h))

	_, err = session.Guard("enter_frame", func() (any, error) {
		_, err := reg.Get(h)
		return nil, err
	})
	assert.ErrorIs(t, err, session.ErrStaleHandle)
	assert.Contains(t, err.Error(), "enter_frame")
}

func TestGuardRecoversPanics(t *testing.T) {
	tests := []struct {
		name string
		fn   func() (any, error)
	}{
		{"string", func() (any, error) { panic("syscall/js: call of Value.Float on undefined") }},
		{"error", func() (any, error) { panic(errors.New("boom")) }},
		{"runtime", func() (any, error) {
			var m map[string]int
			m["x"] = 1
			return nil, nil
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v any
			var err error
			assert.NotPanics(t, func() { v, err = session.Guard("mouse_move", tt.fn) })
			assert.Nil(t, v)
			assert.ErrorIs(t, err, session.ErrHostPanic)
			assert.Contains(t, err.Error(), "mouse_move")
		})
	}
}
