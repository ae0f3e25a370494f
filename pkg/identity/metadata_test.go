package identity

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLastCompletedStep(t *testing.T) {
	cases := []struct {
		name string
		in   interface{}
		want int
		ok   bool
	}{
		{"int", 3, 3, true},
		{"float", float64(2), 2, true},
		{"fraction", 2.5, 0, false},
		{"number", json.Number("4"), 4, true},
		{"string", "4", 0, false},
		{"missing", nil, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			md := Metadata{}
			if tc.in != nil {
				md[KeyLastCompletedStep] = tc.in
			}
			got, ok := md.LastCompletedStep()
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestReadModifyWritePreservesOtherKeys(t *testing.T) {
	p := NewMockProvider()
	p.Seed("user_1", Metadata{"role": "admin", KeyLastCompletedStep: 1})

	updated, err := ReadModifyWrite(context.Background(), p, "user_1", Metadata{KeyOnboardingComplete: true})
	require.NoError(t, err)

	assert.True(t, updated.OnboardingComplete())
	assert.Equal(t, "admin", updated["role"])
	step, _ := updated.LastCompletedStep()
	assert.Equal(t, 1, step)
	assert.Equal(t, updated, p.Metadata("user_1"))
}

func TestReadModifyWriteFailure(t *testing.T) {
	p := NewMockProvider()
	p.FailNext = true

	_, err := ReadModifyWrite(context.Background(), p, "user_1", Metadata{KeyOnboardingComplete: true})
	require.ErrorIs(t, err, ErrMockFailure)
	assert.Equal(t, 1, p.CallCount())
	assert.Empty(t, p.Metadata("user_1"))
}
