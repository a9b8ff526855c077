package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinatesValidate(t *testing.T) {
	tests := []struct {
		name    string
		coords  Coordinates
		wantErr bool
	}{
		{"valid", Coordinates{Left: 10, Top: 20, Width: 30, Height: 5}, false},
		{"at edges", Coordinates{Left: 0, Top: 100, Width: 0.5, Height: 0.5}, false},
		{"negative left", Coordinates{Left: -1, Top: 20, Width: 30, Height: 5}, true},
		{"left over 100", Coordinates{Left: 101, Top: 20, Width: 30, Height: 5}, true},
		{"zero width", Coordinates{Left: 10, Top: 20, Width: 0, Height: 5}, true},
		{"negative height", Coordinates{Left: 10, Top: 20, Width: 30, Height: -2}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.coords.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrValidation))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCoordinatesClamp(t *testing.T) {
	c := Coordinates{Left: -5, Top: 110, Width: 50, Height: 10}
	out := c.Clamp()

	assert.Equal(t, 0.0, out.Left)
	assert.Equal(t, 100.0, out.Top)
	// Height trimmed to keep the box on the page, then floored at the minimum.
	assert.Equal(t, 0.1, out.Height)
	assert.NoError(t, out.Validate())
}

func TestCoordinatesClampTrimsOverflow(t *testing.T) {
	c := Coordinates{Left: 80, Top: 10, Width: 50, Height: 5}
	out := c.Clamp()

	assert.Equal(t, 80.0, out.Left)
	assert.Equal(t, 20.0, out.Width)
	assert.Equal(t, 5.0, out.Height)
}

func TestOverlapFraction(t *testing.T) {
	tests := []struct {
		name string
		a, b Coordinates
		want float64
	}{
		{
			"identical",
			Coordinates{Left: 10, Top: 10, Width: 20, Height: 4},
			Coordinates{Left: 10, Top: 10, Width: 20, Height: 4},
			1.0,
		},
		{
			"disjoint",
			Coordinates{Left: 0, Top: 0, Width: 10, Height: 10},
			Coordinates{Left: 50, Top: 50, Width: 10, Height: 10},
			0.0,
		},
		{
			"smaller fully contained",
			Coordinates{Left: 0, Top: 0, Width: 40, Height: 40},
			Coordinates{Left: 10, Top: 10, Width: 10, Height: 10},
			1.0,
		},
		{
			"half of smaller covered",
			Coordinates{Left: 0, Top: 0, Width: 10, Height: 10},
			Coordinates{Left: 5, Top: 0, Width: 10, Height: 10},
			0.5,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.a.OverlapFraction(tt.b), 1e-9)
			// Symmetric by construction.
			assert.InDelta(t, tt.want, tt.b.OverlapFraction(tt.a), 1e-9)
		})
	}
}

func TestWithinTolerance(t *testing.T) {
	a := Coordinates{Left: 10, Top: 10, Width: 20, Height: 4}
	assert.True(t, a.WithinTolerance(Coordinates{Left: 12, Top: 8.5, Width: 21, Height: 4}, 3.0))
	assert.False(t, a.WithinTolerance(Coordinates{Left: 14, Top: 10, Width: 20, Height: 4}, 3.0))
}
