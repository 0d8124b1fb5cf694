package bead

import (
	"encoding/json"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShapeStaysInBand(t *testing.T) {
	a := NewAppearance(rand.New(rand.NewPCG(1, 2)))
	for i := 0; i < 500; i++ {
		s := a.Shape()
		require.NotEqual(t, CircleShape, s)
		for _, v := range s {
			assert.GreaterOrEqual(t, v, 40)
			assert.LessOrEqual(t, v, 60)
		}
	}
}

// fixedRandom always returns the same draw.
type fixedRandom int

func (f fixedRandom) IntN(n int) int { return int(f) % n }

func TestShapeRerollsPerfectCircle(t *testing.T) {
	draws := 0
	a := NewAppearance(sequenceRandom(func(n int) int {
		draws++
		if draws <= 8 {
			return 10 // 40+10 = 50 everywhere
		}
		return 3
	}))
	assert.NotEqual(t, CircleShape, a.Shape())
	assert.Greater(t, draws, 8)
}

type sequenceRandom func(n int) int

func (f sequenceRandom) IntN(n int) int { return f(n) }

func TestPastelColor(t *testing.T) {
	tests := []struct {
		hue  int
		want string
	}{
		{0, "#ebadad"},
		{120, "#adebad"},
		{240, "#adadeb"},
	}
	for _, tt := range tests {
		got := NewAppearance(fixedRandom(tt.hue)).PastelColor()
		assert.Equal(t, tt.want, got)
	}
}

func TestShapeText(t *testing.T) {
	s := Shape{45, 55, 40, 60, 50, 60, 40, 50}
	assert.Equal(t, "45% 55% 40% 60% / 50% 60% 40% 50%", s.String())

	raw, err := json.Marshal(s)
	require.NoError(t, err)

	var back Shape
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, s, back)

	assert.Error(t, back.UnmarshalText([]byte("50% 50%")))
}

func TestVariantText(t *testing.T) {
	for _, v := range []Variant{DailyDraft, DailyFinalized, ScannedFinalized} {
		raw, err := v.MarshalText()
		require.NoError(t, err)
		var back Variant
		require.NoError(t, back.UnmarshalText(raw))
		assert.Equal(t, v, back)
	}
	_, err := VariantUnknown.MarshalText()
	assert.Error(t, err)
}

func TestValidateRejectsDraftWithEchoes(t *testing.T) {
	b := draft("q1", "")
	b.Echoes = []Echo{{Id: "e1"}}
	assert.Error(t, b.Validate())

	s := NewState(nil, []Bead{finalized("c1")}, NewFallback(SeedFallbackId))
	assert.Error(t, s.Validate())
}
