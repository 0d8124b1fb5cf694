package bead

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestRotatingBead(t *testing.T) {
	full := sampleState()
	empty := NewState([]Bead{finalized("c1")}, nil, NewFallback(SeedFallbackId))

	tests := []struct {
		name     string
		tab      Tab
		selected *string
		state    State
		wantId   string
	}{
		{"echo tab uses queue head", TabEcho, nil, full, "q1"},
		{"echo tab ignores selection", TabEcho, strPtr("c2"), full, "q1"},
		{"echo tab falls back when queue empty", TabEcho, nil, empty, SeedFallbackId},
		{"collection tab uses selection", TabCollection, strPtr("c2"), full, "c2"},
		{"collection tab with nothing selected", TabCollection, nil, full, ""},
		{"collection tab with stale selection", TabCollection, strPtr("gone"), full, ""},
		{"selection never resolves into queue", TabCreate, strPtr("q2"), full, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RotatingBead(tt.tab, tt.selected, tt.state)
			if tt.wantId == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantId, got.Id)
		})
	}
}

func TestActiveModalBead(t *testing.T) {
	full := sampleState()
	empty := NewState(nil, nil, NewFallback(SeedFallbackId))

	assert.Equal(t, "c1", ActiveModalBead(strPtr("c1"), full).Id)
	assert.Equal(t, "q1", ActiveModalBead(nil, full).Id)
	assert.Equal(t, SeedFallbackId, ActiveModalBead(nil, empty).Id)
	assert.Nil(t, ActiveModalBead(strPtr("gone"), full))
}

func TestResolveIsDeterministicAndPure(t *testing.T) {
	s := sampleState()
	snapshot := s.Clone()
	v := View{Tab: TabEcho, SelectedId: strPtr("c2")}

	first := Resolve(v, s)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Resolve(v, s))
	}
	assert.Equal(t, snapshot, s)
	assert.False(t, first.QueueEmpty)

	// Returned beads are copies.
	first.ActiveModal.Title = "mutated"
	first.Rotating.EchoQuestions = append(first.Rotating.EchoQuestions, "extra")
	assert.Equal(t, snapshot, s)
}

func TestResolveReportsEmptyQueue(t *testing.T) {
	s := NewJournalState()
	r := Resolve(DefaultView(), s)
	assert.True(t, r.QueueEmpty)
	require.NotNil(t, r.Rotating)
	assert.Equal(t, SeedFallbackId, r.Rotating.Id)
}
