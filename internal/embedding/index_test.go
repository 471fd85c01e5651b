package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex_SearchOrdersByScore(t *testing.T) {
	ix := NewIndex()
	ix.Replace([]Entry{
		{Term: "galian", Vector: []float32{0, 1, 0}},
		{Term: "pasangan", Vector: []float32{0.95, 0.05, 0}},
		{Term: "pemasangan", Vector: []float32{1, 0, 0}},
	})

	hits := ix.Search([]float32{1, 0, 0}, 3)

	require.Len(t, hits, 3)
	assert.Equal(t, "pemasangan", hits[0].Term)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
	assert.Equal(t, "pasangan", hits[1].Term)
	assert.Equal(t, "galian", hits[2].Term)
	assert.Greater(t, hits[1].Score, hits[2].Score)
}

func TestIndex_SearchTrimsToTopK(t *testing.T) {
	ix := NewIndex()
	ix.Replace([]Entry{
		{Term: "a", Vector: []float32{1, 0}},
		{Term: "b", Vector: []float32{0.9, 0.1}},
		{Term: "c", Vector: []float32{0, 1}},
	})

	hits := ix.Search([]float32{1, 0}, 2)

	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].Term)
	assert.Equal(t, "b", hits[1].Term)
}

func TestIndex_SearchTieBreaksOnTerm(t *testing.T) {
	ix := NewIndex()
	ix.Replace([]Entry{
		{Term: "zeta", Vector: []float32{1, 0}},
		{Term: "alfa", Vector: []float32{1, 0}},
	})

	hits := ix.Search([]float32{1, 0}, 2)

	require.Len(t, hits, 2)
	assert.Equal(t, "alfa", hits[0].Term)
	assert.Equal(t, "zeta", hits[1].Term)
}

func TestIndex_SearchEmptyInputs(t *testing.T) {
	ix := NewIndex()
	ix.Replace([]Entry{{Term: "a", Vector: []float32{1}}})

	assert.Nil(t, ix.Search(nil, 3))
	assert.Nil(t, ix.Search([]float32{1}, 0))
}

func TestIndex_ReplaceDropsInvalidEntries(t *testing.T) {
	ix := NewIndex()
	ix.Replace([]Entry{
		{Term: "", Vector: []float32{1}},
		{Term: "kept", Vector: []float32{1}},
		{Term: "novector", Vector: nil},
	})

	assert.Equal(t, 1, ix.Size())
}

func TestIndex_ReplaceSwapsWholesale(t *testing.T) {
	ix := NewIndex()
	ix.Replace([]Entry{{Term: "old", Vector: []float32{1, 0}}})
	ix.Replace([]Entry{{Term: "new", Vector: []float32{0, 1}}})

	hits := ix.Search([]float32{0, 1}, 5)

	require.Len(t, hits, 1)
	assert.Equal(t, "new", hits[0].Term)
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    []float32
		b    []float32
		want float64
	}{
		{name: "identical", a: []float32{1, 2, 3}, b: []float32{1, 2, 3}, want: 1},
		{name: "orthogonal", a: []float32{1, 0}, b: []float32{0, 1}, want: 0},
		{name: "opposite", a: []float32{1, 0}, b: []float32{-1, 0}, want: -1},
		{name: "zero norm", a: []float32{0, 0}, b: []float32{1, 1}, want: 0},
		{name: "length mismatch uses shared prefix", a: []float32{1, 0, 5}, b: []float32{1, 0}, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, cosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}
