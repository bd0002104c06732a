package engine

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    []float32
		b    []float32
		want float64
	}{
		{
			name: "identical vectors",
			a:    []float32{1, 2, 3},
			b:    []float32{1, 2, 3},
			want: 1,
		},
		{
			name: "orthogonal vectors",
			a:    []float32{1, 0},
			b:    []float32{0, 1},
			want: 0,
		},
		{
			name: "scaled vectors keep similarity",
			a:    []float32{1, 1},
			b:    []float32{5, 5},
			want: 1,
		},
		{
			name: "zero vector",
			a:    []float32{0, 0, 0},
			b:    []float32{1, 2, 3},
			want: 0,
		},
		{
			name: "mismatched lengths",
			a:    []float32{1, 2},
			b:    []float32{1, 2, 3},
			want: 0,
		},
		{
			name: "empty vectors",
			a:    nil,
			b:    nil,
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCosineSimilarityRange(t *testing.T) {
	a := []float32{0.3, 0.7, 0.1, 0.9}
	b := []float32{0.5, 0.2, 0.8, 0.4}
	got := CosineSimilarity(a, b)
	if got < -1-1e-9 || got > 1+1e-9 {
		t.Errorf("CosineSimilarity() = %v, outside [-1, 1]", got)
	}
	if sym := CosineSimilarity(b, a); math.Abs(got-sym) > 1e-12 {
		t.Errorf("not symmetric: %v vs %v", got, sym)
	}
}
