package storage

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"sort"
)

// SerializeVector converts a float32 slice to a byte blob (little-endian).
func SerializeVector(vector []float32) []byte {
	blob := make([]byte, len(vector)*4)
	for i, v := range vector {
		binary.LittleEndian.PutUint32(blob[i*4:], math.Float32bits(v))
	}
	return blob
}

// DeserializeVector converts a byte blob back to a float32 slice.
func DeserializeVector(blob []byte) []float32 {
	vector := make([]float32, len(blob)/4)
	for i := range vector {
		bits := binary.LittleEndian.Uint32(blob[i*4:])
		vector[i] = math.Float32frombits(bits)
	}
	return vector
}

// VectorHash returns the SHA-256 hex digest of a vector's serialized
// form, used to detect no-op upserts.
func VectorHash(vector []float32) string {
	sum := sha256.Sum256(SerializeVector(vector))
	return hex.EncodeToString(sum[:])
}

// VectorNorm returns the Euclidean norm of a vector.
func VectorNorm(vector []float32) float64 {
	var sum float64
	for _, v := range vector {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}

// CosineSimilarity computes the cosine similarity between two vectors.
// Mismatched lengths or zero-norm inputs yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// candidate pairs a symbol with its similarity score during ranking.
type candidate struct {
	symbolID string
	score    float64
}

// rankCandidates sorts candidates by score descending (symbol id
// breaking ties for determinism) and returns the top limit as matches.
func rankCandidates(candidates []candidate, limit int) []Match {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].symbolID < candidates[j].symbolID
	})

	if limit <= 0 || limit > len(candidates) {
		limit = len(candidates)
	}
	matches := make([]Match, limit)
	for i := 0; i < limit; i++ {
		matches[i] = Match{SymbolID: candidates[i].symbolID, Score: candidates[i].score}
	}
	return matches
}
