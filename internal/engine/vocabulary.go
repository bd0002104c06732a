package engine

import (
	"math"
	"sort"
)

// Vocabulary is the bounded set of retained terms with a stable dense
// term->index mapping and per-term IDF weights. It is JSON-serializable
// so it can ride a worker init payload.
type Vocabulary struct {
	Index map[string]int     `json:"index"`
	IDF   map[string]float64 `json:"idf"`
}

// Size returns the number of retained terms, which is also the vector
// dimensionality. A nil vocabulary has size 0.
func (v *Vocabulary) Size() int {
	if v == nil {
		return 0
	}
	return len(v.Index)
}

// BuildVocabulary derives a vocabulary from a standalone document set.
// Use this to build once centrally and ship the result read-only to
// every worker via UseVocabulary.
func BuildVocabulary(docs map[string]string, cfg Config) *Vocabulary {
	cfg = cfg.withDefaults()
	docFreq := make(map[string]int)
	total := 0
	for _, code := range docs {
		for _, tok := range Tokenize(code) {
			docFreq[tok]++
		}
		total++
	}
	return deriveVocabulary(docFreq, total, cfg)
}

// deriveVocabulary is the core vocabulary construction: filter terms by
// document-frequency bounds, rank by document frequency, cap at
// MaxFeatures, assign dense indices, and compute IDF weights. The IDF is
// smoothed by +1 so terms present in every document keep nonzero weight.
func deriveVocabulary(docFreq map[string]int, totalDocs int, cfg Config) *Vocabulary {
	vocab := &Vocabulary{
		Index: make(map[string]int),
		IDF:   make(map[string]float64),
	}
	if totalDocs == 0 {
		return vocab
	}

	minDF := cfg.MinDocFreq
	if minDF < 1 {
		minDF = 1
	}
	maxDF := int(math.Floor(float64(totalDocs) * cfg.MaxDocFreq))

	type termFreq struct {
		term string
		df   int
	}
	kept := make([]termFreq, 0, len(docFreq))
	for term, df := range docFreq {
		if df < minDF || df > maxDF {
			continue
		}
		kept = append(kept, termFreq{term: term, df: df})
	}

	// Descending by document frequency; ties broken by term so rebuilds
	// from the same corpus are deterministic.
	sort.Slice(kept, func(i, j int) bool {
		if kept[i].df != kept[j].df {
			return kept[i].df > kept[j].df
		}
		return kept[i].term < kept[j].term
	})

	if len(kept) > cfg.MaxFeatures {
		kept = kept[:cfg.MaxFeatures]
	}

	for i, tf := range kept {
		vocab.Index[tf.term] = i
		vocab.IDF[tf.term] = math.Log(float64(totalDocs)/float64(tf.df)) + 1.0
	}
	return vocab
}
