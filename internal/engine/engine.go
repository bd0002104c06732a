package engine

import (
	"sort"
	"time"

	"github.com/anortham/miller-embeddings/pkg/types"
)

// ModelID identifies the embedding model reported in results.
const ModelID = "code-tfidf-v1"

// Default configuration values applied by New for zero-value fields.
const (
	DefaultMinDocFreq  = 1
	DefaultMaxDocFreq  = 0.85
	DefaultMaxFeatures = 384
)

// Config controls vocabulary construction.
type Config struct {
	MinDocFreq  int     `json:"min_doc_freq"` // minimum document frequency for a term
	MaxDocFreq  float64 `json:"max_doc_freq"` // maximum df as a fraction of total documents
	MaxFeatures int     `json:"max_features"` // vocabulary size cap
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		MinDocFreq:  DefaultMinDocFreq,
		MaxDocFreq:  DefaultMaxDocFreq,
		MaxFeatures: DefaultMaxFeatures,
	}
}

func (c Config) withDefaults() Config {
	if c.MinDocFreq <= 0 {
		c.MinDocFreq = DefaultMinDocFreq
	}
	if c.MaxDocFreq <= 0 {
		c.MaxDocFreq = DefaultMaxDocFreq
	}
	if c.MaxFeatures <= 0 {
		c.MaxFeatures = DefaultMaxFeatures
	}
	return c
}

// document is one corpus entry: the raw code plus its token list.
type document struct {
	code   string
	tokens []string
}

// Engine maps code text to TF-IDF weighted vectors over a private
// corpus. Not safe for concurrent use; one engine per worker.
type Engine struct {
	cfg       Config
	docs      map[string]document
	docOrder  []string
	docFreq   map[string]int
	totalDocs int
	vocab     *Vocabulary
	stale     bool
	frozen    bool // vocabulary installed externally, never rebuilt locally
}

// New creates an engine, filling zero-value config fields with defaults.
func New(cfg Config) *Engine {
	return &Engine{
		cfg:     cfg.withDefaults(),
		docs:    make(map[string]document),
		docFreq: make(map[string]int),
	}
}

// AddDocument tokenizes code and folds it into the corpus statistics.
// Re-adding an existing id first retracts the prior contribution, so
// document frequencies never double-count. Marks the vocabulary stale.
func (e *Engine) AddDocument(id, code string) {
	if old, exists := e.docs[id]; exists {
		for _, tok := range old.tokens {
			e.docFreq[tok]--
			if e.docFreq[tok] <= 0 {
				delete(e.docFreq, tok)
			}
		}
		e.totalDocs--
	} else {
		e.docOrder = append(e.docOrder, id)
	}

	tokens := Tokenize(code)
	e.docs[id] = document{code: code, tokens: tokens}
	for _, tok := range tokens {
		e.docFreq[tok]++
	}
	e.totalDocs++
	e.stale = true
}

// DocumentCount returns the number of documents in the corpus.
func (e *Engine) DocumentCount() int {
	return e.totalDocs
}

// BuildVocabulary rebuilds the vocabulary from the local corpus. No-op
// when the corpus is empty. Clears any externally installed vocabulary.
func (e *Engine) BuildVocabulary() {
	if e.totalDocs == 0 {
		return
	}
	e.vocab = deriveVocabulary(e.docFreq, e.totalDocs, e.cfg)
	e.stale = false
	e.frozen = false
}

// UseVocabulary installs a read-only vocabulary. The engine stops
// rebuilding from its local corpus, so every engine sharing the same
// vocabulary produces identical vectors for identical input.
func (e *Engine) UseVocabulary(v *Vocabulary) {
	e.vocab = v
	e.stale = false
	e.frozen = true
}

// Vocabulary returns the current vocabulary, which may be nil before the
// first build.
func (e *Engine) Vocabulary() *Vocabulary {
	return e.vocab
}

// Embed maps code to a dense TF-IDF vector sized to the vocabulary,
// lazily rebuilding a stale vocabulary first. Never fails: unknown or
// empty input degrades to a zero vector with zero confidence.
func (e *Engine) Embed(code string) (types.EmbeddingResult, error) {
	if e.stale && !e.frozen {
		e.BuildVocabulary()
	}
	tokens := Tokenize(code)
	vector, matched := e.vectorize(tokens)

	denominator := len(tokens)
	if denominator < 5 {
		denominator = 5
	}
	confidence := float64(matched) / float64(denominator)
	if confidence > 1 {
		confidence = 1
	}

	return types.EmbeddingResult{
		Vector:     vector,
		Dimensions: e.vocab.Size(),
		Model:      ModelID,
		Timestamp:  time.Now(),
		Confidence: confidence,
	}, nil
}

// vectorize computes the TF-IDF vector for a token list and the count of
// tokens found in the vocabulary.
func (e *Engine) vectorize(tokens []string) ([]float32, int) {
	vector := make([]float32, e.vocab.Size())
	if e.vocab == nil {
		return vector, 0
	}
	tf := CalculateTF(tokens)
	matched := 0
	for _, tok := range tokens {
		idx, ok := e.vocab.Index[tok]
		if !ok {
			continue
		}
		vector[idx] = float32(tf[tok] * e.vocab.IDF[tok])
		matched++
	}
	return vector, matched
}

// SearchHit is one ranked document from Engine.Search.
type SearchHit struct {
	ID    string
	Score float64
}

// Search ranks every stored document against the query by cosine
// similarity, re-embedding the corpus on each call. This is a reference
// path, O(corpus size) per query; the production query path goes through
// the pool and the vector store.
func (e *Engine) Search(query string, topK int) []SearchHit {
	q, _ := e.Embed(query)

	hits := make([]SearchHit, 0, len(e.docOrder))
	for _, id := range e.docOrder {
		vec, _ := e.vectorize(e.docs[id].tokens)
		hits = append(hits, SearchHit{
			ID:    id,
			Score: CosineSimilarity(q.Vector, vec),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})

	if topK > 0 && len(hits) > topK {
		hits = hits[:topK]
	}
	return hits
}
