// Package engine implements the TF-IDF embedding engine that maps code
// text to corpus-weighted sparse vectors.
//
// The engine is single-threaded and stateful: it accumulates a private
// corpus through AddDocument, derives a bounded Vocabulary from document
// frequencies, and produces dense vectors sized to that vocabulary. Each
// pool worker owns exactly one Engine instance; engines are never shared
// across goroutines.
//
// # Basic Usage
//
//	eng := engine.New(engine.DefaultConfig())
//	eng.AddDocument("auth.Login", loginSource)
//	eng.AddDocument("auth.Logout", logoutSource)
//	eng.BuildVocabulary()
//
//	result := eng.Embed("func Login(user string) error { ... }")
//	fmt.Printf("dimensions=%d confidence=%.2f\n", result.Dimensions, result.Confidence)
//
// # Shared Vocabularies
//
// For comparable vectors across multiple engines, build the vocabulary
// once and install it read-only into each instance:
//
//	vocab := engine.BuildVocabulary(documents, cfg)
//	eng.UseVocabulary(vocab)
//
// An engine with an installed vocabulary never rebuilds from its local
// corpus, so identical input embeds to identical vectors everywhere the
// vocabulary is installed.
//
// # Failure Semantics
//
// The engine never returns an error. Malformed or empty input degrades
// to empty token lists, zero vectors, and zero confidence. Callers must
// treat a zero vector as "low signal", not as a failure.
package engine
