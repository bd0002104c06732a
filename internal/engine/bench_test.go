package engine

import (
	"fmt"
	"strings"
	"testing"
)

const benchSnippet = `
func processUserRequest(ctx context.Context, req *Request) (*Response, error) {
	if err := validateRequest(req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	result, err := dispatchToHandler(ctx, req.handler_name, req.payload_data)
	if err != nil {
		return nil, err
	}
	return &Response{StatusCode: 200, Body: result}, nil
}
`

func BenchmarkTokenize(b *testing.B) {
	sizes := []int{1, 10, 100}
	for _, n := range sizes {
		text := strings.Repeat(benchSnippet, n)
		b.Run(fmt.Sprintf("repeat=%d", n), func(b *testing.B) {
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = Tokenize(text)
			}
		})
	}
}

func BenchmarkEmbed(b *testing.B) {
	eng := New(Config{MinDocFreq: 1, MaxDocFreq: 1.0, MaxFeatures: 384})
	for i := 0; i < 200; i++ {
		eng.AddDocument(fmt.Sprintf("doc-%d", i), fmt.Sprintf("%s\nfunc uniqueSymbol%d() {}", benchSnippet, i))
	}
	eng.BuildVocabulary()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = eng.Embed(benchSnippet)
	}
}
