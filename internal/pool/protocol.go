package pool

import (
	"github.com/anortham/miller-embeddings/internal/engine"
	"github.com/anortham/miller-embeddings/pkg/types"
)

// MessageType identifies a coordinator <-> worker protocol message.
type MessageType string

// Request message types.
const (
	MsgInit   MessageType = "init"
	MsgEmbed  MessageType = "embed"
	MsgBatch  MessageType = "batch"
	MsgHealth MessageType = "health"
)

// Response message types.
const (
	MsgInitialized   MessageType = "initialized"
	MsgEmbedded      MessageType = "embedded"
	MsgBatchComplete MessageType = "batch_complete"
	MsgHealthOK      MessageType = "health_ok"
	MsgError         MessageType = "error"
)

// WorkerRequest is a coordinator-to-worker message. The transport here
// is an in-process channel, but the messages are JSON-tagged so the same
// protocol could cross a pipe.
type WorkerRequest struct {
	ID    string                 `json:"id"`
	Type  MessageType            `json:"type"`
	Task  *types.EmbeddingTask   `json:"task,omitempty"`
	Tasks []*types.EmbeddingTask `json:"tasks,omitempty"`
	Init  *InitPayload           `json:"init,omitempty"`
}

// WorkerResponse is a worker-to-coordinator message. ID correlates the
// response with its request; a response with an empty ID is a
// worker-level error without task attribution.
type WorkerResponse struct {
	ID       string                 `json:"id"`
	Type     MessageType            `json:"type"`
	WorkerID int                    `json:"worker_id"`
	Result   *types.EmbeddingResult `json:"result,omitempty"`
	Results  []types.BatchResult    `json:"results,omitempty"`
	Err      string                 `json:"error,omitempty"`
}

// InitPayload carries the engine configuration and the centrally built
// vocabulary shipped read-only to each worker.
type InitPayload struct {
	Engine     engine.Config      `json:"engine"`
	Vocabulary *engine.Vocabulary `json:"vocabulary,omitempty"`
}
