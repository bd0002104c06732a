package pool

import (
	"fmt"

	"github.com/anortham/miller-embeddings/internal/engine"
	"github.com/anortham/miller-embeddings/pkg/types"
)

// Embedder is the engine surface a worker drives. The production
// implementation is engine.Engine; tests inject gated fakes.
type Embedder interface {
	Embed(code string) (types.EmbeddingResult, error)
}

// EngineFactory builds a worker's private embedder from the init
// payload. The default factory creates a TF-IDF engine and installs the
// shipped vocabulary.
type EngineFactory func(workerID int, init *InitPayload) (Embedder, error)

func defaultEngineFactory(_ int, init *InitPayload) (Embedder, error) {
	eng := engine.New(init.Engine)
	if init.Vocabulary != nil {
		eng.UseVocabulary(init.Vocabulary)
	}
	return eng, nil
}

// worker is a goroutine actor hosting one embedder. It owns no shared
// state: requests arrive on its private channel and every outcome is a
// message on the shared response channel (or the init ack during the
// startup handshake).
type worker struct {
	id        int
	requests  chan WorkerRequest
	responses chan<- WorkerResponse
	initAck   chan WorkerResponse
	factory   EngineFactory
	eng       Embedder
}

func newWorker(id int, responses chan<- WorkerResponse, factory EngineFactory) *worker {
	return &worker{
		id:        id,
		requests:  make(chan WorkerRequest, 4),
		responses: responses,
		initAck:   make(chan WorkerResponse, 1),
		factory:   factory,
	}
}

// run consumes requests until the coordinator closes the channel.
func (w *worker) run() {
	for req := range w.requests {
		w.handle(req)
	}
}

// handle processes one request. A panic anywhere in the handler is
// reported as a worker-level error response without task attribution.
func (w *worker) handle(req WorkerRequest) {
	defer func() {
		if r := recover(); r != nil {
			w.responses <- WorkerResponse{
				Type:     MsgError,
				WorkerID: w.id,
				Err:      fmt.Sprintf("worker panic: %v", r),
			}
		}
	}()

	switch req.Type {
	case MsgInit:
		w.handleInit(req)
	case MsgEmbed:
		w.handleEmbed(req)
	case MsgBatch:
		w.handleBatch(req)
	case MsgHealth:
		w.responses <- WorkerResponse{ID: req.ID, Type: MsgHealthOK, WorkerID: w.id}
	default:
		w.responses <- WorkerResponse{
			ID:       req.ID,
			Type:     MsgError,
			WorkerID: w.id,
			Err:      fmt.Sprintf("unknown message type %q", req.Type),
		}
	}
}

func (w *worker) handleInit(req WorkerRequest) {
	eng, err := w.factory(w.id, req.Init)
	if err != nil {
		w.initAck <- WorkerResponse{ID: req.ID, Type: MsgError, WorkerID: w.id, Err: err.Error()}
		return
	}
	w.eng = eng
	w.initAck <- WorkerResponse{ID: req.ID, Type: MsgInitialized, WorkerID: w.id}
}

func (w *worker) handleEmbed(req WorkerRequest) {
	result, err := w.eng.Embed(embedInput(req.Task))
	if err != nil {
		w.responses <- WorkerResponse{ID: req.ID, Type: MsgError, WorkerID: w.id, Err: err.Error()}
		return
	}
	w.responses <- WorkerResponse{ID: req.ID, Type: MsgEmbedded, WorkerID: w.id, Result: &result}
}

// handleBatch embeds every payload item and answers once. Individual
// failures are skipped; the batch_complete response carries only the
// members that embedded.
func (w *worker) handleBatch(req WorkerRequest) {
	results := make([]types.BatchResult, 0, len(req.Tasks))
	for _, task := range req.Tasks {
		result, err := w.eng.Embed(embedInput(task))
		if err != nil {
			continue
		}
		results = append(results, types.BatchResult{SymbolID: task.SymbolID, Result: &result})
	}
	w.responses <- WorkerResponse{ID: req.ID, Type: MsgBatchComplete, WorkerID: w.id, Results: results}
}

// embedInput joins a task's code with its optional context.
func embedInput(task *types.EmbeddingTask) string {
	if task == nil {
		return ""
	}
	if task.Context == "" {
		return task.Code
	}
	return task.Code + "\n" + task.Context
}
