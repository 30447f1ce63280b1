package maintenance

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/richxcame/transit-ops/internal/store"
	"github.com/richxcame/transit-ops/pkg/logger"
	"github.com/richxcame/transit-ops/pkg/models"
	"go.uber.org/zap"
)

// ErrWriterClosed is returned for mutations submitted after Close
var ErrWriterClosed = errors.New("maintenance writer closed")

// Mutation reads and writes tickets on behalf of one request. It runs on
// the writer goroutine, so no other mutation interleaves with it.
type Mutation func(ctx context.Context, tickets store.TicketStore) (*models.MaintenanceTicket, error)

type writeRequest struct {
	ctx    context.Context
	apply  Mutation
	result chan writeResult
}

type writeResult struct {
	ticket *models.MaintenanceTicket
	err    error
}

// Writer serializes every ticket mutation through a single goroutine.
// Backends still enforce ticket versions, which covers other replicas.
type Writer struct {
	tickets   store.TicketStore
	requests  chan writeRequest
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewWriter starts the writer goroutine. queueSize bounds how many
// mutations may wait before Submit blocks.
func NewWriter(tickets store.TicketStore, queueSize int) *Writer {
	if queueSize < 0 {
		queueSize = 0
	}
	w := &Writer{
		tickets:  tickets,
		requests: make(chan writeRequest, queueSize),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go w.run()
	return w
}

// Submit queues a mutation and waits for its outcome. A request whose
// context ends while queued is skipped by the writer.
func (w *Writer) Submit(ctx context.Context, apply Mutation) (*models.MaintenanceTicket, error) {
	req := writeRequest{ctx: ctx, apply: apply, result: make(chan writeResult, 1)}

	select {
	case w.requests <- req:
	case <-w.quit:
		return nil, ErrWriterClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-req.result:
		return res.ticket, res.err
	case <-w.done:
		select {
		case res := <-req.result:
			return res.ticket, res.err
		default:
			return nil, ErrWriterClosed
		}
	}
}

// Close stops the writer after the mutation in flight, if any.
// Queued mutations fail with ErrWriterClosed.
func (w *Writer) Close() {
	w.closeOnce.Do(func() { close(w.quit) })
	<-w.done
}

func (w *Writer) run() {
	defer close(w.done)
	for {
		select {
		case <-w.quit:
			return
		case req := <-w.requests:
			w.apply(req)
		}
	}
}

func (w *Writer) apply(req writeRequest) {
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(req.ctx, "maintenance mutation panicked", zap.Any("panic", r))
			req.result <- writeResult{err: fmt.Errorf("maintenance mutation panicked: %v", r)}
		}
	}()

	if err := req.ctx.Err(); err != nil {
		req.result <- writeResult{err: err}
		return
	}

	ticket, err := req.apply(req.ctx, w.tickets)
	req.result <- writeResult{ticket: ticket, err: err}
}
