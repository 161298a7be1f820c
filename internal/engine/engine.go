// Package engine owns the order book and the sequential matching loop.
// A single dedicated worker consumes submitted orders one at a time and
// performs all book mutation, so no matching pass ever races another.
package engine

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"github.com/haorenrr/simple-trading/internal/common"
)

const DefaultQueueSize = 100

var (
	ErrQueueFull    = errors.New("submission queue full")
	ErrEngineClosed = errors.New("engine is shut down")
)

// Clearer settles matched fills and releases cancelled reservations.
// Funds for every submitted order were already frozen by order intake;
// the engine never re-validates them.
type Clearer interface {
	FinishTrading(taker *common.Order, makers []*common.Order) error
	ReleaseRemainder(o *common.Order) error
}

// Reporter receives a report for every trade the engine executes.
type Reporter interface {
	ReportTrade(trade common.Trade)
}

// MatchEngine matches orders by price-time priority against two
// btree-ordered books. Submit is the only concurrent entry point; the
// book mutex is shared only between the matching worker and quotation
// snapshots.
type MatchEngine struct {
	clearer  Clearer
	reporter Reporter

	mu   sync.RWMutex
	bids *PriceLevels
	asks *PriceLevels

	submissions chan *common.Order
	t           tomb.Tomb
}

func New(clearer Clearer, queueSize int) *MatchEngine {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &MatchEngine{
		clearer:     clearer,
		bids:        newBids(),
		asks:        newAsks(),
		submissions: make(chan *common.Order, queueSize),
	}
}

func (e *MatchEngine) SetReporter(r Reporter) {
	e.reporter = r
}

// Init starts the matching worker. No order is matched before Init.
func (e *MatchEngine) Init() {
	e.t.Go(e.run)
}

// Destroy stops the worker and waits for it to exit. Queued but
// unprocessed submissions are discarded; it is safe to call with
// orders in flight.
func (e *MatchEngine) Destroy() error {
	e.t.Kill(nil)
	return e.t.Wait()
}

// Submit enqueues an order for sequential matching and returns
// immediately; the caller observes no match result. A full queue
// surfaces as ErrQueueFull so ingress pressure never grows memory
// unboundedly.
func (e *MatchEngine) Submit(o *common.Order) error {
	select {
	case <-e.t.Dying():
		return ErrEngineClosed
	default:
	}

	select {
	case e.submissions <- o:
		return nil
	default:
		return ErrQueueFull
	}
}

func (e *MatchEngine) run() error {
	log.Info().Msg("matching worker started")
	for {
		select {
		case <-e.t.Dying():
			log.Info().Int("discarded", len(e.submissions)).Msg("matching worker stopping")
			return nil
		case o := <-e.submissions:
			e.mu.Lock()
			e.match(o)
			e.mu.Unlock()
		}
	}
}
