// Package intake constructs validated orders and walks them through
// the admission protocol: assign an identity, reserve funds, submit to
// the matching engine. An order only ever reaches the engine with its
// worst-case spend already frozen.
package intake

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/haorenrr/simple-trading/internal/common"
)

var ErrInvalidOrder = errors.New("invalid order")

// Sequencer issues order identities. A flow-control failure must
// prevent order creation, never proceed with a missing identity.
type Sequencer interface {
	NewSequence() (uint64, error)
}

// Preparer freezes an order's funds before admission and releases them
// again if admission fails after the freeze.
type Preparer interface {
	PrepareTrading(o *common.Order) error
	ReleaseRemainder(o *common.Order) error
}

// Submitter is the engine's non-blocking ingress.
type Submitter interface {
	Submit(o *common.Order) error
}

type Service struct {
	seq      Sequencer
	clearing Preparer
	engine   Submitter
}

func New(seq Sequencer, clearing Preparer, engine Submitter) *Service {
	return &Service{seq: seq, clearing: clearing, engine: engine}
}

// CreateOrder builds and admits one order. On any failure no partial
// state change is observable: a freeze that succeeds but cannot be
// submitted is unwound before returning.
func (s *Service) CreateOrder(owner string, side common.Side, otype common.OrderType, price, amount int64) (*common.Order, error) {
	if owner == "" {
		return nil, fmt.Errorf("empty owner: %w", ErrInvalidOrder)
	}
	if price <= 0 || amount <= 0 {
		return nil, fmt.Errorf("price %d, amount %d: %w", price, amount, ErrInvalidOrder)
	}
	if side != common.Buy && side != common.Sell {
		return nil, fmt.Errorf("side %v: %w", side, ErrInvalidOrder)
	}

	id, err := s.seq.NewSequence()
	if err != nil {
		return nil, fmt.Errorf("assign order id: %w", err)
	}

	now := time.Now()
	order := &common.Order{
		ID:        id,
		Owner:     owner,
		Side:      side,
		Type:      otype,
		Price:     price,
		Amount:    amount,
		Unfilled:  amount,
		Status:    common.StatusNew,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.clearing.PrepareTrading(order); err != nil {
		return nil, fmt.Errorf("reserve funds for order %d: %w", id, err)
	}

	if err := s.engine.Submit(order); err != nil {
		// The freeze went through but the order never reached the
		// book; hand the reservation back before reporting failure.
		// The ledger refusing the release means the reservation it
		// just accepted is gone, so abort rather than leak funds.
		if uerr := s.clearing.ReleaseRemainder(order); uerr != nil {
			log.Panic().Err(uerr).Stringer("order", order).
				Msg("reservation of rejected order cannot be released")
		}
		order.Status = common.StatusCancelled
		return nil, fmt.Errorf("submit order %d: %w", id, err)
	}

	log.Debug().Stringer("order", order).Msg("order admitted")
	return order, nil
}
