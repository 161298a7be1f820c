package engine

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/btree"

	"github.com/haorenrr/simple-trading/internal/common"
)

// PriceLevel holds the FIFO queue of orders resting at one price on
// one side, plus the aggregate resting volume. A level exists only
// while it has volume.
type PriceLevel struct {
	price  int64
	volume int64
	orders []*common.Order
}

type PriceLevels = btree.BTreeG[*PriceLevel]

func newBids() *PriceLevels {
	// Sorted greatest first: the best bid is the highest price.
	return btree.NewBTreeG(func(a, b *PriceLevel) bool {
		return a.price > b.price
	})
}

func newAsks() *PriceLevels {
	// Sorted least first: the best ask is the lowest price.
	return btree.NewBTreeG(func(a, b *PriceLevel) bool {
		return a.price < b.price
	})
}

// crosses reports whether the best opposite level at price is within
// the taker's limit.
func crosses(taker *common.Order, price int64) bool {
	switch taker.Side {
	case common.Buy:
		return price <= taker.Price
	case common.Sell:
		return price >= taker.Price
	default:
		log.Panic().Stringer("order", taker).Msgf("match: invalid side %v", taker.Side)
		return false
	}
}

// match sweeps the opposite book while the taker has volume left and
// the best opposite level still crosses. Price priority is absolute: a
// worse level is never touched while a better one crosses. Within a
// level, arrival order is absolute.
//
// Every fill settles through clearing before the book is mutated for
// it, so a settlement panic leaves no fill applied without its
// transfers.
func (e *MatchEngine) match(taker *common.Order) {
	opposite := e.sideBook(taker.Side.Opposite())

	for taker.Unfilled > 0 {
		level, ok := opposite.MinMut()
		if !ok || !crosses(taker, level.price) {
			break
		}

		for taker.Unfilled > 0 && len(level.orders) > 0 {
			maker := level.orders[0]
			qty := min(taker.Unfilled, maker.Unfilled)

			taker.Processing = qty
			maker.Processing = qty
			if err := e.clearer.FinishTrading(taker, []*common.Order{maker}); err != nil {
				log.Panic().Err(err).Stringer("taker", taker).Stringer("maker", maker).
					Msg("clearing rejected a matched fill")
			}

			e.reportTrade(taker, maker, qty)
			applyFill(taker, qty)
			applyFill(maker, qty)
			level.volume -= qty

			if maker.Unfilled == 0 {
				level.orders = level.orders[1:]
			}
		}

		if len(level.orders) == 0 {
			opposite.Delete(level)
		}
	}

	if taker.Unfilled == 0 {
		return
	}

	if taker.Type != common.LimitOrder {
		// Not eligible to rest: cancel the remainder and hand its
		// reservation back.
		taker.Status = common.StatusCancelled
		taker.UpdatedAt = time.Now()
		if err := e.clearer.ReleaseRemainder(taker); err != nil {
			log.Panic().Err(err).Stringer("taker", taker).
				Msg("clearing rejected a remainder release")
		}
		return
	}

	e.rest(taker)
}

// sideBook returns the book holding orders resting on side s.
func (e *MatchEngine) sideBook(s common.Side) *PriceLevels {
	if s == common.Buy {
		return e.bids
	}
	return e.asks
}

// rest inserts the taker's remainder into its own side's book at its
// limit price, appending to the FIFO queue there.
func (e *MatchEngine) rest(o *common.Order) {
	levels := e.sideBook(o.Side)

	// Comparators only look at the price, so a dummy level works as the
	// search key.
	if level, ok := levels.GetMut(&PriceLevel{price: o.Price}); ok {
		level.orders = append(level.orders, o)
		level.volume += o.Unfilled
	} else {
		levels.Set(&PriceLevel{
			price:  o.Price,
			volume: o.Unfilled,
			orders: []*common.Order{o},
		})
	}
}

func applyFill(o *common.Order, qty int64) {
	o.Unfilled -= qty
	o.Filled += qty
	o.Processing = 0
	if o.Unfilled == 0 {
		o.Status = common.StatusFilled
	} else {
		o.Status = common.StatusPartiallyFilled
	}
	o.UpdatedAt = time.Now()
}

func (e *MatchEngine) reportTrade(taker, maker *common.Order, qty int64) {
	trade := common.Trade{
		ID:         uuid.NewString(),
		TakerID:    taker.ID,
		MakerID:    maker.ID,
		TakerOwner: taker.Owner,
		MakerOwner: maker.Owner,
		Side:       taker.Side,
		Price:      maker.Price,
		Amount:     qty,
		Timestamp:  time.Now(),
	}
	log.Debug().Stringer("trade", trade).Msg("matched")
	if e.reporter != nil {
		e.reporter.ReportTrade(trade)
	}
}
