// Package clearing orchestrates the freeze-before-match,
// settle-after-match protocol between orders and the asset ledger. It
// owns no state of its own: every call is a sequence of independent
// atomic ledger operations.
//
// Failures split into two classes. Freezing against an underfunded
// account is a business outcome and comes back as an error. Anything
// going wrong after matching has produced fills means the contract
// between the matching engine and clearing is broken, and the only
// safe reaction is to abort loudly before an inconsistent trade
// settles.
package clearing

import (
	"github.com/rs/zerolog/log"

	"github.com/haorenrr/simple-trading/internal/asset"
	"github.com/haorenrr/simple-trading/internal/common"
)

// Service clears trades for one fixed pair: order amounts are
// denominated in base units, order prices in quote units per base unit.
type Service struct {
	ledger *asset.Ledger
	base   asset.Kind
	quote  asset.Kind
}

func New(ledger *asset.Ledger, base, quote asset.Kind) *Service {
	return &Service{ledger: ledger, base: base, quote: quote}
}

// PrepareTrading reserves the funds an order can spend at worst: a
// buyer freezes price*amount of the quote asset, a seller freezes
// amount of the base asset. The order may only be submitted to the
// engine once this succeeds.
func (s *Service) PrepareTrading(o *common.Order) error {
	switch o.Side {
	case common.Buy:
		return s.ledger.TryFreeze(o.Owner, s.quote, o.Price*o.Amount)
	case common.Sell:
		return s.ledger.TryFreeze(o.Owner, s.base, o.Amount)
	default:
		log.Panic().Stringer("order", o).Msgf("prepare trading: invalid side %v", o.Side)
		return nil
	}
}

// FinishTrading settles one taker against the maker fills produced by
// a single matching pass. Each maker's Processing amount is settled at
// the maker's quoted price; a buying taker that reserved at a higher
// limit gets the difference unfrozen back.
//
// The preconditions guard the engine/clearing contract, not user
// input. A violation panics.
func (s *Service) FinishTrading(taker *common.Order, makers []*common.Order) error {
	var sum int64
	for _, m := range makers {
		if m == nil {
			log.Panic().Stringer("taker", taker).Msg("finish trading: nil maker")
		}
		sum += m.Processing
	}
	if sum != taker.Processing {
		log.Panic().Stringer("taker", taker).
			Int64("taker_processing", taker.Processing).
			Int64("makers_processing", sum).
			Msg("finish trading: settlement amounts do not balance")
	}
	if taker.Side != common.Buy && taker.Side != common.Sell {
		log.Panic().Stringer("taker", taker).Msgf("finish trading: invalid side %v", taker.Side)
	}

	for _, maker := range makers {
		dealPrice := maker.Price
		dealAmount := maker.Processing

		buyer, seller := taker, maker
		if taker.Side == common.Sell {
			buyer, seller = maker, taker
		}

		// Quote moves buyer->seller, base moves seller->buyer, both out
		// of the frozen buckets reserved by PrepareTrading.
		s.must(s.ledger.Transfer(asset.FrozenToAvailable,
			buyer.Owner, seller.Owner, s.quote, dealPrice*dealAmount))
		s.must(s.ledger.Transfer(asset.FrozenToAvailable,
			seller.Owner, buyer.Owner, s.base, dealAmount))

		if taker.Side == common.Buy {
			if taker.Price < maker.Price {
				log.Panic().Stringer("taker", taker).Stringer("maker", maker).
					Msg("finish trading: maker price exceeds buying taker's limit")
			}
			// The buyer reserved at its own limit; refund the price
			// improvement. A selling taker's frozen asset is not
			// price-denominated, so no refund exists on that side.
			if taker.Price > maker.Price {
				s.must(s.ledger.Unfreeze(taker.Owner, s.quote,
					dealAmount*(taker.Price-maker.Price)))
			}
		}
	}
	return nil
}

// ReleaseRemainder returns the reservation backing an order's unfilled
// volume, used when a remainder is cancelled instead of resting.
func (s *Service) ReleaseRemainder(o *common.Order) error {
	if o.Unfilled == 0 {
		return nil
	}
	switch o.Side {
	case common.Buy:
		return s.ledger.Unfreeze(o.Owner, s.quote, o.Price*o.Unfilled)
	case common.Sell:
		return s.ledger.Unfreeze(o.Owner, s.base, o.Unfilled)
	default:
		log.Panic().Stringer("order", o).Msgf("release remainder: invalid side %v", o.Side)
		return nil
	}
}

// must converts a ledger failure mid-settlement into a fatal error:
// funds were reserved up front, so the ledger refusing a transfer here
// means an upstream invariant already broke.
func (s *Service) must(err error) {
	if err != nil {
		log.Panic().Err(err).Msg("finish trading: ledger rejected settlement transfer")
	}
}
