package engine

import "github.com/haorenrr/simple-trading/internal/common"

// QuotationInfo is the aggregate resting volume at one price.
type QuotationInfo struct {
	Price  int64
	Volume int64
}

// QuotationBook is an immutable point-in-time view of both sides,
// ordered best price first. Submissions racing the snapshot may land
// either side of it; callers must not treat it as a transactional
// read.
type QuotationBook struct {
	Bids []QuotationInfo
	Asks []QuotationInfo
}

// Quotation snapshots the book at the moment of the call.
func (e *MatchEngine) Quotation() QuotationBook {
	e.mu.RLock()
	defer e.mu.RUnlock()

	flatten := func(levels *PriceLevels) []QuotationInfo {
		out := make([]QuotationInfo, 0, levels.Len())
		levels.Scan(func(level *PriceLevel) bool {
			out = append(out, QuotationInfo{Price: level.price, Volume: level.volume})
			return true
		})
		return out
	}
	return QuotationBook{Bids: flatten(e.bids), Asks: flatten(e.asks)}
}

// FlatPriceLevel mirrors a PriceLevel with exported fields, for book
// state comparisons in tests.
type FlatPriceLevel struct {
	Price  int64
	Volume int64
	Orders []*common.Order
}

// FlattenLevels converts raw btree items into their comparable form.
func FlattenLevels(levels []*PriceLevel) []FlatPriceLevel {
	out := make([]FlatPriceLevel, len(levels))
	for i, level := range levels {
		out[i] = FlatPriceLevel{
			Price:  level.price,
			Volume: level.volume,
			Orders: level.orders,
		}
	}
	return out
}
