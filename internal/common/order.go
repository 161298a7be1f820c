package common

import (
	"fmt"
	"time"
)

type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	}
	return fmt.Sprintf("Side(%d)", int(s))
}

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

type OrderType int

const (
	// Limit orders are an order to buy or sell at a specified price or
	// better. Limit orders may rest on the order book until filled.
	LimitOrder OrderType = iota
	// ImmediateOrCancel orders execute as far as the book allows and
	// never rest; the unfilled remainder is cancelled.
	ImmediateOrCancel
)

type Status int

const (
	StatusNew Status = iota
	StatusPartiallyFilled
	StatusFilled
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusNew:
		return "NEW"
	case StatusPartiallyFilled:
		return "PARTIALLY_FILLED"
	case StatusFilled:
		return "FILLED"
	case StatusCancelled:
		return "CANCELLED"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Order is the unit of work flowing through intake, clearing and the
// matching engine. Prices and amounts are fixed-point int64 units.
//
// Once submitted, an order is owned exclusively by the matching engine.
// Clearing only reads the fields relevant to a single settlement call
// and never retains a reference across calls.
type Order struct {
	ID    uint64 // Sequencer-assigned identity
	Owner string // Who owns this order

	Side  Side
	Type  OrderType
	Price int64 // Limit price, quote units per base unit

	Amount     int64 // Original volume requested
	Unfilled   int64 // Remaining volume
	Processing int64 // Volume in flight during one settlement call
	Filled     int64 // Cumulative filled volume

	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (o *Order) String() string {
	return fmt.Sprintf("order %d [%s %s %d@%d unfilled=%d filled=%d %s owner=%s]",
		o.ID, o.Side, o.Type, o.Amount, o.Price, o.Unfilled, o.Filled, o.Status, o.Owner)
}

func (t OrderType) String() string {
	if t == ImmediateOrCancel {
		return "IOC"
	}
	return "LIMIT"
}
