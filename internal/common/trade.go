package common

import (
	"fmt"
	"time"
)

// Trade accounts for the two parties who matched. The price is always
// the maker's quoted price.
type Trade struct {
	ID         string // uuid
	TakerID    uint64
	MakerID    uint64
	TakerOwner string
	MakerOwner string
	Side       Side // the taker's side
	Price      int64
	Amount     int64
	Timestamp  time.Time
}

func (t Trade) String() string {
	return fmt.Sprintf("trade %s [%s %d@%d taker=%d maker=%d]",
		t.ID, t.Side, t.Amount, t.Price, t.TakerID, t.MakerID)
}
