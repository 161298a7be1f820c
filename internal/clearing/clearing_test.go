package clearing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haorenrr/simple-trading/internal/asset"
	"github.com/haorenrr/simple-trading/internal/common"
)

const (
	usd  asset.Kind = "USD"
	aapl asset.Kind = "AAPL"

	buyer  = "buyer_1"
	seller = "seller_1"
)

// newService funds the canonical two parties: buyer holds 1000 quote,
// seller holds 10 base.
func newService(t *testing.T) (*Service, *asset.Ledger) {
	t.Helper()
	ledger := asset.NewLedger()
	require.NoError(t, ledger.Recharge(buyer, usd, 1000))
	require.NoError(t, ledger.Recharge(seller, aapl, 10))
	return New(ledger, aapl, usd), ledger
}

// createOrder builds an order whose full amount is in processing, as a
// single complete fill would leave it.
func createOrder(uid string, side common.Side, price, amount int64) *common.Order {
	return &common.Order{
		Owner:      uid,
		Side:       side,
		Price:      price,
		Amount:     amount,
		Unfilled:   amount,
		Processing: amount,
		Status:     common.StatusNew,
	}
}

func assertBalance(t *testing.T, l *asset.Ledger, user string, kind asset.Kind, available, frozen int64) {
	t.Helper()
	gotAvailable, gotFrozen := l.Balance(user, kind)
	assert.Equal(t, available, gotAvailable, "available")
	assert.Equal(t, frozen, gotFrozen, "frozen")
}

func TestPrepareTrading_Buy(t *testing.T) {
	s, ledger := newService(t)

	// Buy 2 @ 100 needs 200 quote frozen.
	require.NoError(t, s.PrepareTrading(createOrder(buyer, common.Buy, 100, 2)))
	assertBalance(t, ledger, buyer, usd, 800, 200)
}

func TestPrepareTrading_Sell(t *testing.T) {
	s, ledger := newService(t)

	require.NoError(t, s.PrepareTrading(createOrder(seller, common.Sell, 100, 2)))
	assertBalance(t, ledger, seller, aapl, 8, 2)
}

func TestPrepareTrading_InsufficientBalance(t *testing.T) {
	s, ledger := newService(t)

	err := s.PrepareTrading(createOrder(buyer, common.Buy, 100, 11))
	assert.ErrorIs(t, err, asset.ErrInsufficientAvailable)
	assertBalance(t, ledger, buyer, usd, 1000, 0)
}

func TestPrepareTrading_InvalidSide(t *testing.T) {
	s, _ := newService(t)

	assert.Panics(t, func() {
		_ = s.PrepareTrading(createOrder(buyer, common.Side(7), 100, 1))
	})
}

func TestFinishTrading_StandardMatch(t *testing.T) {
	s, ledger := newService(t)

	buyOrder := createOrder(buyer, common.Buy, 100, 2)
	sellOrder := createOrder(seller, common.Sell, 100, 2)
	require.NoError(t, s.PrepareTrading(buyOrder))
	require.NoError(t, s.PrepareTrading(sellOrder))

	require.NoError(t, s.FinishTrading(buyOrder, []*common.Order{sellOrder}))

	assertBalance(t, ledger, buyer, usd, 800, 0)
	assertBalance(t, ledger, buyer, aapl, 2, 0)
	assertBalance(t, ledger, seller, usd, 200, 0)
	assertBalance(t, ledger, seller, aapl, 8, 0)
}

func TestFinishTrading_BuyingTakerRefund(t *testing.T) {
	s, ledger := newService(t)

	// Buyer bids 1 @ 100 (freezes 100), maker asks 1 @ 90. The deal
	// settles at 90 and the 10-unit over-reservation comes back.
	buyOrder := createOrder(buyer, common.Buy, 100, 1)
	sellOrder := createOrder(seller, common.Sell, 90, 1)
	require.NoError(t, s.PrepareTrading(buyOrder))
	require.NoError(t, s.PrepareTrading(sellOrder))

	require.NoError(t, s.FinishTrading(buyOrder, []*common.Order{sellOrder}))

	assertBalance(t, ledger, buyer, usd, 910, 0)
	assertBalance(t, ledger, buyer, aapl, 1, 0)
	assertBalance(t, ledger, seller, usd, 90, 0)
	assertBalance(t, ledger, seller, aapl, 9, 0)
}

func TestFinishTrading_SellingTakerNoRefund(t *testing.T) {
	s, ledger := newService(t)

	// Selling taker hits a resting bid at 100 while asking 90: the
	// deal honors the maker's 100 and no refund concept applies, since
	// the seller's frozen asset is not price-denominated.
	buyOrder := createOrder(buyer, common.Buy, 100, 1)
	sellOrder := createOrder(seller, common.Sell, 90, 1)
	require.NoError(t, s.PrepareTrading(buyOrder))
	require.NoError(t, s.PrepareTrading(sellOrder))

	require.NoError(t, s.FinishTrading(sellOrder, []*common.Order{buyOrder}))

	assertBalance(t, ledger, buyer, usd, 900, 0)
	assertBalance(t, ledger, seller, usd, 100, 0)
	assertBalance(t, ledger, seller, aapl, 9, 0)
}

func TestFinishTrading_MultipleMakers(t *testing.T) {
	s, ledger := newService(t)
	require.NoError(t, ledger.Recharge("seller_2", aapl, 10))

	buyOrder := createOrder(buyer, common.Buy, 100, 5)
	first := createOrder(seller, common.Sell, 95, 2)
	second := createOrder("seller_2", common.Sell, 100, 3)
	require.NoError(t, s.PrepareTrading(buyOrder))
	require.NoError(t, s.PrepareTrading(first))
	require.NoError(t, s.PrepareTrading(second))

	require.NoError(t, s.FinishTrading(buyOrder, []*common.Order{first, second}))

	// 2*95 + 3*100 = 490 spent, 2*(100-95) = 10 refunded.
	assertBalance(t, ledger, buyer, usd, 510, 0)
	assertBalance(t, ledger, buyer, aapl, 5, 0)
	assertBalance(t, ledger, seller, usd, 190, 0)
	assertBalance(t, ledger, "seller_2", usd, 300, 0)
}

func TestFinishTrading_SumMismatchIsFatal(t *testing.T) {
	s, _ := newService(t)

	buyOrder := createOrder(buyer, common.Buy, 100, 2)
	sellOrder := createOrder(seller, common.Sell, 100, 2)
	sellOrder.Processing = 1

	assert.Panics(t, func() {
		_ = s.FinishTrading(buyOrder, []*common.Order{sellOrder})
	})
}

func TestFinishTrading_NilMakerIsFatal(t *testing.T) {
	s, _ := newService(t)

	buyOrder := createOrder(buyer, common.Buy, 100, 2)
	assert.Panics(t, func() {
		_ = s.FinishTrading(buyOrder, []*common.Order{nil})
	})
}

func TestFinishTrading_CrossedPricesAreFatal(t *testing.T) {
	s, _ := newService(t)

	// A maker asking above a buying taker's limit must never have been
	// matched in the first place.
	buyOrder := createOrder(buyer, common.Buy, 90, 1)
	sellOrder := createOrder(seller, common.Sell, 100, 1)
	require.NoError(t, s.PrepareTrading(buyOrder))
	require.NoError(t, s.PrepareTrading(sellOrder))

	assert.Panics(t, func() {
		_ = s.FinishTrading(buyOrder, []*common.Order{sellOrder})
	})
}

func TestReleaseRemainder(t *testing.T) {
	s, ledger := newService(t)

	buyOrder := createOrder(buyer, common.Buy, 100, 3)
	require.NoError(t, s.PrepareTrading(buyOrder))
	assertBalance(t, ledger, buyer, usd, 700, 300)

	// One unit filled elsewhere, two remain.
	buyOrder.Unfilled = 2
	require.NoError(t, s.ReleaseRemainder(buyOrder))
	assertBalance(t, ledger, buyer, usd, 900, 100)

	sellOrder := createOrder(seller, common.Sell, 100, 4)
	require.NoError(t, s.PrepareTrading(sellOrder))
	require.NoError(t, s.ReleaseRemainder(sellOrder))
	assertBalance(t, ledger, seller, aapl, 10, 0)
}
