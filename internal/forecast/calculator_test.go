package forecast

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testPolicy() Policy {
	return Policy{
		SalesWindowDays:  30,
		ReorderCycleDays: 14,
		UrgentFactor:     1.0,
		SoonFactor:       1.5,
	}
}

func TestCalculateOutOfStockFastSeller(t *testing.T) {
	// 30 günde 60 adet satılmış, stok tükenmiş
	res := Calculate(Input{
		CurrentStock: 0,
		UnitsSold:    60,
		LeadTimeDays: 5,
		UnitCost:     3.5,
	}, testPolicy())

	require.InDelta(t, 2.0, res.AverageDailySales, 0.001)
	require.InDelta(t, 10.0, res.ReorderPoint, 0.001)
	require.Equal(t, StatusUrgent, res.Status)
	require.NotNil(t, res.DaysUntilStockout)
	require.InDelta(t, 0.0, *res.DaysUntilStockout, 0.001)
	// ceil(2*14) - 0 = 28
	require.Equal(t, 28, res.SuggestedReorderQuantity)
	require.InDelta(t, 98.0, res.EstimatedReorderCost, 0.001)
}

func TestCalculateNoSales(t *testing.T) {
	res := Calculate(Input{
		CurrentStock: 40,
		UnitsSold:    0,
		LeadTimeDays: 7,
		UnitCost:     1.0,
	}, testPolicy())

	require.Zero(t, res.AverageDailySales)
	require.Zero(t, res.ReorderPoint)
	require.Nil(t, res.DaysUntilStockout)
	require.Equal(t, StatusOK, res.Status)
	require.Zero(t, res.SuggestedReorderQuantity)
}

func TestCalculateNoSalesZeroStockIsUrgent(t *testing.T) {
	res := Calculate(Input{
		CurrentStock: 0,
		UnitsSold:    0,
		LeadTimeDays: 7,
	}, testPolicy())

	require.Equal(t, StatusUrgent, res.Status)
	require.Nil(t, res.DaysUntilStockout)
}

func TestCalculateReorderSoonBand(t *testing.T) {
	// avg = 1/gün, lead 10 -> RP 10. Stok 12, 10 < 12 <= 15 -> reorder_soon
	res := Calculate(Input{
		CurrentStock: 12,
		UnitsSold:    30,
		LeadTimeDays: 10,
	}, testPolicy())

	require.Equal(t, StatusReorderSoon, res.Status)
	require.NotNil(t, res.DaysUntilStockout)
	require.InDelta(t, 12.0, *res.DaysUntilStockout, 0.001)
}

func TestCalculateHealthyStock(t *testing.T) {
	res := Calculate(Input{
		CurrentStock: 100,
		UnitsSold:    30,
		LeadTimeDays: 10,
	}, testPolicy())

	require.Equal(t, StatusOK, res.Status)
	// ceil(1*14) - 100 < 0 -> 0
	require.Zero(t, res.SuggestedReorderQuantity)
	require.Zero(t, res.EstimatedReorderCost)
}

func TestCalculateSuggestedQuantityRoundsUp(t *testing.T) {
	// avg = 50/30 ≈ 1.667, ceil(1.667*14) = ceil(23.33) = 24, stok 5 -> 19
	res := Calculate(Input{
		CurrentStock: 5,
		UnitsSold:    50,
		LeadTimeDays: 3,
	}, testPolicy())

	require.Equal(t, 19, res.SuggestedReorderQuantity)
}
