package aggregate

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func day(s string) time.Time {
	t, err := time.Parse(core.DayLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func tx(date string, amount string, typ core.TransactionType) core.Transaction {
	return core.Transaction{Date: day(date), Amount: decimal.RequireFromString(amount), Type: typ}
}

func scenario() []core.Transaction {
	return []core.Transaction{
		tx("2024-01-01", "30", core.Expense),
		tx("2024-01-01", "20", core.Expense),
		tx("2024-01-02", "5", core.Income),
	}
}

func amounts(series []DayAmount) map[string]string {
	out := make(map[string]string, len(series))
	for _, d := range series {
		out[d.Date] = d.Amount.String()
	}
	return out
}

func TestSparseScenario(t *testing.T) {
	bucket, err := Sparse(scenario(), core.Expense)
	require.NoError(t, err)
	require.Len(t, bucket, 1)
	assert.True(t, bucket["2024-01-01"].Equal(decimal.NewFromInt(50)))
}

func TestDenseScenario(t *testing.T) {
	series, err := Dense(scenario(), core.Expense, 3, day("2024-01-02"))
	require.NoError(t, err)
	require.Len(t, series, 3)

	wantDates := []string{"2023-12-31", "2024-01-01", "2024-01-02"}
	wantAmounts := []int64{0, 50, 0}
	for i, d := range series {
		assert.Equal(t, wantDates[i], d.Date)
		assert.True(t, d.Amount.Equal(decimal.NewFromInt(wantAmounts[i])), "day %s = %s", d.Date, d.Amount)
	}
}

func TestSparseIgnoresOtherType(t *testing.T) {
	incomeOnly := []core.Transaction{
		tx("2024-01-01", "100", core.Income),
		tx("2024-01-03", "7", core.Income),
	}
	bucket, err := Sparse(incomeOnly, core.Expense)
	require.NoError(t, err)
	assert.Empty(t, bucket)

	bucket, err = Sparse(incomeOnly, core.Income)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"2024-01-01": "100", "2024-01-03": "7"}, amounts(bucket.Series()))
}

func TestSparseEmptyInput(t *testing.T) {
	bucket, err := Sparse(nil, core.Expense)
	require.NoError(t, err)
	assert.Empty(t, bucket)
	assert.Empty(t, bucket.Series())
}

func TestSparseUsesMagnitudeAndUTCDay(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	txs := []core.Transaction{
		{Date: time.Date(2024, 3, 1, 23, 30, 0, 0, est), Amount: decimal.RequireFromString("-12.5"), Type: core.Expense},
		{Date: time.Date(2024, 3, 2, 0, 15, 0, 0, time.UTC), Amount: decimal.RequireFromString("2.5"), Type: core.Expense},
	}
	bucket, err := Sparse(txs, core.Expense)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"2024-03-02": "15"}, amounts(bucket.Series()))
}

func TestSeriesIsAscendingRegardlessOfInputOrder(t *testing.T) {
	txs := []core.Transaction{
		tx("2024-02-10", "1", core.Expense),
		tx("2023-12-31", "2", core.Expense),
		tx("2024-01-15", "3", core.Expense),
		tx("2024-01-15", "4", core.Expense),
	}
	rand.New(rand.NewSource(1)).Shuffle(len(txs), func(i, j int) { txs[i], txs[j] = txs[j], txs[i] })

	bucket, err := Sparse(txs, core.Expense)
	require.NoError(t, err)
	series := bucket.Series()
	require.Len(t, series, 3)
	assert.Equal(t, "2023-12-31", series[0].Date)
	assert.Equal(t, "2024-01-15", series[1].Date)
	assert.Equal(t, "2024-02-10", series[2].Date)
	assert.True(t, series[1].Amount.Equal(decimal.NewFromInt(7)))
}

func TestDenseIsFixedLengthAndGapFree(t *testing.T) {
	ref := day("2024-03-01")
	for _, txs := range [][]core.Transaction{nil, scenario()} {
		series, err := Dense(txs, core.Expense, 7, ref)
		require.NoError(t, err)
		require.Len(t, series, 7)
		assert.Equal(t, "2024-02-24", series[0].Date)
		assert.Equal(t, "2024-03-01", series[6].Date) // leap year
		for i := 1; i < len(series); i++ {
			prev, cur := day(series[i-1].Date), day(series[i].Date)
			assert.Equal(t, 24*time.Hour, cur.Sub(prev))
			assert.True(t, series[i].Amount.IsZero())
		}
	}
}

func TestDenseExcludesOutsideWindow(t *testing.T) {
	txs := []core.Transaction{
		tx("2024-01-01", "10", core.Expense), // before window
		tx("2024-01-05", "20", core.Expense), // first day
		tx("2024-01-07", "30", core.Expense), // reference day
		tx("2024-01-08", "40", core.Expense), // after reference
	}
	series, err := Dense(txs, core.Expense, 3, time.Date(2024, 1, 7, 18, 45, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"2024-01-05": "20", "2024-01-06": "0", "2024-01-07": "30"}, amounts(series))
}

func TestDenseNonPositiveWindow(t *testing.T) {
	for _, w := range []int{0, -1, -365} {
		series, err := Dense(scenario(), core.Expense, w, day("2024-01-02"))
		require.NoError(t, err)
		assert.NotNil(t, series)
		assert.Empty(t, series)
	}
}

func TestDenseWindowShiftsWithReference(t *testing.T) {
	a, err := Dense(scenario(), core.Expense, 2, day("2024-01-01"))
	require.NoError(t, err)
	b, err := Dense(scenario(), core.Expense, 2, day("2024-01-02"))
	require.NoError(t, err)
	assert.Equal(t, []string{"2023-12-31", "2024-01-01"}, []string{a[0].Date, a[1].Date})
	assert.Equal(t, []string{"2024-01-01", "2024-01-02"}, []string{b[0].Date, b[1].Date})
}

func TestAggregationIsDeterministic(t *testing.T) {
	ref := day("2024-01-02")
	first, err := Dense(scenario(), core.Expense, 30, ref)
	require.NoError(t, err)
	second, err := Dense(scenario(), core.Expense, 30, ref)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	s1, _ := Sparse(scenario(), core.Expense)
	s2, _ := Sparse(scenario(), core.Expense)
	assert.Equal(t, s1.Series(), s2.Series())
}

func TestMalformedDateIsRejected(t *testing.T) {
	txs := append(scenario(), core.Transaction{ID: "bad", Amount: decimal.NewFromInt(1), Type: core.Expense})

	_, err := Sparse(txs, core.Expense)
	assert.True(t, errors.Is(err, core.ErrMalformedDate))
	assert.Contains(t, err.Error(), `"bad"`)

	_, err = Dense(txs, core.Expense, 3, day("2024-01-02"))
	assert.True(t, errors.Is(err, core.ErrMalformedDate))

	_, err = Dense(txs, core.Expense, 0, day("2024-01-02"))
	assert.True(t, errors.Is(err, core.ErrMalformedDate))

	// A dateless transaction of the other type is not read at all.
	_, err = Sparse(txs, core.Income)
	assert.NoError(t, err)
}

func TestWindowAndMax(t *testing.T) {
	assert.Nil(t, Window(0, day("2024-01-01")))
	assert.Equal(t, []string{"2023-12-30", "2023-12-31", "2024-01-01"}, Window(3, day("2024-01-01")))

	assert.True(t, Max(nil).IsZero())
	series := []DayAmount{
		{Date: "a", Amount: decimal.NewFromInt(3)},
		{Date: "b", Amount: decimal.RequireFromString("12.5")},
		{Date: "c", Amount: decimal.Zero},
	}
	assert.True(t, Max(series).Equal(decimal.RequireFromString("12.5")))
	assert.True(t, Total(series).Equal(decimal.RequireFromString("15.5")))
}
