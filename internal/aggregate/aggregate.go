// Package aggregate buckets transactions into calendar-day sums.
//
// Day keys are UTC calendar dates (YYYY-MM-DD). Every function here is pure:
// the reference date is always passed in, nothing reads the wall clock and
// nothing is cached between calls, so results are deterministic and safe to
// compute concurrently.
//
// Malformed input is rejected: a transaction without a date makes the whole
// call fail with an error wrapping core.ErrMalformedDate instead of being
// dropped from the sums.
package aggregate

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// DayAmount is one day of an aggregated series.
type DayAmount struct {
	Date   string
	Amount decimal.Decimal
}

// DayBucket maps a day key to the accumulated amount for that day.
type DayBucket map[string]decimal.Decimal

// Series returns the bucket as a sequence in ascending date order.
func (b DayBucket) Series() []DayAmount {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	// YYYY-MM-DD sorts lexicographically in chronological order.
	sort.Strings(keys)

	out := make([]DayAmount, 0, len(keys))
	for _, k := range keys {
		out = append(out, DayAmount{Date: k, Amount: b[k]})
	}
	return out
}

// Sparse sums the magnitude of every transaction of the given type per UTC day.
// Days without a matching transaction are absent from the result.
func Sparse(txs []core.Transaction, typ core.TransactionType) (DayBucket, error) {
	return sparseWithin(txs, typ, "", "")
}

// Dense sums matching transactions over the trailing window of windowDays days
// ending at ref (inclusive) and returns one entry per day, oldest first.
// Days without activity report exactly zero. A non-positive window yields an
// empty series.
func Dense(txs []core.Transaction, typ core.TransactionType, windowDays int, ref time.Time) ([]DayAmount, error) {
	if windowDays <= 0 {
		// Still validate the input so the reject policy is uniform.
		if err := checkDates(txs, typ); err != nil {
			return nil, err
		}
		return []DayAmount{}, nil
	}

	days := Window(windowDays, ref)
	bucket, err := sparseWithin(txs, typ, days[0], days[len(days)-1])
	if err != nil {
		return nil, err
	}

	out := make([]DayAmount, len(days))
	for i, day := range days {
		amt, ok := bucket[day]
		if !ok {
			amt = decimal.Zero
		}
		out[i] = DayAmount{Date: day, Amount: amt}
	}
	return out, nil
}

// Window returns the n consecutive day keys ending at ref, oldest first.
func Window(n int, ref time.Time) []string {
	if n <= 0 {
		return nil
	}
	end := core.TruncateDay(ref)
	days := make([]string, n)
	for i := 0; i < n; i++ {
		days[i] = end.AddDate(0, 0, i-n+1).Format(core.DayLayout)
	}
	return days
}

// Max returns the largest amount in a series, or zero for an empty series.
func Max(series []DayAmount) decimal.Decimal {
	peak := decimal.Zero
	for _, d := range series {
		if d.Amount.GreaterThan(peak) {
			peak = d.Amount
		}
	}
	return peak
}

// Total sums a series.
func Total(series []DayAmount) decimal.Decimal {
	total := decimal.Zero
	for _, d := range series {
		total = total.Add(d.Amount)
	}
	return total
}

// sparseWithin aggregates matching transactions whose day key lies in
// [from, to]. Empty bounds are open.
func sparseWithin(txs []core.Transaction, typ core.TransactionType, from, to string) (DayBucket, error) {
	bucket := make(DayBucket)
	for i, tx := range txs {
		if tx.Type != typ {
			continue
		}
		if tx.Date.IsZero() {
			return nil, malformed(i, tx)
		}
		day := core.DayKey(tx.Date)
		if (from != "" && day < from) || (to != "" && day > to) {
			continue
		}
		bucket[day] = bucket[day].Add(tx.Amount.Abs())
	}
	return bucket, nil
}

func checkDates(txs []core.Transaction, typ core.TransactionType) error {
	for i, tx := range txs {
		if tx.Type == typ && tx.Date.IsZero() {
			return malformed(i, tx)
		}
	}
	return nil
}

func malformed(i int, tx core.Transaction) error {
	return fmt.Errorf("transaction %d (id=%q): %w", i, tx.ID, core.ErrMalformedDate)
}
