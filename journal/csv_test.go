package journal

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/rustyeddy/tradelog/num"
	"github.com/rustyeddy/tradelog/risk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSVHeaderOnly(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, CSVHeader, rows[0])
}

func TestWriteCSVRecord(t *testing.T) {
	t.Parallel()

	date := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	rec := TradeRecord{
		ID:        "T1",
		Date:      date,
		Duration:  Day,
		EntryDate: date,
		ExitDate:  date,
		Input: risk.TradeInput{
			Symbol:     "EUR/USD",
			Direction:  risk.Short,
			Status:     risk.Closed,
			EntryPrice: num.Some(1.2345678),
			ExitPrice:  num.Some(1.2355678),
			Risk:       risk.Spec{Mode: risk.Lot, Value: 0.5},
			Capital:    1000,
		},
		Derived: risk.Result{
			LotSize:      num.Some(0.5),
			RealizedPips: num.Some(-10),
			RealizedPnL:  num.Some(-12.5),
		},
		Outcome: risk.Loss,
		Notes:   "chased, \"late\" entry",
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []TradeRecord{rec}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	row := map[string]string{}
	for i, h := range CSVHeader {
		row[h] = rows[1][i]
	}
	assert.Equal(t, "T1", row["id"])
	assert.Equal(t, "2024-01-02", row["date"])
	assert.Equal(t, "2024-01-02", row["exit_date"])
	assert.Equal(t, "short", row["direction"])
	assert.Equal(t, "1.234568", row["entry_price"])
	assert.Equal(t, "", row["stop_loss"])
	assert.Equal(t, "0.500000", row["lot_size"])
	assert.Equal(t, "-12.500000", row["realized_pnl"])
	assert.Equal(t, "loss", row["outcome"])
	assert.Equal(t, "chased, \"late\" entry", row["notes"])
}
