package journal

import (
	"strings"
	"testing"
	"time"

	"github.com/rustyeddy/tradelog/num"
	"github.com/rustyeddy/tradelog/risk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orgTrade(id string, pnl float64) TradeRecord {
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	return TradeRecord{
		ID:        id,
		AccountID: "main",
		Date:      date,
		Duration:  Day,
		EntryDate: date,
		ExitDate:  date,
		Input: risk.TradeInput{
			Symbol:     "EUR/USD",
			Direction:  risk.Long,
			Status:     risk.Closed,
			EntryPrice: num.Some(1.085),
			ExitPrice:  num.Some(1.0875),
			StopLoss:   num.Some(1.084),
			Risk:       risk.Spec{Mode: risk.Percentage, Value: 1},
		},
		Derived: risk.Result{
			LotSize:      num.Some(1),
			RiskMoney:    num.Some(100),
			RealizedPips: num.Some(25),
			RealizedPnL:  num.Some(pnl),
		},
		Outcome: risk.OutcomeFor(pnl),
		Setup:   "trend-following",
		Notes:   "waited for\nthe pullback",
	}
}

func TestFormatTradeOrg(t *testing.T) {
	t.Parallel()

	result := FormatTradeOrg(orgTrade("01HV3K8Z9ABCDEF", 250))

	// Check heading
	assert.Contains(t, result, "** Trade: EUR/USD LONG (01HV3K8Z)")

	// Check properties drawer
	assert.Contains(t, result, ":PROPERTIES:")
	assert.Contains(t, result, ":ID: 01HV3K8Z9ABCDEF")
	assert.Contains(t, result, ":ACCOUNT: main")
	assert.Contains(t, result, ":DATE: 2024-03-15")
	assert.Contains(t, result, ":DURATION: day")
	assert.Contains(t, result, ":ENTRY_PRICE: 1.08500")
	assert.Contains(t, result, ":EXIT_PRICE: 1.08750")
	assert.Contains(t, result, ":TAKE_PROFIT: -")
	assert.Contains(t, result, ":RISK: percentage 1.00")
	assert.Contains(t, result, ":RR: -")
	assert.Contains(t, result, ":REALIZED_PL: 250.00")
	assert.Contains(t, result, ":OUTCOME: win")
	assert.Contains(t, result, ":SETUP: trend-following")
	assert.Contains(t, result, ":END:")

	// Check narrative sections
	assert.Contains(t, result, "*** Setup\n- trend-following")
	assert.Contains(t, result, "*** Notes\n- waited for the pullback")
	assert.Contains(t, result, "*** Screenshots")
}

func TestFormatTradeOrgOpenTrade(t *testing.T) {
	t.Parallel()

	trade := orgTrade("open", 0)
	trade.Input.Status = risk.Open
	trade.ExitDate = time.Time{}

	result := FormatTradeOrg(trade)
	assert.NotContains(t, result, ":REALIZED_PL:")
	assert.NotContains(t, result, ":EXIT_DATE:")
	assert.Contains(t, result, ":STATUS: open")
}

func TestFormatTradeOrgNegativePL(t *testing.T) {
	t.Parallel()

	result := FormatTradeOrg(orgTrade("loss-trade", -500))
	assert.Contains(t, result, ":REALIZED_PL: -500.00")
	assert.Contains(t, result, ":OUTCOME: loss")
}

func TestFormatTradesOrg(t *testing.T) {
	t.Parallel()

	result := FormatTradesOrg([]TradeRecord{orgTrade("trade-001", 200), orgTrade("trade-002", -100)})

	assert.Contains(t, result, "trade-001")
	assert.Contains(t, result, "trade-002")

	// Check trades are separated by blank lines
	parts := strings.Split(result, "\n\n\n")
	assert.Len(t, parts, 2, "Expected two trades separated by blank lines")
}

func TestFormatTradesOrgEmpty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, FormatTradesOrg([]TradeRecord{}))
	assert.NotContains(t, FormatTradesOrg([]TradeRecord{orgTrade("single", 1)}), "\n\n\n")
}

func TestShortID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"long ID gets truncated", "01HV3K8Z9ABCDEFGHJKMNPQRST", "01HV3K8Z"},
		{"exactly 8 characters", "12345678", "12345678"},
		{"less than 8 characters", "short", "short"},
		{"empty string", "", ""},
		{"exactly 9 characters gets truncated", "123456789", "12345678"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := shortID(tt.input)
			assert.Equal(t, tt.expected, result)
			assert.LessOrEqual(t, len(result), 8, "shortID result should be at most 8 characters")
		})
	}
}

func TestFormatTradeOrgStructure(t *testing.T) {
	t.Parallel()

	lines := strings.Split(FormatTradeOrg(orgTrade("structure-test", 50)), "\n")
	require.Greater(t, len(lines), 10, "Expected at least 10 lines in formatted output")

	// First line should be the heading
	assert.True(t, strings.HasPrefix(lines[0], "** Trade:"))

	propertiesStart, propertiesEnd := -1, -1
	for i, line := range lines {
		if line == ":PROPERTIES:" {
			propertiesStart = i
		}
		if line == ":END:" && propertiesStart >= 0 && propertiesEnd < 0 {
			propertiesEnd = i
			break
		}
	}
	assert.Greater(t, propertiesStart, 0, "Properties drawer should start after heading")
	assert.Greater(t, propertiesEnd, propertiesStart, "Properties drawer should have end marker")

	setupIdx, notesIdx, shotsIdx := -1, -1, -1
	for i, line := range lines {
		switch line {
		case "*** Setup":
			setupIdx = i
		case "*** Notes":
			notesIdx = i
		case "*** Screenshots":
			shotsIdx = i
		}
	}
	assert.Greater(t, setupIdx, propertiesEnd, "Setup section should come after properties")
	assert.Greater(t, notesIdx, setupIdx, "Notes should come after Setup")
	assert.Greater(t, shotsIdx, notesIdx, "Screenshots should come after Notes")
}
