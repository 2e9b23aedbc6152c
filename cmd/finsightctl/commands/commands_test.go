package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finsight/internal/classifier"
	"finsight/internal/core"
	"finsight/internal/tax"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeHistory(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const history = `[
  {"month": "2025-01", "income": 1000, "expense": 800},
  {"month": "2025-02", "income": 1100, "expense": 900}
]`

func TestForecastCommand(t *testing.T) {
	path := writeHistory(t, history)

	out, err := run(t, "", "forecast", "--file", path, "--periods", "2")
	require.NoError(t, err)

	var res core.ForecastResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, core.MethodMovingAverage, res.Method)
	require.Len(t, res.Forecast, 2)
	assert.Equal(t, "2025-03", res.Forecast[0].Month)
	assert.Equal(t, 1050.0, res.Forecast[0].PredictedIncome)
	assert.Equal(t, 850.0, res.Forecast[0].PredictedExpense)
	assert.Equal(t, 2, res.HistoryMonths)
}

func TestForecastCommand_StdinWrappedHistory(t *testing.T) {
	out, err := run(t, `{"history":`+history+`}`, "forecast", "-f", "-", "-p", "1")
	require.NoError(t, err)

	var res core.ForecastResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Forecast, 1)
}

func TestForecastCommand_Errors(t *testing.T) {
	_, err := run(t, "", "forecast")
	assert.Error(t, err, "--file is required")

	_, err = run(t, "", "forecast", "--file", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = run(t, "", "forecast", "--file", writeHistory(t, "not json"))
	assert.Error(t, err)

	_, err = run(t, "", "forecast", "--file", writeHistory(t, history), "--periods", "0")
	assert.Error(t, err)
}

func TestSummaryCommand(t *testing.T) {
	out, err := run(t, "", "summary", "--file", writeHistory(t, history))
	require.NoError(t, err)
	assert.Equal(t, core.FormatSummary([]core.MonthlyRecord{
		{Month: "2025-01", Income: 1000, Expense: 800},
		{Month: "2025-02", Income: 1100, Expense: 900},
	})+"\n", out)
}

func TestTrainAndClassifyCommands(t *testing.T) {
	modelPath := filepath.Join(t.TempDir(), "models", "classifier.json")

	out, err := run(t, "", "train", "--out", modelPath)
	require.NoError(t, err)
	assert.Contains(t, out, "precision")
	assert.Contains(t, out, "accuracy")
	assert.Contains(t, out, "model written to "+modelPath)

	m, err := classifier.Load(modelPath)
	require.NoError(t, err)
	assert.ElementsMatch(t, classifier.Categories, m.Classes)

	out, err = run(t, "", "classify", "--model", modelPath, "monthly", "office", "rent")
	require.NoError(t, err)
	var p classifier.Prediction
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, "Rent", p.Category)
	assert.Greater(t, p.Confidence, 0.0)
}

func TestClassifyCommand_RequiresText(t *testing.T) {
	_, err := run(t, "", "classify")
	assert.Error(t, err)

	_, err = run(t, "", "classify", "   ")
	assert.Error(t, err)
}

func TestInvalidLogLevel(t *testing.T) {
	_, err := run(t, "", "--log-level", "loud", "summary", "--file", writeHistory(t, history))
	assert.Error(t, err)
}

func TestTaxCommand(t *testing.T) {
	path := writeHistory(t, `[
  {"month": "2024-12", "income": 9000, "expense": 100},
  {"month": "2025-01", "income": 1000, "expense": 800},
  {"month": "2025-02", "income": 1100, "expense": 900}
]`)

	out, err := run(t, "", "tax", "--file", path)
	require.NoError(t, err)
	var e tax.Estimate
	require.NoError(t, json.Unmarshal([]byte(out), &e))
	assert.Equal(t, 2025, e.Year)
	assert.Equal(t, 400.0, e.TaxableIncome)
	assert.Equal(t, 80.0, e.EstimatedTax)

	out, err = run(t, "", "tax", "--file", path, "--year", "2024", "--rate", "30", "--start-month", "4")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &e))
	assert.Equal(t, 8900.0, e.TaxableIncome)
	assert.Equal(t, 2670.0, e.EstimatedTax)
	assert.Equal(t, "2024-05-15", e.QuarterlyPayments[0].DueDate)
}

func TestTaxCommand_Errors(t *testing.T) {
	_, err := run(t, "", "tax", "--file", writeHistory(t, `[{"month": "soon", "income": 1, "expense": 0}]`))
	assert.ErrorContains(t, err, "pass --year")

	_, err = run(t, "", "tax", "--file", writeHistory(t, history), "--year", "0")
	assert.ErrorIs(t, err, tax.ErrInvalidYear)
}
