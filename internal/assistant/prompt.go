package assistant

import (
	"finsight/internal/core"
)

const (
	contextHeader = "User's recent financial data (last 3 months):"
	noDataContext = "The user has no transaction data yet."

	persona = `You are FinSight AI, a smart financial advisor for small and medium businesses.
You help business owners understand their finances, reduce costs, and grow profits.
Be concise, practical, and friendly. Use bullet points where helpful.`
)

// ContextPrompt renders the user's recent history for the model.
func ContextPrompt(records []core.MonthlyRecord) string {
	if len(records) == 0 {
		return noDataContext
	}
	return contextHeader + "\n" + core.FormatSummary(records)
}

// SystemPrompt is the persona followed by the financial context.
func SystemPrompt(records []core.MonthlyRecord) string {
	return persona + "\n\n" + ContextPrompt(records)
}
