package assistant

import (
	"strings"
	"unicode"
)

// RuleBasedModel is reported as the model name for canned replies.
const RuleBasedModel = "rule-based"

type intent struct {
	// stems match as token prefixes, words only as whole tokens.
	stems []string
	words []string
	reply func(summary string) string
}

// intents are checked in order; the first match wins.
var intents = []intent{
	{
		stems: []string{"profit", "прибыл", "earn"},
		reply: func(summary string) string {
			return "Based on your data:\n\n" + summary +
				"\n\nTo improve profit, focus on reducing the highest expense categories and growing recurring income streams."
		},
	},
	{
		stems: []string{"expense", "cost", "расход", "reduc"},
		reply: func(summary string) string {
			return "To reduce costs:\n" +
				"• Review subscriptions and cancel unused ones\n" +
				"• Negotiate better rates with suppliers\n" +
				"• Track daily expenses more carefully\n\n" + summary
		},
	},
	{
		stems: []string{"forecast", "predict", "прогноз"},
		reply: func(string) string {
			return "Check the Forecast page for predictions of your next 3 months of income and expenses, " +
				"including risk alerts for negative cash flow."
		},
	},
	{
		stems: []string{"tax", "налог"},
		reply: func(string) string {
			return "Visit the Tax page to see your estimated tax liability, quarterly payment schedule, " +
				"and optimization tips based on your actual transactions."
		},
	},
	{
		stems: []string{"hello", "help", "привет"},
		words: []string{"hi", "hey"},
		reply: func(string) string {
			return "Hello! I'm FinSight AI, your financial advisor.\n\n" +
				"You can ask me about:\n" +
				"• Your profit and loss trends\n" +
				"• How to reduce expenses\n" +
				"• Cash flow forecasts\n" +
				"• Tax optimization\n" +
				"• Any financial question about your business!"
		},
	},
}

const fallbackReply = "I can help you analyze your business finances. Try asking:\n" +
	"• 'How is my profit trending?'\n" +
	"• 'How can I reduce costs?'\n" +
	"• 'What's my tax estimate?'\n" +
	"• 'Should I hire another employee?'"

// ruleBasedReply answers from keyword intents, in English or Russian.
func ruleBasedReply(message, summary string) string {
	tokens := strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, in := range intents {
		if in.matches(tokens) {
			return in.reply(summary)
		}
	}
	return fallbackReply
}

func (in intent) matches(tokens []string) bool {
	for _, tok := range tokens {
		for _, s := range in.stems {
			if strings.HasPrefix(tok, s) {
				return true
			}
		}
		for _, w := range in.words {
			if tok == w {
				return true
			}
		}
	}
	return false
}
