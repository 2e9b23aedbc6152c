// Package receipt pulls the total, date and a description out of receipt
// uploads. Images go through an optional OCR engine, PDFs through their text
// layer, and plain text is parsed directly.
package receipt

import (
	"context"
	"net/http"
	"strings"

	"finsight/internal/log"
)

const defaultDescription = "Receipt upload"

// DraftTransaction is a pre-filled expense for the user to confirm.
type DraftTransaction struct {
	Amount      *float64 `json:"amount"`
	Description string   `json:"description"`
	Date        *string  `json:"date"`
	Type        string   `json:"type"`
	Category    string   `json:"category"`
}

// Result is the extraction outcome. Missing fields are nil.
type Result struct {
	RawText          string           `json:"raw_text"`
	Amount           *float64         `json:"amount"`
	Description      *string          `json:"description"`
	Date             *string          `json:"date"`
	DraftTransaction DraftTransaction `json:"draft_transaction"`
}

// Extractor extracts receipt fields. A nil Recognizer disables OCR; image
// uploads then yield an empty result rather than an error.
type Extractor struct {
	Recognizer Recognizer
	logger     *log.Logger
}

// NewExtractor creates an extractor.
func NewExtractor(recognizer Recognizer, logger *log.Logger) *Extractor {
	if logger == nil {
		logger = log.Default(log.ComponentReceipt)
	}
	return &Extractor{Recognizer: recognizer, logger: logger.WithComponent(log.ComponentReceipt)}
}

// Extract never fails: unreadable input produces empty raw text and nil
// fields, matching what a blank receipt would give.
func (e *Extractor) Extract(ctx context.Context, data []byte) Result {
	text, err := e.text(ctx, data)
	if err != nil {
		e.logger.WarnContext(ctx, "Receipt text extraction failed",
			log.FieldOperation, log.OpExtract,
			log.FieldError, err.Error(),
			"bytes", len(data))
		text = ""
	}
	return Parse(text)
}

// Parse extracts fields from already recognized text.
func Parse(text string) Result {
	r := Result{
		RawText:     text,
		Amount:      ParseAmount(text),
		Description: ParseDescription(text),
		Date:        ParseDate(text),
	}
	desc := defaultDescription
	if r.Description != nil {
		desc = *r.Description
	}
	r.DraftTransaction = DraftTransaction{
		Amount:      r.Amount,
		Description: desc,
		Date:        r.Date,
		Type:        "expense",
	}
	return r
}

func (e *Extractor) text(ctx context.Context, data []byte) (string, error) {
	contentType := http.DetectContentType(data)
	switch {
	case contentType == "application/pdf":
		return pdfText(data)
	case strings.HasPrefix(contentType, "text/plain"):
		return string(data), nil
	default:
		if e.Recognizer == nil {
			return "", ErrNoRecognizer
		}
		return e.Recognizer.Recognize(ctx, data)
	}
}
