package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// EventTransactionRecorded is published after a ledger write succeeds.
const EventTransactionRecorded = "ledger.transaction_recorded"

// LedgerEvent tells consumers that the ledger changed. It carries enough of
// the transaction for logging; consumers re-read history from the ledger.
type LedgerEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Ref       string    `json:"ref"`
	Month     string    `json:"month"`
	TxType    string    `json:"tx_type"`
	Category  string    `json:"category,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEvent(ref, month, txType, category string) *LedgerEvent {
	return &LedgerEvent{
		ID:        uuid.NewString(),
		Type:      EventTransactionRecorded,
		Ref:       ref,
		Month:     month,
		TxType:    txType,
		Category:  category,
		Timestamp: time.Now().UTC(),
	}
}

func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON decodes an event and rejects payloads without an ID or type.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if e.ID == "" || e.Type == "" {
		return nil, errors.New("ledger event missing id or type")
	}
	return &e, nil
}
