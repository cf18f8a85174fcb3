package amqp

import (
	"encoding/json"
	"time"
)

// TransactionEventMessage announces a committed transaction mutation.
// It carries the record's ID and date rather than the full record; consumers
// that need more fetch it from the database.
type TransactionEventMessage struct {
	ID        int64     `json:"id"`
	Op        string    `json:"op"` // insert, update or delete
	Date      time.Time `json:"date"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionEventMessage(id int64, op string, date time.Time) *TransactionEventMessage {
	return &TransactionEventMessage{
		ID:        id,
		Op:        op,
		Date:      date,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON creates a message from JSON bytes
func TransactionEventMessageFromJSON(data []byte) (*TransactionEventMessage, error) {
	var msg TransactionEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
