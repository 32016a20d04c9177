package amqp

import (
	"encoding/json"
	"time"

	"github.com/Aplicaciones-sobre-redes-de-ordenadores/Palasaca-backend/internal/core"
)

// PaymentOverdueMessage is the reminder event emitted when the overdue
// sweep transitions a payment with the reminder flag set. The consumer is
// expected to fetch the full payment if it needs more than these fields.
type PaymentOverdueMessage struct {
	PaymentID string    `json:"payment_id"`
	AccountID string    `json:"account_id"`
	Name      string    `json:"name"`
	Amount    string    `json:"amount"`
	DueDate   time.Time `json:"due_date"`
	Timestamp time.Time `json:"timestamp"`
}

func NewPaymentOverdueMessage(p core.Payment) *PaymentOverdueMessage {
	return &PaymentOverdueMessage{
		PaymentID: p.ID,
		AccountID: p.AccountID,
		Name:      p.Name,
		Amount:    p.Amount.String(),
		DueDate:   p.DueDate,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *PaymentOverdueMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// PaymentOverdueMessageFromJSON creates a message from JSON bytes
func PaymentOverdueMessageFromJSON(data []byte) (*PaymentOverdueMessage, error) {
	var msg PaymentOverdueMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
