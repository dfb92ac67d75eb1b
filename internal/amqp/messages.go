package amqp

import (
	"encoding/json"
	"time"
)

// ChargeMaterializedMessage announces a subscription charge written to the
// ledger. Consumers fetch the full entry from the database; the message
// carries only identifiers and the amount.
type ChargeMaterializedMessage struct {
	SubscriptionID int64     `json:"subscription_id"`
	ExpenseID      int64     `json:"expense_id"`
	Month          string    `json:"month"`
	AmountCents    int64     `json:"amount_cents"`
	Timestamp      time.Time `json:"timestamp"`
}

func NewChargeMaterializedMessage(subscriptionID, expenseID int64, month string, amountCents int64) *ChargeMaterializedMessage {
	return &ChargeMaterializedMessage{
		SubscriptionID: subscriptionID,
		ExpenseID:      expenseID,
		Month:          month,
		AmountCents:    amountCents,
		Timestamp:      time.Now(),
	}
}

func (m *ChargeMaterializedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ChargeMaterializedMessageFromJSON(data []byte) (*ChargeMaterializedMessage, error) {
	var msg ChargeMaterializedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// EntryCreatedMessage announces a manually recorded ledger entry.
type EntryCreatedMessage struct {
	ExpenseID int64     `json:"expense_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEntryCreatedMessage(expenseID int64) *EntryCreatedMessage {
	return &EntryCreatedMessage{
		ExpenseID: expenseID,
		Timestamp: time.Now(),
	}
}

func (m *EntryCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func EntryCreatedMessageFromJSON(data []byte) (*EntryCreatedMessage, error) {
	var msg EntryCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
