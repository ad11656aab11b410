package amqp

import (
	"encoding/json"
	"time"
)

// Collections the change stream reports on. They mirror the storage tables.
const (
	CollectionPenalties     = "penalties"
	CollectionContributions = "contributions"
	CollectionExpenses      = "expenses"
	CollectionCashConfig    = "cash_config"
	CollectionMembers       = "members"
)

// Change operations.
const (
	OpCreated = "created"
	OpUpdated = "updated"
	OpDeleted = "deleted"
)

// ChangeMessage notifies the worker that a document changed. It carries no
// document body: consumers treat every delivery as "recompute from the
// current snapshot", which makes duplicate and out-of-order deliveries
// harmless.
type ChangeMessage struct {
	Collection string    `json:"collection"`
	DocID      string    `json:"docId"`
	MemberID   string    `json:"memberId,omitempty"`
	Op         string    `json:"op"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewChangeMessage creates a change notification stamped with the current time.
func NewChangeMessage(collection, docID, memberID, op string) *ChangeMessage {
	return &ChangeMessage{
		Collection: collection,
		DocID:      docID,
		MemberID:   memberID,
		Op:         op,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON creates a message from JSON bytes
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
