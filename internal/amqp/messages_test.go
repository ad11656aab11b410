package amqp

import (
	"testing"
	"time"
)

func TestNewChangeMessage(t *testing.T) {
	msg := NewChangeMessage(CollectionPenalties, "p1", "m1", OpCreated)

	if msg.Collection != CollectionPenalties {
		t.Errorf("Collection = %q, want %q", msg.Collection, CollectionPenalties)
	}
	if msg.DocID != "p1" || msg.MemberID != "m1" || msg.Op != OpCreated {
		t.Errorf("unexpected fields: %+v", msg)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}
	if time.Since(msg.Timestamp) > time.Second {
		t.Error("Timestamp should be recent")
	}
}

func TestChangeMessage_JSON(t *testing.T) {
	timestamp := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	msg := &ChangeMessage{
		Collection: CollectionExpenses,
		DocID:      "e42",
		Op:         OpDeleted,
		Timestamp:  timestamp,
	}

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := ChangeMessageFromJSON(data)
	if err != nil {
		t.Fatalf("ChangeMessageFromJSON() error = %v", err)
	}

	if parsed.Collection != msg.Collection || parsed.DocID != msg.DocID || parsed.Op != msg.Op {
		t.Errorf("round trip mismatch: %+v", parsed)
	}
	if !parsed.Timestamp.Equal(msg.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", parsed.Timestamp, msg.Timestamp)
	}
}

func TestChangeMessage_InvalidJSON(t *testing.T) {
	if _, err := ChangeMessageFromJSON([]byte(`{"collection": 7}`)); err == nil {
		t.Error("ChangeMessageFromJSON() should fail with invalid JSON")
	}
}
