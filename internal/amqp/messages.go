package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Mutation actions carried on messages.
const (
	ActionAdd    = "add"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionSet    = "set"
)

// TransactionSyncMessage asks the backup worker to mirror one ledger
// mutation to the backup spreadsheet. It carries only the ID and the
// action; the worker fetches the current row from the store.
type TransactionSyncMessage struct {
	ID        int64     `json:"id"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionSyncMessage(id int64, action string) *TransactionSyncMessage {
	return &TransactionSyncMessage{
		ID:        id,
		Action:    action,
		Timestamp: time.Now(),
	}
}

func (m *TransactionSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionSyncMessageFromJSON(data []byte) (*TransactionSyncMessage, error) {
	var msg TransactionSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// DataEventMessage announces that an entity changed. External front
// ends (bot, web UI) subscribe to refresh their views.
type DataEventMessage struct {
	EventID   string    `json:"event_id"`
	Entity    string    `json:"entity"` // transaction, budget, asset, diary
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

func NewDataEventMessage(entity, action string) *DataEventMessage {
	return &DataEventMessage{
		EventID:   uuid.NewString(),
		Entity:    entity,
		Action:    action,
		Timestamp: time.Now(),
	}
}

func (m *DataEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func DataEventMessageFromJSON(data []byte) (*DataEventMessage, error) {
	var msg DataEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
