package amqp

import (
	"encoding/json"
	"time"
)

// BatchRecordedMessage announces that a submitted batch was journaled
// locally. It carries only the submission id and counters; consumers fetch
// the full rows from the history store.
type BatchRecordedMessage struct {
	SubmissionID int64     `json:"submission_id"`
	AccountID    string    `json:"account_id"`
	Created      int       `json:"created"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewBatchRecordedMessage creates a message for a freshly journaled batch.
func NewBatchRecordedMessage(submissionID int64, accountID string, created int) *BatchRecordedMessage {
	return &BatchRecordedMessage{
		SubmissionID: submissionID,
		AccountID:    accountID,
		Created:      created,
		Timestamp:    time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *BatchRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BatchRecordedMessageFromJSON creates a message from JSON bytes.
func BatchRecordedMessageFromJSON(data []byte) (*BatchRecordedMessage, error) {
	var msg BatchRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
