// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"time"
)

// InputType records what the user submitted for an analysis.
type InputType string

const (
	InputText  InputType = "text"
	InputImage InputType = "image"
)

// RecordStatus is the outcome of the remote search call.
type RecordStatus string

const (
	StatusSuccess RecordStatus = "success"
	StatusError   RecordStatus = "error"
)

// HistoryRecord is one persisted search. CanonicalText is always written;
// Payload holds the structured SearchResponse JSON when storage allowed it.
// Records without a payload are rendered through the legacy text parser.
type HistoryRecord struct {
	ID                  string          `json:"id" yaml:"id"`
	CreatedAt           time.Time       `json:"created_at" yaml:"created_at"`
	Endpoint            string          `json:"endpoint" yaml:"endpoint"`
	InputType           InputType       `json:"input_type" yaml:"input_type"`
	InputSummary        string          `json:"input_summary" yaml:"input_summary"`
	FileName            string          `json:"file_name,omitempty" yaml:"file_name,omitempty"`
	SimilarityThreshold float64         `json:"similarity_threshold" yaml:"similarity_threshold"`
	MaxResults          int             `json:"max_results" yaml:"max_results"`
	TotalReturned       int             `json:"total_returned" yaml:"total_returned"`
	CanonicalText       string          `json:"canonical_text" yaml:"canonical_text"`
	Payload             json.RawMessage `json:"structured_payload,omitempty" yaml:"-"`
	ConversationID      string          `json:"conversation_id,omitempty" yaml:"conversation_id,omitempty"`
	LatencyMS           int64           `json:"latency_ms" yaml:"latency_ms"`
	Status              RecordStatus    `json:"status" yaml:"status"`
	ErrorMessage        string          `json:"error_message,omitempty" yaml:"error_message,omitempty"`
}

// HasPayload reports whether the structured response was persisted.
func (r HistoryRecord) HasPayload() bool {
	return len(r.Payload) > 0 && string(r.Payload) != "null"
}

// Response decodes the structured payload. It returns nil, nil when the
// record carries text only.
func (r HistoryRecord) Response() (*SearchResponse, error) {
	if !r.HasPayload() {
		return nil, nil
	}
	var resp SearchResponse
	if err := json.Unmarshal(r.Payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ChatRole is the author of a chat message.
type ChatRole string

const (
	RoleUser  ChatRole = "user"
	RoleModel ChatRole = "model"
)

// ChatMessage is one turn of a conversation about a result.
type ChatMessage struct {
	ConversationID string    `json:"conversation_id" yaml:"conversation_id"`
	Role           ChatRole  `json:"role" yaml:"role"`
	Content        string    `json:"content" yaml:"content"`
	CreatedAt      time.Time `json:"created_at" yaml:"created_at"`
}
