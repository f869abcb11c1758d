// Package wire defines the JSON envelope exchanged over websocket
// connections and the payload shapes for every inbound and outbound event.
package wire

import "encoding/json"

// Inbound event types (client -> server).
const (
	EvMessageSend      = "message:send"
	EvChatRead         = "chat:read"
	EvChatTyping       = "chat:typing"
	EvCallInitiate     = "call:initiate"
	EvCallAccept       = "call:accept"
	EvCallICECandidate = "call:ice_candidate"
	EvCallReject       = "call:reject"
	EvCallEnd          = "call:end"
)

// Outbound event types (server -> client).
const (
	EvMessageDelivered = "message:delivered"
	EvMessageReceived  = "message:received"
	EvMessagesWereRead = "messages:were_read"
	EvCallIncoming     = "call:incoming"
	EvCallAccepted     = "call:accepted"
	EvCallRejected     = "call:rejected"
	EvCallEnded        = "call:ended"
	EvError            = "error"
)

// Envelope is the frame every websocket message travels in.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Marshal builds an envelope frame ready to write to a connection.
// Marshal errors are a programming bug (all payload types here are
// marshalable), so the frame is returned best-effort.
func Marshal(eventType string, payload any) []byte {
	var raw json.RawMessage
	if payload != nil {
		raw, _ = json.Marshal(payload)
	}
	b, _ := json.Marshal(Envelope{Type: eventType, Payload: raw})
	return b
}

// MessageSend is the payload of message:send.
type MessageSend struct {
	ChatID    string `json:"chatId"`
	Content   string `json:"content"`
	MediaType string `json:"mediaType"`
}

// ChatRead is the payload of chat:read.
type ChatRead struct {
	ChatID string `json:"chatId"`
}

// ChatTyping is the payload of chat:typing, inbound and outbound.
// UserID is filled by the server on the outbound leg.
type ChatTyping struct {
	ChatID string `json:"chatId"`
	UserID string `json:"userId,omitempty"`
}

// MessagesWereRead is the payload of messages:were_read.
type MessagesWereRead struct {
	ChatID   string `json:"chatId"`
	ReaderID string `json:"readerId"`
}

// Call signaling payloads. Offer/answer/candidate blobs are opaque to the
// server and relayed byte for byte.

type CallInitiate struct {
	ReceiverID string          `json:"receiverId"`
	Offer      json.RawMessage `json:"offer"`
	CallerInfo json.RawMessage `json:"callerInfo,omitempty"`
}

type CallIncoming struct {
	CallerID   string          `json:"callerId"`
	CallerInfo json.RawMessage `json:"callerInfo,omitempty"`
	Offer      json.RawMessage `json:"offer"`
}

type CallAccept struct {
	CallerID string          `json:"callerId"`
	Answer   json.RawMessage `json:"answer"`
}

type CallAccepted struct {
	ReceiverID string          `json:"receiverId"`
	Answer     json.RawMessage `json:"answer"`
}

type CallICECandidate struct {
	TargetID  string          `json:"targetId,omitempty"`
	SenderID  string          `json:"senderId,omitempty"`
	Candidate json.RawMessage `json:"candidate"`
}

type CallReject struct {
	CallerID string `json:"callerId"`
}

type CallRejected struct {
	ReceiverID string `json:"receiverId"`
}

type CallEnd struct {
	TargetID string `json:"targetId"`
}

// Error is sent back to the connection that issued a failing event.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
