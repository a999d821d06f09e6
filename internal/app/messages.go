package app

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dkeye/telemed/internal/core"
	"github.com/dkeye/telemed/internal/domain"
	"github.com/pion/webrtc/v4"
)

// Message is an inbound relay message. Payload fields stay raw JSON and
// are forwarded as they arrived.
type Message struct {
	Type              core.Kind       `json:"type"`
	ToUserID          domain.UserID   `json:"toUserId"`
	AppointmentID     json.RawMessage `json:"appointmentId,omitempty"`
	Offer             json.RawMessage `json:"offer,omitempty"`
	Answer            json.RawMessage `json:"answer,omitempty"`
	Candidate         json.RawMessage `json:"candidate,omitempty"`
	CallerDisplayName json.RawMessage `json:"callerDisplayName,omitempty"`
	CallerIdentity    json.RawMessage `json:"callerIdentity,omitempty"`
	Payload           json.RawMessage `json:"payload,omitempty"`
	Notification      json.RawMessage `json:"notification,omitempty"`
}

func (m *Message) field(f Field) json.RawMessage {
	switch f {
	case FieldAppointmentID:
		return m.AppointmentID
	case FieldOffer:
		return m.Offer
	case FieldAnswer:
		return m.Answer
	case FieldCandidate:
		return m.Candidate
	case FieldCallerDisplayName:
		return m.CallerDisplayName
	case FieldCallerIdentity:
		return m.CallerIdentity
	case FieldPayload:
		return m.Payload
	case FieldNotification:
		return m.Notification
	}
	return nil
}

type outboundMessage struct {
	Type              core.Kind       `json:"type"`
	From              domain.UserID   `json:"from,omitempty"`
	UserID            domain.UserID   `json:"userId,omitempty"`
	AppointmentID     json.RawMessage `json:"appointmentId,omitempty"`
	Offer             json.RawMessage `json:"offer,omitempty"`
	Answer            json.RawMessage `json:"answer,omitempty"`
	Candidate         json.RawMessage `json:"candidate,omitempty"`
	CallerDisplayName json.RawMessage `json:"callerDisplayName,omitempty"`
	CallerIdentity    json.RawMessage `json:"callerIdentity,omitempty"`
	Payload           json.RawMessage `json:"payload,omitempty"`
	Notification      json.RawMessage `json:"notification,omitempty"`
}

func (o *outboundMessage) set(f Field, v json.RawMessage) {
	switch f {
	case FieldAppointmentID:
		o.AppointmentID = v
	case FieldOffer:
		o.Offer = v
	case FieldAnswer:
		o.Answer = v
	case FieldCandidate:
		o.Candidate = v
	case FieldCallerDisplayName:
		o.CallerDisplayName = v
	case FieldCallerIdentity:
		o.CallerIdentity = v
	case FieldPayload:
		o.Payload = v
	case FieldNotification:
		o.Notification = v
	}
}

// MalformedError explains why an inbound message was dropped before routing.
type MalformedError struct {
	Kind   core.Kind
	Reason string
}

func (e *MalformedError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("malformed message: %s", e.Reason)
	}
	return fmt.Sprintf("malformed %s message: %s", e.Kind, e.Reason)
}

func isEmptyJSON(raw json.RawMessage) bool {
	v := bytes.TrimSpace(raw)
	return len(v) == 0 || bytes.Equal(v, []byte("null")) || bytes.Equal(v, []byte(`""`))
}

// isEmptyCandidate also treats an RTCIceCandidateInit with no candidate
// line as empty.
func isEmptyCandidate(raw json.RawMessage) bool {
	if isEmptyJSON(raw) {
		return true
	}
	v := bytes.TrimSpace(raw)
	if v[0] != '{' {
		return false
	}
	var ci webrtc.ICECandidateInit
	if err := json.Unmarshal(v, &ci); err != nil {
		return false
	}
	return ci.Candidate == ""
}

func missing(f Field, raw json.RawMessage) bool {
	if f == FieldCandidate {
		return isEmptyCandidate(raw)
	}
	return isEmptyJSON(raw)
}
