package app

import "github.com/dkeye/telemed/internal/core"

// MissAction is what the relay does when the target identity is offline.
type MissAction int

const (
	DropSilently MissAction = iota
	NotifySender
)

// Field is a payload field a route may carry to the target.
type Field int

const (
	FieldAppointmentID Field = iota
	FieldOffer
	FieldAnswer
	FieldCandidate
	FieldCallerDisplayName
	FieldCallerIdentity
	FieldPayload
	FieldNotification
)

func (f Field) String() string {
	switch f {
	case FieldAppointmentID:
		return "appointmentId"
	case FieldOffer:
		return "offer"
	case FieldAnswer:
		return "answer"
	case FieldCandidate:
		return "candidate"
	case FieldCallerDisplayName:
		return "callerDisplayName"
	case FieldCallerIdentity:
		return "callerIdentity"
	case FieldPayload:
		return "payload"
	case FieldNotification:
		return "notification"
	default:
		return "unknown"
	}
}

// RoutePolicy describes how one inbound kind is forwarded. Every route
// resolves its target from toUserId.
type RoutePolicy struct {
	Outbound core.Kind
	Carry    []Field
	Require  []Field
	OnMiss   MissAction
}

// DefaultRoutes is the relay table clients are built against. Only
// notify:incoming:call tells the sender that the target is offline.
func DefaultRoutes() map[core.Kind]RoutePolicy {
	return map[core.Kind]RoutePolicy{
		core.KindCallPrepare: {
			Outbound: core.KindCallPrepare,
			Carry:    []Field{FieldAppointmentID},
		},
		core.KindUserCall: {
			Outbound: core.KindIncomingCall,
			Carry:    []Field{FieldOffer, FieldAppointmentID},
			Require:  []Field{FieldOffer},
		},
		core.KindCallAccepted: {
			Outbound: core.KindCallAccepted,
			Carry:    []Field{FieldAnswer},
			Require:  []Field{FieldAnswer},
		},
		core.KindNegoNeeded: {
			Outbound: core.KindNegoNeeded,
			Carry:    []Field{FieldOffer},
			Require:  []Field{FieldOffer},
		},
		core.KindNegoDone: {
			Outbound: core.KindNegoFinal,
			Carry:    []Field{FieldAnswer},
			Require:  []Field{FieldAnswer},
		},
		core.KindCallRejected: {
			Outbound: core.KindCallRejected,
			Carry:    []Field{FieldAppointmentID},
		},
		core.KindCallEnded: {
			Outbound: core.KindCallEnded,
			Carry:    []Field{FieldAppointmentID},
		},
		core.KindICECandidate: {
			Outbound: core.KindICECandidate,
			Carry:    []Field{FieldCandidate},
			Require:  []Field{FieldCandidate},
		},
		core.KindNotifyIncomingCall: {
			Outbound: core.KindNotificationIncomingCall,
			Carry:    []Field{FieldCallerDisplayName, FieldAppointmentID, FieldCallerIdentity},
			OnMiss:   NotifySender,
		},
		core.KindSignal: {
			Outbound: core.KindSignal,
			Carry:    []Field{FieldPayload},
			Require:  []Field{FieldPayload},
		},
		core.KindNotify: {
			Outbound: core.KindNotification,
			Carry:    []Field{FieldNotification},
			Require:  []Field{FieldNotification},
		},
	}
}
