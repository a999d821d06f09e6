package core

// Kind tags every signaling message on the wire.
type Kind string

// Inbound relay kinds.
const (
	KindCallPrepare        Kind = "call:prepare"
	KindUserCall           Kind = "user:call"
	KindCallAccepted       Kind = "call:accepted"
	KindNegoNeeded         Kind = "peer:nego:needed"
	KindNegoDone           Kind = "peer:nego:done"
	KindCallRejected       Kind = "call:rejected"
	KindCallEnded          Kind = "call:ended"
	KindICECandidate       Kind = "peer:ice-candidate"
	KindNotifyIncomingCall Kind = "notify:incoming:call"
	KindSignal             Kind = "signal"
	KindNotify             Kind = "notify"
)

// Outbound-only kinds.
const (
	KindIncomingCall             Kind = "incoming:call"
	KindNegoFinal                Kind = "peer:nego:final"
	KindNotificationIncomingCall Kind = "notification:incoming:call"
	KindNotification             Kind = "notification"
	KindPresence                 Kind = "presence"
	KindUserOffline              Kind = "user:offline"
)

// Transport control kinds.
const (
	KindIdentify Kind = "identify"
	KindPing     Kind = "ping"
	KindPong     Kind = "pong"
	KindError    Kind = "error"
)
