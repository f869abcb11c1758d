// Package call relays WebRTC negotiation events between two users. The
// relay keeps no call state and never looks inside the SDP/ICE blobs it
// carries; correctness is entirely in the addressing. A target with no
// live connection simply misses the event.
package call

import (
	"go.uber.org/zap"

	"github.com/ayanasamuel8/chat-backend/internal/metrics"
	"github.com/ayanasamuel8/chat-backend/internal/wire"
)

// Broadcaster fans a frame out to every live connection of one user.
type Broadcaster interface {
	SendToUser(userID string, payload []byte) int
}

type Relay struct {
	bcast Broadcaster
	met   *metrics.Metrics
	log   *zap.SugaredLogger
}

func NewRelay(bcast Broadcaster, met *metrics.Metrics, log *zap.SugaredLogger) *Relay {
	return &Relay{bcast: bcast, met: met, log: log}
}

// Initiate forwards a caller's offer to the receiver.
func (r *Relay) Initiate(callerID string, p wire.CallInitiate) {
	r.forward("initiate", p.ReceiverID, wire.EvCallIncoming, wire.CallIncoming{
		CallerID:   callerID,
		CallerInfo: p.CallerInfo,
		Offer:      p.Offer,
	})
}

// Accept forwards the callee's answer back to the caller.
func (r *Relay) Accept(receiverID string, p wire.CallAccept) {
	r.forward("accept", p.CallerID, wire.EvCallAccepted, wire.CallAccepted{
		ReceiverID: receiverID,
		Answer:     p.Answer,
	})
}

// ICECandidate forwards a candidate to either side of the call.
func (r *Relay) ICECandidate(senderID string, p wire.CallICECandidate) {
	r.forward("ice_candidate", p.TargetID, wire.EvCallICECandidate, wire.CallICECandidate{
		SenderID:  senderID,
		Candidate: p.Candidate,
	})
}

// Reject tells the caller the callee declined.
func (r *Relay) Reject(receiverID string, p wire.CallReject) {
	r.forward("reject", p.CallerID, wire.EvCallRejected, wire.CallRejected{
		ReceiverID: receiverID,
	})
}

// End tells the other side the call is over.
func (r *Relay) End(senderID string, p wire.CallEnd) {
	r.forward("end", p.TargetID, wire.EvCallEnded, struct{}{})
}

func (r *Relay) forward(signal, targetID, eventType string, payload any) {
	if targetID == "" {
		return
	}
	delivered := r.bcast.SendToUser(targetID, wire.Marshal(eventType, payload))
	if delivered == 0 {
		r.log.Debugw("call signal dropped, target offline", "signal", signal, "target_id", targetID)
	}
	r.met.CallSignals.WithLabelValues(signal).Inc()
}
