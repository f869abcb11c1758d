package wire

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarshalFrameShape(t *testing.T) {
	req := require.New(t)

	b := Marshal(EvMessagesWereRead, MessagesWereRead{ChatID: "c1", ReaderID: "bob"})
	req.JSONEq(`{"type":"messages:were_read","payload":{"chatId":"c1","readerId":"bob"}}`, string(b))
}

func TestMarshalNilPayloadOmitsField(t *testing.T) {
	req := require.New(t)
	req.JSONEq(`{"type":"call:ended"}`, string(Marshal(EvCallEnded, nil)))
}

func TestEnvelopeRoundTripKeepsOpaqueBlobs(t *testing.T) {
	req := require.New(t)

	offer := json.RawMessage(`{"sdp":"v=0","nested":{"a":[1,2,3]}}`)
	b := Marshal(EvCallIncoming, CallIncoming{CallerID: "alice", Offer: offer})

	var env Envelope
	req.NoError(json.Unmarshal(b, &env))
	req.Equal(EvCallIncoming, env.Type)

	var p CallIncoming
	req.NoError(json.Unmarshal(env.Payload, &p))
	req.JSONEq(string(offer), string(p.Offer))
}
