package main

import (
	"encoding/json"
	"io"
	"log"
	"testing"

	"parkcraft.io/internal/protocol"
)

func TestHandleTracksStateAndAcks(t *testing.T) {
	b := &bot{logger: log.New(io.Discard, "", 0)}

	st, _ := json.Marshal(map[string]any{
		"type":             protocol.TypeState,
		"protocol_version": protocol.Version,
		"tick":             7,
		"tool":             map[string]any{"mode": "BRIDGE", "rotation": 1},
	})
	if a := b.handle(st); a != nil {
		t.Fatalf("STATE returned ack %+v", a)
	}
	if b.states != 1 || b.state.Tool.Mode != "BRIDGE" || b.state.Tool.Rotation != 1 {
		t.Fatalf("state=%+v states=%d", b.state.Tool, b.states)
	}

	ack, _ := json.Marshal(protocol.AckMsg{Type: protocol.TypeAck, ProtocolVersion: protocol.Version, AckFor: "c3", Code: protocol.ErrToolClosed})
	a := b.handle(ack)
	if a == nil || a.AckFor != "c3" || a.Accepted || a.Code != protocol.ErrToolClosed {
		t.Fatalf("ack=%+v", a)
	}

	if a := b.handle([]byte("not json")); a != nil {
		t.Fatalf("garbage returned ack %+v", a)
	}
}
