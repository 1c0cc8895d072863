package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"parkcraft.io/internal/park/climate"
	"parkcraft.io/internal/park/objects"
	"parkcraft.io/internal/park/sim"
	"parkcraft.io/internal/park/tuning"
	"parkcraft.io/internal/protocol"
)

type fakeAudits struct{ since int64 }

func (f *fakeAudits) Audits(_ context.Context, sinceID int64, limit int) ([]protocol.AuditRecord, int64, error) {
	f.since = sinceID
	return []protocol.AuditRecord{{ID: sinceID + 1, Tick: 3, Action: "PLACE_PATH", Cost: 120}}, sinceID + 1, nil
}

func startServer(t *testing.T, audits AuditSource) string {
	t.Helper()
	cat, err := objects.Load("../../../configs")
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	tune := tuning.Defaults()
	tune.MapSize = 16
	tune.TickRateHz = 200
	tune.SnapshotEveryTicks = 0
	tune.Climate = []climate.Spell{{Weather: climate.Sunny, Ticks: 100}}
	p, err := sim.New(sim.Config{ID: "ws_test", Tuning: tune}, cat)
	if err != nil {
		t.Fatalf("new park: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = p.Run(ctx) }()

	v, err := protocol.NewValidator()
	if err != nil {
		t.Fatalf("validator: %v", err)
	}
	s := NewServer(p, v, nil)
	if audits != nil {
		s.SetAuditSource(audits)
	}
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	if err := conn.WriteJSON(v); err != nil {
		t.Fatalf("write: %v", err)
	}
}

// await reads until a message of typ arrives for which match returns true.
func await(t *testing.T, conn *websocket.Conn, typ string, match func([]byte) bool) []byte {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		_ = conn.SetReadDeadline(deadline)
		_, b, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %s: %v", typ, err)
		}
		base, err := protocol.DecodeBase(b)
		if err != nil {
			t.Fatalf("bad message %s", b)
		}
		if base.Type == typ && (match == nil || match(b)) {
			return b
		}
	}
}

func hello(t *testing.T, conn *websocket.Conn) protocol.WelcomeMsg {
	t.Helper()
	send(t, conn, protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, ClientName: "tester"})
	var w protocol.WelcomeMsg
	if err := json.Unmarshal(await(t, conn, protocol.TypeWelcome, nil), &w); err != nil {
		t.Fatalf("welcome: %v", err)
	}
	return w
}

func ackFor(id string) func([]byte) bool {
	return func(b []byte) bool {
		var a protocol.AckMsg
		return json.Unmarshal(b, &a) == nil && a.AckFor == id
	}
}

func TestHandshakeAndToolAck(t *testing.T) {
	conn := dial(t, startServer(t, nil))
	w := hello(t, conn)
	if w.SessionID == "" || w.ParkParams.MapSize != 16 || w.ProtocolVersion != protocol.Version {
		t.Fatalf("welcome=%+v", w)
	}

	send(t, conn, protocol.ToolMsg{Type: protocol.TypeTool, ProtocolVersion: protocol.Version, ID: "c1", Op: protocol.OpClose})
	var a protocol.AckMsg
	if err := json.Unmarshal(await(t, conn, protocol.TypeAck, ackFor("c1")), &a); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if !a.Accepted {
		t.Fatalf("close rejected: %+v", a)
	}

	// A closed tool refuses construction.
	send(t, conn, protocol.ToolMsg{Type: protocol.TypeTool, ProtocolVersion: protocol.Version, ID: "c2", Op: protocol.OpConstruct})
	if err := json.Unmarshal(await(t, conn, protocol.TypeAck, ackFor("c2")), &a); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if a.Accepted || a.Code != protocol.ErrToolClosed {
		t.Fatalf("construct on closed tool: %+v", a)
	}
}

func TestInvalidMessagesAreRejectedLocally(t *testing.T) {
	conn := dial(t, startServer(t, nil))
	hello(t, conn)

	cases := []struct {
		id  string
		raw string
	}{
		{"b1", `{"type":"TOOL","protocol_version":"1.0","id":"b1","op":"FLY"}`},
		{"b2", `{"type":"TOOL","protocol_version":"1.0","id":"b2","op":"POINTER_DOWN"}`},
		{"b3", `{"type":"SCENERY","protocol_version":"1.0","id":"b3","op":"GHOST"}`},
		{"", `{"type":"TOOL","protocol_version":"0.1","op":"OPEN"}`},
	}
	for _, tc := range cases {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(tc.raw)); err != nil {
			t.Fatalf("write: %v", err)
		}
		var a protocol.AckMsg
		if err := json.Unmarshal(await(t, conn, protocol.TypeAck, ackFor(tc.id)), &a); err != nil {
			t.Fatalf("ack: %v", err)
		}
		if a.Accepted || a.Code != protocol.ErrProtoBadRequest {
			t.Fatalf("%s: ack=%+v", tc.raw, a)
		}
	}
}

func TestAuditRequests(t *testing.T) {
	conn := dial(t, startServer(t, nil))
	hello(t, conn)
	send(t, conn, protocol.AuditReqMsg{Type: protocol.TypeAuditReq, ProtocolVersion: protocol.Version, ReqID: "a1"})
	var a protocol.AckMsg
	if err := json.Unmarshal(await(t, conn, protocol.TypeAck, ackFor("a1")), &a); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if a.Code != protocol.ErrDisabled {
		t.Fatalf("ack=%+v", a)
	}

	src := &fakeAudits{}
	conn = dial(t, startServer(t, src))
	hello(t, conn)
	send(t, conn, protocol.AuditReqMsg{Type: protocol.TypeAuditReq, ProtocolVersion: protocol.Version, ReqID: "a2", SinceID: 41, Limit: 10})
	var batch protocol.AuditBatchMsg
	if err := json.Unmarshal(await(t, conn, protocol.TypeAuditBatch, nil), &batch); err != nil {
		t.Fatalf("batch: %v", err)
	}
	if batch.ReqID != "a2" || batch.NextID != 42 || len(batch.Records) != 1 || src.since != 41 {
		t.Fatalf("batch=%+v since=%d", batch, src.since)
	}
}

func TestHandshakeRejectsNonHello(t *testing.T) {
	conn := dial(t, startServer(t, nil))
	send(t, conn, protocol.ToolMsg{Type: protocol.TypeTool, ProtocolVersion: protocol.Version, Op: protocol.OpOpen})
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Fatalf("expected policy close, got %v", err)
	}
}
