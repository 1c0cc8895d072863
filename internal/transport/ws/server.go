package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"parkcraft.io/internal/park/sim"
	"parkcraft.io/internal/protocol"
)

// AuditSource answers AUDIT_REQ paging queries.
type AuditSource interface {
	Audits(ctx context.Context, sinceID int64, limit int) ([]protocol.AuditRecord, int64, error)
}

type Server struct {
	park      *sim.Park
	validator *protocol.Validator
	audits    AuditSource
	log       *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(p *sim.Park, v *protocol.Validator, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		park:      p,
		validator: v,
		log:       logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) SetAuditSource(a AuditSource) { s.audits = a }

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sessionID, out := s.handshake(conn)
		if sessionID == "" {
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Replies produced by this connection (ACKs for rejected messages and
		// audit batches) bypass the park loop.
		local := make(chan []byte, 16)

		go func() {
			for {
				var b []byte
				select {
				case <-ctx.Done():
					return
				case b = <-out:
				case b = <-local:
				}
				_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
					cancel()
					return
				}
			}
		}()

		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			s.route(ctx, sessionID, msg, local)
		}

		select {
		case s.park.Leave() <- sessionID:
		case <-time.After(time.Second):
			s.log.Printf("session %s: leave dropped, park loop not draining", sessionID)
		}
	}
}

func (s *Server) route(ctx context.Context, sessionID string, msg []byte, local chan<- []byte) {
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		reply(local, ack("", protocol.ErrProtoBadRequest, err.Error()))
		return
	}
	if base.ProtocolVersion != protocol.Version {
		reply(local, ack("", protocol.ErrProtoBadRequest, "bad protocol_version"))
		return
	}
	if err := s.validator.Validate(base.Type, msg); err != nil {
		reply(local, ack(messageID(msg), protocol.ErrProtoBadRequest, err.Error()))
		return
	}

	env := sim.Envelope{SessionID: sessionID}
	switch base.Type {
	case protocol.TypeTool:
		var m protocol.ToolMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			reply(local, ack("", protocol.ErrProtoBadRequest, err.Error()))
			return
		}
		env.Tool = &m
	case protocol.TypeScenery:
		var m protocol.SceneryMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			reply(local, ack("", protocol.ErrProtoBadRequest, err.Error()))
			return
		}
		env.Scenery = &m
	case protocol.TypeAuditReq:
		var m protocol.AuditReqMsg
		if err := json.Unmarshal(msg, &m); err != nil {
			reply(local, ack("", protocol.ErrProtoBadRequest, err.Error()))
			return
		}
		s.answerAudit(ctx, m, local)
		return
	default:
		reply(local, ack(messageID(msg), protocol.ErrProtoBadRequest, "unexpected "+base.Type))
		return
	}

	select {
	case s.park.Inbox() <- env:
	default:
		reply(local, ack(messageID(msg), protocol.ErrParkBusy, "inbox full"))
	}
}

func (s *Server) answerAudit(ctx context.Context, m protocol.AuditReqMsg, local chan<- []byte) {
	if s.audits == nil {
		reply(local, ack(m.ReqID, protocol.ErrDisabled, "audit index disabled"))
		return
	}
	qctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	recs, next, err := s.audits.Audits(qctx, m.SinceID, m.Limit)
	if err != nil {
		s.log.Printf("audit query: %v", err)
		reply(local, ack(m.ReqID, protocol.ErrInternal, "audit query failed"))
		return
	}
	if recs == nil {
		recs = []protocol.AuditRecord{}
	}
	reply(local, protocol.AuditBatchMsg{
		Type:            protocol.TypeAuditBatch,
		ProtocolVersion: protocol.Version,
		ReqID:           m.ReqID,
		Records:         recs,
		NextID:          next,
	})
}

func (s *Server) handshake(conn *websocket.Conn) (sessionID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closeWith(conn, websocket.ClosePolicyViolation, "expected HELLO")
		return "", nil
	}
	if err := s.validator.Validate(protocol.TypeHello, msg); err != nil {
		closeWith(conn, websocket.ClosePolicyViolation, "bad HELLO")
		return "", nil
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		closeWith(conn, websocket.ClosePolicyViolation, "bad protocol_version")
		return "", nil
	}
	if hello.ClientName == "" {
		hello.ClientName = "client"
	}

	out = make(chan []byte, 8)
	respCh := make(chan sim.JoinResponse, 1)
	select {
	case s.park.Join() <- sim.JoinRequest{
		Name:           hello.ClientName,
		StateEveryTick: hello.Capabilities.StateEveryTick,
		Out:            out,
		Resp:           respCh,
	}:
	case <-time.After(2 * time.Second):
		closeWith(conn, websocket.CloseTryAgainLater, protocol.ErrParkBusy)
		return "", nil
	}

	var resp sim.JoinResponse
	select {
	case resp = <-respCh:
	case <-time.After(5 * time.Second):
		closeWith(conn, websocket.CloseTryAgainLater, protocol.ErrParkBusy)
		return "", nil
	}
	if resp.Code != "" {
		closeWith(conn, websocket.CloseTryAgainLater, resp.Code)
		return "", nil
	}

	if err := writeJSON(conn, resp.Welcome); err != nil {
		// Joined but unreachable.
		s.park.Leave() <- resp.Welcome.SessionID
		return "", nil
	}
	return resp.Welcome.SessionID, out
}

func ack(id, code, message string) protocol.AckMsg {
	return protocol.AckMsg{
		Type:            protocol.TypeAck,
		ProtocolVersion: protocol.Version,
		AckFor:          id,
		Accepted:        code == "",
		Code:            code,
		Message:         message,
	}
}

func reply(local chan<- []byte, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case local <- b:
	default:
	}
}

// messageID pulls the client id out of a message that may not have decoded.
func messageID(msg []byte) string {
	var probe struct {
		ID    string `json:"id"`
		ReqID string `json:"req_id"`
	}
	_ = json.Unmarshal(msg, &probe)
	if probe.ID != "" {
		return probe.ID
	}
	return probe.ReqID
}

func closeWith(conn *websocket.Conn, code int, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
