package observer

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"parkcraft.io/internal/park/sim"
	"parkcraft.io/internal/protocol"
)

// Version of the monitor feed, independent of the tool protocol.
const Version = "0.1"

// MetricsSource is what the monitor reads. *sim.Park satisfies it.
type MetricsSource interface {
	ID() string
	Params() protocol.ParkParams
	Metrics() sim.ParkMetrics
}

type BootstrapResponse struct {
	ProtocolVersion string              `json:"protocol_version"`
	ParkID          string              `json:"park_id"`
	Tick            uint64              `json:"tick"`
	ParkParams      protocol.ParkParams `json:"park_params"`
}

// SubscribeMsg starts or retunes the feed.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	IntervalMS      int    `json:"interval_ms,omitempty"`
}

type MetricsMsg struct {
	Type            string          `json:"type"`
	ProtocolVersion string          `json:"protocol_version"`
	ParkID          string          `json:"park_id"`
	Metrics         sim.ParkMetrics `json:"metrics"`
}

// Server is a read-only, loopback-only view of a running park.
type Server struct {
	park MetricsSource
	log  *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(p MetricsSource, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		park: p,
		log:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) BootstrapHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		resp := BootstrapResponse{
			ProtocolVersion: Version,
			ParkID:          s.park.ID(),
			Tick:            s.park.Metrics().Tick,
			ParkParams:      s.park.Params(),
		}
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(resp)
	}
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Handshake: must send SUBSCRIBE first.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		sub, ok := parseSubscribe(msg)
		if !ok {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected SUBSCRIBE"), time.Now().Add(time.Second))
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		intervals := make(chan time.Duration, 1)
		intervals <- interval(sub)

		writeErr := make(chan error, 1)
		go func() {
			ticker := time.NewTicker(time.Second)
			defer ticker.Stop()
			var last uint64
			sent := false
			for {
				select {
				case <-ctx.Done():
					writeErr <- ctx.Err()
					return
				case d := <-intervals:
					ticker.Reset(d)
				case <-ticker.C:
					m := s.park.Metrics()
					if sent && m.Tick == last {
						continue
					}
					b, err := json.Marshal(MetricsMsg{Type: "METRICS", ProtocolVersion: Version, ParkID: s.park.ID(), Metrics: m})
					if err != nil {
						continue
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						writeErr <- err
						return
					}
					last, sent = m.Tick, true
				}
			}
		}()

		// Reader loop: allow SUBSCRIBE updates.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			sub, ok := parseSubscribe(msg)
			if !ok {
				continue
			}
			select {
			case intervals <- interval(sub):
			default:
				// An update is already pending; the client may resend.
			}
		}

		cancel()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))

		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func parseSubscribe(msg []byte) (SubscribeMsg, bool) {
	var sub SubscribeMsg
	if err := json.Unmarshal(msg, &sub); err != nil {
		return sub, false
	}
	return sub, sub.Type == "SUBSCRIBE" && sub.ProtocolVersion == Version
}

func interval(sub SubscribeMsg) time.Duration {
	ms := sub.IntervalMS
	if ms <= 0 {
		ms = 1000
	}
	if ms < 50 {
		ms = 50
	}
	if ms > 60000 {
		ms = 60000
	}
	return time.Duration(ms) * time.Millisecond
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
