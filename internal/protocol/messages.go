package protocol

import "parkcraft.io/internal/park/tool"

// HELLO (client -> server)
type HelloMsg struct {
	Type            string            `json:"type"`
	ProtocolVersion string            `json:"protocol_version"`
	ClientName      string            `json:"client_name"`
	Capabilities    HelloCapabilities `json:"capabilities,omitempty"`
}

type HelloCapabilities struct {
	AckRequired bool `json:"ack_required,omitempty"`
	// StateEveryTick sends STATE every tick instead of only on change.
	StateEveryTick bool `json:"state_every_tick,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	SessionID       string         `json:"session_id"`
	ParkParams      ParkParams     `json:"park_params"`
	Catalogs        CatalogDigests `json:"catalogs"`
	Selection       tool.Selection `json:"selection"`
}

type ParkParams struct {
	TickRateHz int  `json:"tick_rate_hz"`
	MapSize    int  `json:"map_size"`
	BaseHeight int  `json:"base_height"`
	TilePixels int  `json:"tile_pixels"`
	Networked  bool `json:"networked,omitempty"`
	EditorMode bool `json:"editor_mode,omitempty"`
}

type CatalogDigests struct {
	Digest string            `json:"digest"`
	Files  map[string]string `json:"files"`
}

type AckMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	AckFor          string `json:"ack_for"`
	Accepted        bool   `json:"accepted"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
	ServerTick      uint64 `json:"server_tick,omitempty"`
}
