package protocol

// AUDIT_REQ (client -> server)
type AuditReqMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id"`
	SinceID         int64  `json:"since_id"`
	Limit           int    `json:"limit"`
}

type AuditRecord struct {
	ID      int64  `json:"id"`
	Tick    uint64 `json:"tick"`
	Session string `json:"session,omitempty"`
	Action  string `json:"action"`
	Pos     [3]int `json:"pos"`
	Entry   int    `json:"entry"`
	Cost    int64  `json:"cost"`
	Cash    int64  `json:"cash"`
}

// AUDIT_BATCH (server -> client)
type AuditBatchMsg struct {
	Type            string        `json:"type"`
	ProtocolVersion string        `json:"protocol_version"`
	ReqID           string        `json:"req_id"`
	Records         []AuditRecord `json:"records"`
	NextID          int64         `json:"next_id"`
}
