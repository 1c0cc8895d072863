package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Park routing/state.
	ErrParkBusy   = "E_PARK_BUSY"
	ErrToolClosed = "E_TOOL_CLOSED"
	ErrDisabled   = "E_DISABLED"

	// Rule/action layer.
	ErrBadRequest    = "E_BAD_REQUEST"
	ErrNotAllowed    = "E_NOT_ALLOWED"
	ErrNoResource    = "E_NO_RESOURCE"
	ErrInvalidTarget = "E_INVALID_TARGET"
	ErrConflict      = "E_CONFLICT"
	ErrBlocked       = "E_BLOCKED"
	ErrNotFound      = "E_NOT_FOUND"
	ErrRestricted    = "E_RESTRICTED"
	ErrInternal      = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrParkBusy:        {},
	ErrToolClosed:      {},
	ErrDisabled:        {},
	ErrBadRequest:      {},
	ErrNotAllowed:      {},
	ErrNoResource:      {},
	ErrInvalidTarget:   {},
	ErrConflict:        {},
	ErrBlocked:         {},
	ErrNotFound:        {},
	ErrRestricted:      {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
