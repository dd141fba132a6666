package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Control layer.
	ErrBadRequest      = "E_BAD_REQUEST"
	ErrInvalidPosition = "E_INVALID_POSITION"
	ErrUnknownEngine   = "E_UNKNOWN_ENGINE"
	ErrBusy            = "E_BUSY"
	ErrInternal        = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrBadRequest:      {},
	ErrInvalidPosition: {},
	ErrUnknownEngine:   {},
	ErrBusy:            {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
