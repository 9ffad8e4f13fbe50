package protocol

import "errors"

// ErrProtocol labels log records for messages that match no known grammar.
// It never crosses the controller boundary.
var ErrProtocol = errors.New("protocol: unrecognized message")
