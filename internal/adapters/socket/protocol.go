// Package socket carries the IDE wire protocol over a stream socket (tcp or
// unix). Messages are framed by their "<EOM>" terminator rather than by
// newlines, since IDE plugins may embed line breaks in paths.
package socket

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/corey/idebridge/internal/domain/protocol"
)

// MaxMessageSize bounds a single framed message.
const MaxMessageSize = 1024 * 1024

// ScanMessages is a bufio.SplitFunc yielding one message per "<EOM>"
// terminator, terminator included. Trailing bytes without a terminator are
// yielded at EOF so a peer that closes early still gets its last message
// classified.
func ScanMessages(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.Index(data, []byte(protocol.EndOfMessage)); i >= 0 {
		end := i + len(protocol.EndOfMessage)
		return end, data[:end], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// newScanner returns a scanner over r framed with ScanMessages.
func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxMessageSize)
	scanner.Split(ScanMessages)
	return scanner
}

// frame appends the terminator when a message lacks one.
func frame(message string) string {
	if strings.HasSuffix(message, protocol.EndOfMessage) {
		return message
	}
	return message + protocol.EndOfMessage
}
