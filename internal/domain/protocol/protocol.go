// Package protocol implements the text wire grammar spoken with the IDE.
//
// Grammar, version 1:
//
//	message = type ">>" field *(">>" field) "<EOM>"
//
//	setActiveToken>>{file}>>{row}>>{column}<EOM>   IDE -> bridge
//	createProject>>{solution}>>{ide}<EOM>          IDE -> bridge
//	moveCursor>>{file}>>{row}>>{column}<EOM>       bridge -> IDE
//
// Type tags are case-sensitive. Fields are not escaped and must not contain
// the divider or the terminator. The terminator is optional on input because
// the transport already frames on it; the encoder always appends it.
// Rows are 1-based (>= 1), columns are 1-based with 0 allowed as "line start".
package protocol

import (
	"strconv"
	"strings"
)

// ProtocolVersion is the version of the grammar described in the package doc.
const ProtocolVersion = 1

// Grammar tokens.
const (
	Divider      = ">>"
	EndOfMessage = "<EOM>"
)

// Type tags.
const (
	TagSetActiveToken = "setActiveToken"
	TagCreateProject  = "createProject"
	TagMoveCursor     = "moveCursor"
)

// IDVisualStudio is the createProject IDE id for Visual Studio.
const IDVisualStudio = "vs"

// MessageType is the closed set of inbound message kinds.
type MessageType int

const (
	Unknown MessageType = iota
	SetActiveToken
	CreateProject
)

// String returns a log-friendly name.
func (t MessageType) String() string {
	switch t {
	case SetActiveToken:
		return "set_active_token"
	case CreateProject:
		return "create_project"
	default:
		return "unknown"
	}
}

// IDEKind identifies the IDE that produced a project-import request.
type IDEKind int

const (
	IDEUnknown IDEKind = iota
	IDEVisualStudio
)

// String returns a log-friendly name.
func (k IDEKind) String() string {
	if k == IDEVisualStudio {
		return "vs"
	}
	return "unknown"
}

// ParsedSetActiveToken is a location-activation request.
type ParsedSetActiveToken struct {
	Valid        bool
	FileLocation string
	Row          int
	Column       int
}

// ParsedCreateProject is a project-import request.
type ParsedCreateProject struct {
	Valid                bool
	IDE                  IDEKind
	SolutionFileLocation string
	// IDEID is the raw id as received, kept for diagnostics.
	IDEID string
}

// fieldCount maps each inbound tag to the number of fields after the tag.
var fieldCount = map[string]int{
	TagSetActiveToken: 3,
	TagCreateProject:  2,
}

// split strips the terminator and surrounding whitespace and splits on the
// divider. ok is false when there is no tag followed by at least one divider.
func split(message string) (tag string, fields []string, ok bool) {
	m := strings.TrimSpace(message)
	m = strings.TrimSuffix(m, EndOfMessage)
	if !strings.Contains(m, Divider) {
		return "", nil, false
	}
	parts := strings.Split(m, Divider)
	if parts[0] == "" {
		return "", nil, false
	}
	return parts[0], parts[1:], true
}

// Classify returns the kind of an inbound wire message. Messages that do not
// follow the grammar, and messages with a tag the bridge does not accept from
// the IDE (including moveCursor), classify as Unknown.
func Classify(message string) MessageType {
	tag, _, ok := split(message)
	if !ok {
		return Unknown
	}
	switch tag {
	case TagSetActiveToken:
		return SetActiveToken
	case TagCreateProject:
		return CreateProject
	default:
		return Unknown
	}
}

// ParseSetActiveToken parses a setActiveToken message. Any deviation from the
// grammar (wrong tag, wrong field count, empty path, bad numbers) yields
// Valid == false with the remaining fields best-effort filled.
func ParseSetActiveToken(message string) ParsedSetActiveToken {
	var p ParsedSetActiveToken
	tag, fields, ok := split(message)
	if !ok || tag != TagSetActiveToken || len(fields) != fieldCount[tag] {
		return p
	}
	p.FileLocation = fields[0]
	row, rowErr := strconv.Atoi(strings.TrimSpace(fields[1]))
	col, colErr := strconv.Atoi(strings.TrimSpace(fields[2]))
	p.Row, p.Column = row, col
	p.Valid = p.FileLocation != "" && rowErr == nil && colErr == nil && row >= 1 && col >= 0
	return p
}

// ParseCreateProject parses a createProject message. An unrecognized IDE id
// is still Valid; it maps to IDEUnknown so the handler can report it.
func ParseCreateProject(message string) ParsedCreateProject {
	var p ParsedCreateProject
	tag, fields, ok := split(message)
	if !ok || tag != TagCreateProject || len(fields) != fieldCount[tag] {
		return p
	}
	p.SolutionFileLocation = fields[0]
	p.IDEID = strings.TrimSpace(fields[1])
	if strings.EqualFold(p.IDEID, IDVisualStudio) {
		p.IDE = IDEVisualStudio
	}
	p.Valid = p.SolutionFileLocation != "" && p.IDEID != ""
	return p
}

// BuildMoveCursor encodes an outbound jump request.
func BuildMoveCursor(filePath string, row, column int) string {
	return build(TagMoveCursor, filePath, strconv.Itoa(row), strconv.Itoa(column))
}

// BuildSetActiveToken encodes a location-activation message as the IDE would.
func BuildSetActiveToken(filePath string, row, column int) string {
	return build(TagSetActiveToken, filePath, strconv.Itoa(row), strconv.Itoa(column))
}

// BuildCreateProject encodes a project-import message as the IDE would.
func BuildCreateProject(solutionPath string, ide IDEKind) string {
	return build(TagCreateProject, solutionPath, ide.String())
}

func build(tag string, fields ...string) string {
	var b strings.Builder
	b.WriteString(tag)
	for _, f := range fields {
		b.WriteString(Divider)
		b.WriteString(f)
	}
	b.WriteString(EndOfMessage)
	return b.String()
}
