// Package ide is the protocol core of the bridge. A Controller routes inbound
// wire messages from the IDE to the location-activation and project-import
// handlers, and encodes outbound jump requests for the IDE.
//
// The controller keeps no state between messages. Every collaborator (index
// store, solution parsers, transport, event publisher, logger) is injected, and
// their concurrency guarantees are the controller's.
package ide

import (
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/corey/idebridge/internal/domain/protocol"
	"github.com/corey/idebridge/internal/ports"
)

// Status texts published to the UI.
const (
	StatusActivateSucceeded = "Activating a source location from external succeeded."
	StatusActivateFailed    = "Activating a source location from external failed. No symbol(s) have been found at the selected location."
	statusJumpFormat        = "Jumping the external tool to the following location: %s, row: %d, col: %d"
)

// ErrUnsupportedIDE is logged when a project-import request names an IDE
// for which no solution parser is registered.
var ErrUnsupportedIDE = errors.New("ide: unsupported solution format")

// ErrNoTransport is returned by MoveCursor when the controller has no
// outbound transport.
var ErrNoTransport = errors.New("ide: no transport configured")

// MoveCursorRequest asks the IDE to jump to a file position.
type MoveCursorRequest struct {
	FilePath string `json:"file"`
	Row      int    `json:"row"`
	Column   int    `json:"column"`
}

// Config holds the collaborators of a Controller. Only Store is required for
// location activation and Transport for MoveCursor; everything else has a
// harmless default.
type Config struct {
	Store     ports.LocationStore
	Solutions map[protocol.IDEKind]ports.SolutionParser
	Transport ports.Transport
	Events    ports.Publisher
	Logger    *slog.Logger
}

// Controller is the IDE communication façade.
type Controller struct {
	store     ports.LocationStore
	solutions map[protocol.IDEKind]ports.SolutionParser
	transport ports.Transport
	events    ports.Publisher
	log       *slog.Logger
}

// New creates a Controller from cfg.
func New(cfg Config) *Controller {
	c := &Controller{
		store:     cfg.Store,
		solutions: cfg.Solutions,
		transport: cfg.Transport,
		events:    cfg.Events,
		log:       cfg.Logger,
	}
	if c.events == nil {
		c.events = ports.PublisherFunc(func(ports.Event) {})
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	return c
}

// HandleIncomingMessage classifies a raw wire message and runs the matching
// handler. Nothing is returned: the outcome is an event, a log record, or
// nothing at all.
func (c *Controller) HandleIncomingMessage(message string) {
	switch protocol.Classify(message) {
	case protocol.SetActiveToken:
		c.handleSetActiveToken(protocol.ParseSetActiveToken(message))
	case protocol.CreateProject:
		c.handleCreateProject(protocol.ParseCreateProject(message))
	default:
		c.log.Error("invalid message type", "error", protocol.ErrProtocol, "message", clip(message, 120))
	}
}

// handleSetActiveToken resolves the cursor to token locations and asks the UI
// to activate them. Invalid requests are dropped silently.
func (c *Controller) handleSetActiveToken(msg protocol.ParsedSetActiveToken) {
	if !msg.Valid {
		return
	}
	if c.store == nil {
		c.log.Error("location store unavailable", "file", msg.FileLocation)
		return
	}

	file, err := c.store.LocationsForLines(msg.FileLocation, msg.Row, msg.Row)
	if err != nil {
		c.log.Error("token location query failed", "file", msg.FileLocation, "row", msg.Row, "error", err)
		return
	}

	ids := SelectLocationIDs(file, msg.Column)
	if len(ids) == 0 {
		c.events.Publish(ports.StatusEvent{Text: StatusActivateFailed, Error: true})
		return
	}

	c.events.Publish(ports.StatusEvent{Text: StatusActivateSucceeded})
	c.events.Publish(ports.ActivateTokenLocationsEvent{LocationIDs: ids})
	c.events.Publish(ports.ActivateWindowEvent{})
}

// handleCreateProject imports the solution named by the IDE and asks for a
// new project. Invalid requests are dropped silently.
func (c *Controller) handleCreateProject(msg protocol.ParsedCreateProject) {
	if !msg.Valid {
		return
	}

	parser, ok := c.solutions[msg.IDE]
	if msg.IDE == protocol.IDEUnknown || !ok || parser == nil {
		c.log.Error("unable to parse provided solution, unknown format",
			"error", ErrUnsupportedIDE, "ide", msg.IDEID, "solution", msg.SolutionFileLocation)
		return
	}

	sln, err := parser.OpenSolution(msg.SolutionFileLocation)
	if err != nil {
		c.log.Error("solution import failed", "solution", msg.SolutionFileLocation, "error", err)
		return
	}

	c.events.Publish(ports.NewProjectEvent{
		Name:         sln.Name,
		RootPath:     sln.RootPath,
		ProjectItems: sln.ProjectItems,
		IncludePaths: sln.IncludePaths,
	})
}

// MoveCursor tells the IDE to jump to req's position. The returned error is
// the transport's; encoding cannot fail.
func (c *Controller) MoveCursor(req MoveCursorRequest) error {
	message := protocol.BuildMoveCursor(req.FilePath, req.Row, req.Column)

	c.events.Publish(ports.StatusEvent{
		Text: fmt.Sprintf(statusJumpFormat, req.FilePath, req.Row, req.Column),
	})

	if c.transport == nil {
		return ErrNoTransport
	}
	if err := c.transport.Send(message); err != nil {
		return fmt.Errorf("send move cursor: %w", err)
	}
	return nil
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
