package ports

// EventKind names an internal event. The values double as NATS subject
// suffixes, so they stay lowercase and dot-free.
type EventKind string

const (
	EventStatus                 EventKind = "status"
	EventActivateTokenLocations EventKind = "activate_token_locations"
	EventActivateWindow         EventKind = "activate_window"
	EventNewProject             EventKind = "new_project"
)

// Event is one of the internal events the bridge emits.
type Event interface {
	Kind() EventKind
}

// Publisher emits events to whoever is listening. Publish is fire-and-forget:
// it must not block on, or report the outcome of, subscribers. Events issued
// by one caller are delivered in issue order.
type Publisher interface {
	Publish(ev Event)
}

// StatusEvent is human-readable progress/result narration.
type StatusEvent struct {
	Text  string `json:"text"`
	Error bool   `json:"error,omitempty"`
}

// ActivateTokenLocationsEvent asks the UI to highlight the given occurrences.
type ActivateTokenLocationsEvent struct {
	LocationIDs []uint64 `json:"location_ids"`
}

// ActivateWindowEvent asks the UI to come to the foreground.
type ActivateWindowEvent struct{}

// NewProjectEvent asks for a new project configuration to be materialized.
type NewProjectEvent struct {
	Name         string   `json:"name"`
	RootPath     string   `json:"root_path"`
	ProjectItems []string `json:"project_items"`
	IncludePaths []string `json:"include_paths"`
}

func (StatusEvent) Kind() EventKind                 { return EventStatus }
func (ActivateTokenLocationsEvent) Kind() EventKind { return EventActivateTokenLocations }
func (ActivateWindowEvent) Kind() EventKind         { return EventActivateWindow }
func (NewProjectEvent) Kind() EventKind             { return EventNewProject }

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(ev Event)

// Publish calls f(ev).
func (f PublisherFunc) Publish(ev Event) { f(ev) }

// MultiPublisher fans an event out to several publishers in order.
type MultiPublisher []Publisher

// Publish forwards ev to every non-nil publisher.
func (m MultiPublisher) Publish(ev Event) {
	for _, p := range m {
		if p != nil {
			p.Publish(ev)
		}
	}
}
