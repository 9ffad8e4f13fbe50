package ports

// Watcher reports changes to individual files (the solution file the IDE
// asked us to import). Only one Watch call should be active at a time.
type Watcher interface {
	// Watch starts monitoring filePath. onChange is called with the absolute
	// path after the file is written, created or replaced. The callback may be
	// invoked from any goroutine. Returns an error if the containing directory
	// doesn't exist or permissions are insufficient.
	Watch(filePath string, onChange func(filePath string)) error

	// Stop ends monitoring and releases all resources. After Stop returns,
	// no further onChange calls will fire. Safe to call multiple times.
	Stop() error
}
