package driven

// ConfigStore holds flat dotted configuration keys such as
// "revision.max_iterations". Settings are read once through
// services.SettingsService; nothing else touches the store.
type ConfigStore interface {
	// Get returns the raw value and whether the key is set.
	Get(key string) (any, bool)

	// GetString returns "" when the key is missing or not a string.
	GetString(key string) string

	// GetInt returns 0 when the key is missing or not a whole number.
	GetInt(key string) int

	// Set stores a value and persists it immediately.
	Set(key string, value any) error

	// Delete removes a key and persists the change. Missing keys are ignored.
	Delete(key string) error

	Save() error
	Load() error

	// Path is where the configuration lives.
	Path() string
}
