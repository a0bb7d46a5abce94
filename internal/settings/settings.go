// Package settings defines the narrow read-only view of user
// preferences that the capture components consume. The daemon injects a
// *viper.Viper, which satisfies Settings as-is; tests inject a Static
// map.
package settings

// Recognized option keys. show-preview and confirm-clear only influence
// the presentation layer; paste-on-select is recognized but consumed by
// no component (see DESIGN.md).
const (
	KeyHistorySize    = "history-size"
	KeyUsePrimary     = "use-primary-selection"
	KeySyncSelections = "sync-selections"
	KeySaveImages     = "save-images"
	KeySaveFiles      = "save-files"
	KeyKeepContent    = "keep-content"
	KeyShowPreview    = "show-preview"
	KeyConfirmClear   = "confirm-clear"
	KeyPasteOnSelect  = "paste-on-select"
	KeyExcludePattern = "exclude-pattern"
)

// Settings is a read-only snapshot of configuration. Implementations
// must be safe for use from the event loop; they are never written
// through.
type Settings interface {
	GetBool(key string) bool
	GetInt(key string) int
	GetString(key string) string
}

// Static is a fixed Settings backed by a map, for tests and defaults.
type Static map[string]any

func (s Static) GetBool(key string) bool {
	v, _ := s[key].(bool)
	return v
}

func (s Static) GetInt(key string) int {
	v, _ := s[key].(int)
	return v
}

func (s Static) GetString(key string) string {
	v, _ := s[key].(string)
	return v
}
