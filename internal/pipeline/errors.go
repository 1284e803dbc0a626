package pipeline

import "fmt"

// Reason classifies a hard load failure.
type Reason int

const (
	ReasonDefinition Reason = iota
	ReasonDefaultMap
	ReasonProvinceHistory
	ReasonCountryHistory
	ReasonCultures
	ReasonBookmarks
)

func (r Reason) String() string {
	switch r {
	case ReasonDefinition:
		return "definition"
	case ReasonDefaultMap:
		return "default map"
	case ReasonProvinceHistory:
		return "province history"
	case ReasonCountryHistory:
		return "country history"
	case ReasonCultures:
		return "cultures"
	case ReasonBookmarks:
		return "bookmarks"
	default:
		return "unknown"
	}
}

// LoadError reports the stage that halted a load. No partial state is
// returned alongside it.
type LoadError struct {
	Reason Reason
	Path   string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("load %s (%s): %v", e.Reason, e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func fail(reason Reason, path string, err error) error {
	return &LoadError{Reason: reason, Path: path, Err: err}
}
