package throttle

import "fmt"

// InvalidConfigurationError is returned by quota constructors when given
// a non-positive period or a negative count/burst. Configuration errors
// are always reported synchronously at construction time, never later.
type InvalidConfigurationError struct {
	Field   string
	Message string
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("throttle: invalid %s: %s", e.Field, e.Message)
}
