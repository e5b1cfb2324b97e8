package catalog

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is returned before any request is made when a caller
// passes a sentinel culture, an empty term or an unknown enumeration value.
var ErrInvalidArgument = errors.New("catalog: invalid argument")

func invalidArgument(format string, a ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, a...))
}
