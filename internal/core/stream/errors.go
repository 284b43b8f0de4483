package stream

import (
	"fmt"

	"github.com/zeusync/dataobjects/internal/core/models"
)

// Read request errors
var (
	ErrNoData              = fmt.Errorf("%w: source has no data", models.ErrValidation)
	ErrOutOfRange          = fmt.Errorf("%w: start index outside the source range", models.ErrValidation)
	ErrUnregistered        = fmt.Errorf("%w: stream is not registered", models.ErrValidation)
	ErrDestinationNotFound = fmt.Errorf("destination %w", models.ErrNotFound)
	ErrNotWritable         = fmt.Errorf("%w: destination is not writable", models.ErrValidation)
	ErrCapacity            = fmt.Errorf("%w: destination capacity too small", models.ErrValidation)
	ErrTypeMismatch        = fmt.Errorf("%w: element type mismatch", models.ErrValidation)
	ErrNotReadable         = fmt.Errorf("%w: source is not readable", models.ErrValidation)
)
