package dataset

import (
	"fmt"

	"github.com/zeusync/dataobjects/internal/core/models"
)

// Buffer errors
var (
	ErrStride           = fmt.Errorf("%w: stride smaller than the element size", models.ErrValidation)
	ErrExternalTooShort = fmt.Errorf("%w: external buffer shorter than the declared layout", models.ErrValidation)
	ErrIndexRange       = fmt.Errorf("%w: element index outside the buffer", models.ErrValidation)
	ErrNotRemote        = fmt.Errorf("%w: buffer has no readable input source", models.ErrValidation)
	ErrNilSource        = fmt.Errorf("%w: nil source", models.ErrValidation)
	ErrNilRegistry      = fmt.Errorf("%w: nil registry", models.ErrValidation)
)
