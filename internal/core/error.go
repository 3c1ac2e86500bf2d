package core

import "errors"

var (
	ErrMissingDirective = errors.New("og:image payload missing")
	ErrFetch            = errors.New("og:image source page unavailable")
	ErrServerNotReady   = errors.New("preview server not ready")
	ErrRunLocked        = errors.New("another og:image capture is running for this output directory")
)
