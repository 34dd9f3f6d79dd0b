package optimize

import "errors"

var (
	ErrMissingResume         = errors.New("resume is required")
	ErrMissingJobDescription = errors.New("job description is required")
	ErrInvalidMode           = errors.New("invalid mode")
	ErrMalformedResume       = errors.New("resume could not be read")
	ErrFetch                 = errors.New("could not read URL")
	ErrQuotaExceeded         = errors.New("generation quota exceeded")
	ErrGeneration            = errors.New("generation failed")
	ErrRender                = errors.New("document could not be written")
)
