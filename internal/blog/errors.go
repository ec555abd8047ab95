package blog

import "errors"

// Write-pipeline error taxonomy. Each sentinel is one failure kind with one
// user-facing message; callers wrap them with detail via fmt.Errorf("%w: ...")
// and match with errors.Is.
var (
	// ErrValidation means the input shape is bad. Recoverable: the caller
	// corrects the input and retries the whole attempt.
	ErrValidation = errors.New("invalid input")

	// ErrUnauthorized means no verifiable caller identity was presented.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUpload means the byte transfer to the blob store failed. An
	// orphaned blob may exist; it is not cleaned up here.
	ErrUpload = errors.New("image upload failed")

	// ErrCapabilityExpired means an upload capability timed out or was
	// already consumed. The caller restarts from capability acquisition.
	ErrCapabilityExpired = errors.New("upload capability expired")

	// ErrCommitConflict means the record store rejected the commit.
	ErrCommitConflict = errors.New("record commit conflict")

	// ErrNotFound means the referenced record does not exist.
	ErrNotFound = errors.New("not found")
)

// UserMessage maps an error to the single human-readable message shown to
// end users. Unknown errors collapse to a generic message so internals never
// leak through the UI.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "Invalid data!"
	case errors.Is(err, ErrUnauthorized):
		return "Unauthorized!"
	case errors.Is(err, ErrUpload):
		return "Failed to upload image"
	case errors.Is(err, ErrCapabilityExpired):
		return "Upload expired, please try again"
	case errors.Is(err, ErrCommitConflict):
		return "Failed to create Blog Post"
	case errors.Is(err, ErrNotFound):
		return "Not found"
	default:
		return "Something went wrong"
	}
}
