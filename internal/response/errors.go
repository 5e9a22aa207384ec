package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"
	ErrTokenExpired  ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden          ErrCode = "FORBIDDEN"
	ErrNotExamInstructor  ErrCode = "NOT_EXAM_INSTRUCTOR"
	ErrStudentAccessOnly  ErrCode = "STUDENT_ACCESS_ONLY"
	ErrLecturerAccessOnly ErrCode = "LECTURER_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation ErrCode = "VALIDATION_ERROR"
	ErrInvalidID  ErrCode = "INVALID_ID"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"

	// ─── Exam lifecycle ────────────────────────────────────────────────
	ErrInvalidState     ErrCode = "INVALID_STATE"
	ErrExamNotAvailable ErrCode = "EXAM_NOT_AVAILABLE"
	ErrAttemptLimit     ErrCode = "ATTEMPT_LIMIT_REACHED"
	ErrAlreadySubmitted ErrCode = "ALREADY_SUBMITTED"
	ErrInvalidScore     ErrCode = "INVALID_SCORE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrTokenExpired:
		return "The authentication token has expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrNotExamInstructor:
		return "Only the exam's instructor can perform this action."
	case ErrStudentAccessOnly:
		return "This resource is restricted to students."
	case ErrLecturerAccessOnly:
		return "This resource is restricted to lecturers."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "The submitted data is invalid."
	case ErrInvalidID:
		return "The identifier is not a valid UUID."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "The requested resource was not found."

	// ─── Exam lifecycle ────────────────────────────────────────────────
	case ErrInvalidState:
		return "The operation is not allowed in the current state."
	case ErrExamNotAvailable:
		return "The exam is not open for attempts."
	case ErrAttemptLimit:
		return "No attempts remain for this exam."
	case ErrAlreadySubmitted:
		return "This response has already been submitted."
	case ErrInvalidScore:
		return "The score is outside the question's point range."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Slow down and try again."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	}
	return "An unknown error occurred."
}
