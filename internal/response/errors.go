package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrNotAuthenticated   ErrCode = "NOT_AUTHENTICATED"
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrRoleNotAllowed ErrCode = "ROLE_NOT_ALLOWED"
	ErrForbidden      ErrCode = "FORBIDDEN"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"
	ErrBadSchedule    ErrCode = "BAD_SCHEDULE_WINDOW"
	ErrFileRequired   ErrCode = "FILE_REQUIRED"

	// ─── Attempt lifecycle ─────────────────────────────────────────────
	ErrQuizExpired        ErrCode = "QUIZ_EXPIRED"
	ErrNoQuizSelected     ErrCode = "NO_QUIZ_SELECTED"
	ErrAttemptNotFound    ErrCode = "ATTEMPT_NOT_FOUND"
	ErrAttemptFinished    ErrCode = "ATTEMPT_FINISHED"
	ErrSubmissionInFlight ErrCode = "SUBMISSION_IN_FLIGHT"
	ErrUnknownQuestion    ErrCode = "UNKNOWN_QUESTION"

	// ─── Upstream ──────────────────────────────────────────────────────
	ErrUpstream         ErrCode = "UPSTREAM_ERROR"
	ErrUpstreamRejected ErrCode = "UPSTREAM_REJECTED"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrNotAuthenticated:
		return "You are not logged in. Please log in to continue."
	case ErrInvalidCredentials:
		return "User ID or password is incorrect."
	case ErrSessionInvalidated:
		return "Your session has ended. Please log in again."
	case ErrTokenInvalid:
		return "Authentication token is invalid."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrRoleNotAllowed:
		return "Your role does not permit access to this view."
	case ErrForbidden:
		return "You do not have permission to access this resource."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."
	case ErrBadSchedule:
		return "The schedule window is malformed: start must be in the future and end after start."
	case ErrFileRequired:
		return "A question source file is required."

	// ─── Attempt lifecycle ─────────────────────────────────────────────
	case ErrQuizExpired:
		return "The quiz has ended and can no longer be attempted."
	case ErrNoQuizSelected:
		return "No quiz is selected. Pick a quiz from the dashboard first."
	case ErrAttemptNotFound:
		return "No such attempt is in progress."
	case ErrAttemptFinished:
		return "This attempt is already finished."
	case ErrSubmissionInFlight:
		return "A submission is already in progress."
	case ErrUnknownQuestion:
		return "The question does not belong to this attempt."

	// ─── Upstream ──────────────────────────────────────────────────────
	case ErrUpstream:
		return "The quiz service is unreachable. Please try again."
	case ErrUpstreamRejected:
		return "The quiz service rejected the request."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
