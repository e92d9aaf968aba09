package response

import "github.com/brightstarts/studyvibe-backend/internal/i18n"

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrAccountBanned      ErrCode = "ACCOUNT_BANNED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden       ErrCode = "FORBIDDEN"
	ErrAdminAccessOnly ErrCode = "ADMIN_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound         ErrCode = "NOT_FOUND"
	ErrConflict         ErrCode = "CONFLICT"
	ErrDependencyExists ErrCode = "DEPENDENCY_EXISTS"
	ErrActionForbidden  ErrCode = "ACTION_FORBIDDEN"

	// ─── Accounts ──────────────────────────────────────────────────────
	ErrUsernameTaken ErrCode = "USERNAME_TAKEN"
	ErrEmailTaken    ErrCode = "EMAIL_TAKEN"

	// ─── Study groups & chat ───────────────────────────────────────────
	ErrGroupFull         ErrCode = "GROUP_FULL"
	ErrAlreadyMember     ErrCode = "ALREADY_MEMBER"
	ErrInvalidInviteCode ErrCode = "INVALID_INVITE_CODE"
	ErrOwnerCannotLeave  ErrCode = "OWNER_CANNOT_LEAVE"
	ErrNotParticipant    ErrCode = "NOT_PARTICIPANT"

	// ─── Quizzes ───────────────────────────────────────────────────────
	ErrNoQuestions ErrCode = "NO_QUESTIONS"

	// ─── Admin console ─────────────────────────────────────────────────
	ErrUnknownTable ErrCode = "UNKNOWN_TABLE"
	ErrEmptyQuery   ErrCode = "EMPTY_QUERY"
	ErrSQL          ErrCode = "SQL_ERROR"

	// ─── Media ─────────────────────────────────────────────────────────
	ErrFileRequired    ErrCode = "FILE_REQUIRED"
	ErrUnsupportedFile ErrCode = "UNSUPPORTED_FILE_TYPE"
	ErrFileTooLarge    ErrCode = "FILE_TOO_LARGE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns the human-readable message for code in lang.
// Codes without a catalog entry get the generic UNKNOWN message.
func GetMessage(code ErrCode, lang i18n.Lang) string {
	key := "errors." + string(code)
	if msg := i18n.T(lang, key, nil); msg != key {
		return msg
	}
	return i18n.T(lang, "errors.UNKNOWN", nil)
}
