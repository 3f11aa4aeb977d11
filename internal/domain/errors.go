package domain

import "errors"

// Kind groups domain errors by how the transport layer must report them.
type Kind string

const (
	KindValidation         Kind = "validation"
	KindConflict           Kind = "conflict"
	KindUnauthenticated    Kind = "unauthenticated"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindInvalidToken       Kind = "invalid_token"
	KindForbidden          Kind = "forbidden"
	KindNotFound           Kind = "not_found"
	KindExpired            Kind = "expired"
	KindInternal           Kind = "internal"
)

// Error is a domain failure with a message that is safe to show callers.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

var (
	ErrMissingFields    = newError(KindValidation, "Please provide all required fields")
	ErrInvalidEmail     = newError(KindValidation, "Please provide a valid email")
	ErrSecretTooShort   = newError(KindValidation, "Password must be at least 7 characters long")
	ErrSecretTooLong    = newError(KindValidation, "Password must be at most 72 bytes long")
	ErrInvalidID        = newError(KindValidation, "Invalid ID")
	ErrInvalidNotebook  = newError(KindValidation, "Invalid notebook ID")
	ErrMissingRecipient = newError(KindValidation, "Recipient email is required")
	ErrShareWithSelf    = newError(KindValidation, "Cannot share a note with yourself")

	ErrEmailTaken    = newError(KindConflict, "Email already exists")
	ErrUsernameTaken = newError(KindConflict, "Username already exists")
	ErrAlreadyShared = newError(KindConflict, "Note is already shared with this user")

	ErrUnauthenticated    = newError(KindUnauthenticated, "Not authorized")
	ErrInvalidCredentials = newError(KindInvalidCredentials, "Invalid credentials")

	ErrRecoveryTokenInvalid = newError(KindInvalidToken, "Invalid token")
	ErrRecoveryTokenExpired = newError(KindExpired, "Token has expired")
	ErrOTPInvalidOrExpired  = newError(KindExpired, "Invalid or expired OTP")

	ErrForbidden = newError(KindForbidden, "Not authorized to access this resource")

	ErrUserNotFound     = newError(KindNotFound, "User not found")
	ErrNotebookNotFound = newError(KindNotFound, "Notebook not found")
	ErrNoteNotFound     = newError(KindNotFound, "Note not found")
	ErrNotShared        = newError(KindNotFound, "Note is not shared with this user")
)
