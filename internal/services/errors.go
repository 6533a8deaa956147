package services

import "errors"

// ErrorKind classifies a domain failure so the HTTP layer can map it to a
// status code without string matching.
type ErrorKind int

const (
	KindNotFound ErrorKind = iota + 1
	KindUnauthorized
	KindForbidden
	KindConflict
	KindInvalidState
)

// DomainError is a typed failure returned by the services. The state
// machine checks preconditions and returns one of these instead of
// partially applying a transition.
type DomainError struct {
	Kind    ErrorKind
	Message string
}

func (e *DomainError) Error() string { return e.Message }

var (
	ErrRoomNotFound   = &DomainError{KindNotFound, "room not found"}
	ErrReviewNotFound = &DomainError{KindNotFound, "review not found"}
	ErrUserNotFound   = &DomainError{KindNotFound, "user not found"}
	ErrWardNotFound   = &DomainError{KindNotFound, "ward not found"}

	// ErrInvalidCredentials deliberately does not say whether the email
	// or the password was wrong.
	ErrInvalidCredentials = &DomainError{KindUnauthorized, "invalid email or password"}

	ErrForbidden     = &DomainError{KindForbidden, "not allowed to perform this action"}
	ErrAccountBanned = &DomainError{KindForbidden, "account has been banned"}

	ErrAlreadyApproved  = &DomainError{KindConflict, "room is already approved"}
	ErrAlreadyReviewed  = &DomainError{KindConflict, "user has already reviewed this room"}
	ErrAlreadyReported  = &DomainError{KindConflict, "user has already reported this target"}
	ErrAlreadyFavorited = &DomainError{KindConflict, "room is already in favorites"}
	ErrNotFavorited     = &DomainError{KindConflict, "room is not in favorites"}
	ErrAlreadyBanned    = &DomainError{KindConflict, "user is already banned"}
	ErrEmailTaken       = &DomainError{KindConflict, "email is already registered"}

	ErrRoomDeleted     = &DomainError{KindInvalidState, "room has been deleted"}
	ErrRoomNotApproved = &DomainError{KindInvalidState, "room is not approved"}
	ErrReviewHidden    = &DomainError{KindInvalidState, "review is hidden"}
)

// KindOf returns the kind of a DomainError, or 0 for other errors.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}
