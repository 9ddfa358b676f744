package errors

import (
	"errors"
	"net/http"
)

// Domain errors
var (
	ErrNotFound      = errors.New("resource not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrBadRequest    = errors.New("bad request")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrInternal      = errors.New("internal error")
	ErrRateLimited   = errors.New("too many requests")
	ErrAlreadyExists = errors.New("resource already exists")

	// Wallet authentication
	ErrMalformedAddress = errors.New("malformed wallet address")
	ErrNonceNotFound    = errors.New("nonce not found or already used")
	ErrMessageMismatch  = errors.New("signed message does not match issued challenge")
	ErrSignatureInvalid = errors.New("signature verification failed")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenInvalid     = errors.New("invalid token")
	ErrWalletMismatch   = errors.New("claimed wallet does not match authenticated wallet")

	// Conversations and mints
	ErrConversationNotFound = errors.New("conversation not found")
	ErrUnknownMessageID     = errors.New("unknown message id")
	ErrAlreadyMinted        = errors.New("conversation already minted")
	ErrNothingToMint        = errors.New("no unminted messages to mint")
	ErrMintNotFound         = errors.New("mint record not found")
	ErrMintFailed           = errors.New("on-chain mint failed")
	ErrTitleTooLong         = errors.New("title exceeds 120 characters")
	ErrInvalidRole          = errors.New("invalid message role")
	ErrEmptyMessage         = errors.New("message content is empty")

	// Storage
	ErrSnapshotNotFound   = errors.New("snapshot not found")
	ErrStorageUnavailable = errors.New("storage backend unavailable")
	ErrRemoteQueryFailure = errors.New("remote query failed")
	ErrInvalidSnapshot    = errors.New("invalid snapshot document")
	ErrPinInUse           = errors.New("snapshot holds the current state of its entity")
)

// Error codes surfaced to API clients
const (
	CodeBadRequest           = "BAD_REQUEST"
	CodeValidation           = "VALIDATION_ERROR"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeAuthenticationFailed = "AUTHENTICATION_FAILED"
	CodeTokenExpired         = "TOKEN_EXPIRED"
	CodeTokenInvalid         = "TOKEN_INVALID"
	CodeForbidden            = "FORBIDDEN"
	CodeNotFound             = "NOT_FOUND"
	CodeConflict             = "CONFLICT"
	CodeRateLimited          = "RATE_LIMITED"
	CodeUpstream             = "UPSTREAM_ERROR"
	CodeInternal             = "INTERNAL_ERROR"
)

// AppError represents application error with HTTP status
type AppError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new app error
func NewAppError(status int, code, message string, err error) *AppError {
	return &AppError{
		Status:  status,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func NotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, CodeNotFound, message, ErrNotFound)
}

func BadRequest(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeBadRequest, message, ErrInvalidInput)
}

func Validation(message string, err error) *AppError {
	return NewAppError(http.StatusUnprocessableEntity, CodeValidation, message, err)
}

func Unauthorized(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeUnauthorized, message, ErrUnauthorized)
}

// AuthenticationFailed hides which verification step failed.
func AuthenticationFailed(err error) *AppError {
	return NewAppError(http.StatusUnauthorized, CodeAuthenticationFailed, "wallet authentication failed", err)
}

func Forbidden(message string) *AppError {
	return NewAppError(http.StatusForbidden, CodeForbidden, message, ErrForbidden)
}

func Conflict(message string, err error) *AppError {
	return NewAppError(http.StatusConflict, CodeConflict, message, err)
}

func TooManyRequests(message string) *AppError {
	return NewAppError(http.StatusTooManyRequests, CodeRateLimited, message, ErrRateLimited)
}

func BadGateway(message string, err error) *AppError {
	return NewAppError(http.StatusBadGateway, CodeUpstream, message, err)
}

func InternalError(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, CodeInternal, "internal server error", err)
}

// IsAuthFailure reports whether err comes from the nonce/signature protocol.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrNonceNotFound) ||
		errors.Is(err, ErrMessageMismatch) ||
		errors.Is(err, ErrSignatureInvalid)
}
