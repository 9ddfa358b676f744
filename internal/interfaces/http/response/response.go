package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainerrors "chat-ledger.backend/internal/domain/errors"
)

// Success sends a success response
func Success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// Error sends an error response. Domain sentinels are mapped to their HTTP form.
func Error(c *gin.Context, err error) {
	appErr := FromError(err)
	c.JSON(appErr.Status, gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
	})
}

// Abort sends an error response and stops the handler chain
func Abort(c *gin.Context, err error) {
	appErr := FromError(err)
	c.AbortWithStatusJSON(appErr.Status, gin.H{
		"code":    appErr.Code,
		"message": appErr.Message,
	})
}

// FromError maps err onto an AppError. Anything unrecognized is an internal error.
func FromError(err error) *domainerrors.AppError {
	var appErr *domainerrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case domainerrors.IsAuthFailure(err):
		return domainerrors.AuthenticationFailed(err)
	case errors.Is(err, domainerrors.ErrTokenExpired):
		return domainerrors.NewAppError(http.StatusUnauthorized, domainerrors.CodeTokenExpired, "token has expired", err)
	case errors.Is(err, domainerrors.ErrTokenInvalid):
		return domainerrors.NewAppError(http.StatusUnauthorized, domainerrors.CodeTokenInvalid, "invalid token", err)
	case errors.Is(err, domainerrors.ErrUnauthorized):
		return domainerrors.Unauthorized(err.Error())

	case errors.Is(err, domainerrors.ErrMalformedAddress),
		errors.Is(err, domainerrors.ErrInvalidInput),
		errors.Is(err, domainerrors.ErrBadRequest):
		return domainerrors.NewAppError(http.StatusBadRequest, domainerrors.CodeBadRequest, err.Error(), err)
	case errors.Is(err, domainerrors.ErrTitleTooLong),
		errors.Is(err, domainerrors.ErrInvalidRole),
		errors.Is(err, domainerrors.ErrEmptyMessage),
		errors.Is(err, domainerrors.ErrUnknownMessageID),
		errors.Is(err, domainerrors.ErrNothingToMint):
		return domainerrors.Validation(err.Error(), err)
	case errors.Is(err, domainerrors.ErrWalletMismatch):
		return domainerrors.NewAppError(http.StatusForbidden, domainerrors.CodeForbidden, err.Error(), err)

	case errors.Is(err, domainerrors.ErrConversationNotFound),
		errors.Is(err, domainerrors.ErrMintNotFound),
		errors.Is(err, domainerrors.ErrSnapshotNotFound),
		errors.Is(err, domainerrors.ErrNotFound):
		return domainerrors.NewAppError(http.StatusNotFound, domainerrors.CodeNotFound, notFoundMessage(err), err)
	case errors.Is(err, domainerrors.ErrAlreadyMinted),
		errors.Is(err, domainerrors.ErrPinInUse):
		return domainerrors.Conflict(err.Error(), err)
	case errors.Is(err, domainerrors.ErrRateLimited):
		return domainerrors.TooManyRequests(err.Error())
	case errors.Is(err, domainerrors.ErrMintFailed):
		return domainerrors.BadGateway("minting failed", err)
	}
	return domainerrors.InternalError(err)
}

func notFoundMessage(err error) string {
	for _, sentinel := range []error{
		domainerrors.ErrConversationNotFound,
		domainerrors.ErrMintNotFound,
		domainerrors.ErrSnapshotNotFound,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return domainerrors.ErrNotFound.Error()
}
