package response

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Injamhossan/contest-arena/internal/domain"
	"github.com/Injamhossan/contest-arena/internal/pkg/processor"
)

// Err is the body of every error response.
type Err struct {
	Err            error `json:"-"`
	HTTPStatusCode int   `json:"-"`

	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Err) Error() string {
	return e.Message
}

func RenderErr(ctx *gin.Context, e *Err) {
	if e.HTTPStatusCode >= http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("request_id", requestid.Get(ctx)),
			zap.String("path", ctx.FullPath()),
			zap.Error(e.Err))
	}

	ctx.AbortWithStatusJSON(e.HTTPStatusCode, e)
}

func newErr(status int, code string, err error) *Err {
	return &Err{
		Err:            err,
		HTTPStatusCode: status,
		Code:           code,
		Message:        err.Error(),
	}
}

func ErrBadRequest(err error) *Err {
	return newErr(http.StatusBadRequest, domain.CodeBadRequest, err)
}

func ErrUnauthorized(err error) *Err {
	return newErr(http.StatusUnauthorized, domain.CodeUnauthorized, err)
}

func ErrWrongCredentials(err error) *Err {
	e := newErr(http.StatusUnauthorized, domain.CodeUnauthorized, err)
	e.Message = "wrong email or password"

	return e
}

func ErrPermissionDenied(err error) *Err {
	return newErr(http.StatusForbidden, domain.CodeForbidden, err)
}

func ErrNotFound(err error) *Err {
	return newErr(http.StatusNotFound, domain.CodeNotFound, err)
}

func ErrInternalServerError(err error) *Err {
	e := newErr(http.StatusInternalServerError, domain.CodeInternal, err)
	e.Message = http.StatusText(http.StatusInternalServerError)

	return e
}

var statusByCode = map[string]int{
	domain.CodeForbidden:             http.StatusForbidden,
	domain.CodeUnauthorized:          http.StatusUnauthorized,
	domain.CodeNotFound:              http.StatusNotFound,
	domain.CodeBadRequest:            http.StatusBadRequest,
	domain.CodePaymentRequired:       http.StatusPaymentRequired,
	domain.CodePaymentFailed:         http.StatusPaymentRequired,
	domain.CodeContestClosed:         http.StatusConflict,
	domain.CodeContestFull:           http.StatusConflict,
	domain.CodeAlreadyRegistered:     http.StatusConflict,
	domain.CodeNotAParticipant:       http.StatusUnprocessableEntity,
	domain.CodeWinnerAlreadyDeclared: http.StatusConflict,
	domain.CodeSubmissionClosed:      http.StatusConflict,
	domain.CodeDeadlineNotReached:    http.StatusConflict,
	domain.CodeInvalidTransition:     http.StatusConflict,
	domain.CodeRoleAlreadyChosen:     http.StatusConflict,
	domain.CodeEmailExists:           http.StatusConflict,
}

// FromError maps a service error to its response. Errors outside the
// business taxonomy become a 500 and are logged by RenderErr.
func FromError(err error) *Err {
	if code := domain.ErrorCode(err); code != "" {
		return newErr(statusByCode[code], code, err)
	}
	if errors.Is(err, processor.ErrUnavailable) {
		e := newErr(http.StatusServiceUnavailable, domain.CodeUnavailable, err)
		e.Message = "payment processor unavailable, try again later"

		return e
	}

	return ErrInternalServerError(err)
}
