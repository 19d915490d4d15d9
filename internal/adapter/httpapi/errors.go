package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"nimli/internal/usecase"
)

type errorBody struct {
	Kind      string `json:"kind"`
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

var kindStatus = map[usecase.Kind]int{
	usecase.KindValidationFailed:        http.StatusBadRequest,
	usecase.KindInvalidPhoneNumber:      http.StatusBadRequest,
	usecase.KindInvalidVerificationCode: http.StatusBadRequest,
	usecase.KindVerificationCodeExpired: http.StatusBadRequest,
	usecase.KindUnauthorized:            http.StatusUnauthorized,
	usecase.KindNotFound:                http.StatusNotFound,
	usecase.KindCreatorNotFound:         http.StatusNotFound,
	usecase.KindDuplicateApplication:    http.StatusConflict,
	usecase.KindDuplicateRequest:        http.StatusConflict,
	usecase.KindResendCooldown:          http.StatusTooManyRequests,
	usecase.KindQuotaExceeded:           http.StatusTooManyRequests,
	usecase.KindBusinessLogic:           http.StatusUnprocessableEntity,
	usecase.KindNetwork:                 http.StatusServiceUnavailable,
	usecase.KindUnknown:                 http.StatusInternalServerError,
}

// statusFor derives the HTTP status from the error kind. Repository
// failures split on retryability.
func statusFor(e *usecase.Error) int {
	if e.Kind == usecase.KindRepository {
		if e.IsRetryable() {
			return http.StatusServiceUnavailable
		}
		return http.StatusBadGateway
	}
	if s, ok := kindStatus[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// asUseCaseError turns anything a handler saw into a use-case error.
// Binding failures are validation failures.
func asUseCaseError(err error) *usecase.Error {
	var ue *usecase.Error
	if errors.As(err, &ue) {
		return ue
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return &usecase.Error{Kind: usecase.KindValidationFailed, Message: ve.Error(), Cause: err}
	}
	return &usecase.Error{Kind: usecase.KindUnknown, Cause: err}
}

func bodyFor(e *usecase.Error) errorBody {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	return errorBody{Kind: e.Kind.String(), Code: e.Code(), Message: msg, Retryable: e.IsRetryable()}
}

func fail(c *gin.Context, err error) {
	e := asUseCaseError(err)
	c.JSON(statusFor(e), gin.H{"error": bodyFor(e)})
}

func abort(c *gin.Context, err error) {
	e := asUseCaseError(err)
	c.AbortWithStatusJSON(statusFor(e), gin.H{"error": bodyFor(e)})
}

func badRequest(c *gin.Context, msg string, cause error) {
	fail(c, &usecase.Error{Kind: usecase.KindValidationFailed, Message: msg, Cause: cause})
}
