package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/huangang/gymdesk/internal/metrics"
	"github.com/huangang/gymdesk/internal/services"
	"github.com/huangang/gymdesk/pkg/logger"
	"github.com/huangang/gymdesk/pkg/response"
)

// toAppError maps a workflow failure to an HTTP error. The reason field
// carries the error kind so clients can branch without parsing messages.
func toAppError(err error) *response.AppError {
	var authErr *services.AuthError
	if errors.As(err, &authErr) {
		msg := authErr.Error()
		var appErr *response.AppError
		switch authErr.Kind {
		case services.AuthAlreadyRegistered:
			appErr = response.NewConflict(msg)
		case services.AuthInvalidCredential:
			appErr = response.NewUnauthorized(msg)
		case services.AuthWeakSecret:
			appErr = response.NewBadRequest(msg)
		case services.AuthNetworkUnavailable:
			appErr = response.NewServiceUnavailable(msg)
		case services.AuthRateLimited:
			appErr = response.NewTooManyRequests(msg)
		default:
			appErr = response.NewBadGateway(msg)
		}
		return appErr.WithReason(string(authErr.Kind))
	}

	kind := services.KindOf(err)
	var appErr *response.AppError
	switch kind {
	case services.KindValidation:
		appErr = response.NewBadRequest(err.Error())
	case services.KindDuplicate:
		appErr = response.NewConflict(err.Error())
	case services.KindNotFound:
		appErr = response.NewNotFound(err.Error())
	case services.KindEmptyTarget:
		appErr = response.NewUnprocessable(err.Error())
	case services.KindConnectivity:
		appErr = response.NewServiceUnavailable(err.Error())
	default:
		appErr = response.NewServerError(err.Error())
	}
	return appErr.WithReason(kind.String())
}

func writeError(c *gin.Context, err error) {
	appErr := toAppError(err)
	metrics.WorkflowErrors.WithLabelValues(appErr.Reason).Inc()
	if appErr.HTTPStatus >= 500 {
		logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	response.Error(c, appErr)
}

// bindJSON decodes the body and runs the request's binding tags. Malformed
// JSON and failed constraints are both validation errors.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		writeError(c, services.InvalidInput(err))
		return false
	}
	return true
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		response.BadRequest(c, "invalid id")
		return 0, false
	}
	return uint(id), true
}
