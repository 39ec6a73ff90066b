package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pot-code/learn-gateway/internal/activity"
	"github.com/pot-code/learn-gateway/internal/infrastructure/auth"
	"github.com/pot-code/learn-gateway/internal/infrastructure/validate"
)

// ActivityHandler .
type ActivityHandler struct {
	activityUseCase activity.ActivityUseCase
	jwtUtil         *auth.JWTUtil
	validator       validate.Validator
}

// NewActivityHandler .
func NewActivityHandler(ActivityUseCase activity.ActivityUseCase, JWTUtil *auth.JWTUtil, Validator validate.Validator) *ActivityHandler {
	handler := &ActivityHandler{ActivityUseCase, JWTUtil, Validator}
	return handler
}

// HandleListActivity GET /activity?limit=N
func (ah *ActivityHandler) HandleListActivity(c echo.Context) (err error) {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil {
			return badRequest(c, "Failed to validate params", []*validate.FieldError{
				validate.NewFieldError("limit", "limit must be an integer"),
			})
		}
		if errs := ah.validator.Var("limit", limit, "min=1"); errs != nil {
			return badRequest(c, "Failed to validate params", errs)
		}
	}

	learner := ah.jwtUtil.GetContextLearner(c)
	activities, err := ah.activityUseCase.ListRecent(c.Request().Context(), learner.ID, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, activities)
}
