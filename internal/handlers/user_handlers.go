package handlers

import (
	"net/http"

	"bizmanager/internal/common"
	"bizmanager/internal/services"

	"github.com/labstack/echo/v4"
)

// UserHandlers handles user-related HTTP requests
type UserHandlers struct {
	userService     services.UserService
	businessService services.BusinessService
}

func NewUserHandlers(userService services.UserService, businessService services.BusinessService) *UserHandlers {
	return &UserHandlers{
		userService:     userService,
		businessService: businessService,
	}
}

// Signup registers the authenticated caller.
//
//	@Summary	Sign up the authenticated caller
//	@Tags		users
//	@Accept		json
//	@Produce	json
//	@Param		request	body		services.SignupRequest	true	"Profile"
//	@Success	201		{object}	services.SignupResponse
//	@Success	200		{object}	services.SignupResponse	"Already registered"
//	@Failure	400		{object}	common.ErrorResponse
//	@Router		/v1/users/signup [post]
func (h *UserHandlers) Signup(c echo.Context) error {
	ctx := c.Request().Context()
	ref, ok := common.GetIdentityRefFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	var req services.SignupRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request body")
	}

	resp, created, err := h.userService.Signup(ctx, ref, req)
	if err != nil {
		return common.SendError(c, err)
	}
	if created {
		return c.JSON(http.StatusCreated, resp)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetUser
//
//	@Summary	Get a user
//	@Tags		users
//	@Produce	json
//	@Param		id	path		string	true	"User UUID"
//	@Success	200	{object}	services.UserResponse
//	@Failure	404	{object}	common.ErrorResponse
//	@Router		/v1/users/{id} [get]
func (h *UserHandlers) GetUser(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "user_uuid")
	if err != nil {
		return common.SendError(c, err)
	}
	resp, err := h.userService.GetUser(c.Request().Context(), id)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// UpdateDemographics changes a user's name and/or email. An email change is
// also applied at the identity provider.
//
//	@Summary	Update user demographics
//	@Tags		users
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string								true	"User UUID"
//	@Param		request	body		services.UpdateDemographicsRequest	true	"Changes"
//	@Success	200		{object}	services.DemographicsResponse
//	@Failure	400		{object}	common.ErrorResponse
//	@Failure	404		{object}	common.ErrorResponse
//	@Failure	502		{object}	common.ErrorResponse
//	@Failure	500		{object}	common.ErrorResponse
//	@Router		/v1/users/{id} [patch]
func (h *UserHandlers) UpdateDemographics(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "user_uuid")
	if err != nil {
		return common.SendError(c, err)
	}
	var req services.UpdateDemographicsRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request body")
	}

	resp, err := h.userService.UpdateDemographics(c.Request().Context(), id, req)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// DeleteUser soft-deletes a user.
//
//	@Summary	Delete a user
//	@Tags		users
//	@Param		id	path	string	true	"User UUID"
//	@Success	204
//	@Failure	404	{object}	common.ErrorResponse
//	@Router		/v1/users/{id} [delete]
func (h *UserHandlers) DeleteUser(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "user_uuid")
	if err != nil {
		return common.SendError(c, err)
	}
	if err := h.userService.MarkDeleted(c.Request().Context(), id); err != nil {
		return common.SendError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListUserBusinesses
//
//	@Summary	List the businesses a user belongs to
//	@Tags		users
//	@Produce	json
//	@Param		id	path	string	true	"User UUID"
//	@Success	200	{array}	services.BusinessResponse
//	@Router		/v1/users/{id}/businesses [get]
func (h *UserHandlers) ListUserBusinesses(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "user_uuid")
	if err != nil {
		return common.SendError(c, err)
	}
	resp, err := h.businessService.ListForUser(c.Request().Context(), id)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}
