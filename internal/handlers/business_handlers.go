package handlers

import (
	"net/http"

	"bizmanager/internal/common"
	"bizmanager/internal/services"

	"github.com/labstack/echo/v4"
)

type BusinessHandlers struct {
	businessService services.BusinessService
}

func NewBusinessHandlers(businessService services.BusinessService) *BusinessHandlers {
	return &BusinessHandlers{businessService: businessService}
}

// CreateBusiness
//
//	@Summary	Create a business
//	@Tags		businesses
//	@Accept		json
//	@Produce	json
//	@Param		request	body		services.CreateBusinessRequest	true	"Business"
//	@Success	201		{object}	services.BusinessResponse
//	@Failure	400		{object}	common.ErrorResponse
//	@Failure	404		{object}	common.ErrorResponse	"Owner not found"
//	@Router		/v1/businesses [post]
func (h *BusinessHandlers) CreateBusiness(c echo.Context) error {
	var req services.CreateBusinessRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request body")
	}
	resp, err := h.businessService.Create(c.Request().Context(), req)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusCreated, resp)
}

// GetBusiness
//
//	@Summary	Get a business
//	@Tags		businesses
//	@Produce	json
//	@Param		id	path		string	true	"Business UUID"
//	@Success	200	{object}	services.BusinessResponse
//	@Failure	404	{object}	common.ErrorResponse
//	@Router		/v1/businesses/{id} [get]
func (h *BusinessHandlers) GetBusiness(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "business_uuid")
	if err != nil {
		return common.SendError(c, err)
	}
	resp, err := h.businessService.Get(c.Request().Context(), id)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// UpdateBusiness
//
//	@Summary	Replace business information
//	@Tags		businesses
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string							true	"Business UUID"
//	@Param		request	body		services.UpdateBusinessRequest	true	"Business"
//	@Success	200		{object}	services.BusinessResponse
//	@Router		/v1/businesses/{id} [put]
func (h *BusinessHandlers) UpdateBusiness(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "business_uuid")
	if err != nil {
		return common.SendError(c, err)
	}
	var req services.UpdateBusinessRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request body")
	}
	resp, err := h.businessService.Update(c.Request().Context(), id, req)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// DeleteBusiness soft-deletes a business.
//
//	@Summary	Delete a business
//	@Tags		businesses
//	@Param		id	path	string	true	"Business UUID"
//	@Success	204
//	@Router		/v1/businesses/{id} [delete]
func (h *BusinessHandlers) DeleteBusiness(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "business_uuid")
	if err != nil {
		return common.SendError(c, err)
	}
	if err := h.businessService.MarkDeleted(c.Request().Context(), id); err != nil {
		return common.SendError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
