package handlers

import (
	"net/http"
	"strings"

	"bizmanager/internal/common"
	"bizmanager/internal/services"

	"github.com/labstack/echo/v4"
)

const maxImageSize = 10 << 20

type InventoryHandlers struct {
	inventoryService services.InventoryService
}

func NewInventoryHandlers(inventoryService services.InventoryService) *InventoryHandlers {
	return &InventoryHandlers{inventoryService: inventoryService}
}

// AddInventoryItem
//
//	@Summary	Add an inventory item to a business
//	@Tags		inventory
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string							true	"Business UUID"
//	@Param		request	body		services.InventoryItemRequest	true	"Item"
//	@Success	201		{object}	services.InventoryItemResponse
//	@Failure	400		{object}	common.ErrorResponse
//	@Failure	404		{object}	common.ErrorResponse	"Business not found"
//	@Router		/v1/businesses/{id}/inventory-items [post]
func (h *InventoryHandlers) AddInventoryItem(c echo.Context) error {
	businessID, err := common.ValidateUUID(c.Param("id"), "business_uuid")
	if err != nil {
		return common.SendError(c, err)
	}
	var req services.InventoryItemRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request body")
	}
	resp, err := h.inventoryService.Add(c.Request().Context(), businessID, req)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusCreated, resp)
}

// ListInventoryItems
//
//	@Summary	List a business's inventory
//	@Tags		inventory
//	@Produce	json
//	@Param		id	path	string	true	"Business UUID"
//	@Success	200	{array}	services.InventoryItemResponse
//	@Router		/v1/businesses/{id}/inventory-items [get]
func (h *InventoryHandlers) ListInventoryItems(c echo.Context) error {
	businessID, err := common.ValidateUUID(c.Param("id"), "business_uuid")
	if err != nil {
		return common.SendError(c, err)
	}
	resp, err := h.inventoryService.ListForBusiness(c.Request().Context(), businessID)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetInventoryItem
//
//	@Summary	Get an inventory item
//	@Tags		inventory
//	@Produce	json
//	@Param		id	path		string	true	"Inventory item UUID"
//	@Success	200	{object}	services.InventoryItemResponse
//	@Router		/v1/inventory-items/{id} [get]
func (h *InventoryHandlers) GetInventoryItem(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "inventory_item_uuid")
	if err != nil {
		return common.SendError(c, err)
	}
	resp, err := h.inventoryService.Get(c.Request().Context(), id)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// UpdateInventoryItem
//
//	@Summary	Replace an inventory item
//	@Tags		inventory
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string							true	"Inventory item UUID"
//	@Param		request	body		services.InventoryItemRequest	true	"Item"
//	@Success	200		{object}	services.InventoryItemResponse
//	@Router		/v1/inventory-items/{id} [put]
func (h *InventoryHandlers) UpdateInventoryItem(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "inventory_item_uuid")
	if err != nil {
		return common.SendError(c, err)
	}
	var req services.InventoryItemRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request body")
	}
	resp, err := h.inventoryService.Update(c.Request().Context(), id, req)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// DeleteInventoryItem permanently removes an item.
//
//	@Summary	Delete an inventory item
//	@Tags		inventory
//	@Param		id	path	string	true	"Inventory item UUID"
//	@Success	204
//	@Router		/v1/inventory-items/{id} [delete]
func (h *InventoryHandlers) DeleteInventoryItem(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "inventory_item_uuid")
	if err != nil {
		return common.SendError(c, err)
	}
	if err := h.inventoryService.Delete(c.Request().Context(), id); err != nil {
		return common.SendError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// UploadImage
//
//	@Summary	Upload an item image
//	@Tags		inventory
//	@Accept		multipart/form-data
//	@Param		id		path		string	true	"Inventory item UUID"
//	@Param		image	formData	file	true	"Image file"
//	@Success	204
//	@Router		/v1/inventory-items/{id}/image [put]
func (h *InventoryHandlers) UploadImage(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "inventory_item_uuid")
	if err != nil {
		return common.SendError(c, err)
	}

	file, err := c.FormFile("image")
	if err != nil {
		return common.SendValidationError(c, "image", "an image file is required")
	}
	if file.Size > maxImageSize {
		return common.SendValidationError(c, "image", "must be at most 10MB")
	}
	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return common.SendValidationError(c, "image", "must be an image")
	}

	src, err := file.Open()
	if err != nil {
		return common.SendClientError(c, "Failed to read uploaded file")
	}
	defer src.Close()

	if err := h.inventoryService.UploadImage(c.Request().Context(), id, src, file.Size, contentType); err != nil {
		return common.SendError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GetImage redirects to a short-lived presigned URL.
//
//	@Summary	Get an item image
//	@Tags		inventory
//	@Param		id	path	string	true	"Inventory item UUID"
//	@Success	302
//	@Router		/v1/inventory-items/{id}/image [get]
func (h *InventoryHandlers) GetImage(c echo.Context) error {
	id, err := common.ValidateUUID(c.Param("id"), "inventory_item_uuid")
	if err != nil {
		return common.SendError(c, err)
	}
	url, err := h.inventoryService.ImageURL(c.Request().Context(), id)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.Redirect(http.StatusFound, url)
}
