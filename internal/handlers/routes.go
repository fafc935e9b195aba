package handlers

import (
	"bizmanager/internal/middleware"

	"github.com/labstack/echo/v4"
)

// Router carries everything needed to mount the HTTP surface.
type Router struct {
	Users     *UserHandlers
	Business  *BusinessHandlers
	Inventory *InventoryHandlers
	Health    *HealthHandlers
	Jobs      *JobHandlers

	Auth   echo.MiddlewareFunc
	RBAC   *middleware.RBACMiddleware
	Signup echo.MiddlewareFunc // rate limit for signup, optional
}

// Register mounts the health probes and the authenticated /v1 API.
func (r *Router) Register(e *echo.Echo) {
	e.GET("/health", r.Health.Health)
	e.GET("/health/ready", r.Health.Ready)

	v1 := e.Group("/v1", r.Auth)
	perm := r.RBAC.RequirePermission

	signup := []echo.MiddlewareFunc{}
	if r.Signup != nil {
		signup = append(signup, r.Signup)
	}
	v1.POST("/users/signup", r.Users.Signup, signup...)
	v1.GET("/users/:id", r.Users.GetUser, perm("read:user"))
	v1.PATCH("/users/:id", r.Users.UpdateDemographics, perm("update:user"))
	v1.DELETE("/users/:id", r.Users.DeleteUser, perm("delete:user"))
	v1.GET("/users/:id/businesses", r.Users.ListUserBusinesses, perm("read:business"))

	v1.POST("/businesses", r.Business.CreateBusiness, perm("create:new-business"))
	v1.GET("/businesses/:id", r.Business.GetBusiness, perm("read:business"))
	v1.PUT("/businesses/:id", r.Business.UpdateBusiness, perm("update:business"))
	v1.DELETE("/businesses/:id", r.Business.DeleteBusiness, perm("delete:business"))

	v1.POST("/businesses/:id/inventory-items", r.Inventory.AddInventoryItem, perm("create:inventory-item"))
	v1.GET("/businesses/:id/inventory-items", r.Inventory.ListInventoryItems, perm("read:inventory-item"))
	v1.GET("/inventory-items/:id", r.Inventory.GetInventoryItem, perm("read:inventory-item"))
	v1.PUT("/inventory-items/:id", r.Inventory.UpdateInventoryItem, perm("update:inventory-item"))
	v1.DELETE("/inventory-items/:id", r.Inventory.DeleteInventoryItem, perm("delete:inventory-item"))
	v1.PUT("/inventory-items/:id/image", r.Inventory.UploadImage, perm("update:inventory-item"))
	v1.GET("/inventory-items/:id/image", r.Inventory.GetImage, perm("read:inventory-item"))

	if r.Jobs != nil {
		v1.GET("/jobs", r.Jobs.ListJobs, perm("read:jobs"))
		v1.GET("/jobs/inventory-alerts", r.Jobs.GetInventoryAlerts, perm("read:jobs"))
		v1.POST("/jobs/:name/run", r.Jobs.RunJob, perm("run:jobs"))
	}
}
