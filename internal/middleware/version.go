package middleware

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// APIVersion represents API version information
type APIVersion struct {
	Version    string     `json:"version"`
	Status     string     `json:"status"` // "active", "deprecated"
	SunsetDate *time.Time `json:"sunset_date,omitempty"`
	Message    string     `json:"message,omitempty"`
}

// VersionMiddleware provides API versioning functionality
type VersionMiddleware struct {
	supportedVersions map[string]APIVersion
	defaultVersion    string
}

func NewVersionMiddleware() *VersionMiddleware {
	return &VersionMiddleware{
		supportedVersions: map[string]APIVersion{
			"v1": {Version: "v1", Status: "active", Message: "Current stable API version"},
		},
		defaultVersion: "v1",
	}
}

// VersionHeader stamps every response with the API version, and with
// deprecation headers once a version is deprecated.
func (vm *VersionMiddleware) VersionHeader() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			version := vm.resolve(c.Request().URL.Path)
			h := c.Response().Header()
			h.Set("X-API-Version", version)

			if ver, ok := vm.supportedVersions[version]; ok && ver.Status == "deprecated" {
				h.Set("X-API-Deprecated", "true")
				if ver.SunsetDate != nil {
					h.Set("X-API-Sunset", ver.SunsetDate.Format(time.RFC3339))
					h.Set("Warning", `299 bizmanager "This API version is deprecated and will be removed on `+ver.SunsetDate.Format("2006-01-02")+`"`)
				}
			}
			return next(c)
		}
	}
}

// RejectUnsupported answers 404 for /vN paths whose version is unknown.
func (vm *VersionMiddleware) RejectUnsupported() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			version := versionFromPath(c.Request().URL.Path)
			if version != "" {
				if _, ok := vm.supportedVersions[version]; !ok {
					return c.JSON(http.StatusNotFound, map[string]string{
						"error":              "Unsupported API version",
						"supported_versions": strings.Join(vm.SupportedVersions(), ", "),
					})
				}
			}
			return next(c)
		}
	}
}

func (vm *VersionMiddleware) resolve(path string) string {
	if v := versionFromPath(path); v != "" {
		if _, ok := vm.supportedVersions[v]; ok {
			return v
		}
	}
	return vm.defaultVersion
}

// versionFromPath extracts "vN" from a path starting with /vN/ or equal to /vN.
func versionFromPath(path string) string {
	seg, _, _ := strings.Cut(strings.TrimPrefix(path, "/"), "/")
	if len(seg) < 2 || seg[0] != 'v' {
		return ""
	}
	for _, r := range seg[1:] {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return seg
}

func (vm *VersionMiddleware) SupportedVersions() []string {
	var versions []string
	for version := range vm.supportedVersions {
		versions = append(versions, version)
	}
	sort.Strings(versions)
	return versions
}

// Deprecate marks a version deprecated with an optional sunset date.
func (vm *VersionMiddleware) Deprecate(version string, sunsetDate *time.Time) {
	if ver, ok := vm.supportedVersions[version]; ok {
		ver.Status = "deprecated"
		ver.SunsetDate = sunsetDate
		vm.supportedVersions[version] = ver
	}
}
