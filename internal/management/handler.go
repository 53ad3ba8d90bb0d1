package management

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"postrelay/internal/logger"
	"postrelay/pkg/errors"
)

const (
	defaultEventLimit = 100
	maxEventLimit     = 1000
)

type Handler struct {
	Service Service
	Logger  logger.Logger
}

func NewHandler(service Service, log logger.Logger) *Handler {
	return &Handler{
		Service: service,
		Logger:  log,
	}
}

func (h *Handler) HandleError(c *gin.Context, err error) {
	h.Logger.ErrorwCtx(c.Request.Context(), "Request error", "error", err, "path", c.Request.URL.Path)

	status := errors.ToHTTPStatus(err)
	response := errors.ToErrorResponse(err)

	c.JSON(status, response)
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		profiles := v1.Group("/profiles")
		{
			profiles.POST("", h.CreateProfile)
			profiles.GET("/:id", h.GetProfile)
			profiles.PUT("/:id", h.UpdateProfile)
			profiles.POST("/:id/enable", h.EnableProfile)
			profiles.POST("/:id/disable", h.DisableProfile)
			profiles.POST("/:id/rotate-secret", h.RotateSecret)
			profiles.GET("/:id/events", h.ListProfileEvents)
			profiles.GET("/:id/routes", h.ListRoutes)
			profiles.POST("/:id/routes", h.CreateRoute)
		}

		routes := v1.Group("/routes")
		{
			routes.PUT("/:id", h.UpdateRoute)
			routes.DELETE("/:id", h.DeleteRoute)
			routes.POST("/:id/enable", h.EnableRoute)
			routes.POST("/:id/disable", h.DisableRoute)
		}
	}
}

// CreateProfile godoc
// @Summary      Create a new profile
// @Description  Create an integration profile with a generated secret
// @Tags         profiles
// @Accept       json
// @Produce      json
// @Param        profile  body      CreateProfileRequest  true  "Profile data"
// @Success      201      {object}  profile.Profile
// @Failure      400      {object}  errors.ErrorResponse
// @Failure      409      {object}  errors.ErrorResponse
// @Failure      500      {object}  errors.ErrorResponse
// @Router       /profiles [post]
func (h *Handler) CreateProfile(c *gin.Context) {
	var req CreateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
		return
	}

	p, err := h.Service.CreateProfile(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, p)
}

// GetProfile godoc
// @Summary      Get a profile by ID
// @Tags         profiles
// @Accept       json
// @Produce      json
// @Param        id   path      string  true  "Profile ID"
// @Success      200  {object}  profile.Profile
// @Failure      404  {object}  errors.ErrorResponse
// @Failure      500  {object}  errors.ErrorResponse
// @Router       /profiles/{id} [get]
func (h *Handler) GetProfile(c *gin.Context) {
	p, err := h.Service.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// UpdateProfile godoc
// @Summary      Update a profile
// @Description  Update destination and limit settings of a profile
// @Tags         profiles
// @Accept       json
// @Produce      json
// @Param        id       path      string                true  "Profile ID"
// @Param        profile  body      UpdateProfileRequest  true  "Updated profile data"
// @Success      200      {object}  profile.Profile
// @Failure      400      {object}  errors.ErrorResponse
// @Failure      404      {object}  errors.ErrorResponse
// @Failure      500      {object}  errors.ErrorResponse
// @Router       /profiles/{id} [put]
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
		return
	}

	p, err := h.Service.UpdateProfile(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// EnableProfile godoc
// @Summary      Enable a profile
// @Tags         profiles
// @Produce      json
// @Param        id   path  string  true  "Profile ID"
// @Success      204  "No Content"
// @Failure      404  {object}  errors.ErrorResponse
// @Failure      500  {object}  errors.ErrorResponse
// @Router       /profiles/{id}/enable [post]
func (h *Handler) EnableProfile(c *gin.Context) {
	h.setProfileEnabled(c, true)
}

// DisableProfile godoc
// @Summary      Disable a profile
// @Description  Soft-disable a profile; postbacks are accepted and discarded
// @Tags         profiles
// @Produce      json
// @Param        id   path  string  true  "Profile ID"
// @Success      204  "No Content"
// @Failure      404  {object}  errors.ErrorResponse
// @Failure      500  {object}  errors.ErrorResponse
// @Router       /profiles/{id}/disable [post]
func (h *Handler) DisableProfile(c *gin.Context) {
	h.setProfileEnabled(c, false)
}

func (h *Handler) setProfileEnabled(c *gin.Context, enabled bool) {
	if err := h.Service.SetProfileEnabled(c.Request.Context(), c.Param("id"), enabled); err != nil {
		h.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RotateSecret godoc
// @Summary      Rotate a profile's secret
// @Description  Generate and persist a new secret; the previous one stops working immediately
// @Tags         profiles
// @Produce      json
// @Param        id   path      string  true  "Profile ID"
// @Success      200  {object}  RotateSecretResponse
// @Failure      404  {object}  errors.ErrorResponse
// @Failure      500  {object}  errors.ErrorResponse
// @Router       /profiles/{id}/rotate-secret [post]
func (h *Handler) RotateSecret(c *gin.Context) {
	secret, err := h.Service.RotateProfileSecret(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, RotateSecretResponse{Secret: secret})
}

// ListProfileEvents godoc
// @Summary      List recent events for a profile
// @Tags         profiles
// @Produce      json
// @Param        id     path      string  true   "Profile ID"
// @Param        limit  query     int     false  "Maximum number of events to return (1-1000)"  default(100)
// @Success      200    {array}   postback.Event
// @Failure      404    {object}  errors.ErrorResponse
// @Failure      500    {object}  errors.ErrorResponse
// @Router       /profiles/{id}/events [get]
func (h *Handler) ListProfileEvents(c *gin.Context) {
	events, err := h.Service.ListProfileEvents(c.Request.Context(), c.Param("id"), parseLimit(c.Query("limit")))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// CreateRoute godoc
// @Summary      Create a route for a profile
// @Tags         routes
// @Accept       json
// @Produce      json
// @Param        id     path      string              true  "Profile ID"
// @Param        route  body      CreateRouteRequest  true  "Route data"
// @Success      201    {object}  routing.Route
// @Failure      400    {object}  errors.ErrorResponse
// @Failure      404    {object}  errors.ErrorResponse
// @Failure      500    {object}  errors.ErrorResponse
// @Router       /profiles/{id}/routes [post]
func (h *Handler) CreateRoute(c *gin.Context) {
	var req CreateRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
		return
	}

	route, err := h.Service.CreateRoute(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, route)
}

// ListRoutes godoc
// @Summary      List a profile's routes in evaluation order
// @Tags         routes
// @Produce      json
// @Param        id   path      string  true  "Profile ID"
// @Success      200  {array}   routing.Route
// @Failure      404  {object}  errors.ErrorResponse
// @Failure      500  {object}  errors.ErrorResponse
// @Router       /profiles/{id}/routes [get]
func (h *Handler) ListRoutes(c *gin.Context) {
	routes, err := h.Service.ListRoutes(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, routes)
}

// UpdateRoute godoc
// @Summary      Update a route
// @Tags         routes
// @Accept       json
// @Produce      json
// @Param        id     path      string              true  "Route ID"
// @Param        route  body      UpdateRouteRequest  true  "Updated route data"
// @Success      200    {object}  routing.Route
// @Failure      400    {object}  errors.ErrorResponse
// @Failure      404    {object}  errors.ErrorResponse
// @Failure      500    {object}  errors.ErrorResponse
// @Router       /routes/{id} [put]
func (h *Handler) UpdateRoute(c *gin.Context) {
	var req UpdateRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errors.ToErrorResponse(errors.ErrValidation.WithCause(err)))
		return
	}

	route, err := h.Service.UpdateRoute(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, route)
}

// DeleteRoute godoc
// @Summary      Delete a route
// @Tags         routes
// @Produce      json
// @Param        id   path  string  true  "Route ID"
// @Success      204  "No Content"
// @Failure      404  {object}  errors.ErrorResponse
// @Failure      500  {object}  errors.ErrorResponse
// @Router       /routes/{id} [delete]
func (h *Handler) DeleteRoute(c *gin.Context) {
	if err := h.Service.DeleteRoute(c.Request.Context(), c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// EnableRoute godoc
// @Summary      Enable a route
// @Tags         routes
// @Produce      json
// @Param        id   path  string  true  "Route ID"
// @Success      204  "No Content"
// @Failure      404  {object}  errors.ErrorResponse
// @Failure      500  {object}  errors.ErrorResponse
// @Router       /routes/{id}/enable [post]
func (h *Handler) EnableRoute(c *gin.Context) {
	h.setRouteEnabled(c, true)
}

// DisableRoute godoc
// @Summary      Disable a route
// @Tags         routes
// @Produce      json
// @Param        id   path  string  true  "Route ID"
// @Success      204  "No Content"
// @Failure      404  {object}  errors.ErrorResponse
// @Failure      500  {object}  errors.ErrorResponse
// @Router       /routes/{id}/disable [post]
func (h *Handler) DisableRoute(c *gin.Context) {
	h.setRouteEnabled(c, false)
}

func (h *Handler) setRouteEnabled(c *gin.Context, enabled bool) {
	if err := h.Service.SetRouteEnabled(c.Request.Context(), c.Param("id"), enabled); err != nil {
		h.HandleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseLimit(limitStr string) int {
	if limitStr == "" {
		return defaultEventLimit
	}
	parsed, err := strconv.Atoi(limitStr)
	if err != nil || parsed <= 0 || parsed > maxEventLimit {
		return defaultEventLimit
	}
	return parsed
}
