package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "github.com/hrygo/shiftcover/server/internal/errors"
	"github.com/hrygo/shiftcover/server/service/schedule"
)

// ListStaff returns the owner's roster.
// GET /api/v1/owners/:owner/staff
func (s *APIV1Service) ListStaff(c echo.Context) error {
	roster, task, err := s.Accessor.GetOptimizedStaffRoster(c.Request().Context(), c.Param("owner"))
	if err != nil {
		return writeError(c, err)
	}
	setCacheHeaders(c, task)
	return c.JSON(http.StatusOK, roster)
}

// CreateStaff adds a roster record.
// POST /api/v1/owners/:owner/staff
func (s *APIV1Service) CreateStaff(c echo.Context) error {
	var req schedule.CreateStaffRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, apperrors.InvalidArgument("invalid request body"))
	}
	staff, err := s.ScheduleService.CreateStaff(c.Request().Context(), c.Param("owner"), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, staff)
}

// GetRequirementTemplate returns the owner's template of a month.
// GET /api/v1/owners/:owner/templates/:period
func (s *APIV1Service) GetRequirementTemplate(c echo.Context) error {
	template, task, err := s.Accessor.GetOptimizedTemplate(c.Request().Context(), c.Param("owner"), c.Param("period"))
	if err != nil {
		return writeError(c, err)
	}
	setCacheHeaders(c, task)
	if template == nil {
		return writeError(c, apperrors.NotFound("no requirement template for "+c.Param("period")))
	}
	return c.JSON(http.StatusOK, template)
}

// UpsertRequirementTemplate replaces the owner's template of a month.
// PUT /api/v1/owners/:owner/templates/:period
func (s *APIV1Service) UpsertRequirementTemplate(c echo.Context) error {
	var req schedule.UpsertTemplateRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, apperrors.InvalidArgument("invalid request body"))
	}
	template, err := s.ScheduleService.UpsertRequirementTemplate(c.Request().Context(), c.Param("owner"), c.Param("period"), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, template)
}

// CreateSlot adds a schedule slot.
// POST /api/v1/owners/:owner/slots
func (s *APIV1Service) CreateSlot(c echo.Context) error {
	var req schedule.CreateSlotRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, apperrors.InvalidArgument("invalid request body"))
	}
	slot, err := s.ScheduleService.CreateSlot(c.Request().Context(), c.Param("owner"), &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, slot)
}

// AssignSlotRequest assigns a staff member; a null or empty staffId unassigns.
type AssignSlotRequest struct {
	StaffID *string `json:"staffId"`
}

// AssignSlot changes the assignment of a slot.
// PUT /api/v1/owners/:owner/slots/:slot/assignment
func (s *APIV1Service) AssignSlot(c echo.Context) error {
	var req AssignSlotRequest
	if err := c.Bind(&req); err != nil {
		return writeError(c, apperrors.InvalidArgument("invalid request body"))
	}
	slot, err := s.ScheduleService.AssignSlot(c.Request().Context(), c.Param("owner"), c.Param("slot"), req.StaffID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, slot)
}

// GetOverview returns the coverage overview of a period.
// GET /api/v1/owners/:owner/overview/:period
func (s *APIV1Service) GetOverview(c echo.Context) error {
	overview, task, err := s.Accessor.GetOptimizedOverview(c.Request().Context(), c.Param("owner"), c.Param("period"))
	if err != nil {
		return writeError(c, err)
	}
	setCacheHeaders(c, task)
	return c.JSON(http.StatusOK, overview)
}

// GetDashboard returns the owner's dashboard summary for the current month.
// GET /api/v1/owners/:owner/dashboard
func (s *APIV1Service) GetDashboard(c echo.Context) error {
	summary, task, err := s.Accessor.GetOptimizedDashboard(c.Request().Context(), c.Param("owner"))
	if err != nil {
		return writeError(c, err)
	}
	setCacheHeaders(c, task)
	return c.JSON(http.StatusOK, summary)
}
