package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/Mike861205/cajavscode-sub001/internal/apierror"
	"github.com/Mike861205/cajavscode-sub001/internal/dto"
	"github.com/Mike861205/cajavscode-sub001/internal/infra"
	"github.com/Mike861205/cajavscode-sub001/internal/middleware"
	"github.com/Mike861205/cajavscode-sub001/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

type RegisterHandler struct{ svc service.RegisterService }

func NewRegisterHandler(svc service.RegisterService) *RegisterHandler {
	return &RegisterHandler{svc: svc}
}

func claimIDs(c *gin.Context) (tenantID, userID uuid.UUID, ok bool) {
	claims := middleware.GetClaims(c)
	tenantID, err := uuid.Parse(claims.TenantID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid tenant id"))
		return uuid.Nil, uuid.Nil, false
	}
	userID, err = uuid.Parse(claims.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid user id"))
		return uuid.Nil, uuid.Nil, false
	}
	return tenantID, userID, true
}

// Open godoc
// @Summary Opens a new register shift for the authenticated user
// @Tags register
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.OpenShiftRequest true "Opening data"
// @Success 201 {object} dto.ShiftResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/register/open [post]
func (h *RegisterHandler) Open(c *gin.Context) {
	var req dto.OpenShiftRequest
	if !bindAndValidate(c, &req) {
		return
	}
	tenantID, userID, ok := claimIDs(c)
	if !ok {
		return
	}
	resp, err := h.svc.Open(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Close godoc
// @Summary Closes a shift with a blind cash count and reconciles it
// @Tags register
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CloseShiftRequest true "Counted cash declaration"
// @Success 200 {object} dto.CloseShiftResponse
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.ValidationError
// @Router /v1/register/close [post]
func (h *RegisterHandler) Close(c *gin.Context) {
	var req dto.CloseShiftRequest
	if !bindAndValidate(c, &req) {
		return
	}
	tenantID, _, ok := claimIDs(c)
	if !ok {
		return
	}
	resp, err := h.svc.Close(c.Request.Context(), tenantID, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PostMovement godoc
// @Summary Posts a manual movement (income, expense, withdrawal) to an open shift
// @Tags register
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.MovementRequest true "Movement data"
// @Success 201 {object} dto.MovementResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/register/movements [post]
func (h *RegisterHandler) PostMovement(c *gin.Context) {
	var req dto.MovementRequest
	if !bindAndValidate(c, &req) {
		return
	}
	tenantID, userID, ok := claimIDs(c)
	if !ok {
		return
	}
	resp, err := h.svc.PostMovement(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ReverseMovement godoc
// @Summary Reverses a mistaken movement on a still-open shift
// @Tags register
// @Produce json
// @Security BearerAuth
// @Param id path string true "Movement ID"
// @Success 204
// @Failure 409 {object} apierror.APIError
// @Router /v1/register/movements/{id} [delete]
func (h *RegisterHandler) ReverseMovement(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid movement id"))
		return
	}
	tenantID, _, ok := claimIDs(c)
	if !ok {
		return
	}
	if err := h.svc.ReverseMovement(c.Request.Context(), tenantID, id); err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetSummary returns the running totals for a shift.
func (h *RegisterHandler) GetSummary(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid shift id"))
		return
	}
	tenantID, _, ok := claimIDs(c)
	if !ok {
		return
	}
	resp, err := h.svc.Summary(c.Request.Context(), tenantID, id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetReport godoc
// @Summary Returns the closing report of a closed shift
// @Tags register
// @Produce json
// @Security BearerAuth
// @Param id path string true "Shift ID"
// @Success 200 {object} dto.ClosingReport
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/register/{id}/report [get]
func (h *RegisterHandler) GetReport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid shift id"))
		return
	}
	tenantID, _, ok := claimIDs(c)
	if !ok {
		return
	}
	resp, err := h.svc.Report(c.Request.Context(), tenantID, id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetReportPDF renders the closing report as a PDF. Rendering is
// deterministic, so re-downloading a report yields identical bytes.
func (h *RegisterHandler) GetReportPDF(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid shift id"))
		return
	}
	tenantID, _, ok := claimIDs(c)
	if !ok {
		return
	}
	report, err := h.svc.Report(c.Request.Context(), tenantID, id)
	if err != nil {
		respondErr(c, err)
		return
	}
	pdf, err := infra.RenderClosingReportPDF(*report)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="shift_%s.pdf"`, id))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// GetActive returns the currently open shift for the authenticated user.
func (h *RegisterHandler) GetActive(c *gin.Context) {
	tenantID, userID, ok := claimIDs(c)
	if !ok {
		return
	}
	resp, err := h.svc.Active(c.Request.Context(), tenantID, userID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// History returns a paginated list of closed shifts.
func (h *RegisterHandler) History(c *gin.Context) {
	tenantID, _, ok := claimIDs(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	var userID *uuid.UUID
	if raw := c.Query("user_id"); raw != "" {
		uid, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("invalid user_id filter"))
			return
		}
		userID = &uid
	}

	resp, err := h.svc.History(c.Request.Context(), tenantID, userID, page, limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ExportHistory streams the closed-shift history as an Excel workbook.
func (h *RegisterHandler) ExportHistory(c *gin.Context) {
	tenantID, _, ok := claimIDs(c)
	if !ok {
		return
	}

	var userID *uuid.UUID
	if raw := c.Query("user_id"); raw != "" {
		uid, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("invalid user_id filter"))
			return
		}
		userID = &uid
	}

	// Walk every page so the workbook carries the full history
	const exportPageSize = 100
	var shifts []dto.ShiftResponse
	for page := 1; ; page++ {
		resp, err := h.svc.History(c.Request.Context(), tenantID, userID, page, exportPageSize)
		if err != nil {
			respondErr(c, err)
			return
		}
		shifts = append(shifts, resp.Data...)
		if len(resp.Data) < exportPageSize || int64(len(shifts)) >= resp.Total {
			break
		}
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := "Shifts"
	f.SetSheetName("Sheet1", sheet)

	headers := []interface{}{"Shift ID", "Opened At", "Closed At", "Opening", "Expected", "Counted", "Difference", "Report"}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		respondErr(c, err)
		return
	}
	for i, s := range shifts {
		row := []interface{}{
			s.ID,
			s.OpenedAt,
			deref(s.ClosedAt),
			s.OpeningAmount.StringFixed(2),
			fixedOrEmpty(s.ExpectedAmount),
			fixedOrEmpty(s.ClosedAmount),
			fixedOrEmpty(s.Difference),
			s.ReportStatus,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			respondErr(c, err)
			return
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		respondErr(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="shift_history.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// ListDenominations returns the bill denominations accepted on close counts.
func (h *RegisterHandler) ListDenominations(c *gin.Context) {
	tenantID, _, ok := claimIDs(c)
	if !ok {
		return
	}
	resp, err := h.svc.Denominations(c.Request.Context(), tenantID)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}
