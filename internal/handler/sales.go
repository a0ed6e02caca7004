package handler

import (
	"net/http"
	"strconv"

	"github.com/Mike861205/cajavscode-sub001/internal/apierror"
	"github.com/Mike861205/cajavscode-sub001/internal/dto"
	"github.com/Mike861205/cajavscode-sub001/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type SaleHandler struct{ svc service.SaleService }

func NewSaleHandler(svc service.SaleService) *SaleHandler { return &SaleHandler{svc: svc} }

// Record godoc
// @Summary Records a completed sale against the open shift
// @Tags sales
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.RecordSaleRequest true "Sale data"
// @Success 201 {object} dto.SaleResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/sales [post]
func (h *SaleHandler) Record(c *gin.Context) {
	var req dto.RecordSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	tenantID, userID, ok := claimIDs(c)
	if !ok {
		return
	}
	resp, err := h.svc.Record(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Cancel godoc
// @Summary Cancels a sale without touching the cash ledger
// @Tags sales
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Sale ID"
// @Param body body dto.CancelSaleRequest true "Cancellation reason"
// @Success 204
// @Failure 409 {object} apierror.APIError
// @Router /v1/sales/{id} [delete]
func (h *SaleHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid sale id"))
		return
	}
	var req dto.CancelSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	tenantID, _, ok := claimIDs(c)
	if !ok {
		return
	}
	if err := h.svc.Cancel(c.Request.Context(), tenantID, id, req.Reason); err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// List returns a paginated list of sales, optionally filtered by shift.
func (h *SaleHandler) List(c *gin.Context) {
	tenantID, _, ok := claimIDs(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	var shiftID *uuid.UUID
	if raw := c.Query("shift_id"); raw != "" {
		sid, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("invalid shift_id filter"))
			return
		}
		shiftID = &sid
	}

	resp, err := h.svc.List(c.Request.Context(), tenantID, shiftID, page, limit)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
