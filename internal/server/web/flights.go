package web

import (
	"net/http"

	"github.com/dmitrijs2005/bjcp-scoresheets/internal/common"
	"github.com/gin-gonic/gin"
)

type flightRequest struct {
	FlightID string `json:"flightId"`
	Name     string `json:"name"`
}

func (h *Handler) bindFlight(c *gin.Context) (flightRequest, bool) {
	var req flightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, common.ErrInvalidField)
		return req, false
	}
	return req, true
}

func (h *Handler) AddFlight(c *gin.Context) {
	req, ok := h.bindFlight(c)
	if !ok {
		return
	}
	f, err := h.flights.Add(c.Request.Context(), currentUser(c).ID, req.Name)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *Handler) EditFlight(c *gin.Context) {
	req, ok := h.bindFlight(c)
	if !ok {
		return
	}
	f, err := h.flights.Edit(c.Request.Context(), currentUser(c), req.FlightID, req.Name)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *Handler) SubmitFlight(c *gin.Context) {
	req, ok := h.bindFlight(c)
	if !ok {
		return
	}
	f, err := h.flights.Submit(c.Request.Context(), currentUser(c).ID, req.FlightID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *Handler) GetFlightByName(c *gin.Context) {
	req, ok := h.bindFlight(c)
	if !ok {
		return
	}
	f, err := h.flights.GetByName(c.Request.Context(), req.Name)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *Handler) GetFlightByID(c *gin.Context) {
	req, ok := h.bindFlight(c)
	if !ok {
		return
	}
	f, err := h.flights.GetByID(c.Request.Context(), req.FlightID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *Handler) DeleteFlight(c *gin.Context) {
	req, ok := h.bindFlight(c)
	if !ok {
		return
	}
	if err := h.flights.Delete(c.Request.Context(), currentUser(c), req.FlightID); err != nil {
		h.writeError(c, err)
		return
	}
	writeTrue(c)
}
