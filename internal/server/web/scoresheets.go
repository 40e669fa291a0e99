package web

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/bjcp-scoresheets/internal/common"
	"github.com/gin-gonic/gin"
)

func (h *Handler) ListScoresheets(c *gin.Context) {
	list, err := h.scoresheets.List(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetScoresheet(c *gin.Context) {
	s, err := h.scoresheets.Get(c.Request.Context(), currentUser(c).ID, c.Query("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

type createScoresheet struct {
	FlightID    string `json:"flightId"`
	EntryNumber string `json:"entryNumber"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
}

func (h *Handler) CreateScoresheet(c *gin.Context) {
	var req createScoresheet
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, common.ErrInvalidField)
		return
	}

	s, err := h.scoresheets.Create(c.Request.Context(), currentUser(c).ID, req.FlightID, req.EntryNumber, req.Category, req.Subcategory)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

type updateScoresheet struct {
	ScoresheetID string `json:"scoresheetId"`
	Field        string `json:"field"`
	Value        any    `json:"value"`
}

// fieldValue accepts the autosave value as a JSON string or number.
func fieldValue(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case nil:
		return "", true
	default:
		return "", false
	}
}

func (h *Handler) UpdateScoresheet(c *gin.Context) {
	var req updateScoresheet
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, common.ErrInvalidField)
		return
	}
	raw, ok := fieldValue(req.Value)
	if !ok {
		h.writeError(c, common.ErrInvalidField)
		return
	}

	if err := h.scoresheets.UpdateField(c.Request.Context(), currentUser(c).ID, req.ScoresheetID, req.Field, raw); err != nil {
		h.writeError(c, err)
		return
	}
	writeTrue(c)
}

type scoresheetRef struct {
	ScoresheetID string `json:"scoresheetId"`
}

func (h *Handler) CheckScoresheet(c *gin.Context) {
	var req scoresheetRef
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, common.ErrInvalidField)
		return
	}

	problems, err := h.scoresheets.Check(c.Request.Context(), currentUser(c).ID, req.ScoresheetID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": len(problems) == 0, "problems": problems})
}

func (h *Handler) ValidateScoresheet(c *gin.Context) {
	var req scoresheetRef
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, common.ErrInvalidField)
		return
	}

	s, err := h.scoresheets.Validate(c.Request.Context(), currentUser(c).ID, req.ScoresheetID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

// ScoresheetPDF redirects to a short-lived download link.
func (h *Handler) ScoresheetPDF(c *gin.Context) {
	link, err := h.scoresheets.PDFURL(c.Request.Context(), currentUser(c).ID, c.Param("scoresheetId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Redirect(http.StatusFound, link)
}
