package rest

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sleeptracker/backend/internal/api/sleepv1"
	"sleeptracker/backend/internal/sleeplog/domain"
	sleephandler "sleeptracker/backend/internal/sleeplog/handler"
)

type sleepRoutes struct {
	svc sleephandler.SleepLogService
	log *zap.Logger
}

func (h *sleepRoutes) create(c *gin.Context) {
	var body sleepv1.CreateSleepLogRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		handleError(c, h.log, fmt.Errorf("%w: invalid JSON: %v", domain.ErrMalformedInput, err))
		return
	}
	in, err := body.ToInput()
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	s, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	respond(c, http.StatusCreated, "SleepLog created with success!", sleepv1.FromSession(s, h.svc.Location()))
}

func (h *sleepRoutes) update(c *gin.Context) {
	var body sleepv1.UpdateSleepLogRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		handleError(c, h.log, fmt.Errorf("%w: invalid JSON: %v", domain.ErrMalformedInput, err))
		return
	}
	body.IDSleep = c.Param("id")
	in, err := body.ToInput()
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	s, err := h.svc.Update(c.Request.Context(), body.IDSleep, in)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "Sleep updated with success!", sleepv1.FromSession(s, h.svc.Location()))
}

func (h *sleepRoutes) delete(c *gin.Context) {
	s, err := h.svc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "SleepLog deleted with success!", sleepv1.FromSession(s, h.svc.Location()))
}

func (h *sleepRoutes) get(c *gin.Context) {
	s, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "SleepLog returned with success!", sleepv1.FromSession(s, h.svc.Location()))
}

func (h *sleepRoutes) lastNight(c *gin.Context) {
	s, err := h.svc.LastNight(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "SleepLog returned with success!", sleepv1.FromSession(s, h.svc.Location()))
}

func (h *sleepRoutes) thirtyDayAverage(c *gin.Context) {
	userID := c.Param("id")
	agg, err := h.svc.ThirtyDayAverage(c.Request.Context(), userID)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	respond(c, http.StatusOK, "The sleep log average of the last 30 days return with success!", sleepv1.FromAggregate(userID, agg, h.svc.Location()))
}

// list accepts page (1-based, default 1) and pageSize (alias page-size; default from config).
func (h *sleepRoutes) list(c *gin.Context) {
	page, err := intQuery(c, 1, "page")
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	pageSize, err := intQuery(c, 0, "pageSize", "page-size")
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	p, err := h.svc.List(c.Request.Context(), c.Param("id"), page, pageSize)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	out := sleepv1.FromSessions(p.Items, p.Total, p.PageSize, h.svc.Location())
	respondPage(c, "SleepLog returned with success!", out.Items, out.TotalRecords, out.TotalPages)
}

// intQuery returns the first present query parameter among names as an int, or def.
func intQuery(c *gin.Context, def int, names ...string) (int, error) {
	for _, name := range names {
		raw, ok := c.GetQuery(name)
		if !ok || raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0, fmt.Errorf("%w: %s must be an integer", domain.ErrMalformedInput, name)
		}
		return n, nil
	}
	return def, nil
}
