package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/carebridge/telehealth-api/internal/apperr"
	"github.com/carebridge/telehealth-api/internal/domain"
	"github.com/carebridge/telehealth-api/internal/dto"
	"github.com/carebridge/telehealth-api/internal/service"
)

// MetricHandler handles health metric requests
type MetricHandler struct {
	metricService service.MetricService
}

// NewMetricHandler creates a new metric handler
func NewMetricHandler(metricService service.MetricService) *MetricHandler {
	return &MetricHandler{
		metricService: metricService,
	}
}

// Log records a health reading for the authenticated patient
// @Summary Log a health metric
// @Tags metrics
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.LogMetricRequest true "Metric"
// @Success 201 {object} dto.MetricResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /metrics [post]
func (h *MetricHandler) Log(c *gin.Context) {
	var req dto.LogMetricRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.Wrap(apperr.KindValidation, err.Error(), err))
		return
	}

	metric, err := h.metricService.Log(c.Request.Context(), c.GetString(ContextUserID), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, metric)
}

// History returns the authenticated patient's readings. When no metric_type
// filter is given the list is grouped by type, ready for charting.
// @Summary Get health metric history
// @Tags metrics
// @Security BearerAuth
// @Produce json
// @Param metric_type query string false "Filter by metric type"
// @Param from query string false "RFC 3339 lower bound"
// @Param to query string false "RFC 3339 upper bound"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} dto.ErrorResponse
// @Router /metrics [get]
func (h *MetricHandler) History(c *gin.Context) {
	metricType := c.Query("metric_type")

	from, err := parseTimeQuery(c, "from")
	if err != nil {
		respondError(c, err)
		return
	}
	to, err := parseTimeQuery(c, "to")
	if err != nil {
		respondError(c, err)
		return
	}

	metrics, err := h.metricService.History(c.Request.Context(), c.GetString(ContextUserID), metricType, from, to)
	if err != nil {
		respondError(c, err)
		return
	}

	if metricType != "" {
		c.JSON(http.StatusOK, gin.H{
			"results": len(metrics),
			"data":    metrics,
		})
		return
	}

	grouped := make(map[domain.MetricType][]dto.MetricResponse)
	for _, m := range metrics {
		grouped[m.MetricType] = append(grouped[m.MetricType], m)
	}

	c.JSON(http.StatusOK, gin.H{
		"results": len(metrics),
		"data":    grouped,
	})
}

func parseTimeQuery(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, name+" must be an RFC 3339 timestamp", err)
	}
	return &t, nil
}
