package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/lexshield/lifecycle-engine/internal/audit"
	"github.com/lexshield/lifecycle-engine/internal/lifecycle"
	"github.com/lexshield/lifecycle-engine/internal/metrics"
)

// LifecycleHandler exposes the transition engine's decision and introspection
// surface over HTTP. A rejected transition is a normal business outcome and is
// returned with the result body, not as a server fault.
type LifecycleHandler struct {
	validator   *lifecycle.TransitionValidator
	auditLogger *audit.Logger
	collector   *metrics.Collector
	logger      *zap.Logger

	// The rule tables are immutable after startup, so introspection
	// responses can be memoized safely.
	introspectionCache *gocache.Cache
}

// NewLifecycleHandler creates a new lifecycle handler
func NewLifecycleHandler(
	validator *lifecycle.TransitionValidator,
	auditLogger *audit.Logger,
	collector *metrics.Collector,
	logger *zap.Logger,
	cacheTTL time.Duration,
) *LifecycleHandler {
	return &LifecycleHandler{
		validator:          validator,
		auditLogger:        auditLogger,
		collector:          collector,
		logger:             logger,
		introspectionCache: gocache.New(cacheTTL, 2*cacheTTL),
	}
}

// RegisterRoutes registers all lifecycle-related routes
func (h *LifecycleHandler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestIDMiddleware())

	api := router.Group("/api/v1")

	api.POST("/transitions/validate", h.ValidateTransition)
	api.GET("/transitions", h.GetAllTransitions)
	api.GET("/cases/available-transitions", h.GetAvailableTransitions)
	api.GET("/phases/:phase/requirements", h.GetPhaseRequirements)
	api.GET("/case-types/:case_type/workflow", h.GetCaseTypeWorkflow)
	api.GET("/audit/decisions", h.GetRecentDecisions)

	router.GET("/health", h.HealthCheck)
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// ValidateTransition runs the transition decision for a case snapshot.
func (h *LifecycleHandler) ValidateTransition(c *gin.Context) {
	var request struct {
		CurrentState lifecycle.CaseState    `json:"current_state" binding:"required"`
		TargetPhase  string                 `json:"target_phase" binding:"required"`
		Role         string                 `json:"role" binding:"required"`
		Metadata     map[string]interface{} `json:"metadata"`
	}

	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	target, err := lifecycle.ParsePhase(request.TargetPhase)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	role, err := lifecycle.ParseRole(request.Role)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start := time.Now()
	result := h.validator.Validate(request.CurrentState, target, role, request.Metadata)
	h.collector.RecordValidation(string(request.CurrentState.CaseType), string(target),
		result.IsValid, len(result.Warnings), time.Since(start))

	h.auditLogger.RecordDecision(c.GetString("request_id"), request.CurrentState, target, role, result)

	c.JSON(http.StatusOK, result)
}

// GetAllTransitions dumps the full transition table.
func (h *LifecycleHandler) GetAllTransitions(c *gin.Context) {
	h.collector.RecordIntrospection()

	const cacheKey = "all_transitions"
	if cached, found := h.introspectionCache.Get(cacheKey); found {
		c.JSON(http.StatusOK, cached)
		return
	}

	response := gin.H{"transitions": h.validator.AllTransitions()}
	h.introspectionCache.Set(cacheKey, response, gocache.DefaultExpiration)
	c.JSON(http.StatusOK, response)
}

// GetAvailableTransitions lists the phases reachable from the given phase for
// the given role, ignoring metadata state.
func (h *LifecycleHandler) GetAvailableTransitions(c *gin.Context) {
	h.collector.RecordIntrospection()

	phase, err := lifecycle.ParsePhase(c.Query("phase"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	role, err := lifecycle.ParseRole(c.Query("role"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	state := lifecycle.CaseState{Phase: phase}
	if caseType := c.Query("case_type"); caseType != "" {
		ct, err := lifecycle.ParseCaseType(caseType)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		state.CaseType = ct
	}

	c.JSON(http.StatusOK, gin.H{
		"phase":       phase,
		"transitions": h.validator.AvailableTransitions(state, role),
	})
}

// GetPhaseRequirements lists the metadata fields a case of the given type
// must carry in the given phase.
func (h *LifecycleHandler) GetPhaseRequirements(c *gin.Context) {
	h.collector.RecordIntrospection()

	phase, err := lifecycle.ParsePhase(c.Param("phase"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	caseType, err := lifecycle.ParseCaseType(c.Query("case_type"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cacheKey := fmt.Sprintf("requirements:%s:%s", phase, caseType)
	if cached, found := h.introspectionCache.Get(cacheKey); found {
		c.JSON(http.StatusOK, cached)
		return
	}

	requirements := h.validator.PhaseRequirements(phase, caseType)
	if requirements == nil {
		requirements = []string{}
	}
	response := gin.H{
		"phase":           phase,
		"case_type":       caseType,
		"required_fields": requirements,
	}
	h.introspectionCache.Set(cacheKey, response, gocache.DefaultExpiration)
	c.JSON(http.StatusOK, response)
}

// GetCaseTypeWorkflow returns the case-type-specific augmentations of the
// lifecycle.
func (h *LifecycleHandler) GetCaseTypeWorkflow(c *gin.Context) {
	h.collector.RecordIntrospection()

	caseType, err := lifecycle.ParseCaseType(c.Param("case_type"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cacheKey := "workflow:" + string(caseType)
	if cached, found := h.introspectionCache.Get(cacheKey); found {
		c.JSON(http.StatusOK, cached)
		return
	}

	response := gin.H{
		"case_type": caseType,
		"workflow":  h.validator.CaseTypeWorkflow(caseType),
	}
	h.introspectionCache.Set(cacheKey, response, gocache.DefaultExpiration)
	c.JSON(http.StatusOK, response)
}

// GetRecentDecisions returns the in-memory tail of the decision audit trail.
func (h *LifecycleHandler) GetRecentDecisions(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	c.JSON(http.StatusOK, gin.H{"decisions": h.auditLogger.Recent(limit)})
}

// HealthCheck reports service liveness.
func (h *LifecycleHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().UTC(),
	})
}
