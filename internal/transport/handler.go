package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go-fringe-tracer/internal/config"
	apperrors "go-fringe-tracer/internal/errors"
	"go-fringe-tracer/internal/logger"
	"go-fringe-tracer/internal/observer"
	"go-fringe-tracer/internal/service"
	"go-fringe-tracer/internal/tracer"
	"go-fringe-tracer/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Version is reported by the health check
const Version = "1.0.0"

func NewHandler(svc service.FringeAnalysisService, metrics *observer.MetricsObserver, pool *tracer.WorkerPool, cfg *config.Config) http.Handler {
	r := gin.New()

	r.Use(
		gin.Recovery(),
		requestLogger(),
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	r.GET("/health", healthCheck)
	r.GET("/metrics", metricsHandler(metrics, pool))
	r.POST("/trace", traceFringe(svc, cfg))

	return r
}

func traceFringe(svc service.FringeAnalysisService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		var req models.TraceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		resp, err := svc.TraceImage(ctx, req)
		if err != nil {
			respondError(c, determineStatusCode(err), "fringe trace failed", err)
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

func metricsHandler(metrics *observer.MetricsObserver, pool *tracer.WorkerPool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var resp models.MetricsResponse
		if metrics != nil {
			m := metrics.GetMetrics()
			resp.TotalTraces = m.TotalTraces
			resp.SuccessfulTraces = m.SuccessfulTraces
			resp.FailedTraces = m.FailedTraces
			resp.AbortedSeeds = m.AbortedSeeds
			resp.ProfileFailures = m.ProfileFailures
			resp.AvgProcessingSec = m.AvgProcessingTime.Seconds()
		}
		if pool != nil {
			stats := pool.GetStats()
			resp.PoolWorkers = stats.Workers
			resp.PoolCompletedJobs = stats.CompletedJobs
		}
		c.JSON(http.StatusOK, resp)
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Middleware and helper functions
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          c.ClientIP(),
		}).Info("Request handled")
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err.Err), "request processing failed", err.Err)
		}
	}
}

func determineStatusCode(err error) int {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Warn("Request failed")

	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
