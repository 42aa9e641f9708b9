package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourorg/gateway-normalizer/internal/builder"
	"github.com/yourorg/gateway-normalizer/internal/gwerr"
	"github.com/yourorg/gateway-normalizer/internal/logger"
	"github.com/yourorg/gateway-normalizer/internal/merchant"
	"github.com/yourorg/gateway-normalizer/internal/monitor"
	"github.com/yourorg/gateway-normalizer/internal/orchestrator"
	"github.com/yourorg/gateway-normalizer/internal/reporting"
	"github.com/yourorg/gateway-normalizer/internal/telemetry"
)

const requestIDHeader = "X-Request-ID"

// server holds the collaborators shared by all handlers.
type server struct {
	monitor      *monitor.ContractMonitor
	builder      *builder.Builder
	orchestrator *orchestrator.Orchestrator
	store        reporting.Store
	reporter     *reporting.RetrospectiveReporter
}

// requestID propagates X-Request-ID, generating one when the caller did not send it.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

func (s *server) processTransaction(c *gin.Context) {
	ctx := c.Request.Context()
	log := logger.FromCtx(ctx)

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	valid, violations, err := s.monitor.Validate(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	if !valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": monitor.FormatErrors(violations), "violations": violations})
		return
	}

	req, err := builder.ParseRequest(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	tx, cfg, err := s.builder.Build(ctx, req)
	if err != nil {
		if errors.Is(err, merchant.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		log.Error("failed to build transaction", zap.String("merchant_id", req.MerchantID), zap.Error(err))
		serverError(c, http.StatusInternalServerError, gin.H{"error": "Internal server configuration error"})
		return
	}

	result, err := s.orchestrator.ProcessForMerchant(ctx, cfg.ID, tx)
	if err == nil {
		c.JSON(http.StatusCreated, result)
		return
	}

	var (
		verr   *gwerr.ValidationError
		txErr  *gwerr.TransactionError
		tpErr  *gwerr.TransportError
		cfgErr *gwerr.ConfigurationError
	)
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "fields": verr.Fields})
	case errors.As(err, &txErr):
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error":  txErr.Outcome.String(),
			"reason": txErr.Reason(),
			"result": result,
		})
	case errors.As(err, &tpErr):
		serverError(c, http.StatusBadGateway, gin.H{"error": "gateway unavailable", "id": result.ID})
	case errors.As(err, &cfgErr):
		log.Error("configuration error while processing", zap.Error(err))
		serverError(c, http.StatusInternalServerError, gin.H{"error": "Internal server configuration error"})
	default:
		log.Error("unexpected error while processing", zap.Error(err))
		serverError(c, http.StatusInternalServerError, gin.H{"error": err.Error(), "id": result.ID})
	}
}

// report summarises recorded transactions between the optional RFC 3339
// query parameters from and to.
func (s *server) report(c *gin.Context) {
	from, err := parseTimeParam(c, "from")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from: " + err.Error()})
		return
	}
	to, err := parseTimeParam(c, "to")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to: " + err.Error()})
		return
	}

	entries, err := s.store.List(c.Request.Context(), from, to)
	if err != nil {
		logger.FromCtx(c.Request.Context()).Error("failed to list entries", zap.Error(err))
		serverError(c, http.StatusInternalServerError, gin.H{"error": "failed to load report"})
		return
	}
	c.JSON(http.StatusOK, s.reporter.GenerateRetrospective(entries))
}

// serverError writes a 5xx body carrying the trace id when the request is traced.
func serverError(c *gin.Context, status int, body gin.H) {
	if id := telemetry.TraceID(c.Request.Context()); id != "" {
		body["trace_id"] = id
	}
	c.JSON(status, body)
}

func parseTimeParam(c *gin.Context, name string) (time.Time, error) {
	v := c.Query(name)
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, v)
}

func healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
