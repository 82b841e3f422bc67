package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	commissiondomain "github.com/maiscriancaoficial/affiliates/internal/commission/domain"
)

// SubmitEvent is the tracking ingest endpoint. It is the hottest route in
// the service, so it carries both a global and a per-affiliate rate limit
// when Redis is configured.
func (s *Server) SubmitEvent(c *gin.Context) {
	var req commissiondomain.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.AffiliateID = strings.TrimSpace(req.AffiliateID)
	req.Code = strings.TrimSpace(req.Code)

	if !s.allowEventIngest(c, &req) {
		return
	}

	resp, err := s.commissionSvc.Submit(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) allowEventIngest(c *gin.Context, req *commissiondomain.SubmitRequest) bool {
	if !s.eventLimiter.Enabled() {
		return true
	}
	ctx := c.Request.Context()

	allowed, err := s.eventLimiter.AllowEndpoint(ctx)
	if err == nil && !allowed {
		s.obsMetrics.RecordRateLimitDenied(ctx, "events", "endpoint")
		AbortWithError(c, ErrTooManyRequests)
		return false
	}

	limiterKey := req.Code
	if limiterKey == "" {
		limiterKey = req.AffiliateID
	}
	if limiterKey != "" {
		allowed, err = s.eventLimiter.AllowAffiliate(ctx, limiterKey)
		if err == nil && !allowed {
			s.obsMetrics.RecordRateLimitDenied(ctx, "events", "affiliate")
			AbortWithError(c, ErrTooManyRequests)
			return false
		}
	}

	// Redis being down must not block ingestion; fail open.
	s.obsMetrics.RecordRateLimitAllowed(ctx, "events")
	return true
}
