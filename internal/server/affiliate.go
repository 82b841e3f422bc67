package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	affiliatedomain "github.com/maiscriancaoficial/affiliates/internal/affiliate/domain"
	commissiondomain "github.com/maiscriancaoficial/affiliates/internal/commission/domain"
	withdrawaldomain "github.com/maiscriancaoficial/affiliates/internal/withdrawal/domain"
)

func (s *Server) CreateAffiliate(c *gin.Context) {
	var req affiliatedomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Code = strings.TrimSpace(req.Code)

	resp, err := s.affiliateSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListAffiliates(c *gin.Context) {
	var req affiliatedomain.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.affiliateSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetAffiliate(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.affiliateSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// GetAffiliateByCode backs referral link resolution. The short-TTL cache
// keeps click redirects off the database.
func (s *Server) GetAffiliateByCode(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))

	if cached, ok := s.codeCache.GetAffiliate(code); ok {
		c.JSON(http.StatusOK, gin.H{"data": cached})
		return
	}

	resp, err := s.affiliateSvc.GetByCode(c.Request.Context(), code)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.codeCache.SetAffiliate(code, resp)

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateAffiliate(c *gin.Context) {
	var req affiliatedomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = strings.TrimSpace(c.Param("id"))

	resp, err := s.affiliateSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	s.codeCache.Invalidate(resp.Code)

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteAffiliate(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.affiliateSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) ApproveAffiliate(c *gin.Context) {
	s.transitionAffiliate(c, s.affiliateSvc.Approve)
}

func (s *Server) RejectAffiliate(c *gin.Context) {
	s.transitionAffiliate(c, s.affiliateSvc.Reject)
}

func (s *Server) ActivateAffiliate(c *gin.Context) {
	s.transitionAffiliate(c, s.affiliateSvc.Activate)
}

func (s *Server) DeactivateAffiliate(c *gin.Context) {
	s.transitionAffiliate(c, s.affiliateSvc.Deactivate)
}

func (s *Server) transitionAffiliate(c *gin.Context, fn func(ctx context.Context, id string) (*affiliatedomain.Response, error)) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := fn(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) AffiliateMetrics(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	recompute, err := parseOptionalBool(c.Query("recompute"))
	if err != nil {
		AbortWithError(c, newValidationError("recompute", "invalid_recompute", "invalid recompute"))
		return
	}

	project := s.dashboardSvc.Project
	if recompute != nil && *recompute {
		project = s.dashboardSvc.Recompute
	}

	resp, err := project(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListAffiliateEvents(c *gin.Context) {
	var req commissiondomain.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.AffiliateID = strings.TrimSpace(c.Param("id"))

	resp, err := s.commissionSvc.ListByAffiliate(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListAffiliateWithdrawals(c *gin.Context) {
	var req withdrawaldomain.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.AffiliateID = strings.TrimSpace(c.Param("id"))

	resp, err := s.withdrawalSvc.ListByAffiliate(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
