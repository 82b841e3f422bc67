package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	withdrawaldomain "github.com/maiscriancaoficial/affiliates/internal/withdrawal/domain"
)

func (s *Server) SubmitWithdrawal(c *gin.Context) {
	var req withdrawaldomain.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.AffiliateID = strings.TrimSpace(req.AffiliateID)

	resp, err := s.withdrawalSvc.Submit(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
