package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	configdomain "github.com/maiscriancaoficial/affiliates/internal/globalconfig/domain"
)

func (s *Server) GetGlobalConfig(c *gin.Context) {
	resp, err := s.configSvc.Get(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateGlobalConfig(c *gin.Context) {
	var req configdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.configSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
