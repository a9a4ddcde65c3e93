package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/danmuck/bitsctl/internal/batch"
	"github.com/danmuck/bitsctl/internal/observability"
	"github.com/danmuck/bitsctl/internal/packet"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type decodeRequest struct {
	Hex  string `json:"hex" binding:"required"`
	Tree bool   `json:"tree"`
}

type decodeResponse struct {
	VersionSum   uint64 `json:"version_sum"`
	Value        int64  `json:"value"`
	BitsConsumed int    `json:"bits_consumed"`
	Tree         string `json:"tree,omitempty"`
}

func (s *Server) RegisterRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.Appeared).String(),
			"service": s.Name,
			"version": Version,
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.POST("/v1/decode", s.handleDecode)
}

func (s *Server) handleDecode(c *gin.Context) {
	var req decodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res := batch.One(0, req.Hex, s.Limits)
	observability.RecordDecode(res.Bits, res.Err)
	c.Set(observability.ContextResultKey, observability.ResultLabel(res.Err))
	if res.Err != nil {
		c.JSON(statusFor(res.Err), gin.H{
			"error":  res.Err.Error(),
			"result": observability.ResultLabel(res.Err),
		})
		return
	}

	body := decodeResponse{
		VersionSum:   res.VersionSum,
		Value:        res.Value,
		BitsConsumed: res.Bits,
	}
	if req.Tree {
		body.Tree = packet.Format(res.Packet)
	}
	c.JSON(http.StatusOK, body)
}

func statusFor(err error) int {
	if errors.Is(err, packet.ErrInvalidInput) {
		return http.StatusBadRequest
	}
	return http.StatusUnprocessableEntity
}
