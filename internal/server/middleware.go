package server

import (
	"auction-sync/utils"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestLoggerMiddleware logs every request with its matched route, status and timing.
// Requests against a single auction also carry its id.
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next()

	fields := map[string]any{
		"method":  c.Request.Method,
		"route":   c.FullPath(),
		"path":    c.Request.URL.Path,
		"status":  c.Writer.Status(),
		"latency": time.Since(start).String(),
	}
	if id := c.Param("auction_id"); id != "" {
		fields["auction_id"] = id
	}
	if len(c.Errors) > 0 {
		fields["errors"] = c.Errors.String()
	}

	switch {
	case c.Writer.Status() >= 500:
		utils.Error("HTTP Request", fields)
	case c.Writer.Status() >= 400:
		utils.Warn("HTTP Request", fields)
	default:
		utils.Info("HTTP Request", fields)
	}
}
