package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/svfabworks/factory_backend/utils"
)

const correlationHeader = "X-Correlation-Id"

// SessionMiddleware tags every request with a correlation id, accepting the
// caller's when one is supplied and minting one otherwise. The id rides the
// request context and is echoed back in the response.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationId := c.Request.Header.Get(correlationHeader)
		if correlationId == "" {
			correlationId = uuid.NewString()
		}
		ctx := utils.SetCorrelationIdInContext(c.Request.Context(), correlationId)
		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set(correlationHeader, correlationId)
		c.Next()
	}
}
