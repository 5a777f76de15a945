package main

import (
	"log/slog"
	"net/http"

	"cartorio/pkg/apperr"

	"github.com/gin-gonic/gin"
)

// errorHandler writes the JSON body for the last error a handler attached with c.Error.
func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		status := apperr.StatusOf(err)
		if status >= http.StatusInternalServerError {
			slog.Error("request failed", "method", c.Request.Method, "path", c.Request.URL.Path, "err", err)
		}
		if c.Writer.Written() {
			return
		}
		c.AbortWithStatusJSON(status, gin.H{"message": apperr.PublicMessage(err)})
	}
}

func recoveryHandler(c *gin.Context, recovered any) {
	slog.Error("panic recovered", "method", c.Request.Method, "path", c.Request.URL.Path, "panic", recovered)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": apperr.InternalMessage})
}

func notFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"message": "route not found"})
}
