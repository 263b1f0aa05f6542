package handlers

import "github.com/gin-gonic/gin"

// Stable machine-readable error codes, one per failure class.
const (
	CodeUnauthenticated  = "unauthenticated"
	CodeInvalidSignature = "invalid_signature"
	CodeNotFound         = "not_found"
	CodeValidationFailed = "validation_failed"
	CodeTampering        = "tampering_suspected"
	CodeUpstreamFailed   = "upstream_failed"
	CodeInternal         = "internal"
)

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"code":  code,
		"error": message,
	})
}
