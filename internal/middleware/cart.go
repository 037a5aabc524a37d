package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

var cartIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:-]{0,127}$`)

// CartSessionMiddleware requires the X-Cart-ID header naming the shopper's
// cart and stores it in the context as cart_id.
func CartSessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cartID := strings.TrimSpace(c.GetHeader("X-Cart-ID"))
		if cartID == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "CART_REQUIRED",
					"message": "Cart ID is required. Include X-Cart-ID header.",
				},
			})
			c.Abort()
			return
		}

		if !cartIDPattern.MatchString(cartID) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_CART_ID",
					"message": "X-Cart-ID may only contain letters, digits, '.', '_', ':' and '-'",
					"field":   "X-Cart-ID",
				},
			})
			c.Abort()
			return
		}

		c.Set("cart_id", cartID)
		c.Next()
	}
}

// GetCartID retrieves the cart ID from gin context
func GetCartID(c *gin.Context) string {
	return c.GetString("cart_id")
}
