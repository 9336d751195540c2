// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

func I18nMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("lang", preferredLanguage(c.GetHeader("Accept-Language")))
		c.Next()
	}
}

// preferredLanguage maps an Accept-Language header such as
// "fr-CA,fr;q=0.9,en;q=0.8" onto a supported catalogue.
func preferredLanguage(header string) string {
	if header == "" {
		return "en"
	}
	first := strings.TrimSpace(strings.Split(strings.Split(header, ",")[0], ";")[0])
	switch strings.ToLower(first) {
	case "fr", "fr-fr", "fr-ca", "fr-be", "fr-ch", "fr_fr":
		return "fr"
	default:
		return "en"
	}
}
