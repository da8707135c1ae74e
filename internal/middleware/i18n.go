// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/agrimarket-backend/internal/i18n"
)

func I18nMiddleware(defaultLang string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("lang", preferredLanguage(c.GetHeader("Accept-Language"), defaultLang))
		c.Next()
	}
}

// preferredLanguage walks an Accept-Language header such as
// "fr-CA,fr;q=0.9,en;q=0.8" and returns the first supported base language.
func preferredLanguage(header, defaultLang string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.Split(part, ";")[0])
		if tag == "" || tag == "*" {
			continue
		}
		subtags := strings.FieldsFunc(tag, func(r rune) bool {
			return r == '-' || r == '_'
		})
		if len(subtags) == 0 {
			continue
		}
		if base := strings.ToLower(subtags[0]); i18n.IsSupported(base) {
			return base
		}
	}
	return defaultLang
}
