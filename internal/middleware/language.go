package middleware

import (
	"github.com/brightstarts/studyvibe-backend/internal/i18n"
	"github.com/gin-gonic/gin"
)

// ContextKeyLangExplicit is set when the request chose its language with ?lang=.
const ContextKeyLangExplicit = "lang_explicit"

// Language resolves the request language from ?lang=, then Accept-Language,
// then the configured default. RequireJWT may later replace a negotiated
// language with the one saved on the token.
func Language() gin.HandlerFunc {
	return func(c *gin.Context) {
		if lang, ok := i18n.Parse(c.Query("lang")); ok {
			c.Set(i18n.ContextKey, lang)
			c.Set(ContextKeyLangExplicit, true)
		} else if lang, ok := i18n.Negotiate(c.GetHeader("Accept-Language")); ok {
			c.Set(i18n.ContextKey, lang)
		} else {
			c.Set(i18n.ContextKey, i18n.Fallback())
		}

		c.Header("Content-Language", string(c.MustGet(i18n.ContextKey).(i18n.Lang)))
		c.Next()
	}
}
