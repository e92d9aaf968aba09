package i18n

import "golang.org/x/text/language"

var (
	supportedTags = []language.Tag{language.English, language.Vietnamese}
	matcher       = language.NewMatcher(supportedTags)
)

// Negotiate picks a catalog language from an Accept-Language header value.
// It returns ok=false when the header is empty, malformed or names no
// language the server supports.
func Negotiate(acceptLanguage string) (Lang, bool) {
	if acceptLanguage == "" {
		return "", false
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return "", false
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return "", false
	}
	return Supported()[idx], true
}
