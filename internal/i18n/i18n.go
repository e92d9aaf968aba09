// Package i18n holds the server-side message catalogs (English and
// Vietnamese) and the lookup used for error, validation and notification text.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"strings"
	"sync"
)

// Lang is a supported catalog language.
type Lang string

const (
	English    Lang = "en"
	Vietnamese Lang = "vi"
)

// ContextKey is the Gin context key holding the resolved request Lang.
const ContextKey = "lang"

//go:embed locales/*.json
var localeFS embed.FS

var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

var (
	mu       sync.RWMutex
	fallback = English
	catalogs = mustLoad()
)

func mustLoad() map[Lang]map[string]interface{} {
	out := make(map[Lang]map[string]interface{})
	for _, lang := range Supported() {
		raw, err := localeFS.ReadFile(path.Join("locales", string(lang)+".json"))
		if err != nil {
			panic(fmt.Sprintf("i18n: read %s catalog: %v", lang, err))
		}
		var tree map[string]interface{}
		if err := json.Unmarshal(raw, &tree); err != nil {
			panic(fmt.Sprintf("i18n: parse %s catalog: %v", lang, err))
		}
		out[lang] = tree
	}
	return out
}

// Supported lists the catalog languages in preference order.
func Supported() []Lang {
	return []Lang{English, Vietnamese}
}

// Parse reports whether raw names a supported language (case-insensitive,
// region subtags ignored).
func Parse(raw string) (Lang, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if i := strings.IndexAny(raw, "-_"); i > 0 {
		raw = raw[:i]
	}
	for _, l := range Supported() {
		if string(l) == raw {
			return l, true
		}
	}
	return "", false
}

// SetFallback sets the language used for unknown languages and for keys
// missing from the requested catalog. Unsupported values are ignored.
func SetFallback(raw string) {
	l, ok := Parse(raw)
	if !ok {
		return
	}
	mu.Lock()
	fallback = l
	mu.Unlock()
}

// Fallback returns the current fallback language.
func Fallback() Lang {
	mu.RLock()
	defer mu.RUnlock()
	return fallback
}

// Resolve maps raw onto a supported language or the fallback.
func Resolve(raw string) Lang {
	if l, ok := Parse(raw); ok {
		return l
	}
	return Fallback()
}

// T translates a dot-separated key. A key missing from both the requested
// and the fallback catalog is returned unchanged. {{name}} placeholders are
// replaced from params; unknown placeholders are left as they are.
func T(lang Lang, key string, params map[string]string) string {
	if _, ok := catalogs[lang]; !ok {
		lang = Fallback()
	}

	msg, ok := lookup(catalogs[lang], key)
	if !ok {
		if msg, ok = lookup(catalogs[Fallback()], key); !ok {
			return key
		}
	}
	return interpolate(msg, params)
}

// Messages returns the whole catalog tree for lang.
func Messages(lang Lang) (map[string]interface{}, bool) {
	tree, ok := catalogs[lang]
	return tree, ok
}

func lookup(tree map[string]interface{}, key string) (string, bool) {
	var node interface{} = tree
	for _, part := range strings.Split(key, ".") {
		m, ok := node.(map[string]interface{})
		if !ok {
			return "", false
		}
		if node, ok = m[part]; !ok {
			return "", false
		}
	}
	s, ok := node.(string)
	return s, ok
}

func interpolate(msg string, params map[string]string) string {
	if len(params) == 0 {
		return msg
	}
	return placeholder.ReplaceAllStringFunc(msg, func(m string) string {
		name := placeholder.FindStringSubmatch(m)[1]
		if v, ok := params[name]; ok {
			return v
		}
		return m
	})
}
