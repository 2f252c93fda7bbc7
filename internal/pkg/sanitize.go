package pkg

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// Sanitize 去掉所有标签，保留纯文本
func Sanitize(s string) string {
	cleaned := strictPolicy.Sanitize(s)
	// StrictPolicy 会转义实体，存库保留原始字符
	return strings.TrimSpace(html.UnescapeString(cleaned))
}
