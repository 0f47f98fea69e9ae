// Package htmlutil normalizes source-provided HTML fragments into plain
// text suitable for the bus: tag stripping, entity decoding, whitespace
// collapsing, and truncation.
package htmlutil

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	tagExpr        = regexp.MustCompile(`<[^>]*>`)
	numericRefExpr = regexp.MustCompile(`&#(\d{1,7});`)
	hexRefExpr     = regexp.MustCompile(`&#[xX]([0-9a-fA-F]{1,6});`)
	spaceExpr      = regexp.MustCompile(`\s+`)
)

var namedEntities = strings.NewReplacer(
	"&quot;", `"`,
	"&apos;", "'",
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&nbsp;", " ",
	"&middot;", "·",
	"&hellip;", "...",
	"&ndash;", "–",
	"&mdash;", "—",
	"&lsquo;", "'",
	"&rsquo;", "'",
	"&ldquo;", `"`,
	"&rdquo;", `"`,
)

// Clean strips tags, decodes entities, and collapses whitespace.
func Clean(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	return strings.TrimSpace(DecodeEntities(RemoveTags(text)))
}

// RemoveTags drops every <...> markup fragment.
func RemoveTags(text string) string {
	return tagExpr.ReplaceAllString(text, "")
}

// DecodeEntities resolves named, numeric, and hex HTML entities and
// collapses runs of whitespace into single spaces.
func DecodeEntities(text string) string {
	result := namedEntities.Replace(text)

	result = numericRefExpr.ReplaceAllStringFunc(result, func(ref string) string {
		code, err := strconv.Atoi(ref[2 : len(ref)-1])
		if err != nil || code < 0 || code > 0x10FFFF {
			return ref
		}
		return string(rune(code))
	})

	result = hexRefExpr.ReplaceAllStringFunc(result, func(ref string) string {
		code, err := strconv.ParseInt(ref[3:len(ref)-1], 16, 32)
		if err != nil || code < 0 || code > 0x10FFFF {
			return ref
		}
		return string(rune(code))
	})

	return spaceExpr.ReplaceAllString(result, " ")
}

// Truncate limits text to maxLen runes and appends an ellipsis when cut.
func Truncate(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen]) + "..."
}
