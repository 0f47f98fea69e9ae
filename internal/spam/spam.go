// Package spam screens collected items before they reach the bus. Filtering
// happens on the producer side; the store consumer's link uniqueness is the
// authoritative dedupe, this is purely a content gate.
package spam

import (
	"regexp"
	"strings"
)

// Gambling, illegal-service, adult, and loan-scam vocabulary seen across
// the feeds this system collects.
var keywords = []string{
	"카지노", "바카라", "슬롯", "도박", "배팅", "베팅",
	"casino", "baccarat", "gambling", "betting",
	"娱乐", "赌场", "百家乐", "龙虎", "牛牛",
	"토토", "먹튀", "꽁머니", "충전", "환전",
	"성인", "야동", "porn",
	"대출", "급전", "일수", "월변",
}

var patterns = []*regexp.Regexp{
	// QQ contact numbers
	regexp.MustCompile(`(?i)QQ\s*[:：]?\s*\d{5,}`),
	// Telegram handles
	regexp.MustCompile(`(?i)(TG|Telegram|텔레그램)\s*[:：]?\s*@?\w+`),
	// WeChat handles
	regexp.MustCompile(`(?i)(WeChat|微信|위챗)\s*[:：]?\s*\w+`),
	// all-digit throwaway domains
	regexp.MustCompile(`\d{5,}\.com`),
	// gambling slang
	regexp.MustCompile(`上下分|상하분`),
}

// IsSpam reports whether the combined title and description trips the
// keyword list or any contact/domain pattern.
func IsSpam(title, description string) bool {
	return Reason(title, description) != ""
}

// Reason returns the matched keyword or pattern for logging, or "" when
// the text is clean.
func Reason(title, description string) string {
	combined := strings.ToLower(title + " " + description)

	for _, kw := range keywords {
		if strings.Contains(combined, strings.ToLower(kw)) {
			return "keyword: " + kw
		}
	}

	for _, p := range patterns {
		if p.MatchString(combined) {
			return "pattern: " + p.String()
		}
	}

	return ""
}
