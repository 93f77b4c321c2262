package chat

import "strings"

// sensitiveKeywords mark questions that can only be answered with profile
// data. Matching is substring-based so phrasing around the keyword does not
// matter.
var sensitiveKeywords = []string{
	"my name",
	"my email",
	"who am i",
	"about me",
	"my profile",
	"my info",
	"my details",
	"tell me about myself",
	"what do you know about me",
}

// NeedsApproval reports whether answering the message requires access to the
// subject's personal information.
func NeedsApproval(message string) bool {
	lower := strings.ToLower(message)
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
