package service

import (
	"regexp"
	"sofinlearn/internal/constants"
	"sofinlearn/internal/domain"
	"strings"
)

// Display names are sanitized and profanity-filtered here, at the
// boundary. The ledger itself never validates names.

var (
	htmlCharsRe    = regexp.MustCompile(`[<>'"&]`)
	jsProtocolRe   = regexp.MustCompile(`(?i)javascript:`)
	eventHandlerRe = regexp.MustCompile(`(?i)on\w+=`)
	allowedNameRe  = regexp.MustCompile(`^[a-zA-Z0-9\s._-]+$`)
)

var badWords = []string{
	"anjing", "babi", "bangsat", "bajingan", "kontol", "memek", "ngentot", "fuck", "shit",
	"bitch", "ass", "damn", "hell", "dick", "pussy", "cock", "cunt", "bastard", "asshole",
	"tolol", "goblok", "bodoh", "idiot", "stupid", "jancok", "cok", "tai", "puki", "perek",
}

func sanitizeName(input string) string {
	s := htmlCharsRe.ReplaceAllString(input, "")
	s = jsProtocolRe.ReplaceAllString(s, "")
	s = eventHandlerRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	if len(s) > constants.PlayerNameMaxLen {
		s = s[:constants.PlayerNameMaxLen]
	}
	return s
}

func containsBadWord(name string) bool {
	lower := strings.ToLower(name)
	for _, w := range badWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// ValidateName returns the sanitized display name or the reason it was
// rejected.
func ValidateName(input string) (string, error) {
	name := sanitizeName(input)
	if len(name) < constants.PlayerNameMinLen || len(name) > constants.PlayerNameMaxLen {
		return "", domain.ErrNameInvalid
	}
	if !allowedNameRe.MatchString(name) {
		return "", domain.ErrNameInvalid
	}
	if containsBadWord(name) {
		return "", domain.ErrNameInappropriate
	}
	return name, nil
}
