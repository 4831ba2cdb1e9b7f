package domain

import (
	"regexp"
	"strings"
)

var nonTokenChars = regexp.MustCompile(`[^a-z0-9]+`)

// IconToken is the inline marker injected into page text for a classified icon.
type IconToken struct {
	ClusterID      int    `json:"cluster_id"`
	Token          string `json:"token"`
	Label          string `json:"label"`
	Meaning        string `json:"meaning"`
	Description    string `json:"description"`
	Representative string `json:"representative"`
}

// NormalizeLabel maps any label to a non-empty lowercase [a-z0-9_] string.
// Labels differing only in case or punctuation normalise identically.
func NormalizeLabel(label string) string {
	s := nonTokenChars.ReplaceAllString(strings.ToLower(label), "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return UnknownLabel
	}
	return s
}

// TokenFor returns the inline token for a label, e.g. "<icon:start_button>".
func TokenFor(label string) string {
	return "<icon:" + NormalizeLabel(label) + ">"
}

// NewIconToken derives the token record for a classification.
func NewIconToken(c IconClassification) IconToken {
	return IconToken{
		ClusterID:      c.ClusterID,
		Token:          TokenFor(c.Label),
		Label:          c.Label,
		Meaning:        c.Meaning,
		Description:    c.Description,
		Representative: c.Path,
	}
}
