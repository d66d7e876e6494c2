package ocr

import (
	"regexp"
	"strings"
)

var (
	reDateCue     = regexp.MustCompile(`\b\d{1,2}\s+(de|of)\s+\p{L}+\s+(de\s+)?\d{4}\b|\b\d{1,2}/\d{1,2}/\d{4}\b`)
	reCertCue     = regexp.MustCompile(`certificad|certificate|certifica|concluiu|completed`)
	reDurationCue = regexp.MustCompile(`\b\d{1,3}\s*(h|horas?|hours?)\b`)
)

// heuristicConfidence scores how much the text looks like a certificate.
func heuristicConfidence(txt string) float32 {
	txtL := strings.ToLower(txt)
	score := float32(0.2) // base
	if reDateCue.MatchString(txtL) {
		score += 0.2
	}
	if reCertCue.MatchString(txtL) {
		score += 0.15
	}
	if reDurationCue.MatchString(txtL) {
		score += 0.15
	}
	if len(txt) > 120 {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
