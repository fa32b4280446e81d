package labordash

import (
	"regexp"
	"strings"
)

// AllOccupations is the SOC code of the cross-occupation total row.
const AllOccupations = "00-0000"

var (
	socPattern   = regexp.MustCompile(`^\d{2}-\d{4}$`)
	nonDigit     = regexp.MustCompile(`[^\d]`)
	dashReplacer = strings.NewReplacer("–", "-", "—", "-")
)

// CanonSOC normalizes an occupation code: en and em dashes become hyphens
// and any spelling with exactly six digits ("151252", "15 1252") becomes
// NN-NNNN. Anything else is returned trimmed.
func CanonSOC(code string) string {
	s := strings.TrimSpace(dashReplacer.Replace(code))
	if digits := nonDigit.ReplaceAllString(s, ""); len(digits) == 6 {
		return digits[:2] + "-" + digits[2:]
	}
	return s
}

func ValidSOC(code string) bool {
	return socPattern.MatchString(CanonSOC(code))
}
