package util

import (
	"regexp"
	"strings"
)

var ibanPattern = regexp.MustCompile(`^[A-Z]{2}[0-9]{2}[A-Z0-9]{1,30}$`)

// NormalizeIBAN strips all whitespace and uppercases. Applied before every
// store write and every lookup so "pt50 0002 ..." and "PT500002..." collide.
func NormalizeIBAN(iban string) string {
	return strings.ToUpper(strings.Join(strings.Fields(iban), ""))
}

// ValidateIBAN checks the normalized shape: country code, check digits, BBAN.
// It does not verify the mod-97 checksum.
func ValidateIBAN(iban string) bool {
	return ibanPattern.MatchString(NormalizeIBAN(iban))
}
