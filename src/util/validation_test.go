package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeIBAN(t *testing.T) {
	cases := map[string]string{
		"PT50 0002 1234":        "PT5000021234",
		"pt50 0002 1234":        "PT5000021234",
		"PT5000021234":          "PT5000021234",
		"  pt50\t0002  1234\n":  "PT5000021234",
		"de89 3704 0044 0532 0": "DE893704004405320",
	}
	for input, want := range cases {
		assert.Equal(t, want, NormalizeIBAN(input), "input %q", input)
	}
}

func TestValidateIBAN(t *testing.T) {
	valid := []string{
		"PT50000201231234567890154",
		"pt50 0002 0123 1234 5678 9015 4",
		"PT50 0002 1234",
		"DE89370400440532013000",
		"GB29NWBK60161331926819",
	}
	for _, iban := range valid {
		assert.True(t, ValidateIBAN(iban), "iban %q", iban)
	}

	invalid := []string{
		"",
		"1234",
		"PT50", // country code and check digits with no account part
		"PT-not-an-iban",
		"P150000201231234567890154", // digit where the country code goes
		"PT5X000201231234567890154", // letter where the check digits go
	}
	for _, iban := range invalid {
		assert.False(t, ValidateIBAN(iban), "iban %q", iban)
	}
}
