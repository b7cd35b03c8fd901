package sanitizer

import "strings"

var amountNoise = strings.NewReplacer("$", "", ",", "", " ", "", "\u00a0", "")

// NormalizeAmount turns "$1,200.50 " into "1200.50". It does not check that
// the result is a number.
func NormalizeAmount(amount string) string {
	return amountNoise.Replace(strings.TrimSpace(amount))
}
