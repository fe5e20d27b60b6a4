package model

import "regexp"

const ipv4Octet = `(\d{1,2}|(0|1)\d{2}|2[0-4]\d|25[0-5])`

var ipv4Pattern = regexp.MustCompile(`^` + ipv4Octet + `\.` + ipv4Octet + `\.` + ipv4Octet + `\.` + ipv4Octet + `$`)

// IsValidIPv4 reports whether s is a dotted quad with every octet in 0-255.
// Leading zeros are accepted up to three digits, so "010.8.6.50" is valid.
func IsValidIPv4(s string) bool {
	return ipv4Pattern.MatchString(s)
}
