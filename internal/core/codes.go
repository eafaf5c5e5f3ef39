package core

import (
	"regexp"
	"strings"
)

// codePattern matches the participant code embedded in media filenames:
// "QR" followed by seven digits, in any letter case.
var codePattern = regexp.MustCompile(`(?i)QR\d{7}`)

// ExtractCode returns the upper-cased code embedded in filename.
// Only the leftmost match is used. ok is false when the name carries no code.
//
//	ExtractCode("IMG_222_qr1234567.jpg") // "QR1234567", true
func ExtractCode(filename string) (code string, ok bool) {
	m := codePattern.FindString(filename)
	if m == "" {
		return "", false
	}
	return strings.ToUpper(m), true
}
