package reply

import "strings"

// Normalize removes one leading and one trailing double quote. Models
// sometimes wrap the whole reply in quotes despite being told not to.
func Normalize(s string) string {
	s = strings.TrimPrefix(s, `"`)
	return strings.TrimSuffix(s, `"`)
}
