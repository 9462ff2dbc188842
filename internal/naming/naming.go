package naming

import (
	"path"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// fallbackName is used when neither the pointer nor the location yields a usable name.
const fallbackName = "Schema"

// ToPascalCase converts a string to PascalCase.
// Separators (underscore, hyphen, dot, slash, space) trigger capitalization of
// the next letter. Characters other than letters and digits are dropped.
//
// Examples:
//
//	"user_profile" -> "UserProfile"
//	"api-client"   -> "ApiClient"
//	"alreadyPascal" -> "AlreadyPascal"
func ToPascalCase(s string) string {
	if s == "" {
		return ""
	}

	titleCaser := cases.Title(language.English, cases.NoLower)

	var result strings.Builder
	result.Grow(len(s))

	capitalizeNext := true
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			capitalizeNext = true
			continue
		}
		if capitalizeNext {
			result.WriteString(titleCaser.String(string(r)))
			capitalizeNext = false
		} else {
			result.WriteRune(r)
		}
	}

	return result.String()
}

// FileStem returns the base name of a location path without its extension.
// Example: "file:///schemas/common-types.json" -> "common-types"
func FileStem(location string) string {
	if i := strings.IndexAny(location, "?#"); i >= 0 {
		location = location[:i]
	}
	base := path.Base(location)
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, path.Ext(base))
}

// DefinitionName derives a name for an inlined target from the unescaped
// pointer tokens of the reference and the location it was loaded from.
// Array indexes are skipped in favour of the nearest named token.
func DefinitionName(location string, tokens []string) string {
	for i := len(tokens) - 1; i >= 0; i-- {
		if isIndex(tokens[i]) {
			continue
		}
		if name := ToPascalCase(tokens[i]); name != "" {
			return name
		}
	}
	if name := ToPascalCase(FileStem(location)); name != "" {
		return name
	}
	return fallbackName
}

// Unique returns a name not reported as taken. It tries name, then the file
// stem of location prefixed to name, then name followed by 2, 3, ...
func Unique(name, location string, taken func(string) bool) string {
	if !taken(name) {
		return name
	}
	if stem := ToPascalCase(FileStem(location)); stem != "" && !strings.HasPrefix(name, stem) {
		qualified := stem + name
		if !taken(qualified) {
			return qualified
		}
	}
	for i := 2; ; i++ {
		candidate := name + strconv.Itoa(i)
		if !taken(candidate) {
			return candidate
		}
	}
}

func isIndex(token string) bool {
	if token == "" {
		return false
	}
	for _, r := range token {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
