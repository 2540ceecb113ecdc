// Package countries maps ISO 3166-1 alpha-2 codes to English country names.
package countries

import (
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Unknown is the name of codes that are not countries.
const Unknown = "unknown"

var names = sync.OnceValue(func() map[string]string {
	namer := display.English.Regions()
	m := make(map[string]string)
	for a := 'A'; a <= 'Z'; a++ {
		for b := 'A'; b <= 'Z'; b++ {
			code := string([]rune{a, b})
			region, err := language.ParseRegion(code)
			if err != nil || !region.IsCountry() {
				continue
			}
			if name := namer.Name(region); name != "" {
				m[code] = name
			}
		}
	}
	return m
})

// Name returns the English name of the country with the given code, or
// Unknown.
func Name(code string) string {
	if name, ok := names()[strings.ToUpper(code)]; ok {
		return name
	}
	return Unknown
}
