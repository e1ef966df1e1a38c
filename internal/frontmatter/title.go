package frontmatter

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TitleFromName derives a display title from a file or folder name:
// dashes and underscores become spaces and each word is capitalised.
// Existing capitals are kept, so "api-reference" and "API_reference"
// become "Api Reference" and "API Reference".
func TitleFromName(name string) string {
	s := strings.NewReplacer("-", " ", "_", " ").Replace(name)
	s = strings.Join(strings.Fields(s), " ")
	// Casers are stateful; one per call keeps this safe for concurrent use.
	return cases.Title(language.English, cases.NoLower).String(s)
}
