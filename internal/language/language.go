package language

import (
	"strings"

	"golang.org/x/text/cases"
	xlang "golang.org/x/text/language"
)

type entry struct {
	code2   string   // ISO 639-1 (2-letter)
	code3   string   // ISO 639-2 primary (3-letter)
	alt3    string   // ISO 639-2 alternate (e.g. "fre" vs "fra")
	display string   // Human-readable name
	words   []string // Full word forms (e.g. "english")
}

var languages = []entry{
	{"en", "eng", "", "English", []string{"english"}},
	{"tr", "tur", "", "Turkish", []string{"turkish"}},
	{"fr", "fra", "fre", "French", []string{"french"}},
	{"es", "spa", "", "Spanish", []string{"spanish"}},
	{"de", "deu", "ger", "German", []string{"german"}},
	{"it", "ita", "", "Italian", []string{"italian"}},
	{"pt", "por", "", "Portuguese", []string{"portuguese"}},
	{"pl", "pol", "", "Polish", []string{"polish"}},
	{"ru", "rus", "", "Russian", []string{"russian"}},
	{"nl", "nld", "dut", "Dutch", []string{"dutch"}},
	{"cs", "ces", "cze", "Czech", []string{"czech"}},
	{"ar", "ara", "", "Arabic", []string{"arabic"}},
	{"zh", "zho", "chi", "Chinese", []string{"chinese"}},
	{"ja", "jpn", "", "Japanese", []string{"japanese"}},
	{"ko", "kor", "", "Korean", []string{"korean"}},
	{"hu", "hun", "", "Hungarian", []string{"hungarian"}},
	{"hi", "hin", "", "Hindi", []string{"hindi"}},
}

var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	byWord = make(map[string]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	if e, ok := byWord[code]; ok {
		return e
	}
	// Regioned forms like "pt-BR" resolve through their base code.
	if idx := strings.IndexAny(code, "-_"); idx > 0 {
		if e, ok := byCode2[code[:idx]]; ok {
			return e
		}
	}
	return nil
}

// ToISO2 converts any recognized language code or word form to ISO 639-1.
// Unrecognized 2-letter codes pass through; anything else returns "".
func ToISO2(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if e := lookup(code); e != nil {
		return e.code2
	}
	if len(code) == 2 {
		return code
	}
	return ""
}

// Known reports whether code resolves to a language in the table.
func Known(code string) bool {
	return lookup(code) != nil
}

// DisplayName returns a human-readable language name for any recognized code.
// Returns "Unknown" for empty input, or a title-cased form of the raw input
// for unrecognized codes.
func DisplayName(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "Unknown"
	}
	if e := lookup(trimmed); e != nil {
		return e.display
	}
	return cases.Title(xlang.Und).String(strings.ToLower(trimmed))
}

// Supported returns the ISO 639-1 codes of every language in the table, in
// table order.
func Supported() []string {
	codes := make([]string, 0, len(languages))
	for i := range languages {
		codes = append(codes, languages[i].code2)
	}
	return codes
}
