package synthesize

import "strings"

// Per-engine language tables. Each model accepts its own dialect of
// language codes; anything unmapped falls back to English.
var (
	gttsLanguages = map[string]string{
		"en": "en",
		"tr": "tr",
		"fr": "fr",
		"es": "es",
		"de": "de",
		"ru": "ru",
		"zh": "zh-CN",
		"ja": "ja",
		"ko": "ko",
		"ar": "ar",
	}

	xttsLanguages = map[string]string{
		"en": "en",
		"fr": "fr",
		"tr": "tr",
		"es": "es",
		"it": "it",
		"de": "de",
		"pt": "pt",
		"pl": "pl",
		"ru": "ru",
		"nl": "nl",
		"cs": "cs",
		"ar": "ar",
		"ja": "ja",
		"ko": "ko",
		"hu": "hu",
		"zh": "zh-cn",
	}

	// YourTTS only speaks English, French and Brazilian Portuguese.
	yourTTSLanguages = map[string]string{
		"en": "en",
		"fr": "fr-fr",
		"pt": "pt-br",
		"tr": "en",
		"es": "en",
		"de": "en",
		"ru": "en",
		"zh": "en",
		"ja": "en",
		"ko": "en",
		"ar": "en",
	}
)

const fallbackLanguage = "en"

// remapLanguage translates an ISO language code into the form the engine's
// table expects. A regioned code ("pt-BR") matches its base entry when the
// full code is absent. The second return reports whether the code was
// unmapped and the English fallback was used.
func remapLanguage(table map[string]string, language string) (string, bool) {
	language = strings.ToLower(strings.TrimSpace(language))
	if mapped, ok := table[language]; ok {
		return mapped, false
	}
	if len(language) > 2 {
		if mapped, ok := table[language[:2]]; ok {
			return mapped, false
		}
	}
	return fallbackLanguage, true
}
