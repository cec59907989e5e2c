package language

import (
	"strings"

	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

type entry struct {
	code2   string   // ISO 639-1
	code3   string   // ISO 639-2/T
	alt3    string   // ISO 639-2/B where it differs
	display string   // English name
	words   []string // spelled-out forms seen in container tags
}

// Covers the languages most often tagged on movie releases. Anything else
// goes through the x/text base-language parser.
var languages = []entry{
	{"en", "eng", "", "English", []string{"english"}},
	{"es", "spa", "", "Spanish", []string{"spanish", "castellano"}},
	{"fr", "fra", "fre", "French", []string{"french", "francais"}},
	{"de", "deu", "ger", "German", []string{"german", "deutsch"}},
	{"it", "ita", "", "Italian", []string{"italian"}},
	{"pt", "por", "", "Portuguese", []string{"portuguese"}},
	{"ja", "jpn", "", "Japanese", []string{"japanese"}},
	{"ko", "kor", "", "Korean", []string{"korean"}},
	{"zh", "zho", "chi", "Chinese", []string{"chinese", "mandarin", "cantonese"}},
	{"ru", "rus", "", "Russian", []string{"russian"}},
	{"hi", "hin", "", "Hindi", []string{"hindi"}},
	{"nl", "nld", "dut", "Dutch", []string{"dutch"}},
	{"sv", "swe", "", "Swedish", []string{"swedish"}},
	{"da", "dan", "", "Danish", []string{"danish"}},
	{"no", "nor", "", "Norwegian", []string{"norwegian"}},
}

var (
	byCode2 = map[string]*entry{}
	byCode3 = map[string]*entry{}
	byWord  = map[string]*entry{}
)

func init() {
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

func clean(code string) string {
	return strings.ToLower(strings.TrimSpace(strings.ReplaceAll(code, "\u0000", "")))
}

func lookup(code string) *entry {
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	return byWord[code]
}

// parseBase resolves codes outside the local table, including IETF tags
// such as "en-US" or "pt-BR".
func parseBase(code string) (xlanguage.Base, bool) {
	base, err := xlanguage.ParseBase(code)
	if err == nil {
		return base, true
	}
	tag, err := xlanguage.Parse(code)
	if err != nil {
		return xlanguage.Base{}, false
	}
	base, conf := tag.Base()
	return base, conf != xlanguage.No
}

// ToISO2 converts a language code, IETF tag, or English word to ISO 639-1.
// Unknown two-letter input passes through; anything else unrecognized
// returns "".
func ToISO2(code string) string {
	code = clean(code)
	if code == "" {
		return ""
	}
	if e := lookup(code); e != nil {
		return e.code2
	}
	if base, ok := parseBase(code); ok {
		if s := base.String(); len(s) == 2 {
			return s
		}
	}
	if len(code) == 2 {
		return code
	}
	return ""
}

// ToISO3 converts a language code to ISO 639-2. Unrecognized three-letter
// codes pass through and everything else becomes "und".
func ToISO3(code string) string {
	code = clean(code)
	if code == "" {
		return "und"
	}
	if e := lookup(code); e != nil {
		return e.code3
	}
	if base, ok := parseBase(code); ok {
		if iso3 := base.ISO3(); iso3 != "" && iso3 != "und" {
			return iso3
		}
	}
	if len(code) == 3 {
		return code
	}
	return "und"
}

// DisplayName returns the English name of a language.
func DisplayName(code string) string {
	code = clean(code)
	if code == "" {
		return "Unknown"
	}
	if e := lookup(code); e != nil {
		return e.display
	}
	if base, ok := parseBase(code); ok {
		if name := display.English.Languages().Name(base); name != "" {
			return name
		}
	}
	return strings.ToUpper(code)
}

// ExtractFromTags returns the lowercased language value from stream tags.
func ExtractFromTags(tags map[string]string) string {
	if len(tags) == 0 {
		return ""
	}
	for _, key := range []string{"language", "LANGUAGE", "Language", "language_ietf", "lang", "LANG"} {
		if value := clean(tags[key]); value != "" {
			return value
		}
	}
	return ""
}

// NormalizeList maps every entry to ISO 639-1 where possible and drops
// blanks and duplicates, keeping first-seen order.
func NormalizeList(codes []string) []string {
	if len(codes) == 0 {
		return nil
	}
	out := make([]string, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		value := clean(code)
		if value == "" {
			continue
		}
		if mapped := ToISO2(value); mapped != "" {
			value = mapped
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}

// AnyHasPrefix reports whether any code in codes starts with prefix after
// lowercasing. Matching is on the raw value so "en", "eng", and "en-US"
// all match "en".
func AnyHasPrefix(codes []string, prefix string) bool {
	prefix = clean(prefix)
	for _, code := range codes {
		if strings.HasPrefix(clean(code), prefix) {
			return true
		}
	}
	return false
}

// HasEnglish reports whether any audio or subtitle track is English.
func HasEnglish(audio, subtitles []string) bool {
	return AnyHasPrefix(audio, "en") || AnyHasPrefix(subtitles, "en")
}
