package provider

// Language selects the recognition engine and synthesis voice. The kiosk
// serves Mandarin, English and Cantonese visitors.
type Language string

const (
	LangMandarin  Language = "CHN"
	LangEnglish   Language = "ENG"
	LangCantonese Language = "CAN"
)

// ParseLanguage normalizes a request value; anything unrecognized falls
// back to Mandarin, the kiosk's default.
func ParseLanguage(s string) Language {
	switch Language(s) {
	case LangEnglish:
		return LangEnglish
	case LangCantonese:
		return LangCantonese
	default:
		return LangMandarin
	}
}

// engineModel maps a language to the transcription engine model type.
func (l Language) engineModel() string {
	switch l {
	case LangEnglish:
		return "16k_en"
	case LangCantonese:
		return "16k_yue"
	default:
		return "16k_zh_dialect"
	}
}

// voiceType maps a language to the synthesis voice id.
func (l Language) voiceType() int {
	switch l {
	case LangEnglish:
		return 101050
	case LangCantonese:
		return 101019
	default:
		return 301038
	}
}
