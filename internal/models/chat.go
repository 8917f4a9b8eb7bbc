// internal/models/chat.go
package models

type TurnRole string

const (
	TurnUser TurnRole = "user"
	TurnBot  TurnRole = "bot"
)

type Media struct {
	EmbedURL string `json:"embed_url"`
	WatchURL string `json:"watch_url"`
}

type Turn struct {
	Role  TurnRole `json:"role"`
	Text  string   `json:"text"`
	Media *Media   `json:"media,omitempty"`
}

type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

var Levels = []Level{LevelBeginner, LevelIntermediate, LevelAdvanced}

func (l Level) Valid() bool {
	for _, v := range Levels {
		if v == l {
			return true
		}
	}
	return false
}

type Language string

const (
	LanguageEnglish Language = "English"
	LanguageGerman  Language = "Deutsch"
	LanguageArabic  Language = "Arabic"
)

var Languages = []Language{LanguageEnglish, LanguageGerman, LanguageArabic}

func (l Language) Valid() bool {
	for _, v := range Languages {
		if v == l {
			return true
		}
	}
	return false
}

// SpeechLang is the BCP 47 tag handed to the browser speech engine.
func (l Language) SpeechLang() string {
	switch l {
	case LanguageArabic:
		return "ar-SA"
	case LanguageGerman:
		return "de-DE"
	default:
		return "en-US"
	}
}
