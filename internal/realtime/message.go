package realtime

import (
	"arabic-chatbot.app/internal/chat"
	"arabic-chatbot.app/internal/models"
	"arabic-chatbot.app/internal/speech"
)

// Inbound message types sent by the chat page.
const (
	TypeAsk           = "ask"
	TypeSpeak         = "speak"
	TypeSpeechEnded   = "speech_ended"
	TypeSpeechPaused  = "speech_paused"
	TypeVisibility    = "visibility"
	TypeUnload        = "unload"
	TypeSaveFlashcard = "save_flashcard"
)

// Outbound message types.
const (
	TypeTurn      = "turn"
	TypeState     = "state"
	TypeSpeech    = "speech"
	TypeFlashcard = "flashcard"
	TypeError     = "error"
)

type Inbound struct {
	Type       string       `json:"type"`
	Question   string       `json:"question,omitempty"`
	Level      models.Level `json:"level,omitempty"`
	Diacritics *bool        `json:"diacritics,omitempty"`
	Turn       int          `json:"turn"`
	Hidden     bool         `json:"hidden,omitempty"`
}

func (in Inbound) prefs() chat.Prefs {
	p := chat.DefaultPrefs()
	if in.Level != "" {
		p.Level = in.Level
	}
	if in.Diacritics != nil {
		p.Diacritics = *in.Diacritics
	}
	return p.Normalize()
}

type Outbound struct {
	Type    string        `json:"type"`
	Index   int           `json:"index"`
	Turn    *models.Turn  `json:"turn,omitempty"`
	State   chat.State    `json:"state,omitempty"`
	Action  speech.Action `json:"action,omitempty"`
	Target  int           `json:"target"`
	Text    string        `json:"text,omitempty"`
	Lang    string        `json:"lang,omitempty"`
	Title   string        `json:"title,omitempty"`
	Message string        `json:"message,omitempty"`
}
