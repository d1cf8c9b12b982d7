package router

import (
	"strings"
	"unicode"
)

// Spoken lines.
const (
	MsgSilenceTimeout   = "No response detected. Going back to monitoring mode."
	MsgAck              = "Got it!"
	MsgClosingMaps      = "Closing maps."
	MsgOpeningMaps      = "Opening maps."
	MsgGoodbye          = "Goodbye driver."
	MsgMonitoringOn     = "Switching to monitoring mode."
	MsgMonitoringOff    = "Monitoring is disabled"
	MsgRepeatName       = "sorry i didnt catch the name can you repeat it"
	MsgSayAgain         = "Please say it again."
	MsgNoMessage        = "No message received, leaving."
	MsgMessageSent      = "Message sent."
	MsgWhereTo          = "Where would you like to go?"
	MsgRouteFailed      = "Sorry, I couldn't calculate the route."
	MsgLocationNotFound = "Sorry, I couldn't find that location."
	MsgWeatherFailed    = "Sorry, I couldn't fetch the weather right now."
	MsgChatFailed       = "Sorry, I couldn't process that."
)

var (
	mapClosePhrases = []string{"close gps", "stop gps", "turn off gps", "hide gps", "close map", "close maps", "stop map", "hide map"}
	mapOpenPhrases  = []string{"open gps", "turn on gps", "open map", "open maps", "show map"}
	farewellPhrases = []string{"goodbye", "bye", "thank you", "thanks", "exit"}
	enablePhrases   = []string{"enable monitoring", "back to monitoring", "start monitoring", "start monitor"}
	disablePhrases  = []string{"disable monitoring", "off monitoring", "end monitoring", "stop monitoring", "turn off monitoring"}
	contactPhrases  = []string{"send", "text", "message", "whatsapp", "call", "voice call", "make a call", "ring"}
	callPhrases     = []string{"call", "voice call", "make a call", "ring"}
)

// normalize lower-cases text and collapses punctuation and runs of spaces
// into single spaces.
func normalize(text string) string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	return strings.Join(fields, " ")
}

// containsPhrase reports whether any phrase occurs anywhere in norm, so
// "calling" and "texting" still hit "call" and "text". norm must come from
// normalize.
func containsPhrase(norm string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(norm, p) {
			return true
		}
	}
	return false
}
