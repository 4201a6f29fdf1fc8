package emoji

import "sync/atomic"

// emojiMap holds emoji and fallback mappings
var emojiMap = map[string][2]string{
	// [emoji, fallback]
	"error":     {"❌", "[ERR]"},
	"warning":   {"⚠️", "[WRN]"},
	"info":      {"ℹ️", "[INF]"},
	"success":   {"✅", "[OK]"},
	"analyze":   {"🔍", "[ANL]"},
	"filter":    {"🧮", "[FLT]"},
	"wordcloud": {"☁️", "[WC]"},
	"download":  {"💾", "[DL]"},
	"highlight": {"🖍️", "[HL]"},
	"file":      {"📄", "[F]"},
	"loading":   {"⏳", "[..]"},
	"help":      {"❓", "[?]"},
	"rocket":    {"🚀", "[NGL]"},
	"door":      {"🚪", "[EXIT]"},
	"number":    {"🔢", "[#]"},
	"checked":   {"☑️", "[x]"},
	"unchecked": {"⬜", "[ ]"},
	"watch":     {"👀", "[W]"},
}

var emojiDisabled atomic.Bool

// SetEmojiDisabled sets the global emoji disabled state
func SetEmojiDisabled(disabled bool) {
	emojiDisabled.Store(disabled)
}

// IsEmojiDisabled returns the current emoji disabled state
func IsEmojiDisabled() bool {
	return emojiDisabled.Load()
}

// GetEmoji returns emoji or fallback based on no-emoji setting
func GetEmoji(key string) string {
	if mapping, exists := emojiMap[key]; exists {
		if emojiDisabled.Load() {
			return mapping[1]
		}
		return mapping[0]
	}
	return "[?]"
}

// ForLevel returns the symbol for a notice level name
func ForLevel(level string) string {
	switch level {
	case "danger":
		return GetEmoji("error")
	case "warning":
		return GetEmoji("warning")
	case "success":
		return GetEmoji("success")
	default:
		return GetEmoji("info")
	}
}
