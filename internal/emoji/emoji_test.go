package emoji

import "testing"

func TestGetEmojiFallback(t *testing.T) {
	defer SetEmojiDisabled(false)

	SetEmojiDisabled(false)
	if got := GetEmoji("success"); got != "✅" {
		t.Errorf("GetEmoji(success) = %q", got)
	}

	SetEmojiDisabled(true)
	if got := GetEmoji("success"); got != "[OK]" {
		t.Errorf("GetEmoji(success) with emoji disabled = %q", got)
	}
	if got := ForLevel("danger"); got != "[ERR]" {
		t.Errorf("ForLevel(danger) = %q", got)
	}
}

func TestGetEmojiUnknown(t *testing.T) {
	if got := GetEmoji("nope"); got != "[?]" {
		t.Errorf("GetEmoji(nope) = %q", got)
	}
}
