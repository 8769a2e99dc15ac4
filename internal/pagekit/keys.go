// internal/pagekit/keys.go
package pagekit

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/gridpilot-cli/api/schemas"
)

// modifierAliases maps every accepted modifier spelling onto its bitmask.
var modifierAliases = map[string]schemas.KeyModifier{
	"control": schemas.ModCtrl,
	"ctrl":    schemas.ModCtrl,
	"alt":     schemas.ModAlt,
	"option":  schemas.ModAlt,
	"shift":   schemas.ModShift,
	"meta":    schemas.ModMeta,
	"command": schemas.ModMeta,
	"cmd":     schemas.ModMeta,
}

// namedKeys normalizes common key spellings onto the DOM KeyboardEvent.key
// values the page kit dispatches.
var namedKeys = map[string]string{
	"enter":     "Enter",
	"return":    "Enter",
	"tab":       "Tab",
	"escape":    "Escape",
	"esc":       "Escape",
	"backspace": "Backspace",
	"delete":    "Delete",
	"del":       "Delete",
	"space":     " ",
	"up":        "ArrowUp",
	"down":      "ArrowDown",
	"left":      "ArrowLeft",
	"right":     "ArrowRight",
	"home":      "Home",
	"end":       "End",
	"pageup":    "PageUp",
	"pagedown":  "PageDown",
}

// ParseCombination parses a `+`-joined modifier/key string ("ctrl+shift+t",
// "command+a", "enter") into a KeyChord. Exactly one non-modifier key is
// required; everything before it must be a recognized modifier alias.
func ParseCombination(keys string) (schemas.KeyChord, error) {
	var chord schemas.KeyChord

	parts := strings.Split(keys, "+")
	for _, part := range parts {
		token := strings.ToLower(strings.TrimSpace(part))
		if token == "" {
			return schemas.KeyChord{}, fmt.Errorf("empty token in key combination %q", keys)
		}

		if mod, ok := modifierAliases[token]; ok {
			chord.Modifiers |= mod
			continue
		}

		if chord.Key != "" {
			return schemas.KeyChord{}, fmt.Errorf("key combination %q names more than one key", keys)
		}
		if named, ok := namedKeys[token]; ok {
			chord.Key = named
		} else {
			chord.Key = token
		}
	}

	if chord.Key == "" {
		return schemas.KeyChord{}, fmt.Errorf("key combination %q names no key", keys)
	}
	return chord, nil
}

// IsSelectAll reports whether the chord is the dedicated select-all shortcut
// (control+a / ctrl+a), which is executed as an editing command instead of
// raw key dispatch.
func IsSelectAll(chord schemas.KeyChord) bool {
	return chord.Key == "a" && chord.Modifiers == schemas.ModCtrl
}

// IsBareEnter reports whether the chord is an unmodified Enter, which shares
// the submit path used by type_text_at.
func IsBareEnter(chord schemas.KeyChord) bool {
	return chord.Key == "Enter" && chord.Modifiers == schemas.ModNone
}
