package sentence

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// KagomeTokenizer splits Japanese text at morphemes the IPA dictionary tags
// as sentence-final punctuation (記号/句点) and at full-width ！ and ？.
type KagomeTokenizer struct {
	t *tokenizer.Tokenizer
}

// NewKagomeTokenizer builds a tokenizer over the IPA dictionary.
func NewKagomeTokenizer() (*KagomeTokenizer, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, fmt.Errorf("load kagome ipa dictionary: %w", err)
	}
	return &KagomeTokenizer{t: t}, nil
}

func (k *KagomeTokenizer) Tokenize(text string) []string {
	var out []string
	start, cursor := 0, 0
	justCut := false

	for _, tok := range k.t.Tokenize(text) {
		if tok.Surface == "" {
			continue
		}
		idx := strings.Index(text[cursor:], tok.Surface)
		if idx < 0 {
			continue
		}
		cursor += idx + len(tok.Surface)

		// Closing brackets after 。 belong to the sentence they close.
		if justCut && isClosingBracket(tok) && len(out) > 0 {
			out[len(out)-1] += strings.TrimSpace(text[start:cursor])
			start = cursor
			continue
		}

		justCut = false
		if isSentenceEnd(tok) {
			if s := strings.TrimSpace(text[start:cursor]); s != "" {
				out = append(out, s)
			}
			start = cursor
			justCut = true
		}
	}

	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

func isSentenceEnd(tok tokenizer.Token) bool {
	switch tok.Surface {
	case "。", "！", "？":
		return true
	}
	pos := tok.POS()
	return len(pos) > 1 && pos[0] == "記号" && pos[1] == "句点"
}

func isClosingBracket(tok tokenizer.Token) bool {
	pos := tok.POS()
	return len(pos) > 1 && pos[0] == "記号" && pos[1] == "括弧閉"
}

// ContainsJapanese reports whether text has any Hiragana, Katakana or Han rune.
func ContainsJapanese(text string) bool {
	for _, r := range text {
		if unicode.In(r, unicode.Hiragana, unicode.Katakana, unicode.Han) {
			return true
		}
	}
	return false
}
