package component

import (
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/unicode/norm"
)

// Text is a drawable string. Content is kept NFC-normalized; Width is its
// terminal column width, used for layout by renderers.
type Text struct {
	Font  string
	Size  float64
	Color uint32

	content string
	width   int
}

func (*Text) Kind() Kind { return KindText }
func (*Text) sealed()    {}

func NewText(content, font string, size float64) *Text {
	t := &Text{Font: font, Size: size, Color: 0xFFFFFFFF}
	t.SetContent(content)
	return t
}

func (t *Text) Content() string { return t.content }
func (t *Text) Width() int      { return t.width }

// SetContent normalizes s and remeasures it.
func (t *Text) SetContent(s string) {
	t.content = norm.NFC.String(s)
	t.width = runewidth.StringWidth(t.content)
}

func (t *Text) document() map[string]any {
	return map[string]any{
		"content": t.content,
		"font":    t.Font,
		"size":    t.Size,
		"color":   t.Color,
	}
}
