package domain

// KeyboardKind selects how the transport renders a keyboard.
type KeyboardKind string

const (
	KeyboardReply  KeyboardKind = "reply"
	KeyboardInline KeyboardKind = "inline"
	KeyboardRemove KeyboardKind = "remove"
)

// Button is a single keyboard key. Data is only used by inline keyboards.
type Button struct {
	Label string
	Data  string
}

// Keyboard is a transport-neutral keyboard layout.
type Keyboard struct {
	Kind KeyboardKind
	Rows [][]Button
}

// ReplyKeyboard builds a reply keyboard with one row per label group.
func ReplyKeyboard(rows ...[]string) *Keyboard {
	kb := &Keyboard{Kind: KeyboardReply}
	for _, row := range rows {
		buttons := make([]Button, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, Button{Label: label})
		}
		kb.Rows = append(kb.Rows, buttons)
	}
	return kb
}

// InlineKeyboard builds an inline keyboard with one button per row.
func InlineKeyboard(buttons ...Button) *Keyboard {
	kb := &Keyboard{Kind: KeyboardInline}
	for _, b := range buttons {
		kb.Rows = append(kb.Rows, []Button{b})
	}
	return kb
}

// RemoveKeyboard asks the transport to hide any reply keyboard.
func RemoveKeyboard() *Keyboard {
	return &Keyboard{Kind: KeyboardRemove}
}
