package view

// Selection is the focus state machine: either Unfocused or Focused(id).
// The zero value is Unfocused.
type Selection struct {
	id string
}

// Focused returns a selection focused on id. An empty id is Unfocused.
func Focused(id string) Selection { return Selection{id: id} }

// ID returns the focused framework, or "" when unfocused.
func (s Selection) ID() string { return s.id }

// IsFocused reports whether a framework is focused.
func (s Selection) IsFocused() bool { return s.id != "" }

// Click applies a click that hit id (ok == true) or missed (ok == false).
//
//	Unfocused  --hit b-->          Focused(b)
//	Focused(a) --hit b, b != a-->  Focused(b)
//	Focused(a) --hit a-->          Unfocused
//	Focused(a) --miss-->           Unfocused if deselectOnMiss, else Focused(a)
func (s Selection) Click(id string, ok, deselectOnMiss bool) Selection {
	switch {
	case !ok:
		if deselectOnMiss {
			return Selection{}
		}
		return s
	case id == s.id:
		return Selection{}
	default:
		return Selection{id: id}
	}
}

// Focus jumps straight to Focused(id), bypassing the picker. Focusing the
// already focused framework keeps it focused.
func (s Selection) Focus(id string) Selection { return Selection{id: id} }

// Close returns to Unfocused.
func (s Selection) Close() Selection { return Selection{} }

func (s Selection) String() string {
	if s.id == "" {
		return "unfocused"
	}
	return "focused(" + s.id + ")"
}
