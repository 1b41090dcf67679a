package domain

// TagColor is one of the fixed palette values a tag can carry.
type TagColor string

const (
	TagRed    TagColor = "red"
	TagGreen  TagColor = "green"
	TagBlue   TagColor = "blue"
	TagOrange TagColor = "orange"
	TagPurple TagColor = "purple"
	TagPink   TagColor = "pink"
	TagIndigo TagColor = "indigo"
	TagTeal   TagColor = "teal"
	TagGray   TagColor = "gray"
)

// DefaultTagColor is used when a tag is created without an explicit color.
const DefaultTagColor = TagBlue

// AllTagColors returns the palette in display order.
func AllTagColors() []TagColor {
	return []TagColor{
		TagRed, TagGreen, TagBlue, TagOrange, TagPurple,
		TagPink, TagIndigo, TagTeal, TagGray,
	}
}

// ParseTagColor maps a stored string back to a palette value, reporting
// whether it was recognized.
func ParseTagColor(s string) (TagColor, bool) {
	c := TagColor(s)
	if _, ok := styles[c]; ok {
		return c, true
	}
	return DefaultTagColor, false
}

// ColorStyle is the presentation descriptor for a tag color: the badge
// background and a readable text color for it. It carries no UI-framework
// types so the mapping stays independently testable.
type ColorStyle struct {
	Hex      string
	Contrast string
}

var styles = map[TagColor]ColorStyle{
	TagRed:    {Hex: "#e5484d", Contrast: "#ffffff"},
	TagGreen:  {Hex: "#46a758", Contrast: "#ffffff"},
	TagBlue:   {Hex: "#0091ff", Contrast: "#ffffff"},
	TagOrange: {Hex: "#f76b15", Contrast: "#ffffff"},
	TagPurple: {Hex: "#8e4ec6", Contrast: "#ffffff"},
	TagPink:   {Hex: "#d6409f", Contrast: "#ffffff"},
	TagIndigo: {Hex: "#3e63dd", Contrast: "#ffffff"},
	TagTeal:   {Hex: "#12a594", Contrast: "#ffffff"},
	TagGray:   {Hex: "#8d8d8d", Contrast: "#1a1a1a"},
}

// Style returns the presentation descriptor for the color. Unknown values
// fall back to the default color's style so the lookup is total.
func (c TagColor) Style() ColorStyle {
	if s, ok := styles[c]; ok {
		return s
	}
	return styles[DefaultTagColor]
}
