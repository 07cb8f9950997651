package model

import "strings"

// Swatch is a palette token resolved to concrete hex colours, for
// renderers that cannot use the utility classes directly.
type Swatch struct {
	Fill   string
	Text   string
	Border string
}

var swatches = map[string]Swatch{
	"blue":   {Fill: "#DBEAFE", Text: "#1E40AF", Border: "#60A5FA"},
	"green":  {Fill: "#DCFCE7", Text: "#166534", Border: "#4ADE80"},
	"orange": {Fill: "#FFEDD5", Text: "#9A3412", Border: "#FB923C"},
	"red":    {Fill: "#FEE2E2", Text: "#991B1B", Border: "#F87171"},
	"purple": {Fill: "#F3E8FF", Text: "#6B21A8", Border: "#C084FC"},
	"pink":   {Fill: "#FCE7F3", Text: "#9D174D", Border: "#F472B6"},
	"yellow": {Fill: "#FEF9C3", Text: "#854D0E", Border: "#FACC15"},
	"teal":   {Fill: "#CCFBF1", Text: "#115E59", Border: "#2DD4BF"},
	"indigo": {Fill: "#E0E7FF", Text: "#3730A3", Border: "#818CF8"},
}

// SwatchFor resolves a colour token by its "bg-<family>-" class. Unknown
// tokens get the first palette entry's swatch.
func SwatchFor(token string) Swatch {
	for _, class := range strings.Fields(token) {
		rest, ok := strings.CutPrefix(class, "bg-")
		if !ok {
			continue
		}
		family, _, _ := strings.Cut(rest, "-")
		if s, ok := swatches[family]; ok {
			return s
		}
	}
	return swatches["blue"]
}
