package rct1

import (
	"fmt"
	"strings"
)

// Colour is a current-engine palette colour.
type Colour uint8

const (
	Black Colour = iota
	Grey
	White
	DarkPurple
	LightPurple
	BrightPurple
	DarkBlue
	LightBlue
	IcyBlue
	Teal
	Aquamarine
	SaturatedGreen
	DarkGreen
	MossGreen
	BrightGreen
	OliveGreen
	DarkOliveGreen
	BrightYellow
	Yellow
	DarkYellow
	LightOrange
	DarkOrange
	LightBrown
	SaturatedBrown
	DarkBrown
	SalmonPink
	BordeauxRed
	SaturatedRed
	BrightRed
	DarkPink
	BrightPink
	LightPink
)

var colourNames = [...]string{
	"black", "grey", "white", "dark_purple", "light_purple", "bright_purple",
	"dark_blue", "light_blue", "icy_blue", "teal", "aquamarine", "saturated_green",
	"dark_green", "moss_green", "bright_green", "olive_green", "dark_olive_green",
	"bright_yellow", "yellow", "dark_yellow", "light_orange", "dark_orange",
	"light_brown", "saturated_brown", "dark_brown", "salmon_pink", "bordeaux_red",
	"saturated_red", "bright_red", "dark_pink", "bright_pink", "light_pink",
}

func (c Colour) String() string {
	if int(c) < len(colourNames) {
		return colourNames[c]
	}
	return fmt.Sprintf("colour_%d", uint8(c))
}

func ParseColour(s string) (Colour, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range colourNames {
		if n == s {
			return Colour(i), true
		}
	}
	return Black, false
}

// RCT1 palette order.
var legacyColours = [...]Colour{
	Black, Grey, White, LightPurple, BrightPurple, DarkBlue, LightBlue, Teal,
	SaturatedGreen, DarkGreen, MossGreen, BrightGreen, OliveGreen, DarkOliveGreen,
	Yellow, DarkYellow, LightOrange, DarkOrange, LightBrown, SaturatedBrown,
	DarkBrown, SalmonPink, BordeauxRed, SaturatedRed, BrightRed, BrightPink,
	LightPink, DarkPink, DarkPurple, Aquamarine, BrightYellow, IcyBlue,
}

// GetColour maps an RCT1 colour index. Unknown colours become Black.
func GetColour(c uint8) Colour {
	if int(c) >= len(legacyColours) {
		warnf("unsupported RCT1 colour: %d", c)
		return Black
	}
	return legacyColours[c]
}

// ColourSource is either a fixed colour or one of the vehicle's own colours.
type ColourSource int16

const (
	CopyColour1 ColourSource = -1
	CopyColour2 ColourSource = -2
)

func Fixed(c Colour) ColourSource { return ColourSource(c) }

// Colour returns the fixed colour, or false for a copy source.
func (s ColourSource) Colour() (Colour, bool) {
	if s < 0 {
		return Black, false
	}
	return Colour(s), true
}

func (s ColourSource) String() string {
	switch s {
	case CopyColour1:
		return "copy_1"
	case CopyColour2:
		return "copy_2"
	}
	return Colour(s).String()
}

func parseColourSource(s string) (ColourSource, error) {
	switch strings.TrimSpace(s) {
	case "copy_1":
		return CopyColour1, nil
	case "copy_2":
		return CopyColour2, nil
	}
	c, ok := ParseColour(s)
	if !ok {
		return 0, fmt.Errorf("unknown colour %q", s)
	}
	return Fixed(c), nil
}

// ColourSchemeCopyDescriptor says where each of a converted vehicle's three
// colours comes from.
type ColourSchemeCopyDescriptor struct {
	Body     ColourSource
	Trim     ColourSource
	Tertiary ColourSource
}

var defaultCopyDescriptor = ColourSchemeCopyDescriptor{Body: CopyColour1, Trim: CopyColour2, Tertiary: Fixed(Black)}

func GetColourSchemeCopyDescriptor(vehicleType uint8) ColourSchemeCopyDescriptor {
	t := tables()
	if int(vehicleType) >= len(t.colourSchemes) {
		warnf("unsupported RCT1 vehicle type: %d", vehicleType)
		return defaultCopyDescriptor
	}
	return t.colourSchemes[vehicleType]
}
