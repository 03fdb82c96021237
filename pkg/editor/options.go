package editor

import (
	"slices"
)

// Original leaves a feature as photographed
const Original = "original"

// Background is a selectable backdrop
type Background struct {
	ID     string
	Label  string
	Hex    string // preview color, empty for Original
	Prompt string
}

// OutfitColor is a clothing color
type OutfitColor struct {
	ID     string
	Label  string
	Hex    string
	Prompt string
}

// OutfitType is a clothing choice; Template contains {color}
type OutfitType struct {
	ID            string
	Label         string
	Template      string
	AllowedColors []string
}

// Hairstyle is a selectable haircut
type Hairstyle struct {
	ID     string
	Label  string
	Prompt string
}

var backgrounds = []Background{
	{Original, "Keep original", "", ""},
	{"white", "White", "#ffffff", "solid white background"},
	{"blue", "Blue", "#4287f5", "solid ID photo blue background"},
	{"gray", "Gray", "#a0a0a0", "solid neutral gray background"},
	{"red", "Red", "#d91b1b", "solid red background"},
	{"green", "Green", "#4caf50", "solid green chroma key background"},
	{"cyan", "Cyan", "#00bcd4", "solid cyan background"},
}

var outfitColors = []OutfitColor{
	{"white", "White", "#ffffff", "white"},
	{"black", "Black", "#1a1a1a", "black"},
	{"navy", "Navy", "#1e293b", "navy blue"},
	{"gray", "Gray", "#64748b", "gray"},
	{"blue", "Blue", "#3b82f6", "light blue"},
	{"red", "Red", "#ef4444", "red"},
	{"pink", "Pink", "#ec4899", "pink"},
	{"yellow", "Yellow", "#eab308", "yellow"},
	{"purple", "Purple", "#a855f7", "purple"},
	{"dark_red", "Dark red", "#7f1d1d", "dark red"},
}

var outfitTypes = []OutfitType{
	{Original, "Keep original", "", nil},
	{"suit", "Suit with tie", "wearing a formal {color} business suit with a white shirt and a tie", []string{"black", "navy", "gray", "dark_red"}},
	{"suit_no_tie", "Suit without tie", "wearing a formal {color} business suit with a white shirt, no tie", []string{"black", "navy", "gray"}},
	{"shirt", "Shirt", "wearing a crisp {color} formal button-down shirt", []string{"white", "blue", "black", "gray", "pink"}},
	{"ao_dai", "Ao dai", "wearing a traditional Vietnamese {color} Ao Dai dress", []string{"white", "red", "pink", "blue", "yellow", "purple"}},
	{"tshirt", "T-shirt", "wearing a plain solid {color} t-shirt", []string{"white", "black", "gray", "navy", "red"}},
}

var hairstyles = []Hairstyle{
	{Original, "Keep original", ""},
	{"neat", "Neat", "neatly styled professional hair"},
	{"short", "Short", "short professional haircut"},
	{"long_straight", "Long straight", "long straight neatly styled hair"},
	{"bun", "Bun", "hair tied in a neat bun"},
}

// Backgrounds returns the background catalog in display order
func Backgrounds() []Background { return slices.Clone(backgrounds) }

// OutfitColors returns the outfit color catalog in display order
func OutfitColors() []OutfitColor { return slices.Clone(outfitColors) }

// OutfitTypes returns the outfit catalog in display order
func OutfitTypes() []OutfitType { return slices.Clone(outfitTypes) }

// Hairstyles returns the hairstyle catalog in display order
func Hairstyles() []Hairstyle { return slices.Clone(hairstyles) }

// FindBackground looks up a background by id
func FindBackground(id string) (Background, bool) {
	i := slices.IndexFunc(backgrounds, func(b Background) bool { return b.ID == id })
	if i < 0 {
		return Background{}, false
	}
	return backgrounds[i], true
}

// FindOutfitColor looks up an outfit color by id
func FindOutfitColor(id string) (OutfitColor, bool) {
	i := slices.IndexFunc(outfitColors, func(c OutfitColor) bool { return c.ID == id })
	if i < 0 {
		return OutfitColor{}, false
	}
	return outfitColors[i], true
}

// FindOutfitType looks up an outfit type by id
func FindOutfitType(id string) (OutfitType, bool) {
	i := slices.IndexFunc(outfitTypes, func(o OutfitType) bool { return o.ID == id })
	if i < 0 {
		return OutfitType{}, false
	}
	return outfitTypes[i], true
}

// FindHairstyle looks up a hairstyle by id
func FindHairstyle(id string) (Hairstyle, bool) {
	i := slices.IndexFunc(hairstyles, func(h Hairstyle) bool { return h.ID == id })
	if i < 0 {
		return Hairstyle{}, false
	}
	return hairstyles[i], true
}
