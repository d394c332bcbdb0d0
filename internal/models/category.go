package models

// Category is a fixed habit category with its display metadata.
type Category struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Emoji string `json:"emoji"`
	Color string `json:"color"`
}

const DefaultCategory = "productivity"

// Categories is the fixed category catalog in display order.
var Categories = []Category{
	{Value: "health-positive", Label: "Health (Positive)", Emoji: "🍎", Color: "2"},
	{Value: "health-negative", Label: "Health (Track & Reduce)", Emoji: "🍔", Color: "1"},
	{Value: "substances-track", Label: "Substances (Track)", Emoji: "🍷", Color: "5"},
	{Value: "substances-recovery", Label: "Recovery & Sobriety", Emoji: "🌱", Color: "4"},
	{Value: "productivity", Label: "Productivity", Emoji: "📚", Color: "4"},
	{Value: "spending-track", Label: "Spending (Track)", Emoji: "💰", Color: "3"},
	{Value: "mental-wellbeing", Label: "Mental Wellbeing", Emoji: "🧠", Color: "13"},
	{Value: "environmental-impact", Label: "Environmental Impact", Emoji: "🌍", Color: "22"},
	{Value: "personal-growth", Label: "Personal Growth", Emoji: "🌱", Color: "208"},
	{Value: "physical-activity", Label: "Physical Activity", Emoji: "🏃", Color: "10"},
	{Value: "compulsive-behaviors", Label: "Compulsive Behaviors", Emoji: "🔄", Color: "214"},
}

// LookupCategory returns the catalog entry for value.
func LookupCategory(value string) (Category, bool) {
	for _, c := range Categories {
		if c.Value == value {
			return c, true
		}
	}
	return Category{}, false
}

// CategoryFor returns the catalog entry for value, or fallback metadata for
// categories that are not in the catalog (e.g. imported from older data).
func CategoryFor(value string) Category {
	if c, ok := LookupCategory(value); ok {
		return c
	}
	return Category{Value: value, Label: value, Emoji: "•", Color: "240"}
}
