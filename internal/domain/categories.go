package domain

import "strings"

// BuiltinCategories is the fixed category set shipped with the app.
// These are not persisted; custom categories are merged over them at
// read time, matching by name case-insensitively.
var BuiltinCategories = []Category{
	{Name: "Food", Icon: "utensils", Color: "#e74c3c", Builtin: true},
	{Name: "Transport", Icon: "bus", Color: "#3498db", Builtin: true},
	{Name: "Housing", Icon: "home", Color: "#9b59b6", Builtin: true},
	{Name: "Health", Icon: "heart-pulse", Color: "#e91e63", Builtin: true},
	{Name: "Leisure", Icon: "gamepad", Color: "#f39c12", Builtin: true},
	{Name: "Education", Icon: "graduation-cap", Color: "#16a085", Builtin: true},
	{Name: "Shopping", Icon: "cart", Color: "#d35400", Builtin: true},
	{Name: "Salary", Icon: "wallet", Color: "#27ae60", Builtin: true},
	{Name: "Investments", Icon: "chart-line", Color: "#2980b9", Builtin: true},
	{Name: "Other", Icon: "tag", Color: "#7f8c8d", Builtin: true},
}

// MergeCategories overlays custom categories on the built-in set.
// A custom category with a built-in's name replaces that built-in's icon
// and color; remaining custom categories are appended after the
// built-ins, preserving their relative order.
func MergeCategories(custom []Category) []Category {
	merged := make([]Category, len(BuiltinCategories))
	copy(merged, BuiltinCategories)

	for _, c := range custom {
		overridden := false
		for i := range merged {
			if merged[i].Builtin && strings.EqualFold(merged[i].Name, c.Name) {
				merged[i].Icon = c.Icon
				merged[i].Color = c.Color
				merged[i].ID = c.ID
				overridden = true
				break
			}
		}
		if !overridden {
			merged = append(merged, c)
		}
	}
	return merged
}
