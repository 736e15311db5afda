package models

// Category is the coarse question intent assigned by the classifier.
// The set is closed: model output that is not one of these labels is
// replaced by CategoryDefault.
type Category string

const (
	CategoryLookup      Category = "Lookup"
	CategoryCalculation Category = "Calculation"

	CategoryDefault = CategoryLookup
)

var validCategories = map[Category]bool{
	CategoryLookup:      true,
	CategoryCalculation: true,
}

// ParseCategory reports whether s names a known category.
func ParseCategory(s string) (Category, bool) {
	c := Category(s)
	return c, validCategories[c]
}

// Categories returns the closed label set, for prompt construction.
func Categories() []Category {
	return []Category{CategoryLookup, CategoryCalculation}
}

func (c Category) String() string { return string(c) }
