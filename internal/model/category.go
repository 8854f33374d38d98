package model

import (
	"fmt"
	"strings"
)

// Category is the closed set of contact classifications
type Category string

const (
	CategorySales   Category = "sales"
	CategorySupport Category = "support"
	CategoryOther   Category = "other"
)

// Categories returns every category in classification priority order
func Categories() []Category {
	return []Category{CategorySales, CategorySupport, CategoryOther}
}

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	switch c {
	case CategorySales, CategorySupport, CategoryOther:
		return true
	}
	return false
}

func (c Category) String() string {
	return string(c)
}

// ParseCategory parses a category name, accepting the Spanish aliases
// ventas, soporte and otro.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sales", "ventas":
		return CategorySales, nil
	case "support", "soporte":
		return CategorySupport, nil
	case "other", "otro":
		return CategoryOther, nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}
