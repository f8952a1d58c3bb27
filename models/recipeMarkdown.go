package models

import (
	"regexp"
	"strings"
)

const DefaultRecipeCategory = "Mains"

var RecipeCategories = []string{"Starters", "Mains", "Sides", "Desserts", "Sauces", "Bakery", "Drinks"}

var (
	titlePattern       = regexp.MustCompile(`(?m)^#[ \t]+(.+)$`)
	descriptionPattern = regexp.MustCompile(`(?m)^\s*(?:\*([^*\n]+)\*|_([^_\n]+)_)\s*$`)
	categoryPattern    = regexp.MustCompile(`(?im)^[\s>*_-]*category[*_]*\s*:[*_]*\s*(.+?)\s*$`)
)

type RecipeDraft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// ParseRecipeMarkdown pulls the title (first "# " heading), the italic
// subtitle line and a "Category:" line out of a markdown recipe.
func ParseRecipeMarkdown(text string) RecipeDraft {
	draft := RecipeDraft{Category: DefaultRecipeCategory}
	if m := titlePattern.FindStringSubmatch(text); m != nil {
		draft.Title = strings.TrimSpace(m[1])
	}
	if m := descriptionPattern.FindStringSubmatch(text); m != nil {
		draft.Description = strings.TrimSpace(m[1] + m[2])
	}
	if m := categoryPattern.FindStringSubmatch(text); m != nil {
		if category, ok := matchRecipeCategory(strings.Trim(m[1], "*_ ")); ok {
			draft.Category = category
		}
	}
	return draft
}

func matchRecipeCategory(value string) (string, bool) {
	for _, category := range RecipeCategories {
		if strings.EqualFold(category, value) {
			return category, true
		}
	}
	return "", false
}

// normalizeRecipeCategory falls back to the default for unknown categories.
func normalizeRecipeCategory(value string) string {
	if category, ok := matchRecipeCategory(strings.TrimSpace(value)); ok {
		return category
	}
	return DefaultRecipeCategory
}
