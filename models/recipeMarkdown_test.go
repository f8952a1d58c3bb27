package models

import "testing"

const sampleRecipe = `# Braised Short Rib

*Slow braised beef with root vegetables*

---

## Dish Overview

- **Category:** mains
- **Portion Size:**  4 portions
`

func TestParseRecipeMarkdown(t *testing.T) {
	draft := ParseRecipeMarkdown(sampleRecipe)
	if draft.Title != "Braised Short Rib" {
		t.Fatalf("title = %q", draft.Title)
	}
	if draft.Description != "Slow braised beef with root vegetables" {
		t.Fatalf("description = %q", draft.Description)
	}
	if draft.Category != "Mains" {
		t.Fatalf("category = %q", draft.Category)
	}
}

func TestParseRecipeMarkdownDefaults(t *testing.T) {
	cases := []struct {
		name string
		text string
		want RecipeDraft
	}{
		{"empty", "", RecipeDraft{Category: DefaultRecipeCategory}},
		{"subheading only", "## Method\n1. Stir", RecipeDraft{Category: DefaultRecipeCategory}},
		{"unknown category", "# Tart\nCategory: Pastry", RecipeDraft{Title: "Tart", Category: DefaultRecipeCategory}},
		{"underscore subtitle", "# Tart\n_Lemon and thyme_\nCategory: desserts", RecipeDraft{Title: "Tart", Description: "Lemon and thyme", Category: "Desserts"}},
	}
	for _, tc := range cases {
		if got := ParseRecipeMarkdown(tc.text); got != tc.want {
			t.Errorf("%s: got %+v, want %+v", tc.name, got, tc.want)
		}
	}
}
