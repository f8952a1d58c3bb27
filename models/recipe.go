package models

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"time"

	"bitbucket.org/mmdatafocus/recipe_backend/costing"
	"bitbucket.org/mmdatafocus/recipe_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Recipe struct {
	ID                    string          `gorm:"type:char(36);primaryKey" json:"id"`
	UserId                string          `gorm:"type:char(36);not null;index" json:"user_id"`
	Title                 string          `gorm:"size:200;not null" json:"title"`
	Category              string          `gorm:"size:50;not null;default:Mains" json:"category"`
	Description           string          `gorm:"size:500" json:"description"`
	MarkdownContent       string          `gorm:"type:text" json:"markdown_content"`
	YieldQuantity         decimal.Decimal `gorm:"type:decimal(20,4);not null;default:1" json:"yield_quantity"`
	YieldUnit             string          `gorm:"size:30;not null;default:portions" json:"yield_unit"`
	LaborCost             decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"labor_cost"`
	OverheadPercent       decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"overhead_percent"`
	TargetFoodCostPercent decimal.Decimal `gorm:"type:decimal(20,4);not null;default:30" json:"target_food_cost_percent"`
	Lines                 datatypes.JSON  `gorm:"type:json" json:"lines"`
	CreatedAt             time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt             time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewRecipe struct {
	Title                 string          `json:"title" validate:"required,max=200"`
	Category              string          `json:"category" validate:"max=50"`
	Description           string          `json:"description" validate:"max=500"`
	MarkdownContent       string          `json:"markdown_content"`
	YieldQuantity         decimal.Decimal `json:"yield_quantity"`
	YieldUnit             string          `json:"yield_unit" validate:"max=30"`
	LaborCost             decimal.Decimal `json:"labor_cost"`
	OverheadPercent       decimal.Decimal `json:"overhead_percent"`
	TargetFoodCostPercent decimal.Decimal `json:"target_food_cost_percent"`
	Lines                 []costing.Line  `json:"lines"`
}

const defaultTargetFoodCostPercent = 30

func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	newId(&r.ID)
	return nil
}

// DecodeLines returns the stored ingredient lines.
func (r *Recipe) DecodeLines() ([]costing.Line, error) {
	lines := make([]costing.Line, 0)
	if len(r.Lines) == 0 {
		return lines, nil
	}
	if err := json.Unmarshal(r.Lines, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

func encodeLines(lines []costing.Line) (datatypes.JSON, error) {
	if lines == nil {
		lines = []costing.Line{}
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func (input *NewRecipe) validate() error {
	input.Title = strings.TrimSpace(input.Title)
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	for i, line := range input.Lines {
		if strings.TrimSpace(line.Name) == "" && strings.TrimSpace(line.ItemCode) == "" {
			return &utils.ValidationError{Fields: map[string]string{"lines": "line " + strconv.Itoa(i+1) + " needs a name or item code"}}
		}
	}
	return nil
}

// apply copies the input onto r with defaults for blank values.
func (input *NewRecipe) apply(r *Recipe) error {
	lines, err := encodeLines(input.Lines)
	if err != nil {
		return err
	}
	r.Title = input.Title
	r.Category = normalizeRecipeCategory(input.Category)
	r.Description = strings.TrimSpace(input.Description)
	r.MarkdownContent = input.MarkdownContent
	r.YieldQuantity = input.YieldQuantity
	if !r.YieldQuantity.IsPositive() {
		r.YieldQuantity = decimal.NewFromInt(1)
	}
	r.YieldUnit = strings.TrimSpace(input.YieldUnit)
	if r.YieldUnit == "" {
		r.YieldUnit = "portions"
	}
	r.LaborCost = input.LaborCost
	r.OverheadPercent = input.OverheadPercent
	r.TargetFoodCostPercent = input.TargetFoodCostPercent
	if r.TargetFoodCostPercent.IsZero() {
		r.TargetFoodCostPercent = decimal.NewFromInt(defaultTargetFoodCostPercent)
	}
	r.Lines = lines
	return nil
}

// newest first
func GetRecipes(ctx context.Context) ([]*Recipe, error) {
	return withSession(ctx, func(ctx context.Context, userId string) ([]*Recipe, error) {
		return utils.FetchAllModels[Recipe](ctx, userId, "created_at desc")
	})
}

func GetRecipe(ctx context.Context, id string) (*Recipe, error) {
	return withSession(ctx, func(ctx context.Context, userId string) (*Recipe, error) {
		return utils.FetchModel[Recipe](ctx, userId, id)
	})
}

func CreateRecipe(ctx context.Context, input *NewRecipe) (*Recipe, error) {
	return withSession(ctx, func(ctx context.Context, userId string) (*Recipe, error) {
		if err := input.validate(); err != nil {
			return nil, err
		}
		db, err := getDB()
		if err != nil {
			return nil, err
		}
		recipe := Recipe{UserId: userId}
		if err := input.apply(&recipe); err != nil {
			return nil, err
		}
		if err := db.WithContext(ctx).Create(&recipe).Error; err != nil {
			logStoreError(ctx, "CreateRecipe", recipe.Title, err)
			return nil, err
		}
		return &recipe, nil
	})
}

func UpdateRecipe(ctx context.Context, id string, input *NewRecipe) (*Recipe, error) {
	return withSession(ctx, func(ctx context.Context, userId string) (*Recipe, error) {
		if err := input.validate(); err != nil {
			return nil, err
		}
		recipe, err := utils.FetchModel[Recipe](ctx, userId, id)
		if err != nil {
			return nil, err
		}
		db, err := getDB()
		if err != nil {
			return nil, err
		}
		if err := input.apply(recipe); err != nil {
			return nil, err
		}
		err = db.WithContext(ctx).Model(recipe).Updates(map[string]interface{}{
			"Title":                 recipe.Title,
			"Category":              recipe.Category,
			"Description":           recipe.Description,
			"MarkdownContent":       recipe.MarkdownContent,
			"YieldQuantity":         recipe.YieldQuantity,
			"YieldUnit":             recipe.YieldUnit,
			"LaborCost":             recipe.LaborCost,
			"OverheadPercent":       recipe.OverheadPercent,
			"TargetFoodCostPercent": recipe.TargetFoodCostPercent,
			"Lines":                 recipe.Lines,
		}).Error
		if err != nil {
			logStoreError(ctx, "UpdateRecipe", id, err)
			return nil, err
		}
		return recipe, nil
	})
}

func DeleteRecipe(ctx context.Context, id string) (*Recipe, error) {
	return withSession(ctx, func(ctx context.Context, userId string) (*Recipe, error) {
		result, err := utils.FetchModel[Recipe](ctx, userId, id)
		if err != nil {
			return nil, err
		}
		db, err := getDB()
		if err != nil {
			return nil, err
		}
		if err := db.WithContext(ctx).Delete(result).Error; err != nil {
			logStoreError(ctx, "DeleteRecipe", id, err)
			return nil, err
		}
		return result, nil
	})
}

// PriceLookup finds the caller's price-list record for an item code; nil, nil when absent.
type PriceLookup func(ctx context.Context, itemCode string) (*IngredientPrice, error)

// PriceLines fills unpriced lines that reference an item code from the
// price list and derives the total cost of every line that has a
// conditioning. Lines without one keep the (trueCost or price) * quantity rule.
func PriceLines(ctx context.Context, lines []costing.Line, lookup PriceLookup) ([]costing.Line, error) {
	prices, err := lookupPrices(ctx, lines, lookup)
	if err != nil {
		return nil, err
	}
	priced := make([]costing.Line, len(lines))
	for i, line := range lines {
		priced[i] = line
		if !needsPrice(line) {
			if line.TotalCost == nil && line.Conditioning > 0 {
				priced[i] = line.WithDerivedTotal()
			}
			continue
		}
		price := prices[line.ItemCode]
		if price == nil {
			continue
		}
		ing := price.AsIngredient()
		line.PricePerUnit = ing.PricePerUnit
		if line.Conditioning <= 0 {
			line.Conditioning = ing.Conditioning
		}
		if line.Unit == "" {
			line.Unit = ing.BaseUnit
		}
		if line.Name == "" {
			line.Name = ing.Description
		}
		if line.WastagePercent == nil {
			line.WastagePercent = &ing.WastagePercent
		}
		if line.TrueCost == nil && ing.TrueCost > 0 {
			line.TrueCost = &ing.TrueCost
		}
		priced[i] = line.WithDerivedTotal()
	}
	return priced, nil
}

func needsPrice(line costing.Line) bool {
	return line.ItemCode != "" && line.TotalCost == nil && line.PricePerUnit <= 0
}

// lookupPrices resolves every distinct code concurrently so a batching
// lookup can serve them with one query.
func lookupPrices(ctx context.Context, lines []costing.Line, lookup PriceLookup) (map[string]*IngredientPrice, error) {
	if lookup == nil {
		return nil, nil
	}
	var codes []string
	for _, line := range lines {
		if needsPrice(line) {
			codes = append(codes, line.ItemCode)
		}
	}
	codes = utils.UniqueSlice(codes)

	found := make([]*IngredientPrice, len(codes))
	errs := make([]error, len(codes))
	var wg sync.WaitGroup
	for i, code := range codes {
		wg.Add(1)
		go func(i int, code string) {
			defer wg.Done()
			found[i], errs[i] = lookup(ctx, code)
		}(i, code)
	}
	wg.Wait()

	prices := make(map[string]*IngredientPrice, len(codes))
	for i, code := range codes {
		if errs[i] != nil {
			return nil, errs[i]
		}
		prices[code] = found[i]
	}
	return prices, nil
}

type RecipeCosting struct {
	Recipe     *Recipe             `json:"recipe,omitempty"`
	Multiplier float64             `json:"multiplier"`
	Lines      []costing.Line      `json:"lines"`
	Result     costing.Result      `json:"result"`
	Breakdown  []costing.CostShare `json:"breakdown"`
}

// CostLines runs the costing engine over lines priced through lookup.
func CostLines(ctx context.Context, in costing.Inputs, lookup PriceLookup) (*RecipeCosting, error) {
	lines, err := PriceLines(ctx, in.Lines, lookup)
	if err != nil {
		return nil, err
	}
	in.Lines = lines
	result := costing.Compute(in)
	return &RecipeCosting{
		Multiplier: in.Multiplier,
		Lines:      lines,
		Result:     result,
		Breakdown:  costing.Breakdown(result),
	}, nil
}

func GetRecipeCosting(ctx context.Context, id string, multiplier float64, lookup PriceLookup) (*RecipeCosting, error) {
	return withSession(ctx, func(ctx context.Context, userId string) (*RecipeCosting, error) {
		recipe, err := utils.FetchModel[Recipe](ctx, userId, id)
		if err != nil {
			return nil, err
		}
		lines, err := recipe.DecodeLines()
		if err != nil {
			return nil, err
		}
		out, err := CostLines(ctx, costing.Inputs{
			Lines:                 lines,
			Multiplier:            multiplier,
			LaborCost:             recipe.LaborCost.InexactFloat64(),
			OverheadPercent:       recipe.OverheadPercent.InexactFloat64(),
			TargetFoodCostPercent: recipe.TargetFoodCostPercent.InexactFloat64(),
			YieldQuantity:         recipe.YieldQuantity.InexactFloat64(),
		}, lookup)
		if err != nil {
			return nil, err
		}
		out.Recipe = recipe
		return out, nil
	})
}
