package models

import (
	"context"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/recipe_backend/costing"
	"bitbucket.org/mmdatafocus/recipe_backend/importer"
	"bitbucket.org/mmdatafocus/recipe_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func init() {
	// prices and weights leave the API as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

const storedScale = 4

type IngredientPrice struct {
	ID             string          `gorm:"type:char(36);primaryKey" json:"id"`
	UserId         string          `gorm:"type:char(36);not null;uniqueIndex:idx_ingredient_prices_owner_code,priority:1" json:"user_id"`
	ItemCode       string          `gorm:"type:varchar(50) COLLATE utf8mb4_bin;not null;uniqueIndex:idx_ingredient_prices_owner_code,priority:2" json:"item_code"`
	CategoryName   string          `gorm:"size:100;not null;index" json:"category_name"`
	Description    string          `gorm:"size:255" json:"description"`
	BaseUnit       string          `gorm:"size:20;not null;default:G" json:"base_unit"`
	Conditioning   decimal.Decimal `gorm:"type:decimal(20,4);not null;default:1000" json:"conditioning"`
	PricePerUnit   decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"price_per_unit"`
	InitialWeight  decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"initial_weight"`
	WasteWeight    decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"waste_weight"`
	YieldWeight    decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"yield_weight"`
	WastagePercent decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"wastage_percent"`
	TrueCost       decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"true_cost"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewIngredientPrice struct {
	ItemCode       string           `json:"item_code" validate:"max=50"`
	CategoryName   string           `json:"category_name" validate:"required,max=100"`
	Description    string           `json:"description" validate:"max=255"`
	BaseUnit       string           `json:"base_unit" validate:"max=20"`
	Conditioning   decimal.Decimal  `json:"conditioning"`
	PricePerUnit   decimal.Decimal  `json:"price_per_unit"`
	InitialWeight  decimal.Decimal  `json:"initial_weight"`
	WasteWeight    decimal.Decimal  `json:"waste_weight"`
	YieldWeight    *decimal.Decimal `json:"yield_weight"`
	WastagePercent *decimal.Decimal `json:"wastage_percent"`
	TrueCost       *decimal.Decimal `json:"true_cost"`
}

type UpdateIngredientPriceInput struct {
	ItemCode       *string          `json:"item_code" validate:"omitempty,max=50"`
	CategoryName   *string          `json:"category_name" validate:"omitempty,max=100"`
	Description    *string          `json:"description" validate:"omitempty,max=255"`
	BaseUnit       *string          `json:"base_unit" validate:"omitempty,max=20"`
	Conditioning   *decimal.Decimal `json:"conditioning"`
	PricePerUnit   *decimal.Decimal `json:"price_per_unit"`
	InitialWeight  *decimal.Decimal `json:"initial_weight"`
	WasteWeight    *decimal.Decimal `json:"waste_weight"`
	YieldWeight    *decimal.Decimal `json:"yield_weight"`
	WastagePercent *decimal.Decimal `json:"wastage_percent"`
	TrueCost       *decimal.Decimal `json:"true_cost"`
}

/*
caches:
	IngredientPriceList:$userId
*/

func (p *IngredientPrice) BeforeCreate(tx *gorm.DB) error {
	newId(&p.ID)
	return nil
}

func (p IngredientPrice) RemoveAllRedis() error {
	return utils.RemoveRedisList[IngredientPrice](p.UserId)
}

// derived values for the stored weights and price
func (p *IngredientPrice) derive() (yield, wastage, trueCost decimal.Decimal) {
	initial := p.InitialWeight.InexactFloat64()
	waste := p.WasteWeight.InexactFloat64()
	wastagePercent := costing.WastagePercent(initial, waste)
	yield = decimal.NewFromFloat(costing.YieldWeight(initial, waste)).Round(storedScale)
	wastage = decimal.NewFromFloat(wastagePercent).Round(storedScale)
	trueCost = decimal.NewFromFloat(costing.TrueCost(p.PricePerUnit.InexactFloat64(), wastagePercent)).Round(storedScale)
	return yield, wastage, trueCost
}

func (p *IngredientPrice) applyDefaults() {
	p.ItemCode = strings.TrimSpace(p.ItemCode)
	p.CategoryName = strings.TrimSpace(p.CategoryName)
	p.Description = strings.TrimSpace(p.Description)
	p.BaseUnit = strings.TrimSpace(p.BaseUnit)
	if p.BaseUnit == "" {
		p.BaseUnit = importer.DefaultBaseUnit
	}
	if p.Conditioning.IsZero() {
		p.Conditioning = decimal.NewFromInt(importer.DefaultConditioning)
	}
}

// AsIngredient exposes the record as float64 values for costing.
func (p *IngredientPrice) AsIngredient() importer.Ingredient {
	return importer.Ingredient{
		ItemCode:       p.ItemCode,
		CategoryName:   p.CategoryName,
		Description:    p.Description,
		BaseUnit:       p.BaseUnit,
		Conditioning:   p.Conditioning.InexactFloat64(),
		PricePerUnit:   p.PricePerUnit.InexactFloat64(),
		InitialWeight:  p.InitialWeight.InexactFloat64(),
		WasteWeight:    p.WasteWeight.InexactFloat64(),
		YieldWeight:    p.YieldWeight.InexactFloat64(),
		WastagePercent: p.WastagePercent.InexactFloat64(),
		TrueCost:       p.TrueCost.InexactFloat64(),
	}
}

func ingredientPriceFromImport(userId string, row importer.Ingredient) *IngredientPrice {
	return &IngredientPrice{
		UserId:         userId,
		ItemCode:       row.ItemCode,
		CategoryName:   row.CategoryName,
		Description:    row.Description,
		BaseUnit:       row.BaseUnit,
		Conditioning:   utils.ToDecimal(row.Conditioning).Round(storedScale),
		PricePerUnit:   utils.ToDecimal(row.PricePerUnit).Round(storedScale),
		InitialWeight:  utils.ToDecimal(row.InitialWeight).Round(storedScale),
		WasteWeight:    utils.ToDecimal(row.WasteWeight).Round(storedScale),
		YieldWeight:    utils.ToDecimal(row.YieldWeight).Round(storedScale),
		WastagePercent: utils.ToDecimal(row.WastagePercent).Round(storedScale),
		TrueCost:       utils.ToDecimal(row.TrueCost).Round(storedScale),
	}
}

func (input *NewIngredientPrice) validate(ctx context.Context, userId string) error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if input.ItemCode == "" {
		return nil
	}
	return utils.ValidateUnique[IngredientPrice](ctx, userId, "item_code", strings.TrimSpace(input.ItemCode), nil, utils.ErrDuplicateItemCode)
}

func (input *UpdateIngredientPriceInput) validate(ctx context.Context, userId string, id string) error {
	if err := utils.ValidateStruct(input); err != nil {
		return err
	}
	if input.CategoryName != nil && strings.TrimSpace(*input.CategoryName) == "" {
		return &utils.ValidationError{Fields: map[string]string{"category_name": "required"}}
	}
	if input.ItemCode == nil {
		return nil
	}
	if strings.TrimSpace(*input.ItemCode) == "" {
		return &utils.ValidationError{Fields: map[string]string{"item_code": "required"}}
	}
	return utils.ValidateUnique[IngredientPrice](ctx, userId, "item_code", strings.TrimSpace(*input.ItemCode), id, utils.ErrDuplicateItemCode)
}

// fetchIngredientPrices reads the user's list from the database, skipping the cache.
func fetchIngredientPrices(ctx context.Context, userId string) ([]*IngredientPrice, error) {
	return utils.FetchAllModels[IngredientPrice](ctx, userId, "category_name, item_code")
}

func GetIngredientPrices(ctx context.Context) ([]*IngredientPrice, error) {
	return withSession(ctx, func(ctx context.Context, userId string) ([]*IngredientPrice, error) {
		cached, err := utils.RetrieveRedisList[IngredientPrice](userId)
		if err != nil {
			return nil, err
		}
		if cached != nil {
			return cached, nil
		}
		results, err := fetchIngredientPrices(ctx, userId)
		if err != nil {
			logStoreError(ctx, "GetIngredientPrices", nil, err)
			return nil, err
		}
		if err := utils.StoreRedisList[IngredientPrice](results, userId); err != nil {
			return nil, err
		}
		return results, nil
	})
}

func GetIngredientPrice(ctx context.Context, id string) (*IngredientPrice, error) {
	return withSession(ctx, func(ctx context.Context, userId string) (*IngredientPrice, error) {
		return utils.FetchModel[IngredientPrice](ctx, userId, id)
	})
}

func CreateIngredientPrice(ctx context.Context, input *NewIngredientPrice) (*IngredientPrice, error) {
	return withSession(ctx, func(ctx context.Context, userId string) (*IngredientPrice, error) {
		if err := input.validate(ctx, userId); err != nil {
			return nil, err
		}
		db, err := getDB()
		if err != nil {
			return nil, err
		}

		record := IngredientPrice{
			UserId:        userId,
			ItemCode:      input.ItemCode,
			CategoryName:  input.CategoryName,
			Description:   input.Description,
			BaseUnit:      input.BaseUnit,
			Conditioning:  input.Conditioning,
			PricePerUnit:  input.PricePerUnit,
			InitialWeight: input.InitialWeight,
			WasteWeight:   input.WasteWeight,
		}
		record.applyDefaults()
		if record.ItemCode == "" {
			code, err := nextItemCodeFor(ctx, userId)
			if err != nil {
				return nil, err
			}
			record.ItemCode = code
		}
		yield, wastage, trueCost := record.derive()
		record.YieldWeight = utils.DereferencePtr(input.YieldWeight, yield)
		record.WastagePercent = utils.DereferencePtr(input.WastagePercent, wastage)
		record.TrueCost = utils.DereferencePtr(input.TrueCost, trueCost)

		if err := db.WithContext(ctx).Create(&record).Error; err != nil {
			if isDuplicateKeyErr(err) {
				return nil, utils.ErrDuplicateItemCode
			}
			logStoreError(ctx, "CreateIngredientPrice", record.ItemCode, err)
			return nil, err
		}
		if err := record.RemoveAllRedis(); err != nil {
			return nil, err
		}
		return utils.FetchModel[IngredientPrice](ctx, userId, record.ID)
	})
}

func UpdateIngredientPrice(ctx context.Context, id string, input *UpdateIngredientPriceInput) (*IngredientPrice, error) {
	return withSession(ctx, func(ctx context.Context, userId string) (*IngredientPrice, error) {
		if err := input.validate(ctx, userId, id); err != nil {
			return nil, err
		}
		record, err := utils.FetchModel[IngredientPrice](ctx, userId, id)
		if err != nil {
			return nil, err
		}
		db, err := getDB()
		if err != nil {
			return nil, err
		}

		if input.ItemCode != nil {
			record.ItemCode = *input.ItemCode
		}
		if input.CategoryName != nil {
			record.CategoryName = *input.CategoryName
		}
		if input.Description != nil {
			record.Description = *input.Description
		}
		if input.BaseUnit != nil {
			record.BaseUnit = *input.BaseUnit
		}
		if input.Conditioning != nil {
			record.Conditioning = *input.Conditioning
		}
		if input.PricePerUnit != nil {
			record.PricePerUnit = *input.PricePerUnit
		}
		if input.InitialWeight != nil {
			record.InitialWeight = *input.InitialWeight
		}
		if input.WasteWeight != nil {
			record.WasteWeight = *input.WasteWeight
		}
		record.applyDefaults()

		inputsChanged := input.PricePerUnit != nil || input.InitialWeight != nil || input.WasteWeight != nil
		yield, wastage, trueCost := record.derive()
		record.YieldWeight = mergeDerived(input.YieldWeight, record.YieldWeight, yield, inputsChanged)
		record.WastagePercent = mergeDerived(input.WastagePercent, record.WastagePercent, wastage, inputsChanged)
		record.TrueCost = mergeDerived(input.TrueCost, record.TrueCost, trueCost, inputsChanged)

		err = db.WithContext(ctx).Model(record).Updates(map[string]interface{}{
			"ItemCode":       record.ItemCode,
			"CategoryName":   record.CategoryName,
			"Description":    record.Description,
			"BaseUnit":       record.BaseUnit,
			"Conditioning":   record.Conditioning,
			"PricePerUnit":   record.PricePerUnit,
			"InitialWeight":  record.InitialWeight,
			"WasteWeight":    record.WasteWeight,
			"YieldWeight":    record.YieldWeight,
			"WastagePercent": record.WastagePercent,
			"TrueCost":       record.TrueCost,
		}).Error
		if err != nil {
			if isDuplicateKeyErr(err) {
				return nil, utils.ErrDuplicateItemCode
			}
			logStoreError(ctx, "UpdateIngredientPrice", id, err)
			return nil, err
		}
		if err := record.RemoveAllRedis(); err != nil {
			return nil, err
		}
		return utils.FetchModel[IngredientPrice](ctx, userId, id)
	})
}

// mergeDerived prefers an explicit value, then a recomputed one when its inputs changed.
func mergeDerived(supplied *decimal.Decimal, current decimal.Decimal, derived decimal.Decimal, inputsChanged bool) decimal.Decimal {
	if supplied != nil {
		return *supplied
	}
	if inputsChanged {
		return derived
	}
	return current
}

func DeleteIngredientPrice(ctx context.Context, id string) (*IngredientPrice, error) {
	return withSession(ctx, func(ctx context.Context, userId string) (*IngredientPrice, error) {
		result, err := utils.FetchModel[IngredientPrice](ctx, userId, id)
		if err != nil {
			return nil, err
		}
		db, err := getDB()
		if err != nil {
			return nil, err
		}
		if err := db.WithContext(ctx).Delete(result).Error; err != nil {
			logStoreError(ctx, "DeleteIngredientPrice", id, err)
			return nil, err
		}
		if err := result.RemoveAllRedis(); err != nil {
			return nil, err
		}
		return result, nil
	})
}

// GetIngredientPricesByCodes returns the caller's records for the given codes, keyed by code.
func GetIngredientPricesByCodes(ctx context.Context, codes []string) (map[string]*IngredientPrice, error) {
	return withSession(ctx, func(ctx context.Context, userId string) (map[string]*IngredientPrice, error) {
		db, err := getDB()
		if err != nil {
			return nil, err
		}
		var results []*IngredientPrice
		if err := db.WithContext(ctx).Where("user_id = ? AND item_code IN ?", userId, utils.UniqueSlice(codes)).
			Find(&results).Error; err != nil {
			logStoreError(ctx, "GetIngredientPricesByCodes", len(codes), err)
			return nil, err
		}
		byCode := make(map[string]*IngredientPrice, len(results))
		for _, r := range results {
			byCode[r.ItemCode] = r
		}
		return byCode, nil
	})
}

// IngredientPriceSummary is the dashboard view of a price list.
type IngredientPriceSummary struct {
	Count      int                   `json:"count"`
	Categories int                   `json:"categories"`
	Wastage    costing.WastageReport `json:"wastage"`
	ByCategory map[string]int        `json:"by_category"`
}

func GetIngredientPriceSummary(ctx context.Context, threshold float64) (*IngredientPriceSummary, error) {
	prices, err := GetIngredientPrices(ctx)
	if err != nil {
		return nil, err
	}
	return summarizeIngredientPrices(prices, threshold), nil
}

func summarizeIngredientPrices(prices []*IngredientPrice, threshold float64) *IngredientPriceSummary {
	summary := &IngredientPriceSummary{Count: len(prices), ByCategory: make(map[string]int)}
	wastage := make([]float64, 0, len(prices))
	for _, p := range prices {
		summary.ByCategory[p.CategoryName]++
		wastage = append(wastage, p.WastagePercent.InexactFloat64())
	}
	summary.Categories = len(summary.ByCategory)
	summary.Wastage = costing.WastageSummary(wastage, threshold)
	return summary
}
