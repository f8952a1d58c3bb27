package middlewares

import (
	"context"

	"bitbucket.org/mmdatafocus/recipe_backend/models"
	"github.com/graph-gophers/dataloader/v7"
)

type ingredientPriceReader struct {
	fetch func(ctx context.Context, codes []string) (map[string]*models.IngredientPrice, error)
}

func (r *ingredientPriceReader) getIngredientPrices(ctx context.Context, codes []string) []*dataloader.Result[*models.IngredientPrice] {
	byCode, err := r.fetch(ctx, codes)
	if err != nil {
		return handleError[*models.IngredientPrice](len(codes), err)
	}
	// unknown codes resolve to nil
	results := make([]*dataloader.Result[*models.IngredientPrice], 0, len(codes))
	for _, code := range codes {
		results = append(results, &dataloader.Result[*models.IngredientPrice]{Data: byCode[code]})
	}
	return results
}

// GetIngredientPriceByCode satisfies models.PriceLookup. Without a loader in
// the context it reads the store directly.
func GetIngredientPriceByCode(ctx context.Context, code string) (*models.IngredientPrice, error) {
	loaders := For(ctx)
	if loaders == nil {
		byCode, err := models.GetIngredientPricesByCodes(ctx, []string{code})
		if err != nil {
			return nil, err
		}
		return byCode[code], nil
	}
	return loaders.ingredientPriceLoader.Load(ctx, code)()
}
