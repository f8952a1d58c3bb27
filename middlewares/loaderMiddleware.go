package middlewares

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/recipe_backend/models"
	"github.com/gin-gonic/gin"
	"github.com/graph-gophers/dataloader/v7"
)

type ctxKey string

const (
	loadersKey = ctxKey("dataloaders")
)

// Loaders wrap the per-request batch readers.
type Loaders struct {
	ingredientPriceLoader *dataloader.Loader[string, *models.IngredientPrice]
}

// NewLoaders instantiates data loaders for the middleware
func NewLoaders() *Loaders {
	ingredientPriceReader := &ingredientPriceReader{fetch: models.GetIngredientPricesByCodes}
	return &Loaders{
		ingredientPriceLoader: dataloader.NewBatchedLoader(ingredientPriceReader.getIngredientPrices, dataloader.WithWait[string, *models.IngredientPrice](time.Millisecond)),
	}
}

func LoaderMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := WithLoaders(c.Request.Context(), NewLoaders())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func WithLoaders(ctx context.Context, loaders *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey, loaders)
}

func For(ctx context.Context) *Loaders {
	loaders, _ := ctx.Value(loadersKey).(*Loaders)
	return loaders
}

// handleError creates array of result with the same error repeated for as many items requested
func handleError[T any](itemsLength int, err error) []*dataloader.Result[T] {
	result := make([]*dataloader.Result[T], itemsLength)
	for i := 0; i < itemsLength; i++ {
		result[i] = &dataloader.Result[T]{Error: err}
	}
	return result
}
