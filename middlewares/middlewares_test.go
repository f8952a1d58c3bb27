package middlewares

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/recipe_backend/models"
	"bitbucket.org/mmdatafocus/recipe_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/graph-gophers/dataloader/v7"
)

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"":               "",
		"Bearer abc":     "abc",
		"bearer  abc ":   "abc",
		"Basic dXNlcjpw": "",
		"Bear":           "",
	}
	for header, want := range cases {
		if got := bearerToken(header); got != want {
			t.Errorf("bearerToken(%q) = %q, want %q", header, got, want)
		}
	}
}

func TestAuthMiddlewareCopiesTokens(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AuthMiddleware())
	r.GET("/", func(c *gin.Context) {
		ctx := c.Request.Context()
		token, _ := utils.GetTokenFromContext(ctx)
		refresh, _ := utils.GetRefreshTokenFromContext(ctx)
		utils.SetRefreshedToken(ctx, "fresh")
		c.JSON(http.StatusOK, gin.H{"token": token, "refresh": refresh, "refreshed": RefreshedToken(c)})
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer access-1")
	req.Header.Set(RefreshTokenHeader, "refresh-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	want := `{"refresh":"refresh-1","refreshed":"fresh","token":"access-1"}`
	if w.Code != http.StatusOK || w.Body.String() != want {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}
}

func TestIngredientPriceLoaderBatches(t *testing.T) {
	var mu sync.Mutex
	var calls [][]string
	reader := &ingredientPriceReader{fetch: func(_ context.Context, codes []string) (map[string]*models.IngredientPrice, error) {
		mu.Lock()
		calls = append(calls, append([]string(nil), codes...))
		mu.Unlock()
		return map[string]*models.IngredientPrice{"ING-1": {ItemCode: "ING-1"}}, nil
	}}
	loaders := &Loaders{
		ingredientPriceLoader: dataloader.NewBatchedLoader(reader.getIngredientPrices, dataloader.WithWait[string, *models.IngredientPrice](5*time.Millisecond)),
	}
	ctx := WithLoaders(context.Background(), loaders)

	first := loaders.ingredientPriceLoader.Load(ctx, "ING-1")
	second := loaders.ingredientPriceLoader.Load(ctx, "ING-2")
	got, err := first()
	if err != nil || got == nil || got.ItemCode != "ING-1" {
		t.Fatalf("ING-1 = %+v, %v", got, err)
	}
	missing, err := second()
	if err != nil || missing != nil {
		t.Fatalf("unknown code should resolve to nil, got %+v, %v", missing, err)
	}
	if len(calls) != 1 || len(calls[0]) != 2 {
		t.Fatalf("expected one batched fetch, got %v", calls)
	}

	again, err := GetIngredientPriceByCode(ctx, "ING-1")
	if err != nil || again != got {
		t.Fatalf("cached lookup = %+v, %v", again, err)
	}
	if len(calls) != 1 {
		t.Fatalf("repeat lookups should hit the loader cache, got %v", calls)
	}
}

func TestIngredientPriceLoaderError(t *testing.T) {
	boom := errors.New("db down")
	reader := &ingredientPriceReader{fetch: func(context.Context, []string) (map[string]*models.IngredientPrice, error) {
		return nil, boom
	}}
	results := reader.getIngredientPrices(context.Background(), []string{"a", "b"})
	if len(results) != 2 || !errors.Is(results[1].Error, boom) {
		t.Fatalf("expected the error for every key, got %+v", results)
	}
}
