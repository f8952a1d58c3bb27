package main

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"bitbucket.org/mmdatafocus/recipe_backend/config"
	"bitbucket.org/mmdatafocus/recipe_backend/costing"
	"bitbucket.org/mmdatafocus/recipe_backend/importer"
	"bitbucket.org/mmdatafocus/recipe_backend/middlewares"
	"bitbucket.org/mmdatafocus/recipe_backend/models"
	"bitbucket.org/mmdatafocus/recipe_backend/utils"
	"github.com/gin-gonic/gin"
)

// respond writes {"data": ...} and exposes a refreshed access token, if one was minted.
func respond(c *gin.Context, status int, data any) {
	if token := middlewares.RefreshedToken(c); token != "" {
		c.Header(middlewares.AccessTokenHeader, token)
	}
	c.JSON(status, gin.H{"data": data})
}

// errorStatus maps store and importer errors onto HTTP statuses.
func errorStatus(err error) int {
	switch {
	case utils.IsValidationError(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, utils.ErrNotLoggedIn),
		errors.Is(err, utils.ErrSessionExpired),
		errors.Is(err, utils.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, utils.ErrUserDisabled):
		return http.StatusForbidden
	case errors.Is(err, utils.ErrDuplicateItemCode),
		errors.Is(err, utils.ErrDuplicateEmail),
		errors.Is(err, utils.ErrImportLockNotFree):
		return http.StatusConflict
	case errors.Is(err, utils.ErrorRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, importer.ErrUnsupportedFileType),
		errors.Is(err, importer.ErrNoValidIngredients),
		errors.Is(err, importer.ErrUnreadableWorkbook):
		return http.StatusBadRequest
	case errors.Is(err, utils.ErrStoreNotReady):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respondError hides unclassified errors behind fallback and hands them to the error logger.
func respondError(c *gin.Context, err error, fallback string) {
	status := errorStatus(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		message = fallback
	}
	if token := middlewares.RefreshedToken(c); token != "" {
		c.Header(middlewares.AccessTokenHeader, token)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": message})
}

/* auth */

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func signupHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewUser
		if err := c.ShouldBindJSON(&input); err != nil {
			badRequest(c, "invalid request")
			return
		}
		info, err := models.Signup(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err, "failed to sign up")
			return
		}
		respond(c, http.StatusCreated, info)
	}
}

func loginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request")
			return
		}
		info, err := models.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondError(c, err, "failed to sign in")
			return
		}
		respond(c, http.StatusOK, info)
	}
}

func refreshHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req refreshRequest
		_ = c.ShouldBindJSON(&req)
		token := strings.TrimSpace(req.RefreshToken)
		if token == "" {
			token, _ = utils.GetRefreshTokenFromContext(c.Request.Context())
		}
		if token == "" {
			respondError(c, utils.ErrNotLoggedIn, "")
			return
		}
		info, err := models.RefreshSession(c.Request.Context(), token)
		if err != nil {
			respondError(c, err, "failed to refresh session")
			return
		}
		respond(c, http.StatusOK, info)
	}
}

func logoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := models.Logout(c.Request.Context())
		if err != nil {
			respondError(c, err, "failed to sign out")
			return
		}
		respond(c, http.StatusOK, ok)
	}
}

/* ingredient prices */

func listIngredientPricesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		prices, err := models.GetIngredientPrices(c.Request.Context())
		if err != nil {
			respondError(c, err, "failed to load price list")
			return
		}
		respond(c, http.StatusOK, prices)
	}
}

func getIngredientPriceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		price, err := models.GetIngredientPrice(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err, "failed to load ingredient")
			return
		}
		respond(c, http.StatusOK, price)
	}
}

func nextItemCodeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		code, err := models.GetNextItemCode(c.Request.Context())
		if err != nil {
			respondError(c, err, "failed to generate item code")
			return
		}
		respond(c, http.StatusOK, gin.H{"item_code": code})
	}
}

func ingredientPriceSummaryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := models.GetIngredientPriceSummary(c.Request.Context(), config.WastageThresholdPercent())
		if err != nil {
			respondError(c, err, "failed to summarize price list")
			return
		}
		respond(c, http.StatusOK, summary)
	}
}

func createIngredientPriceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewIngredientPrice
		if err := c.ShouldBindJSON(&input); err != nil {
			badRequest(c, "invalid request")
			return
		}
		price, err := models.CreateIngredientPrice(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err, "failed to add ingredient")
			return
		}
		respond(c, http.StatusCreated, price)
	}
}

func updateIngredientPriceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.UpdateIngredientPriceInput
		if err := c.ShouldBindJSON(&input); err != nil {
			badRequest(c, "invalid request")
			return
		}
		price, err := models.UpdateIngredientPrice(c.Request.Context(), c.Param("id"), &input)
		if err != nil {
			respondError(c, err, "failed to update ingredient")
			return
		}
		respond(c, http.StatusOK, price)
	}
}

func deleteIngredientPriceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		price, err := models.DeleteIngredientPrice(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err, "failed to delete ingredient")
			return
		}
		respond(c, http.StatusOK, price)
	}
}

/* costing */

type costingRequest struct {
	Lines                 []costing.Line `json:"lines"`
	Multiplier            *float64       `json:"multiplier"`
	LaborCost             float64        `json:"labor_cost"`
	OverheadPercent       float64        `json:"overhead_percent"`
	TargetFoodCostPercent *float64       `json:"target_food_cost_percent"`
	YieldQuantity         *float64       `json:"yield_quantity"`
}

func (r costingRequest) inputs() costing.Inputs {
	return costing.Inputs{
		Lines:                 r.Lines,
		Multiplier:            utils.DereferencePtr(r.Multiplier, 1),
		LaborCost:             r.LaborCost,
		OverheadPercent:       r.OverheadPercent,
		TargetFoodCostPercent: utils.DereferencePtr(r.TargetFoodCostPercent, 30),
		YieldQuantity:         utils.DereferencePtr(r.YieldQuantity, 1),
	}
}

func costingHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req costingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request")
			return
		}
		out, err := models.CostLines(c.Request.Context(), req.inputs(), middlewares.GetIngredientPriceByCode)
		if err != nil {
			respondError(c, err, "failed to cost recipe")
			return
		}
		respond(c, http.StatusOK, out)
	}
}

/* recipes */

type parseRecipeRequest struct {
	Markdown string `json:"markdown"`
}

func listRecipesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		recipes, err := models.GetRecipes(c.Request.Context())
		if err != nil {
			respondError(c, err, "failed to load recipes")
			return
		}
		respond(c, http.StatusOK, recipes)
	}
}

func getRecipeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		recipe, err := models.GetRecipe(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err, "failed to load recipe")
			return
		}
		respond(c, http.StatusOK, recipe)
	}
}

func createRecipeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewRecipe
		if err := c.ShouldBindJSON(&input); err != nil {
			badRequest(c, "invalid request")
			return
		}
		recipe, err := models.CreateRecipe(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err, "failed to save recipe")
			return
		}
		respond(c, http.StatusCreated, recipe)
	}
}

func updateRecipeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewRecipe
		if err := c.ShouldBindJSON(&input); err != nil {
			badRequest(c, "invalid request")
			return
		}
		recipe, err := models.UpdateRecipe(c.Request.Context(), c.Param("id"), &input)
		if err != nil {
			respondError(c, err, "failed to save recipe")
			return
		}
		respond(c, http.StatusOK, recipe)
	}
}

func deleteRecipeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		recipe, err := models.DeleteRecipe(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err, "failed to delete recipe")
			return
		}
		respond(c, http.StatusOK, recipe)
	}
}

func parseRecipeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req parseRecipeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request")
			return
		}
		respond(c, http.StatusOK, models.ParseRecipeMarkdown(req.Markdown))
	}
}

func recipeCostingHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		multiplier := 1.0
		if raw := strings.TrimSpace(c.Query("multiplier")); raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				badRequest(c, "multiplier must be a number")
				return
			}
			multiplier = v
		}
		out, err := models.GetRecipeCosting(c.Request.Context(), c.Param("id"), multiplier, middlewares.GetIngredientPriceByCode)
		if err != nil {
			respondError(c, err, "failed to cost recipe")
			return
		}
		respond(c, http.StatusOK, out)
	}
}
