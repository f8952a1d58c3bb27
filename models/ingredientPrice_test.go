package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"

	"bitbucket.org/mmdatafocus/recipe_backend/costing"
	"bitbucket.org/mmdatafocus/recipe_backend/importer"
	"bitbucket.org/mmdatafocus/recipe_backend/utils"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestIngredientPriceDerive(t *testing.T) {
	p := IngredientPrice{PricePerUnit: dec("12"), InitialWeight: dec("1000"), WasteWeight: dec("100")}
	yield, wastage, trueCost := p.derive()
	if !yield.Equal(dec("900")) || !wastage.Equal(dec("10")) {
		t.Fatalf("yield %s wastage %s", yield, wastage)
	}
	if !trueCost.Equal(dec("13.3333")) {
		t.Fatalf("true cost %s, want 13.3333", trueCost)
	}

	empty := IngredientPrice{PricePerUnit: dec("5")}
	yield, wastage, trueCost = empty.derive()
	if !yield.IsZero() || !wastage.IsZero() || !trueCost.Equal(dec("5")) {
		t.Fatalf("no weights: yield %s wastage %s true cost %s", yield, wastage, trueCost)
	}
}

func TestMergeDerived(t *testing.T) {
	supplied := dec("7")
	if got := mergeDerived(&supplied, dec("1"), dec("2"), true); !got.Equal(supplied) {
		t.Fatalf("supplied value should win, got %s", got)
	}
	if got := mergeDerived(nil, dec("1"), dec("2"), true); !got.Equal(dec("2")) {
		t.Fatalf("changed inputs should recompute, got %s", got)
	}
	if got := mergeDerived(nil, dec("1"), dec("2"), false); !got.Equal(dec("1")) {
		t.Fatalf("unchanged inputs should keep the stored value, got %s", got)
	}
}

func TestApplyDefaults(t *testing.T) {
	p := IngredientPrice{ItemCode: " ING-1 ", CategoryName: " Veg ", BaseUnit: "  "}
	p.applyDefaults()
	if p.ItemCode != "ING-1" || p.CategoryName != "Veg" || p.BaseUnit != "G" || !p.Conditioning.Equal(dec("1000")) {
		t.Fatalf("unexpected defaults: %+v", p)
	}
}

func TestIngredientPriceJSONNumbers(t *testing.T) {
	raw, err := json.Marshal(IngredientPrice{ItemCode: "ING-1", PricePerUnit: dec("12.5")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"price_per_unit":12.5`) {
		t.Fatalf("expected numeric price, got %s", raw)
	}

	var back IngredientPrice
	if err := json.Unmarshal([]byte(`{"price_per_unit":"8.25","conditioning":1000}`), &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.PricePerUnit.Equal(dec("8.25")) || !back.Conditioning.Equal(dec("1000")) {
		t.Fatalf("text and numbers should both decode: %+v", back)
	}
}

func TestIsDuplicateKeyErr(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{gorm.ErrDuplicatedKey, true},
		{fmt.Errorf("insert: %w", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}), true},
		{&mysql.MySQLError{Number: 1452}, false},
		{errors.New("boom"), false},
	}
	for _, tc := range cases {
		if got := isDuplicateKeyErr(tc.err); got != tc.want {
			t.Errorf("isDuplicateKeyErr(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

func TestIngredientPriceFromImport(t *testing.T) {
	p := ingredientPriceFromImport("user-1", importer.Ingredient{
		ItemCode: "ING-1", CategoryName: "Veg", BaseUnit: "G", Conditioning: 1000,
		PricePerUnit: 12, InitialWeight: 1000, WasteWeight: 100, YieldWeight: 900,
		WastagePercent: 10, TrueCost: 13.333333333,
	})
	if p.UserId != "user-1" || !p.TrueCost.Equal(dec("13.3333")) || !p.YieldWeight.Equal(dec("900")) {
		t.Fatalf("unexpected record: %+v", p)
	}
}

func TestImportUpsertStatement(t *testing.T) {
	conn, err := gorm.Open(gormmysql.New(gormmysql.Config{
		DSN:                       "test:test@tcp(127.0.0.1:3306)/test?parseTime=true",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}
	records := []*IngredientPrice{
		ingredientPriceFromImport("user-1", importer.Ingredient{ItemCode: "ING-1", CategoryName: "Veg"}),
		ingredientPriceFromImport("user-1", importer.Ingredient{ItemCode: "ING-2", CategoryName: "Veg"}),
	}
	sql := conn.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return tx.Clauses(importUpsertClause()).Create(&records)
	})
	if !strings.Contains(sql, "ON DUPLICATE KEY UPDATE") {
		t.Fatalf("expected upsert, got %s", sql)
	}
	if !strings.Contains(sql, "`price_per_unit`=VALUES(`price_per_unit`)") {
		t.Fatalf("price should be overwritten on conflict, got %s", sql)
	}
	if strings.Contains(sql, "`id`=VALUES(`id`)") {
		t.Fatalf("existing ids must be kept, got %s", sql)
	}
	if records[0].ID == "" || records[0].ID == records[1].ID {
		t.Fatalf("each record needs its own id")
	}
}

func TestUpdateIngredientPriceInputValidate(t *testing.T) {
	blank := "  "
	cases := map[string]*UpdateIngredientPriceInput{
		"blank category":  {CategoryName: &blank},
		"blank item code": {ItemCode: &blank},
	}
	for name, input := range cases {
		if err := input.validate(context.Background(), "user-1", "price-1"); !utils.IsValidationError(err) {
			t.Errorf("%s: expected a validation error, got %v", name, err)
		}
	}
	price := dec("4")
	if err := (&UpdateIngredientPriceInput{PricePerUnit: &price}).validate(context.Background(), "user-1", "price-1"); err != nil {
		t.Fatalf("price-only update: %v", err)
	}
}

func TestUpdateIngredientPriceRequiresSession(t *testing.T) {
	price := dec("4")
	_, err := UpdateIngredientPrice(context.Background(), "price-1", &UpdateIngredientPriceInput{PricePerUnit: &price})
	if !errors.Is(err, utils.ErrNotLoggedIn) {
		t.Fatalf("expected ErrNotLoggedIn, got %v", err)
	}
}

func TestItemCodeColumnIsCaseSensitive(t *testing.T) {
	s, err := schema.Parse(&IngredientPrice{}, &sync.Map{}, schema.NamingStrategy{})
	if err != nil {
		t.Fatalf("parse schema: %v", err)
	}
	field := s.LookUpField("ItemCode")
	if field == nil {
		t.Fatalf("item_code field missing")
	}
	if !strings.Contains(field.TagSettings["TYPE"], "utf8mb4_bin") {
		t.Fatalf("item_code must use a binary collation, got %q", field.TagSettings["TYPE"])
	}
	if _, ok := field.TagSettings["UNIQUEINDEX"]; !ok {
		t.Fatalf("item_code lost its unique index: %+v", field.TagSettings)
	}
}

func TestSummarizeIngredientPrices(t *testing.T) {
	prices := []*IngredientPrice{
		{CategoryName: "Veg", WastagePercent: dec("2")},
		{CategoryName: "Veg", WastagePercent: dec("4")},
		{CategoryName: "Meat", WastagePercent: dec("12")},
	}
	s := summarizeIngredientPrices(prices, 5)
	if s.Count != 3 || s.Categories != 2 || s.ByCategory["Veg"] != 2 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if s.Wastage.Status != costing.WastageHigh {
		t.Fatalf("average 6%% should be high, got %s", s.Wastage.Status)
	}
}

func TestPriceLines(t *testing.T) {
	prices := map[string]*IngredientPrice{
		"ING-1": {ItemCode: "ING-1", Description: "Onion", BaseUnit: "G", Conditioning: dec("1000"), PricePerUnit: dec("8"), WastagePercent: dec("10")},
	}
	lookup := func(_ context.Context, code string) (*IngredientPrice, error) {
		return prices[code], nil
	}
	total := 3.0
	lines := []costing.Line{
		{ItemCode: "ING-1", Quantity: 500},
		{ItemCode: "ING-1", Quantity: 500, TotalCost: &total},
		{ItemCode: "ING-404", Quantity: 10},
		{Name: "salt", Quantity: 2, PricePerUnit: 1},
		{Name: "beef", Quantity: 500, PricePerUnit: 2, Conditioning: 1000},
	}
	priced, err := PriceLines(context.Background(), lines, lookup)
	if err != nil {
		t.Fatalf("PriceLines: %v", err)
	}
	first := priced[0]
	if first.Name != "Onion" || first.PricePerUnit != 8 || first.TotalCost == nil || *first.TotalCost != 4 {
		t.Fatalf("unexpected priced line: %+v", first)
	}
	if first.WastagePercent == nil || *first.WastagePercent != 10 {
		t.Fatalf("wastage should come from the price list: %+v", first)
	}
	if *priced[1].TotalCost != 3 {
		t.Fatalf("explicit totals must be kept")
	}
	if priced[2].TotalCost != nil || priced[2].PricePerUnit != 0 {
		t.Fatalf("unknown codes stay unpriced: %+v", priced[2])
	}
	if priced[3].Cost() != 2 {
		t.Fatalf("manual lines keep their price, cost %v", priced[3].Cost())
	}
	// 500 of a 1000 pack at 2 per pack
	if priced[4].TotalCost == nil || *priced[4].TotalCost != 1 {
		t.Fatalf("conditioned manual line should derive its total: %+v", priced[4])
	}

	failing := func(context.Context, string) (*IngredientPrice, error) { return nil, errors.New("lookup failed") }
	if _, err := PriceLines(context.Background(), lines, failing); err == nil {
		t.Fatalf("expected lookup error")
	}
}

func TestCostLines(t *testing.T) {
	total := 50.0
	out, err := CostLines(context.Background(), costing.Inputs{
		Lines:                 []costing.Line{{Name: "beef", TotalCost: &total}},
		Multiplier:            2,
		LaborCost:             20,
		OverheadPercent:       10,
		YieldQuantity:         4,
		TargetFoodCostPercent: 30,
	}, nil)
	if err != nil {
		t.Fatalf("CostLines: %v", err)
	}
	if math.Abs(out.Result.TotalCost-154) > 1e-9 || len(out.Breakdown) != 3 {
		t.Fatalf("unexpected costing: %+v", out)
	}
}

func TestCostLinesDividesByConditioning(t *testing.T) {
	out, err := CostLines(context.Background(), costing.Inputs{
		Lines:      []costing.Line{{Name: "flour", Quantity: 500, PricePerUnit: 2, Conditioning: 1000}},
		Multiplier: 1,
	}, nil)
	if err != nil {
		t.Fatalf("CostLines: %v", err)
	}
	if math.Abs(out.Result.IngredientCost-1) > 1e-9 {
		t.Fatalf("ingredient cost = %v, want 1", out.Result.IngredientCost)
	}
}
