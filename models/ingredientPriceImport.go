package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/recipe_backend/config"
	"bitbucket.org/mmdatafocus/recipe_backend/importer"
	"bitbucket.org/mmdatafocus/recipe_backend/utils"
	"github.com/bsm/redislock"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm/clause"
)

const (
	importChunkSize = 500
	importLockTTL   = 2 * time.Minute
)

var tracer = otel.Tracer("bitbucket.org/mmdatafocus/recipe_backend/models")

// columns overwritten when an item code already exists for the user
var importUpdateColumns = []string{
	"category_name", "description", "base_unit", "conditioning", "price_per_unit",
	"initial_weight", "waste_weight", "yield_weight", "wastage_percent", "true_cost", "updated_at",
}

// importUpsertClause renders as INSERT ... ON DUPLICATE KEY UPDATE on mysql.
func importUpsertClause() clause.OnConflict {
	return clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "item_code"}},
		DoUpdates: clause.AssignmentColumns(importUpdateColumns),
	}
}

func importLockKey(userId string) string {
	return "lock:IngredientPriceImport:" + userId
}

// obtainImportLock is advisory: without redis, or when redis fails, the
// import proceeds unlocked. A lock held by another import is an error.
func obtainImportLock(ctx context.Context, userId string) (*redislock.Lock, error) {
	locker := config.GetRedisLock()
	if locker == nil {
		return nil, nil
	}
	lock, err := locker.Obtain(ctx, importLockKey(userId), importLockTTL, nil)
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			return nil, utils.ErrImportLockNotFree
		}
		config.LogError(config.GetLogger(), "models", "obtainImportLock", "obtain lock", userId, err)
		return nil, nil
	}
	return lock, nil
}

// ImportIngredientPrices upserts rows by (user, item code) in a single
// transaction and returns the user's full list afterwards.
func ImportIngredientPrices(ctx context.Context, rows []importer.Ingredient) ([]*IngredientPrice, error) {
	if len(rows) == 0 {
		return nil, importer.ErrNoValidIngredients
	}
	return withSession(ctx, func(ctx context.Context, userId string) ([]*IngredientPrice, error) {
		ctx, span := tracer.Start(ctx, "ImportIngredientPrices", trace.WithAttributes(attribute.Int("rows", len(rows))))
		defer span.End()

		results, err := importIngredientPrices(ctx, userId, rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return results, err
	})
}

func importIngredientPrices(ctx context.Context, userId string, rows []importer.Ingredient) ([]*IngredientPrice, error) {
	db, err := getDB()
	if err != nil {
		return nil, err
	}

	lock, err := obtainImportLock(ctx, userId)
	if err != nil {
		return nil, err
	}
	if lock != nil {
		defer lock.Release(context.Background())
	}

	records := make([]*IngredientPrice, 0, len(rows))
	for _, row := range importer.Dedupe(rows) {
		records = append(records, ingredientPriceFromImport(userId, row))
	}

	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	for start := 0; start < len(records); start += importChunkSize {
		end := min(start+importChunkSize, len(records))
		chunk := records[start:end]
		err := tx.Clauses(importUpsertClause()).Create(&chunk).Error
		if err != nil {
			tx.Rollback()
			logStoreError(ctx, "ImportIngredientPrices", len(records), err)
			return nil, err
		}
	}
	if err := tx.Commit().Error; err != nil {
		logStoreError(ctx, "ImportIngredientPrices", len(records), err)
		return nil, err
	}

	if err := utils.RemoveRedisList[IngredientPrice](userId); err != nil {
		return nil, err
	}
	return fetchIngredientPrices(ctx, userId)
}

// ArchivePriceList keeps the uploaded file in object storage when archiving
// is switched on and returns its object key. Failures are logged only.
func ArchivePriceList(ctx context.Context, fileName string, content []byte) string {
	if !config.ArchiveImportsEnabled() || utils.GetStorageProvider() != utils.StorageProviderGCS {
		return ""
	}
	key, err := withSession(ctx, func(ctx context.Context, userId string) (string, error) {
		return utils.ArchiveUpload(ctx, userId, fileName, content)
	})
	if err != nil {
		config.LogError(config.GetLogger(), "models", "ArchivePriceList", "archive", fileName, err)
		return ""
	}
	return key
}
