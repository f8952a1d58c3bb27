package utils

import (
	"context"
	"errors"

	"bitbucket.org/mmdatafocus/recipe_backend/config"
	"gorm.io/gorm"
)

/* DB fetching */

// fetch model from db
// (userId is used in query's WHERE, may return RecordNotFound)
func FetchModel[T any](ctx context.Context, userId string, id string, associations ...string) (*T, error) {

	db := config.GetDB()
	if db == nil {
		return nil, ErrStoreNotReady
	}
	dbCtx := db.WithContext(ctx).Where("user_id = ?", userId)
	// preloading
	for _, field := range associations {
		dbCtx = dbCtx.Preload(field)
	}
	var result T
	err := dbCtx.Where("id = ?", id).First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrorRecordNotFound
		}
		return nil, err
	}
	return &result, nil
}

// fetch all models owned by userId, in the given order
func FetchAllModels[T any](ctx context.Context, userId string, order string) ([]*T, error) {

	db := config.GetDB()
	if db == nil {
		return nil, ErrStoreNotReady
	}
	dbCtx := db.WithContext(ctx).Where("user_id = ?", userId)
	if order != "" {
		dbCtx = dbCtx.Order(order)
	}
	results := make([]*T, 0)
	if err := dbCtx.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
