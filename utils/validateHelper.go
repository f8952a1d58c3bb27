package utils

import (
	"context"
	"reflect"

	"bitbucket.org/mmdatafocus/recipe_backend/config"
)

// check that value is not taken by another row of the same owner
// (returns dupErr when it is)
func ValidateUnique[T any](ctx context.Context, userId string, column string, value interface{}, exceptId interface{}, dupErr error) error {
	var count int64
	var err error
	if exceptId == nil || reflect.ValueOf(exceptId).IsZero() {
		count, err = ResourceCountWhere[T](ctx, userId, column+" = ?", value)
	} else {
		count, err = ResourceCountWhere[T](ctx, userId, column+" = ? AND NOT id = ?", value, exceptId)
	}

	if err != nil {
		return err
	}
	if count > 0 {
		return dupErr
	}
	return nil
}

// count records, using WHERE user_id = ? AND $condition
// userId can be blank for operator tools
func ResourceCountWhere[T any](ctx context.Context, userId string, condition string, value ...interface{}) (int64, error) {
	var model T

	db := config.GetDB()
	if db == nil {
		return 0, ErrStoreNotReady
	}
	dbCtx := db.WithContext(ctx).Model(&model)
	var count int64
	if userId != "" {
		dbCtx = dbCtx.Where("user_id = ?", userId)
	}
	dbCtx = dbCtx.Where(condition, value...)
	if err := dbCtx.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
