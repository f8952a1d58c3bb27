package models

import (
	"context"
	"errors"

	"bitbucket.org/mmdatafocus/recipe_backend/config"
	"bitbucket.org/mmdatafocus/recipe_backend/utils"
	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const mysqlDuplicateEntry = 1062

// isDuplicateKeyErr matches both the translated gorm error and the raw driver error.
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}

func newId(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

func getDB() (*gorm.DB, error) {
	db := config.GetDB()
	if db == nil {
		return nil, utils.ErrStoreNotReady
	}
	return db, nil
}

// logStoreError reports transport failures; domain errors pass through silently.
func logStoreError(ctx context.Context, funcName string, data any, err error) {
	if err == nil || errors.Is(err, utils.ErrorRecordNotFound) || errors.Is(err, utils.ErrDuplicateItemCode) ||
		utils.IsValidationError(err) {
		return
	}
	correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
	email, _ := utils.GetEmailFromContext(ctx)
	config.LogError(config.GetLogger(), "models", funcName, "correlation_id="+correlationId+" user="+email, data, err)
}
