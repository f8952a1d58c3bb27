package models

import (
	"log"

	"bitbucket.org/mmdatafocus/recipe_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&User{},
		&IngredientPrice{},
		&Recipe{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
