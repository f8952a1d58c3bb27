package models

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
)

const itemCodePrefix = "ING-"

var itemCodePattern = regexp.MustCompile(`^ING-(\d+)$`)

// NextItemCode returns ING-<max+1> zero-padded to 4 digits, ignoring codes
// that do not follow the ING-<digits> pattern.
func NextItemCode(codes []string) string {
	max := 0
	for _, code := range codes {
		m := itemCodePattern.FindStringSubmatch(code)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return fmt.Sprintf("%s%04d", itemCodePrefix, max+1)
}

func nextItemCodeFor(ctx context.Context, userId string) (string, error) {
	db, err := getDB()
	if err != nil {
		return "", err
	}
	var codes []string
	if err := db.WithContext(ctx).Model(&IngredientPrice{}).
		Where("user_id = ? AND item_code LIKE ?", userId, itemCodePrefix+"%").
		Pluck("item_code", &codes).Error; err != nil {
		return "", err
	}
	return NextItemCode(codes), nil
}

func GetNextItemCode(ctx context.Context) (string, error) {
	return withSession(ctx, nextItemCodeFor)
}
