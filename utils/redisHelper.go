package utils

import (
	"os"
	"reflect"
	"strconv"
	"time"

	"bitbucket.org/mmdatafocus/recipe_backend/config"
)

/*
caches:
	$TypeList:$userId
*/

func GetCacheLifespan() time.Duration {
	lifespan, err := strconv.Atoi(os.Getenv("CACHE_LIFESPAN"))
	if err != nil || lifespan <= 0 {
		lifespan = 1
	}
	return time.Duration(lifespan) * time.Hour
}

/* generic functions */

func GetTypeName[T any]() string {
	var v T
	typeOfT := reflect.TypeOf(v)
	return typeOfT.Name()
}

func RedisListKey[T any](userId string) string {
	return GetTypeName[T]() + "List:" + userId
}

// store list of a user
func StoreRedisList[T any](obj []*T, userId string) error {
	return config.SetRedisObject(RedisListKey[T](userId), &obj, GetCacheLifespan())
}

// retrieve a list.
// returns nil if does not exist
func RetrieveRedisList[T any](userId string) ([]*T, error) {
	var result []*T
	exists, err := config.GetRedisObject(RedisListKey[T](userId), &result)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return result, nil
}

// clear list, TypeList:$userId
func RemoveRedisList[T any](userId string) error {
	return config.RemoveRedisKey(RedisListKey[T](userId))
}
