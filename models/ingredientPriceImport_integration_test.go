package models_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/recipe_backend/config"
	"bitbucket.org/mmdatafocus/recipe_backend/importer"
	"bitbucket.org/mmdatafocus/recipe_backend/models"
	"bitbucket.org/mmdatafocus/recipe_backend/utils"
)

// Regression: re-importing the same price list must overwrite rows by item
// code instead of duplicating them, and a second user's list stays untouched.
func TestImportIngredientPrices_IsIdempotentPerUser(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "recipes_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	chef := signup(t, "chef@test.local")
	other := signup(t, "other@test.local")

	rows := []importer.Ingredient{
		{ItemCode: "ING-0001", CategoryName: "Veg", Description: "Onion", BaseUnit: "G", Conditioning: 1000, PricePerUnit: 12},
		{ItemCode: "ING-0002", CategoryName: "Dairy", Description: "Butter", BaseUnit: "G", Conditioning: 1000, PricePerUnit: 30},
	}
	if _, err := models.ImportIngredientPrices(chef, rows); err != nil {
		t.Fatalf("first import: %v", err)
	}
	if _, err := models.ImportIngredientPrices(other, rows[:1]); err != nil {
		t.Fatalf("other user import: %v", err)
	}

	rows[0].PricePerUnit = 14
	got, err := models.ImportIngredientPrices(chef, rows)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records after re-import, got %d", len(got))
	}
	// ordered by category: Dairy before Veg
	if got[0].ItemCode != "ING-0002" || got[1].PricePerUnit.InexactFloat64() != 14 {
		t.Fatalf("unexpected records after re-import: %+v %+v", got[0], got[1])
	}

	otherList, err := models.GetIngredientPrices(other)
	if err != nil {
		t.Fatalf("GetIngredientPrices: %v", err)
	}
	if len(otherList) != 1 || otherList[0].PricePerUnit.InexactFloat64() != 12 {
		t.Fatalf("other user's list changed: %+v", otherList)
	}

	if _, err := models.CreateIngredientPrice(chef, &models.NewIngredientPrice{ItemCode: "ING-0001", CategoryName: "Veg"}); !errors.Is(err, utils.ErrDuplicateItemCode) {
		t.Fatalf("expected ErrDuplicateItemCode, got %v", err)
	}
	code, err := models.GetNextItemCode(chef)
	if err != nil || code != "ING-0003" {
		t.Fatalf("GetNextItemCode = %q, %v", code, err)
	}

	// item codes compare case-sensitively, matching importer.Dedupe
	lower := importer.Ingredient{ItemCode: "ing-0001", CategoryName: "Veg", Description: "Shallot", BaseUnit: "G", Conditioning: 1000, PricePerUnit: 40}
	got, err = models.ImportIngredientPrices(chef, []importer.Ingredient{lower})
	if err != nil {
		t.Fatalf("lower-case import: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected a separate record for ing-0001, got %d", len(got))
	}
	for _, p := range got {
		if p.ItemCode == "ING-0001" && p.PricePerUnit.InexactFloat64() != 14 {
			t.Fatalf("ING-0001 was overwritten by ing-0001: %+v", p)
		}
	}

	if _, err := models.ImportIngredientPrices(chef, nil); !errors.Is(err, importer.ErrNoValidIngredients) {
		t.Fatalf("expected ErrNoValidIngredients, got %v", err)
	}
}

func signup(t *testing.T, email string) context.Context {
	t.Helper()
	info, err := models.Signup(context.Background(), &models.NewUser{Email: email, Name: "Test", Password: "password123"})
	if err != nil {
		t.Fatalf("Signup %s: %v", email, err)
	}
	return utils.SetTokenInContext(context.Background(), info.AccessToken)
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("recipe-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := dockerRun("exec", name, "redis-cli", "ping"); err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("recipe-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=recipes_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent"); err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	m := regexp.MustCompile(`:(\d+)`).FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	b, err := exec.Command("docker", args...).CombinedOutput()
	return string(b), err
}
