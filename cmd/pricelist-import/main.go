// pricelist-import reads ingredient price-list exports and optionally loads them into a user's price list.
//
// Usage:
//
//	pricelist-import parse --file prices.xls [--layout minimal] [--header-rows 2] [--summary]
//	pricelist-import import --file prices.xlsx --email chef@example.com --password ...
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"bitbucket.org/mmdatafocus/recipe_backend/config"
	"bitbucket.org/mmdatafocus/recipe_backend/costing"
	"bitbucket.org/mmdatafocus/recipe_backend/importer"
	"bitbucket.org/mmdatafocus/recipe_backend/models"
	"bitbucket.org/mmdatafocus/recipe_backend/utils"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "pricelist-import",
		Usage: "Parse ingredient price-list exports (.html, .xls, .xlsx)",
		Commands: []*cli.Command{
			parseCommand(),
			importCommand(),
		},
	}
}

func sourceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "file",
			Aliases:  []string{"f"},
			Usage:    "Path to the price-list export",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "layout",
			Value: string(importer.LayoutRich),
			Usage: "HTML column layout (rich, minimal)",
		},
		&cli.IntFlag{
			Name:  "header-rows",
			Value: -1,
			Usage: "Leading HTML rows to skip (default depends on layout)",
		},
	}
}

func parseCommand() *cli.Command {
	return &cli.Command{
		Name:  "parse",
		Usage: "Print the ingredients read from a file as JSON",
		Flags: append(sourceFlags(),
			&cli.BoolFlag{
				Name:  "summary",
				Usage: "Print a wastage summary instead of the rows",
			},
			&cli.Float64Flag{
				Name:    "threshold",
				Value:   config.WastageThresholdPercent(),
				Usage:   "High wastage boundary in percent",
				EnvVars: []string{"WASTAGE_THRESHOLD_PERCENT"},
			},
		),
		Action: runParse,
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Upsert the ingredients of a file into a user's price list",
		Flags: append(sourceFlags(),
			&cli.StringFlag{
				Name:    "email",
				Usage:   "Login email of the price-list owner",
				EnvVars: []string{"PRICELIST_EMAIL"},
			},
			&cli.StringFlag{
				Name:    "password",
				Usage:   "Login password of the price-list owner",
				EnvVars: []string{"PRICELIST_PASSWORD"},
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "Access token to use instead of email and password",
				EnvVars: []string{"PRICELIST_TOKEN"},
			},
		),
		Action: runImport,
	}
}

func optionsFromFlags(c *cli.Context) (importer.Options, error) {
	layout, err := importer.ParseLayout(c.String("layout"))
	if err != nil {
		return importer.Options{}, err
	}
	opts := importer.DefaultOptions()
	if layout == importer.LayoutMinimal {
		opts = importer.LegacyOptions()
	}
	if n := c.Int("header-rows"); n >= 0 {
		opts.HeaderRows = n
	}
	return opts, nil
}

func readRows(c *cli.Context) (string, []byte, []importer.Ingredient, error) {
	opts, err := optionsFromFlags(c)
	if err != nil {
		return "", nil, nil, err
	}
	path := c.String("file")
	content, err := os.ReadFile(path)
	if err != nil {
		return "", nil, nil, err
	}
	fileName := filepath.Base(path)
	rows, err := importer.Parse(fileName, content, opts)
	if err != nil {
		return "", nil, nil, fmt.Errorf("%s: %w", fileName, err)
	}
	return fileName, content, rows, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runParse(c *cli.Context) error {
	_, _, rows, err := readRows(c)
	if err != nil {
		return err
	}
	if !c.Bool("summary") {
		return printJSON(c.App.Writer, rows)
	}
	wastage := make([]float64, 0, len(rows))
	for _, row := range rows {
		wastage = append(wastage, row.WastagePercent)
	}
	return printJSON(c.App.Writer, map[string]any{
		"count":   len(rows),
		"wastage": costing.WastageSummary(wastage, c.Float64("threshold")),
	})
}

func sessionContext(ctx context.Context, c *cli.Context) (context.Context, error) {
	if token := c.String("token"); token != "" {
		return utils.SetTokenInContext(ctx, token), nil
	}
	email, password := c.String("email"), c.String("password")
	if email == "" || password == "" {
		return nil, errors.New("either --token or --email and --password are required")
	}
	info, err := models.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	ctx = utils.SetTokenInContext(ctx, info.AccessToken)
	return utils.SetRefreshTokenInContext(ctx, info.RefreshToken), nil
}

func runImport(c *cli.Context) error {
	fileName, content, rows, err := readRows(c)
	if err != nil {
		return err
	}

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	ctx, err := sessionContext(c.Context, c)
	if err != nil {
		return err
	}
	prices, err := models.ImportIngredientPrices(ctx, rows)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "imported %d rows from %s; price list now holds %d items\n", len(rows), fileName, len(prices))
	if key := models.ArchivePriceList(ctx, fileName, content); key != "" {
		fmt.Fprintf(c.App.Writer, "archived as %s\n", key)
	}
	return nil
}
