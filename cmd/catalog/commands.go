package main

import (
	"fmt"
	"strconv"

	"github.com/mytheresa/go-catalog-query/app/catalog"
	"github.com/mytheresa/go-catalog-query/app/categories"
	"github.com/mytheresa/go-catalog-query/app/metrics"
	"github.com/mytheresa/go-catalog-query/app/report"
	"github.com/mytheresa/go-catalog-query/app/server"
	"github.com/mytheresa/go-catalog-query/fixtures"
	"github.com/mytheresa/go-catalog-query/models"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// priceThreshold returns the --max-price flag, or the configured threshold when it was not set.
func priceThreshold(cmd *cobra.Command) (float64, error) {
	if !cmd.Flags().Changed("max-price") {
		return cfg.Query.PriceThreshold, nil
	}
	v, err := cmd.Flags().GetFloat64("max-price")
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, errors.Errorf("max-price %v is negative", v)
	}
	return v, nil
}

func newReportCmd() *cobra.Command {
	var (
		format  string
		showSQL bool
	)

	cmd := &cobra.Command{
		Use:       "report [section...]",
		Short:     "Print the filter, join, group join and aggregate reports",
		ValidArgs: []string{"filter", "join", "groupjoin", "aggregate"},
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			sections := make([]report.Section, 0, len(args))
			for _, a := range args {
				s, err := report.ParseSection(a)
				if err != nil {
					return err
				}
				sections = append(sections, s)
			}
			threshold, err := priceThreshold(cmd)
			if err != nil {
				return err
			}

			opts := report.Options{
				Format:         f,
				PriceThreshold: decimal.NewFromFloat(threshold),
				ShowSQL:        showSQL,
				Timeout:        cfg.Query.Timeout,
			}
			ctx := cmd.Context()
			return withDB(func(db *gorm.DB) error {
				return models.Scope(ctx, db, func(tx *gorm.DB) error {
					r := report.New(models.NewProductsRepository(tx), models.NewCategoriesRepository(tx), cmd.OutOrStdout(), opts)
					return r.Run(ctx, sections...)
				})
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", string(report.FormatText), "output format: text, table or csv")
	cmd.Flags().Float64("max-price", 0, "price threshold of the filter report (default from config)")
	cmd.Flags().BoolVar(&showSQL, "show-sql", false, "print the SQL the store would run for the filter report")
	return cmd
}

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = cfg.Server.Addr
			}
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			return withDB(func(db *gorm.DB) error {
				products := models.NewProductsRepository(db)
				cats := models.NewCategoriesRepository(db)

				router := server.NewRouter(
					catalog.NewCatalogHandler(products, cats, cfg.Query.Timeout),
					categories.NewCategoryHandler(cats, products, cfg.Query.Timeout),
					metrics.New(),
				)
				return server.New(addr, router).Run(ctx)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the schema and load the Northwind sample data",
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := fixtures.Northwind()
			if err != nil {
				return err
			}
			return withDB(func(db *gorm.DB) error {
				seeded, err := fixtures.Seed(cmd.Context(), db, ds)
				if err != nil {
					return err
				}
				if !seeded {
					fmt.Fprintln(cmd.OutOrStdout(), "catalog already holds data, nothing to do")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "seeded %d categories and %d products\n", len(ds.Categories), len(ds.Products))
				return nil
			})
		},
	}
}

func newSQLCmd() *cobra.Command {
	var (
		category string
		run      bool
		offset   int
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "sql",
		Short: "Print the filter and sort query as SQL, optionally running it in the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			threshold, err := priceThreshold(cmd)
			if err != nil {
				return err
			}
			filters := models.ProductFilters{CategoryName: category, PriceLessThan: &threshold}

			return withDB(func(db *gorm.DB) error {
				repo := models.NewProductsRepository(db)
				fmt.Fprintln(cmd.OutOrStdout(), repo.FilteredProductsSQL(filters))
				if !run {
					return nil
				}

				products, total, err := repo.GetFilteredProducts(cmd.Context(), offset, limit, filters)
				if err != nil {
					return err
				}
				table := tablewriter.NewWriter(cmd.OutOrStdout())
				table.SetHeader([]string{"ID", "Product", "Category", "Unit price"})
				table.SetAutoFormatHeaders(false)
				for _, p := range products {
					categoryName := ""
					if p.Category != nil {
						categoryName = p.Category.Name
					}
					table.Append([]string{strconv.FormatUint(uint64(p.ID), 10), p.Name, categoryName, p.UnitPrice.StringFixed(2)})
				}
				table.SetFooter([]string{"", "", "Total", strconv.FormatInt(total, 10)})
				table.Render()
				return nil
			})
		},
	}

	cmd.Flags().Float64("max-price", 0, "only products cheaper than this (default from config)")
	cmd.Flags().StringVar(&category, "category", "", "only products of this category")
	cmd.Flags().BoolVar(&run, "run", false, "run the query and print the rows")
	cmd.Flags().IntVar(&offset, "offset", 0, "rows to skip when running")
	cmd.Flags().IntVar(&limit, "limit", 0, "rows to return when running, 0 for all")
	return cmd
}

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that store-side queries agree with the in-process ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			threshold, err := priceThreshold(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			return withDB(func(db *gorm.DB) error {
				return models.Scope(ctx, db, func(tx *gorm.DB) error {
					products := models.NewProductsRepository(tx)
					cats := models.NewCategoriesRepository(tx)
					r := report.New(products, cats, cmd.OutOrStdout(), report.Options{
						PriceThreshold: decimal.NewFromFloat(threshold),
						Timeout:        cfg.Query.Timeout,
					})
					err := r.Verify(ctx, products, cats)
					if errors.Is(err, report.ErrMismatch) {
						zap.L().Warn("store and in-process queries disagree", zap.Error(err))
					}
					return err
				})
			})
		},
	}

	cmd.Flags().Float64("max-price", 0, "price threshold of the filter check (default from config)")
	return cmd
}
