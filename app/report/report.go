// Package report prints the catalog demo reports to a console stream.
package report

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mytheresa/go-catalog-query/app/queries"
	"github.com/mytheresa/go-catalog-query/models"
	"github.com/mytheresa/go-catalog-query/query"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type Format string

const (
	FormatText  Format = "text"
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
)

// ParseFormat accepts text, table or csv.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatTable, FormatCSV:
		return f, nil
	}
	return "", errors.Errorf("unknown format %q (want text, table or csv)", s)
}

type Section string

const (
	SectionFilter    Section = "filter"
	SectionJoin      Section = "join"
	SectionGroupJoin Section = "groupjoin"
	SectionAggregate Section = "aggregate"
)

// Sections lists every section in report order.
var Sections = []Section{SectionFilter, SectionJoin, SectionGroupJoin, SectionAggregate}

// ParseSection accepts one of Sections.
func ParseSection(s string) (Section, error) {
	for _, sec := range Sections {
		if string(sec) == strings.ToLower(s) {
			return sec, nil
		}
	}
	return "", errors.Errorf("unknown section %q", s)
}

type ProductProvider interface {
	Load(ctx context.Context) ([]models.Product, error)
	Count(ctx context.Context) (int64, error)
	FilteredProductsSQL(filters models.ProductFilters) string
}

type CategoryProvider interface {
	Load(ctx context.Context) ([]models.Category, error)
}

type Options struct {
	Format         Format
	PriceThreshold decimal.Decimal
	ShowSQL        bool
	Timeout        time.Duration
}

type Reporter struct {
	products   ProductProvider
	categories CategoryProvider
	out        io.Writer
	opts       Options
	printer    *message.Printer
}

func New(products ProductProvider, categories CategoryProvider, out io.Writer, opts Options) *Reporter {
	if opts.Format == "" {
		opts.Format = FormatText
	}
	return &Reporter{
		products:   products,
		categories: categories,
		out:        out,
		opts:       opts,
		printer:    message.NewPrinter(language.English),
	}
}

// Run prints the given sections in order, or every section when none is given.
func (r *Reporter) Run(ctx context.Context, sections ...Section) error {
	if len(sections) == 0 {
		sections = Sections
	}
	for _, sec := range sections {
		var err error
		switch sec {
		case SectionFilter:
			err = r.FilterAndSort(ctx)
		case SectionJoin:
			err = r.JoinCategoriesAndProducts(ctx)
		case SectionGroupJoin:
			err = r.GroupJoinCategoriesAndProducts(ctx)
		case SectionAggregate:
			err = r.AggregateProducts(ctx)
		default:
			err = errors.Errorf("unknown section %q", sec)
		}
		if err != nil {
			return errors.Wrapf(err, "section %s", sec)
		}
	}
	return nil
}

func (r *Reporter) productQuery() *query.Query[models.Product] {
	return query.From[models.Product](r.products).WithTimeout(r.opts.Timeout)
}

func (r *Reporter) categoryQuery() *query.Query[models.Category] {
	return query.From[models.Category](r.categories).WithTimeout(r.opts.Timeout)
}

func warnDangling(err error) {
	zap.L().Warn("product references a missing category", zap.Error(err))
}

func (r *Reporter) title(s string) {
	if r.opts.Format == FormatCSV {
		return
	}
	fmt.Fprintf(r.out, "*\n* %s\n*\n", s)
}

// money formats d as $#,##0.00, rounding only here.
func (r *Reporter) money(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	fixed := d.StringFixed(2)
	_, frac, _ := strings.Cut(fixed, ".")
	whole := decimal.RequireFromString(fixed).IntPart()
	return sign + "$" + r.printer.Sprintf("%d", whole) + "." + frac
}

// number formats n with thousands separators.
func (r *Reporter) number(n int64) string {
	return r.printer.Sprintf("%d", n)
}

func (r *Reporter) FilterAndSort(ctx context.Context) error {
	r.title("Filter and sort")

	if r.opts.ShowSQL && r.opts.Format != FormatCSV {
		limit := r.opts.PriceThreshold.InexactFloat64()
		fmt.Fprintln(r.out, r.products.FilteredProductsSQL(models.ProductFilters{PriceLessThan: &limit}))
	}

	rows, err := queries.CheaperThan(r.productQuery(), r.opts.PriceThreshold).Materialize(ctx)
	if err != nil {
		return err
	}

	switch r.opts.Format {
	case FormatCSV:
		return writeCSV(r.out, pricedRows(rows))
	case FormatTable:
		return r.pricedTable(rows)
	}

	fmt.Fprintf(r.out, "Products that cost less than %s:\n", r.money(r.opts.PriceThreshold))
	for _, p := range rows {
		fmt.Fprintf(r.out, "%d: %s costs %s\n", p.ProductID, p.ProductName, r.money(p.UnitPrice))
	}
	fmt.Fprintln(r.out)
	return nil
}

func (r *Reporter) JoinCategoriesAndProducts(ctx context.Context) error {
	r.title("Join categories and products")

	rows, err := queries.ProductsWithCategory(r.categoryQuery(), r.productQuery(), query.OnDangling(warnDangling)).
		Materialize(ctx)
	if err != nil {
		return err
	}

	switch r.opts.Format {
	case FormatCSV:
		return writeCSV(r.out, joinedRows(rows))
	case FormatTable:
		return r.joinedTable(rows)
	}

	for _, row := range rows {
		fmt.Fprintf(r.out, "%d: %s is in %s.\n", row.ProductID, row.ProductName, row.CategoryName)
	}
	return nil
}

func (r *Reporter) GroupJoinCategoriesAndProducts(ctx context.Context) error {
	r.title("Group join categories and products")

	groups, err := queries.CategoriesWithProducts(r.categoryQuery(), r.productQuery(), query.OnDangling(warnDangling)).
		Materialize(ctx)
	if err != nil {
		return err
	}

	switch r.opts.Format {
	case FormatCSV:
		return writeCSV(r.out, groupRows(groups))
	case FormatTable:
		return r.groupTable(groups)
	}

	for _, g := range groups {
		fmt.Fprintf(r.out, "%s has %d products.\n", g.CategoryName, len(g.Products))
		for _, p := range g.Products {
			fmt.Fprintf(r.out, " %s\n", p.Name)
		}
	}
	return nil
}

// metric is one labelled aggregate ready for output.
type metric struct {
	label string
	value string
}

func (r *Reporter) summaryMetrics(storeCount int64, s *queries.Summary) []metric {
	optionalMoney := func(d *decimal.Decimal) string {
		if d == nil {
			return "n/a"
		}
		return r.money(*d)
	}
	return []metric{
		{"Product count from store:", r.number(storeCount)},
		{"Product count from list:", r.number(int64(s.Count))},
		{"Discontinued product count:", r.number(int64(s.Discontinued))},
		{"Highest product price:", optionalMoney(s.HighestPrice)},
		{"Sum of units in stock:", r.number(int64(s.UnitsInStock))},
		{"Sum of units on order:", r.number(int64(s.UnitsOnOrder))},
		{"Average unit price:", optionalMoney(s.AveragePrice)},
		{"Value of units in stock:", r.money(s.StockValue)},
	}
}

func (r *Reporter) AggregateProducts(ctx context.Context) error {
	r.title("Aggregate products")

	storeCount, err := r.products.Count(ctx)
	if err != nil {
		return err
	}
	summary, err := queries.Summarize(ctx, r.productQuery())
	if err != nil {
		return err
	}
	metrics := r.summaryMetrics(storeCount, summary)

	switch r.opts.Format {
	case FormatCSV:
		return writeCSV(r.out, metricRows(metrics))
	case FormatTable:
		return r.metricTable(metrics)
	}

	for _, m := range metrics {
		fmt.Fprintf(r.out, "%-27s %10s\n", m.label, m.value)
	}
	return nil
}
