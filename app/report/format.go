package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/mytheresa/go-catalog-query/app/queries"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
)

// CSV rows carry money as fixed two-decimal strings.

type pricedRow struct {
	ProductID   uint   `csv:"product_id"`
	ProductName string `csv:"product_name"`
	UnitPrice   string `csv:"unit_price"`
}

type joinedRow struct {
	ProductID    uint   `csv:"product_id"`
	ProductName  string `csv:"product_name"`
	CategoryName string `csv:"category_name"`
}

type groupRow struct {
	CategoryName string `csv:"category_name"`
	ProductCount int    `csv:"product_count"`
	ProductName  string `csv:"product_name"`
}

type metricRow struct {
	Metric string `csv:"metric"`
	Value  string `csv:"value"`
}

func pricedRows(rows []queries.PricedProduct) []pricedRow {
	out := make([]pricedRow, len(rows))
	for i, p := range rows {
		out[i] = pricedRow{ProductID: p.ProductID, ProductName: p.ProductName, UnitPrice: p.UnitPrice.StringFixed(2)}
	}
	return out
}

func joinedRows(rows []queries.CategorizedProduct) []joinedRow {
	out := make([]joinedRow, len(rows))
	for i, r := range rows {
		out[i] = joinedRow{ProductID: r.ProductID, ProductName: r.ProductName, CategoryName: r.CategoryName}
	}
	return out
}

// groupRows flattens groups to one row per product. Empty categories keep a
// single row with no product name.
func groupRows(groups []queries.CategoryGroup) []groupRow {
	var out []groupRow
	for _, g := range groups {
		if len(g.Products) == 0 {
			out = append(out, groupRow{CategoryName: g.CategoryName})
			continue
		}
		for _, p := range g.Products {
			out = append(out, groupRow{CategoryName: g.CategoryName, ProductCount: len(g.Products), ProductName: p.Name})
		}
	}
	return out
}

func metricRows(metrics []metric) []metricRow {
	out := make([]metricRow, len(metrics))
	for i, m := range metrics {
		out[i] = metricRow{Metric: strings.TrimSuffix(m.label, ":"), Value: m.value}
	}
	return out
}

func writeCSV[T any](w io.Writer, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return errors.Wrap(err, "write csv")
	}
	return nil
}

func (r *Reporter) newTable(header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(r.out)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	return table
}

func (r *Reporter) pricedTable(rows []queries.PricedProduct) error {
	table := r.newTable("ID", "Product", "Unit price")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
	for _, p := range rows {
		table.Append([]string{strconv.FormatUint(uint64(p.ProductID), 10), p.ProductName, r.money(p.UnitPrice)})
	}
	table.Render()
	return nil
}

func (r *Reporter) joinedTable(rows []queries.CategorizedProduct) error {
	table := r.newTable("ID", "Product", "Category")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})
	for _, row := range rows {
		table.Append([]string{strconv.FormatUint(uint64(row.ProductID), 10), row.ProductName, row.CategoryName})
	}
	table.Render()
	return nil
}

func (r *Reporter) groupTable(groups []queries.CategoryGroup) error {
	table := r.newTable("Category", "Products", "Names")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT})
	for _, g := range groups {
		names := make([]string, len(g.Products))
		for i, p := range g.Products {
			names[i] = p.Name
		}
		table.Append([]string{g.CategoryName, strconv.Itoa(len(g.Products)), strings.Join(names, ", ")})
	}
	table.Render()
	return nil
}

func (r *Reporter) metricTable(metrics []metric) error {
	table := r.newTable("Metric", "Value")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
	for _, m := range metrics {
		table.Append([]string{strings.TrimSuffix(m.label, ":"), m.value})
	}
	table.Render()
	return nil
}
