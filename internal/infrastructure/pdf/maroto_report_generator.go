// Package pdf implementa la generación del reporte mensual del negocio.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Negocio  │  Mes / Año                              │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: Ventas / COGS / Bruta / Gastos / Neta             │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: SKU | Producto | Cant | Ventas | Costo | Margen     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  VALORIZACIÓN: inventario a costo y a precio de venta       │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/almacen-ledger/internal/application/reports"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

var monthNames = [...]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// ── Generator ─────────────────────────────────────────────────────────────────

var _ reports.PDFGenerator = (*MarotoReportGenerator)(nil)

// MarotoReportGenerator implementa reports.PDFGenerator usando Maroto v2.
type MarotoReportGenerator struct{}

// NewMarotoReportGenerator construye el generador.
func NewMarotoReportGenerator() *MarotoReportGenerator { return &MarotoReportGenerator{} }

// MonthlyReport genera el PDF del reporte mensual y devuelve sus bytes.
func (g *MarotoReportGenerator) MonthlyReport(data *reports.MonthlyReportData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Reporte mensual", true).
		WithAuthor(data.BusinessName, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(data))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(summaryRows(data.Profit)...)
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	for _, r := range tableRows(data.Profit) {
		m.AddRows(r)
	}

	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(valuationRow(data.Valuation))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(data *reports.MonthlyReportData) core.Row {
	period := fmt.Sprintf("%s %d", monthNames[int(data.Month)-1], data.Year)
	return row.New(16).Add(
		col.New(7).Add(
			text.New(data.BusinessName, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Reporte mensual de inventario y rentabilidad", props.Text{
				Size: 8, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(period, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 4,
			}),
		),
	)
}

func summaryRows(p *reports.MonthlyProfit) []core.Row {
	items := []struct {
		label string
		value decimal.Decimal
		bold  bool
	}{
		{"Ventas", p.Sales, false},
		{"Costo de lo vendido (FIFO)", p.COGS, false},
		{"Utilidad bruta", p.GrossProfit, false},
		{"Gastos operativos", p.Expenses, false},
		{"Utilidad neta", p.NetProfit, true},
	}
	rows := make([]core.Row, 0, len(items))
	for _, item := range items {
		style := fontstyle.Normal
		if item.bold {
			style = fontstyle.Bold
		}
		rows = append(rows, row.New(6).Add(
			col.New(8).Add(text.New(item.label, props.Text{Size: 9, Style: style})),
			col.New(4).Add(text.New(money(item.value), props.Text{
				Size: 9, Align: align.Right, Style: style,
			})),
		))
	}
	return rows
}

func tableHeaderRow() core.Row {
	header := props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}
	return row.New(7).Add(
		col.New(2).Add(text.New("SKU", header)),
		col.New(4).Add(text.New("Producto", header)),
		col.New(1).Add(text.New("Cant", propsRight(header))),
		col.New(2).Add(text.New("Ventas", propsRight(header))),
		col.New(2).Add(text.New("Costo", propsRight(header))),
		col.New(1).Add(text.New("Margen", propsRight(header))),
	)
}

func tableRows(p *reports.MonthlyProfit) []core.Row {
	cell := props.Text{Size: 8, Top: 1}
	rows := make([]core.Row, 0, len(p.ByProduct))
	for _, item := range p.ByProduct {
		rows = append(rows, row.New(5).Add(
			col.New(2).Add(text.New(item.SKU, cell)),
			col.New(4).Add(text.New(item.Name, cell)),
			col.New(1).Add(text.New(item.Qty.String(), propsRight(cell))),
			col.New(2).Add(text.New(money(item.Sales), propsRight(cell))),
			col.New(2).Add(text.New(money(item.COGS), propsRight(cell))),
			col.New(1).Add(text.New(money(item.Sales.Sub(item.COGS)), propsRight(cell))),
		))
	}
	return rows
}

func valuationRow(v *reports.InventoryValuation) core.Row {
	return row.New(10).Add(
		col.New(12).Add(
			text.New("Inventario restante", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("A costo: %s   |   A precio de venta: %s   |   Margen potencial: %s",
				money(v.AtCost), money(v.AtSalePrice), money(v.MarginIfSold)),
				props.Text{Size: 8, Top: 6, Color: colorGray}),
		),
	)
}

func propsRight(p props.Text) props.Text {
	p.Align = align.Right
	return p
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
