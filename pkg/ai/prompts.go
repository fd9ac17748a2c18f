package ai

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"metitejidos.com.ar/storefront/pkg/models"
)

const SalesInsightsSystemPrompt = `Sos analista comercial de una tienda online de tejidos artesanales.
A partir de los datos de ventas escribí un resumen breve y accionable:
- desempeño general y ticket promedio
- productos que más se venden y cuáles reponer
- una o dos recomendaciones concretas para la próxima semana
Respondé en español rioplatense, en no más de tres párrafos.`

func formatSalesPrompt(stats *models.OrderStats, top []models.ProductSales, unit currency.Unit) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Ventas totales: %s\n", models.NewMoney(stats.TotalSales, unit))
	fmt.Fprintf(&b, "Pedidos: %d\n", stats.TotalOrders)
	fmt.Fprintf(&b, "Productos en catálogo: %d\n", stats.TotalProducts)
	if avg, ok := averageTicket(stats); ok {
		fmt.Fprintf(&b, "Ticket promedio: %s\n", models.NewMoney(avg, unit))
	}

	if len(top) > 0 {
		b.WriteString("\nMás vendidos:\n")
		for i, p := range top {
			fmt.Fprintf(&b, "%d. %s: %d unidades en %d pedidos\n", i+1, p.Name, p.Units, p.Orders)
		}
	}
	return b.String()
}

func averageTicket(stats *models.OrderStats) (decimal.Decimal, bool) {
	if stats.TotalOrders == 0 {
		return decimal.Zero, false
	}
	return stats.TotalSales.Div(decimal.NewFromInt(int64(stats.TotalOrders))), true
}
