package service

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	bestSellerMinQuantity = 3
	lowStockNamesShown    = 2

	welcomeInsight = "Welcome! Add inventory items and create your first invoice to start seeing business insights."
)

var hundred = decimal.NewFromInt(100)

// BuildInsights picks template sentences from fixed thresholds over summary.
// Rules are evaluated in order and each contributes at most one sentence.
func BuildInsights(summary Summary) []string {
	var insights []string

	this, last := summary.ThisWeekSales, summary.LastWeekSales
	switch {
	case this.GreaterThan(last) && last.IsPositive():
		pct := this.Sub(last).Div(last).Mul(hundred).Round(0)
		insights = append(insights, fmt.Sprintf(
			"Sales are up %s%% compared to last week. Great momentum, keep it going!", pct.String()))
	case this.LessThan(last) && last.IsPositive():
		insights = append(insights,
			"Sales are down compared to last week. Consider running a promotion or discount to boost demand.")
	case this.IsPositive():
		insights = append(insights,
			"Sales are steady this week. Keep your best sellers in stock to maintain the pace.")
	}

	if n := len(summary.LowStock); n > 0 {
		names := make([]string, 0, lowStockNamesShown)
		for _, item := range summary.LowStock[:min(n, lowStockNamesShown)] {
			names = append(names, item.Name)
		}
		list := strings.Join(names, ", ")
		if n > lowStockNamesShown {
			list += fmt.Sprintf(" and %d more", n-lowStockNamesShown)
		}
		insights = append(insights, fmt.Sprintf("Low stock alert: %s. Restock soon to avoid missing sales.", list))
	}

	if top := summary.TopProduct; top != nil && top.Quantity > bestSellerMinQuantity {
		insights = append(insights, fmt.Sprintf(
			"%s is your best seller with %d units sold. Make sure it never runs out.", top.Name, top.Quantity))
	}

	if summary.TodaySales.IsPositive() {
		insights = append(insights, fmt.Sprintf(
			"You have made ₹%s in sales today.", summary.TodaySales.StringFixed(2)))
	}

	if len(insights) == 0 {
		insights = append(insights, welcomeInsight)
	}
	return insights
}
