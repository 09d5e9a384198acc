package validate

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"statement_transcriber/pkg/core/synthesis"
)

// =============================================================================
// BALANCE SHEET EQUATION
// =============================================================================

var printer = message.NewPrinter(language.Japanese)

// BalanceTolerance is the largest difference still treated as balanced.
const BalanceTolerance = 1.0

// BalanceSide says which side of the balance sheet a group belongs to.
type BalanceSide string

const (
	SideAssets      BalanceSide = "assets"
	SideLiabilities BalanceSide = "liabilities"
	SideNetAssets   BalanceSide = "net-assets"
)

// BalanceTotals accumulates transcribed balance sheet amounts per period.
type BalanceTotals struct {
	Assets      synthesis.Amounts
	Liabilities synthesis.Amounts
	NetAssets   synthesis.Amounts
}

// Add books amounts to side. Amounts for an unknown side are ignored.
func (t *BalanceTotals) Add(side BalanceSide, amounts synthesis.Amounts) {
	var dst *synthesis.Amounts
	switch side {
	case SideAssets:
		dst = &t.Assets
	case SideLiabilities:
		dst = &t.Liabilities
	case SideNetAssets:
		dst = &t.NetAssets
	default:
		return
	}
	*dst = dst.Add(amounts)
}

// BalanceCheck is the result of comparing assets with liabilities plus net
// assets for one period.
type BalanceCheck struct {
	Period      synthesis.Period
	Assets      float64
	Liabilities float64
	NetAssets   float64
	Difference  float64 // assets - (liabilities + net assets)
	IsBalanced  bool
	Tolerance   float64
}

// Message renders the check like the workbook's balance cell.
func (c BalanceCheck) Message() string {
	if c.IsBalanced {
		return "✓"
	}
	return printer.Sprintf("⚠差異: %d", int64(math.Round(c.Difference)))
}

// CheckBalanceEquation validates A = L + NA within tolerance.
func CheckBalanceEquation(assets, liabilities, netAssets, tolerance float64) BalanceCheck {
	diff := assets - (liabilities + netAssets)
	return BalanceCheck{
		Assets:      assets,
		Liabilities: liabilities,
		NetAssets:   netAssets,
		Difference:  diff,
		IsBalanced:  math.Abs(diff) < tolerance,
		Tolerance:   tolerance,
	}
}

// Check runs the equation for every period that has any amount.
// Periods with nothing transcribed are left out.
func (t BalanceTotals) Check(tolerance float64) []BalanceCheck {
	var out []BalanceCheck
	for _, p := range synthesis.Periods {
		if t.Assets[p] == 0 && t.Liabilities[p] == 0 && t.NetAssets[p] == 0 {
			continue
		}
		c := CheckBalanceEquation(t.Assets[p], t.Liabilities[p], t.NetAssets[p], tolerance)
		c.Period = p
		out = append(out, c)
	}
	return out
}
