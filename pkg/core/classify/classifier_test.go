package classify

import "testing"

func TestClassify(t *testing.T) {
	c := New()
	tests := []struct {
		name     string
		report   ReportKey
		category CategoryKey
	}{
		{"現金及び預金", ReportBS, "current-assets-cash"},
		{"普通預金", ReportBS, "current-assets-cash"},
		{"売掛金", ReportBS, "current-assets-receivables"},
		{"商品", ReportBS, "current-assets-inventory"},
		{"前払費用", ReportBS, "current-assets-other"},
		{"建物", ReportBS, "fixed-assets-tangible"},
		{"車両運搬具", ReportBS, "fixed-assets-tangible"},
		{"ソフトウェア", ReportBS, "fixed-assets-intangible"},
		{"投資有価証券", ReportBS, "fixed-assets-investments"},
		{"買掛金", ReportBS, "current-liabilities-payables"},
		{"短期借入金", ReportBS, "current-liabilities-debt"},
		{"1年内返済予定の長期借入金", ReportBS, "current-liabilities-debt"},
		{"未払法人税等", ReportBS, "current-liabilities-other"},
		{"長期借入金", ReportBS, "fixed-liabilities-debt"},
		{"退職給付引当金", ReportBS, "fixed-liabilities-other"},
		{"資本金", ReportBS, "equity-capital"},
		{"資本準備金", ReportBS, "equity-capital-surplus"},
		{"繰越利益剰余金", ReportBS, "equity-retained-earnings"},

		{"売上高", ReportSales, "revenue"},
		{"商品売上高", ReportSales, "revenue"},
		{"役員報酬", ReportSGA, "personnel"},
		{"給料手当", ReportSGA, "personnel"},
		{"賞与引当金繰入額", ReportSGA, "personnel"},
		{"地代家賃", ReportSGA, "other"},
		{"車両費", ReportSGA, "other"},
		{"減価償却費", ReportSGA, "other"},
		{"貸倒引当金繰入額", ReportSGA, "other"},
		{"期首商品棚卸高", ReportVariable, "opening-inventory"},
		{"期末商品棚卸高", ReportVariable, "closing-inventory"},
		{"当期商品仕入高", ReportVariable, "purchases"},
		{"製造給料", ReportManufacturing, "labor"},
		{"製造経費", ReportManufacturing, "other"},
		{"受取利息", ReportOtherPL, "non-operating-income"},
		{"預金利息", ReportOtherPL, "non-operating-income"},
		{"有価証券利息", ReportOtherPL, "non-operating-income"},
		{"社債利息", ReportOtherPL, "non-operating-expense"},
		{"支払利息", ReportOtherPL, "non-operating-expense"},
		{"固定資産売却益", ReportOtherPL, "extraordinary-gain"},
		{"減損損失", ReportOtherPL, "extraordinary-loss"},
	}
	for _, tt := range tests {
		got, ok := c.Classify(tt.name)
		if !ok {
			t.Errorf("Classify(%q) unclassified, want %s/%s", tt.name, tt.report, tt.category)
			continue
		}
		if got.Report != tt.report || got.Category != tt.category {
			t.Errorf("Classify(%q) = %s/%s, want %s/%s", tt.name, got.Report, got.Category, tt.report, tt.category)
		}
	}
}

func TestClassifyAggregateRows(t *testing.T) {
	c := New()
	for _, name := range []string{"総計", "合計", "小計", "流動資産合計", "販売費及び一般管理費計", "売上高 合計（税抜）", "Total"} {
		if !IsAggregateRow(name) {
			t.Errorf("IsAggregateRow(%q) = false", name)
		}
		if _, ok := c.Classify(name); ok {
			t.Errorf("Classify(%q) should be unclassified", name)
		}
	}
	if IsAggregateRow("現金及び預金") {
		t.Errorf("ordinary name treated as aggregate")
	}
}

func TestClassifyUnmatched(t *testing.T) {
	c := New()
	for _, name := range []string{"法人税、住民税及び事業税", "売上原価", "", "謎の科目"} {
		if res, ok := c.Classify(name); ok {
			t.Errorf("Classify(%q) = %+v, want unclassified", name, res)
		}
	}
}

func TestClassifyCostOfProduction(t *testing.T) {
	off := New()
	on := New(WithCostOfProduction(true))

	if res, _ := off.Classify("材料費"); res.Report != ReportVariable {
		t.Errorf("without cost-of-production 材料費 = %s, want VARIABLE", res.Report)
	}
	res, ok := on.Classify("材料費")
	if !ok || res.Report != ReportCostOfProduction || res.Category != "materials" {
		t.Errorf("with cost-of-production 材料費 = %+v", res)
	}
	if res, _ := on.Classify("期首仕掛品棚卸高"); res.Category != "wip-opening" {
		t.Errorf("期首仕掛品棚卸高 = %+v, want wip-opening", res)
	}
	// balance-sheet rules still take precedence
	if res, _ := on.Classify("仕掛品"); res.Report != ReportBS {
		t.Errorf("仕掛品 = %+v, want BS", res)
	}
}

func TestRulesOrder(t *testing.T) {
	rules := New(WithCostOfProduction(true)).Rules()
	last := Tier(0)
	for _, r := range rules {
		if r.Tier < last {
			t.Fatalf("rule %s (tier %d) after tier %d", r.Name, r.Tier, last)
		}
		last = r.Tier
	}
}
