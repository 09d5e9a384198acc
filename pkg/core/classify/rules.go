package classify

import "regexp"

// ReportKey names a target report.
type ReportKey string

// CategoryKey names a sub-category within a report.
type CategoryKey string

const (
	ReportBS               ReportKey = "BS"
	ReportSales            ReportKey = "SALES"
	ReportSGA              ReportKey = "SGA"
	ReportVariable         ReportKey = "VARIABLE"
	ReportManufacturing    ReportKey = "MFG"
	ReportOtherPL          ReportKey = "OTHER_PL"
	ReportCostOfProduction ReportKey = "COP"
)

// Tier groups rules in cascade order.
type Tier int

const (
	TierBalanceSheet Tier = iota + 1
	TierCostOfProduction
	TierProfitAndLoss
)

// Rule is one step of the cascade. A name matches when Match finds it and
// Exclude (if any) does not.
type Rule struct {
	Name     string
	Tier     Tier
	Report   ReportKey
	Category CategoryKey
	Match    *regexp.Regexp
	Exclude  *regexp.Regexp
}

func (r Rule) matches(name string) bool {
	if !r.Match.MatchString(name) {
		return false
	}
	return r.Exclude == nil || !r.Exclude.MatchString(name)
}

func rule(tier Tier, report ReportKey, category CategoryKey, match, exclude string) Rule {
	r := Rule{
		Name:     string(report) + "/" + string(category),
		Tier:     tier,
		Report:   report,
		Category: category,
		Match:    regexp.MustCompile(match),
	}
	if exclude != "" {
		r.Exclude = regexp.MustCompile(exclude)
	}
	return r
}

// Guards keep balance-sheet keywords from capturing expense, income or
// inventory-movement lines that share a stem (e.g. 車両費, 期首商品棚卸高).
const (
	assetGuard     = `(費|損|益|利息|料|高|収入)$|期首|期末|仕入|売上|原価|繰入|戻入|売却|除却`
	liabilityGuard = `(費|損|益|利息|料)$|繰入|戻入`
	mfgGuard       = `販売費|管理費`
	sgaGuard       = `製造|工場|作業`
	salesGuard     = `売上原価|売上総利益|売上割引|売上値引|営業外|特別`
)

// balanceSheetRules run first; fixed before current, liabilities before assets.
var balanceSheetRules = []Rule{
	rule(TierBalanceSheet, ReportBS, "equity-capital-surplus", `資本準備金|資本剰余金`, ""),
	rule(TierBalanceSheet, ReportBS, "equity-retained-earnings", `利益準備金|利益剰余金|繰越利益|別途積立金|任意積立金`, liabilityGuard),
	rule(TierBalanceSheet, ReportBS, "equity-capital", `資本金`, ""),
	rule(TierBalanceSheet, ReportBS, "equity-other", `自己株式|新株予約権|評価差額金|準備金|剰余金`, liabilityGuard),

	rule(TierBalanceSheet, ReportBS, "fixed-liabilities-debt", `長期借入金|社債|長期リース債務`, liabilityGuard+`|1年内|一年内`),
	rule(TierBalanceSheet, ReportBS, "fixed-liabilities-other", `退職給付引当金|役員退職慰労引当金|長期未払金|長期預り金|資産除去債務|リース債務`, liabilityGuard),

	rule(TierBalanceSheet, ReportBS, "current-liabilities-payables", `支払手形|買掛金|電子記録債務`, liabilityGuard),
	rule(TierBalanceSheet, ReportBS, "current-liabilities-debt", `短期借入金|1年内返済|一年内返済`, liabilityGuard),
	rule(TierBalanceSheet, ReportBS, "current-liabilities-other", `未払金|未払費用|未払法人税|未払消費税|未払配当金|前受金|預り金|賞与引当金|仮受金|前受収益`, liabilityGuard),

	rule(TierBalanceSheet, ReportBS, "fixed-assets-tangible", `建物|構築物|機械|装置|車両|車輌|運搬具|工具|器具|備品|土地|建設仮勘定|減価償却累計額`, assetGuard),
	rule(TierBalanceSheet, ReportBS, "fixed-assets-intangible", `ソフトウェア|ソフトウエア|のれん|借地権|電話加入権|商標権|特許権`, assetGuard),
	rule(TierBalanceSheet, ReportBS, "fixed-assets-investments", `投資有価証券|関係会社株式|出資金|長期貸付金|敷金|差入保証金|長期前払費用|保険積立金`, assetGuard),
	rule(TierBalanceSheet, ReportBS, "fixed-assets-deferred", `繰延資産|繰延税金資産`, assetGuard),

	rule(TierBalanceSheet, ReportBS, "current-assets-cash", `現金|預金`, assetGuard),
	rule(TierBalanceSheet, ReportBS, "current-assets-receivables", `売掛金|受取手形|電子記録債権`, assetGuard),
	rule(TierBalanceSheet, ReportBS, "current-assets-inventory", `商品|製品|仕掛品|原材料|貯蔵品|棚卸資産`, assetGuard),
	rule(TierBalanceSheet, ReportBS, "current-assets-other", `前渡金|前払金|前払費用|未収入金|未収金|貸倒引当金|立替金|仮払金|短期貸付金|有価証券|未収還付`, assetGuard),
}

// costOfProductionRules run only when the cost-of-production report is enabled.
var costOfProductionRules = []Rule{
	rule(TierCostOfProduction, ReportCostOfProduction, "wip-opening", `期首仕掛品`, ""),
	rule(TierCostOfProduction, ReportCostOfProduction, "wip-closing", `期末仕掛品`, ""),
	rule(TierCostOfProduction, ReportCostOfProduction, "materials", `材料費|材料仕入|期首材料|期末材料`, ""),
	rule(TierCostOfProduction, ReportCostOfProduction, "labor", `労務費|製造.*(給料|賃金|賞与)|工場.*(給料|賃金)`, mfgGuard),
	rule(TierCostOfProduction, ReportCostOfProduction, "overhead", `製造経費|製造間接費|外注加工費|動力費|電力料|燃料費`, mfgGuard),
}

var profitAndLossRules = []Rule{
	rule(TierProfitAndLoss, ReportOtherPL, "non-operating-income", `受取利息|預金利息|貸付金利息|受取配当金|有価証券利息|雑収入|受取手数料|受取家賃|為替差益`, ""),
	rule(TierProfitAndLoss, ReportOtherPL, "non-operating-expense", `支払利息|借入金利息|社債利息|手形売却損|売上割引|雑損失|為替差損`, ""),
	rule(TierProfitAndLoss, ReportOtherPL, "extraordinary-gain", `固定資産売却益|投資有価証券売却益|特別利益|前期損益修正益|貸倒引当金戻入|保険差益`, ""),
	rule(TierProfitAndLoss, ReportOtherPL, "extraordinary-loss", `固定資産売却損|固定資産除却損|減損損失|特別損失|投資有価証券評価損|災害損失|前期損益修正損`, ""),

	rule(TierProfitAndLoss, ReportVariable, "opening-inventory", `期首.*(棚卸|在庫)|期首(商品|製品)`, ""),
	rule(TierProfitAndLoss, ReportVariable, "closing-inventory", `期末.*(棚卸|在庫)|期末(商品|製品)`, ""),
	rule(TierProfitAndLoss, ReportVariable, "purchases", `仕入|原材料費|材料費|副資材|外注.*費|商品.*原価`, ""),

	rule(TierProfitAndLoss, ReportManufacturing, "labor", `製造.*(給料|賃金|賞与|法定福利|福利厚生)|工場.*(給料|賃金)|作業員.*給料`, mfgGuard),
	rule(TierProfitAndLoss, ReportManufacturing, "other", `製造.*(経費|費)|工場.*経費|動力費|燃料費|工具.*費|機械.*費|設備.*費|作業.*費`, mfgGuard),

	rule(TierProfitAndLoss, ReportSGA, "personnel", `役員報酬|役員.*給料|給料|給与|賃金|賞与|ボーナス|雑給|法定福利費|福利厚生費|厚生費|退職金|退職給付`, sgaGuard),
	rule(TierProfitAndLoss, ReportSGA, "other", `家賃|賃借料|水道.*費|光熱費|電気代|ガス代|通信費|電話代|交通費|旅費|出張.*費|広告.*費|宣伝費|販促費|荷造.*費|運賃|保険料|租税.*公課|公租公課|修繕費|消耗品費|事務.*費|会議費|交際費|接待.*費|寄付金|諸会費|雑費|減価償却費|リース料|支払手数料|車両費|貸倒引当金繰入|研究開発費|新聞図書費|研修費`, sgaGuard),

	rule(TierProfitAndLoss, ReportSales, "revenue", `売上|収益|販売.*収入|完成工事高`, salesGuard),
}
