package service

import "github.com/shopspring/decimal"

// Progress 计算预算进度百分比，结果限定在 [0, 100]。
// 预算为 0 或未设置时定义为 0：没有预算的类别不存在"超支"，同时避免除零。
func Progress(spend, budget decimal.Decimal) int {
	if budget.LessThanOrEqual(decimal.Zero) {
		return 0
	}
	pct := spend.Div(budget).Mul(decimal.NewFromInt(100)).IntPart()
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return int(pct)
}

// ShouldAlert 判断是否应生成预警：预算已设置且进度达到阈值。
// 进度在达到 100 后被截断，因此阈值取值 1-100 均可触发。
func ShouldAlert(spend, budget decimal.Decimal, threshold int) bool {
	if budget.LessThanOrEqual(decimal.Zero) {
		return false
	}
	return Progress(spend, budget) >= threshold
}
