package utils

import (
	"math"
	"time"
)

type RankConfig struct {
	Gravity            float64 // 时间重力 (1.5)
	WeightVerification float64 // 2.0
	WeightComment      float64 // 1.0
	VerifiedBonus      float64 // 已验证报告的额外加成
	ScaleFactor        float64 // 放大系数 (100)
}

var DefaultConfig = RankConfig{
	Gravity:            1.5,
	WeightVerification: 2.0,
	WeightComment:      1.0,
	VerifiedBonus:      3.0,
	ScaleFactor:        100.0,
}

// CalculateScore returns the trending score of a report at now.
func CalculateScore(createdAt, now time.Time, verifications, comments int, verified bool) float64 {
	hours := now.Sub(createdAt).Hours()
	if hours < 0 {
		hours = 0
	}

	// 1. 加权互动值
	weightedSum := float64(verifications)*DefaultConfig.WeightVerification +
		float64(comments)*DefaultConfig.WeightComment
	if verified {
		weightedSum += DefaultConfig.VerifiedBonus
	}

	// 2. 对数平滑，sum=0 时结果为 0
	logScore := math.Log10(weightedSum + 1)

	// 3. 时间衰减
	decay := math.Pow(hours+2, DefaultConfig.Gravity)

	return logScore * DefaultConfig.ScaleFactor / decay
}
