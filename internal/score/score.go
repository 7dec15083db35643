package score

import (
	"math"
	"sort"

	"post_radar/internal/domain"
)

// Fixed weights of the composite score. Not tunable at runtime.
const (
	weightContent    = 0.60
	weightEngagement = 0.30
	weightAuthor     = 0.10
)

// engagementScale caps the logarithmic engagement component: one million
// total interactions saturates it at 1.0.
const engagementScale = 6.0

// TopN is the number of posts surfaced in the summary report.
const TopN = 10

// Composite combines the classifier's risk judgment with engagement and
// author signals into one bounded score in [0,100], rounded to 2 decimals.
//
// content    = risk_score / 10
// engagement = min(log10(replies+retweets+likes+1) / 6, 1.0)
// author     = 1.0 if verified else 0.5
func Composite(post domain.Post, analysis domain.RiskAnalysis) float64 {
	content := float64(analysis.RiskScore) / 10.0

	engagement := math.Log10(float64(post.Engagement.Total())+1) / engagementScale
	if engagement > 1.0 {
		engagement = 1.0
	}

	author := 0.5
	if post.Author.Verified {
		author = 1.0
	}

	composite := 100 * (weightContent*content + weightEngagement*engagement + weightAuthor*author)
	return math.Round(composite*100) / 100
}

// Rank sorts scored posts descending by composite score. The sort is stable:
// ties keep their collection order.
func Rank(scored []domain.ScoredPost) {
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].CompositeScore > scored[j].CompositeScore
	})
}

// Top returns at most n leading entries of an already ranked slice.
func Top(scored []domain.ScoredPost, n int) []domain.ScoredPost {
	if len(scored) < n {
		return scored
	}
	return scored[:n]
}
