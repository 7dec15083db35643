package score

import (
	"testing"

	"github.com/stretchr/testify/require"

	"post_radar/internal/domain"
)

func post(replies, retweets, likes int, verified bool) domain.Post {
	return domain.Post{
		Engagement: domain.Engagement{Replies: replies, Retweets: retweets, Likes: likes},
		Author:     domain.Author{Verified: verified},
	}
}

func TestComposite_KnownExample(t *testing.T) {
	// risk 8, 150 total interactions, verified author:
	// 100*(0.6*0.8 + 0.3*log10(151)/6 + 0.1*1.0)
	got := Composite(post(50, 50, 50, true), domain.RiskAnalysis{RiskScore: 8})
	require.InDelta(t, 68.89, got, 0.001)
}

func TestComposite_Bounds(t *testing.T) {
	engagements := []int{0, 1, 150, 10_000, 5_000_000, 2_000_000_000}
	for risk := 0; risk <= 10; risk++ {
		for _, e := range engagements {
			for _, verified := range []bool{true, false} {
				got := Composite(post(e, 0, 0, verified), domain.RiskAnalysis{RiskScore: risk})
				require.GreaterOrEqual(t, got, 0.0)
				require.LessOrEqual(t, got, 100.0)
			}
		}
	}
}

func TestComposite_MonotonicInRisk(t *testing.T) {
	prev := -1.0
	for risk := 1; risk <= 10; risk++ {
		got := Composite(post(10, 10, 10, false), domain.RiskAnalysis{RiskScore: risk})
		require.GreaterOrEqual(t, got, prev)
		prev = got
	}
}

func TestComposite_MonotonicInEngagement(t *testing.T) {
	prev := -1.0
	for _, total := range []int{0, 1, 10, 100, 1000, 100_000, 10_000_000} {
		got := Composite(post(total, 0, 0, false), domain.RiskAnalysis{RiskScore: 5})
		require.GreaterOrEqual(t, got, prev)
		prev = got
	}
}

func TestComposite_EngagementSaturates(t *testing.T) {
	million := Composite(post(1_000_000, 0, 0, false), domain.RiskAnalysis{RiskScore: 5})
	more := Composite(post(900_000_000, 0, 0, false), domain.RiskAnalysis{RiskScore: 5})
	require.Equal(t, million, more)
}

func TestComposite_ZeroRiskContributesNothing(t *testing.T) {
	got := Composite(post(0, 0, 0, false), domain.RiskAnalysis{})
	require.InDelta(t, 5.0, got, 0.001) // author component only
}

func TestRank_DescendingStable(t *testing.T) {
	scored := []domain.ScoredPost{
		{Post: domain.Post{ID: "a"}, CompositeScore: 10},
		{Post: domain.Post{ID: "b"}, CompositeScore: 90},
		{Post: domain.Post{ID: "c"}, CompositeScore: 50},
		{Post: domain.Post{ID: "d"}, CompositeScore: 50},
	}

	Rank(scored)

	for i := 1; i < len(scored); i++ {
		require.GreaterOrEqual(t, scored[i-1].CompositeScore, scored[i].CompositeScore)
	}
	// Ties keep collection order.
	require.Equal(t, "c", scored[1].ID)
	require.Equal(t, "d", scored[2].ID)
}

func TestTop(t *testing.T) {
	scored := make([]domain.ScoredPost, 15)
	require.Len(t, Top(scored, TopN), TopN)
	require.Len(t, Top(scored[:3], TopN), 3)
	require.Empty(t, Top(nil, TopN))
}
