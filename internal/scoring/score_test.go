package scoring

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/proximodev/releasepass/internal/qa"
)

func fail(sev qa.Severity) qa.ResultItem {
	return qa.ResultItem{Status: qa.ItemFail, Severity: sev}
}

func pass() qa.ResultItem {
	return qa.ResultItem{Status: qa.ItemPass}
}

func TestScore_Penalties(t *testing.T) {
	t.Parallel()
	s := NewScorer(nil, 50)

	tests := []struct {
		name  string
		items []qa.ResultItem
		want  int
	}{
		{name: "no findings", items: nil, want: 100},
		{name: "only passes", items: []qa.ResultItem{pass(), pass()}, want: 100},
		{name: "one blocker", items: []qa.ResultItem{fail(qa.SeverityBlocker)}, want: 60},
		{name: "one critical one low", items: []qa.ResultItem{fail(qa.SeverityCritical), fail(qa.SeverityLow)}, want: 78},
		{
			name: "clamped at zero",
			items: []qa.ResultItem{
				fail(qa.SeverityBlocker), fail(qa.SeverityBlocker), fail(qa.SeverityBlocker),
			},
			want: 0,
		},
		{
			name: "skip carries no penalty",
			items: []qa.ResultItem{
				{Status: qa.ItemSkip},
				fail(qa.SeverityMedium),
			},
			want: 95,
		},
		{
			name: "fail without severity carries no penalty",
			items: []qa.ResultItem{
				{Status: qa.ItemFail},
			},
			want: 100,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, s.Score(tt.items))
		})
	}
}

func TestScore_Deterministic(t *testing.T) {
	t.Parallel()
	s := NewScorer(nil, 50)
	items := []qa.ResultItem{fail(qa.SeverityHigh), fail(qa.SeverityLow), pass()}
	require.Equal(t, s.Score(items), s.Score(items))
}

func TestScore_IgnoreToggleMonotonic(t *testing.T) {
	t.Parallel()
	s := NewScorer(nil, 50)
	items := []qa.ResultItem{fail(qa.SeverityCritical), fail(qa.SeverityHigh)}
	before := s.Score(items)

	items[0].Ignored = true
	after := s.Score(items)
	require.GreaterOrEqual(t, after, before)

	items[0].Ignored = false
	restored := s.Score(items)
	require.LessOrEqual(t, restored, after)
	require.Equal(t, before, restored)
}

func TestScore_Bounds(t *testing.T) {
	t.Parallel()
	s := NewScorer(nil, 50)
	severities := []qa.Severity{
		qa.SeverityBlocker, qa.SeverityCritical, qa.SeverityHigh, qa.SeverityMedium, qa.SeverityLow,
	}
	var items []qa.ResultItem
	for i := 0; i < 30; i++ {
		items = append(items, fail(severities[i%len(severities)]))
		score := s.Score(items)
		require.GreaterOrEqual(t, score, 0)
		require.LessOrEqual(t, score, 100)
	}
}

func TestIsPassing(t *testing.T) {
	t.Parallel()
	s := NewScorer(nil, 50)
	require.True(t, s.IsPassing(50))
	require.True(t, s.IsPassing(100))
	require.False(t, s.IsPassing(49))

	strict := NewScorer(nil, 80)
	require.False(t, strict.IsPassing(79))
	require.True(t, strict.IsPassing(80))
}

func TestPenaltiesFromConfig(t *testing.T) {
	t.Parallel()
	p := PenaltiesFromConfig(map[string]int{"BLOCKER": 50, "LOW": 1})
	require.Equal(t, 50, p[qa.SeverityBlocker])
	require.Equal(t, 1, p[qa.SeverityLow])
	require.Equal(t, 20, p[qa.SeverityCritical])
}

func TestAggregate(t *testing.T) {
	t.Parallel()
	require.Equal(t, 0, Aggregate(nil))
	require.Equal(t, 80, Aggregate([]int{80}))
	require.Equal(t, 75, Aggregate([]int{70, 80}))
	require.Equal(t, 67, Aggregate([]int{60, 70, 70}))
	require.Equal(t, 100, Aggregate([]int{100, 100}))
}

func TestIssueCount(t *testing.T) {
	t.Parallel()
	items := []qa.ResultItem{
		fail(qa.SeverityHigh),
		{Status: qa.ItemFail, Severity: qa.SeverityLow, Ignored: true},
		pass(),
	}
	require.Equal(t, 1, IssueCount(items))
}
