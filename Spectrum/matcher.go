package Spectrum

import (
	"fmt"
	"math"
)

// MatchMode 决定开锁计数的方式
type MatchMode string

const (
	// MatchPeaks 统计命中任一目标的峰值个数。
	// 同一个目标可以被多个峰值重复计数，另一个目标可能完全没有命中
	MatchPeaks MatchMode = "peaks"
	// MatchDistinctTargets 统计至少被一个峰值命中的不同目标个数
	MatchDistinctTargets MatchMode = "distinct"
)

// Target 目标频率及其容差 (绝对 Hz)
type Target struct {
	Frequency float64 `yaml:"frequency" json:"frequency"`
	Tolerance float64 `yaml:"tolerance" json:"tolerance"`
}

// Contains 判断 freq 是否落在 |freq - target| <= tolerance 内
func (t Target) Contains(freq float64) bool {
	return math.Abs(freq-t.Frequency) <= t.Tolerance
}

// TargetSet 开锁条件
type TargetSet struct {
	Targets   []Target
	Threshold int       // 最少命中数
	Mode      MatchMode // 空值等同 MatchPeaks
	// 幅度 <= MinMagnitude 的峰值不参与匹配，静音帧因此永远是锁定状态
	MinMagnitude float64
}

// NewTargetSet 用统一容差创建目标集合
func NewTargetSet(freqs []float64, tolerance float64, threshold int) TargetSet {
	targets := make([]Target, len(freqs))
	for i, f := range freqs {
		targets[i] = Target{Frequency: f, Tolerance: tolerance}
	}
	return TargetSet{
		Targets:   targets,
		Threshold: threshold,
		Mode:      MatchPeaks,
	}
}

// Validate 检查目标集合
func (ts TargetSet) Validate() error {
	if len(ts.Targets) == 0 {
		return fmt.Errorf("%w: no target frequencies", ErrInvalidConfig)
	}
	for _, t := range ts.Targets {
		if t.Frequency < 0 || t.Tolerance < 0 {
			return fmt.Errorf("%w: bad target %.2f±%.2f Hz", ErrInvalidConfig, t.Frequency, t.Tolerance)
		}
	}
	if ts.Threshold < 1 {
		return fmt.Errorf("%w: match threshold must be >= 1, got %d", ErrInvalidConfig, ts.Threshold)
	}
	switch ts.Mode {
	case "", MatchPeaks, MatchDistinctTargets:
	default:
		return fmt.Errorf("%w: unknown match mode %q", ErrInvalidConfig, ts.Mode)
	}
	return nil
}

// Match 一个峰值与一个目标的配对 (记录距离最近的目标)
type Match struct {
	Peak        Peak    `json:"peak"`
	Target      Target  `json:"target"`
	TargetIndex int     `json:"target_index"`
	Offset      float64 `json:"offset"` // peak - target (Hz)
}

// Decision 单帧的开锁判定，每帧重新计算
type Decision struct {
	Unlocked     bool    `json:"unlocked"`
	MatchedCount int     `json:"matched_count"`
	Matches      []Match `json:"matches"`
}

// Match 用峰值集合计算开锁判定
func (ts TargetSet) Match(peaks []Peak) Decision {
	var d Decision
	hit := make(map[int]bool, len(ts.Targets))

	for _, p := range peaks {
		if p.Magnitude <= ts.MinMagnitude {
			continue
		}

		best := -1
		for i, t := range ts.Targets {
			if !t.Contains(p.Frequency) {
				continue
			}
			hit[i] = true
			if best < 0 || math.Abs(p.Frequency-t.Frequency) < math.Abs(p.Frequency-ts.Targets[best].Frequency) {
				best = i
			}
		}
		if best < 0 {
			continue
		}

		d.Matches = append(d.Matches, Match{
			Peak:        p,
			Target:      ts.Targets[best],
			TargetIndex: best,
			Offset:      p.Frequency - ts.Targets[best].Frequency,
		})
	}

	if ts.Mode == MatchDistinctTargets {
		d.MatchedCount = len(hit)
	} else {
		d.MatchedCount = len(d.Matches)
	}
	d.Unlocked = d.MatchedCount >= ts.Threshold
	return d
}
