package Spectrum

import "sort"

// Peak 压缩频谱中的一个峰值
type Peak struct {
	Bin
	Position int     `json:"position"` // 在压缩频谱中的下标
	Percent  float64 `json:"percent"`  // 相对压缩频谱最大幅度的百分比
}

// TopPeaks 返回幅度最大的 k 个点，按幅度降序
// 幅度相同时保持在压缩频谱中的先后顺序 (低频在前)
// 最大幅度为 0 时所有百分比为 0
func TopPeaks(reduced []Bin, k int) []Peak {
	if k <= 0 || len(reduced) == 0 {
		return nil
	}

	order := make([]int, len(reduced))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return reduced[order[a]].Magnitude > reduced[order[b]].Magnitude
	})

	if k > len(order) {
		k = len(order)
	}
	maxMag := reduced[order[0]].Magnitude

	peaks := make([]Peak, k)
	for i := 0; i < k; i++ {
		pos := order[i]
		peaks[i] = Peak{
			Bin:      reduced[pos],
			Position: pos,
			Percent:  percentOf(reduced[pos].Magnitude, maxMag),
		}
	}
	return peaks
}

func percentOf(v, top float64) float64 {
	if top <= 0 {
		return 0
	}
	return v / top * 100
}
