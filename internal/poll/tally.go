package poll

import "math"

// OptionResult is the live tally for one option.
type OptionResult struct {
	Index    int     `json:"index"`
	Label    string  `json:"label"`
	Count    int     `json:"count"`
	Percent  float64 `json:"percent"`  // share of voters, one decimal
	Favorite bool    `json:"favorite"` // nonzero maximum
}

// Tally is the computed result summary for a poll. It is derived from the
// stored votes on every read and never persisted.
type Tally struct {
	TotalVoters int            `json:"total_voters"`
	Options     []OptionResult `json:"options"`
}

// Count computes the tally: per-option vote counts, each option's share of
// voters, and the favorite flag for options tied at the nonzero maximum.
func Count(p *Poll) Tally {
	counts := make([]int, len(p.Options))
	for _, vote := range p.Votes {
		for _, sel := range vote.Selections {
			if sel >= 0 && sel < len(counts) {
				counts[sel]++
			}
		}
	}

	max := 0
	for _, c := range counts {
		if c > max {
			max = c
		}
	}

	total := len(p.Votes)
	results := make([]OptionResult, len(p.Options))
	for i, label := range p.Options {
		percent := 0.0
		if total > 0 {
			percent = math.Round(float64(counts[i])/float64(total)*1000) / 10
		}
		results[i] = OptionResult{
			Index:    i,
			Label:    label,
			Count:    counts[i],
			Percent:  percent,
			Favorite: counts[i] > 0 && counts[i] == max,
		}
	}

	return Tally{
		TotalVoters: total,
		Options:     results,
	}
}
