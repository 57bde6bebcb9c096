package pipeline

import (
	"fmt"
	"sort"

	"github.com/theirongolddev/ocburn/internal/config"
	"github.com/theirongolddev/ocburn/internal/model"
)

// ModelCostBreakdown holds one model's spend across sessions.
type ModelCostBreakdown struct {
	Model    string
	Sessions int
	Tokens   int64
	CostVal  float64
	Share    float64 // fraction of total cost, 0-1
}

// AggregateModelCosts sums per-session model usage into per-model rows,
// most expensive first. Dated model snapshots fold into their base name.
// Remote sessions that only carry the formatted cost string are parsed.
func AggregateModelCosts(sessions []model.SessionStats) []ModelCostBreakdown {
	byModel := make(map[string]*ModelCostBreakdown)
	var total float64

	for _, s := range sessions {
		seen := make(map[string]bool)
		for _, u := range s.ModelsUsed {
			name := config.NormalizeModelName(u.Name)
			row, ok := byModel[name]
			if !ok {
				row = &ModelCostBreakdown{Model: name}
				byModel[name] = row
			}
			if !seen[name] {
				row.Sessions++
				seen[name] = true
			}
			cost := usageCost(u)
			row.Tokens += u.Tokens
			row.CostVal += cost
			total += cost
		}
	}

	rows := make([]ModelCostBreakdown, 0, len(byModel))
	for _, row := range byModel {
		if total > 0 {
			row.Share = row.CostVal / total
		}
		rows = append(rows, *row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CostVal != rows[j].CostVal {
			return rows[i].CostVal > rows[j].CostVal
		}
		return rows[i].Model < rows[j].Model
	})
	return rows
}

func usageCost(u model.ModelUsage) float64 {
	if u.CostVal != 0 || u.Cost == "" {
		return u.CostVal
	}
	var v float64
	if _, err := fmt.Sscanf(u.Cost, "$%f", &v); err != nil {
		return 0
	}
	return v
}
