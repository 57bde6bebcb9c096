package model

import (
	"time"

	"github.com/theirongolddev/ocburn/internal/tally"
)

// DeviceRollup summarizes one device's contribution to a report.
type DeviceRollup struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Local     bool    `json:"local"`
	Reachable bool    `json:"reachable"`
	Sessions  int     `json:"sessions"`
	Active    int     `json:"active"`
	Tokens    int64   `json:"tokens"`
	CostVal   float64 `json:"cost_val"`
}

// Metrics is the fleet-wide block computed over every session in a report.
type Metrics struct {
	TodayCost    string         `json:"today_cost"`
	TodayCostVal float64        `json:"today_cost_val"`
	TodayTokens  int64          `json:"today_tokens"`
	ActiveCount  int            `json:"active_count"`
	AgentStats   tally.Set      `json:"agent_stats"`
	ModelStats   tally.Set      `json:"model_stats"`
	Devices      []DeviceRollup `json:"devices"`
	GeneratedAt  time.Time      `json:"generated_at"`
}

// Report is the aggregator output: sessions newest first plus metrics.
type Report struct {
	Sessions []SessionStats `json:"sessions"`
	Metrics  Metrics        `json:"metrics"`
}

// HourlyStats holds the sessions started within one local hour.
type HourlyStats struct {
	Hour     int
	Sessions int
	Tokens   int64
	Cost     float64
}
