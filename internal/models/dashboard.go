package models

import "time"

// UndefinedTrack labels students whose track is empty.
const UndefinedTrack = "Undefined"

// TrackCount is a row of the per-track chart.
type TrackCount struct {
	Track string `db:"track" json:"track"`
	Total int    `db:"total" json:"total"`
}

// DashboardTotals carries the headline counts.
type DashboardTotals struct {
	Students int `db:"students" json:"students"`
	Staff    int `db:"staff" json:"staff"`
	Classes  int `db:"classes" json:"classes"`
	Tracks   int `db:"tracks" json:"tracks"`
}

// DashboardChart is the per-track student distribution.
type DashboardChart struct {
	Labels []string `json:"labels"`
	Values []int    `json:"values"`
}

// DashboardSummary is the payload of the dashboard endpoint.
type DashboardSummary struct {
	Totals      DashboardTotals `json:"totals"`
	Chart       DashboardChart  `json:"chart"`
	GeneratedAt time.Time       `json:"generated_at"`
}
