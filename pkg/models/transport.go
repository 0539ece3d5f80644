package models

// TraceRequest asks for a fringe trace from one click point
type TraceRequest struct {
	URL    string              `json:"url" binding:"required"`
	X      *float64            `json:"x" binding:"required"`
	Y      *float64            `json:"y" binding:"required"`
	Config *TraceConfigRequest `json:"config,omitempty"`
}

// TraceConfigRequest overrides tracing defaults. Unset fields keep the
// service defaults
type TraceConfigRequest struct {
	AmbitWidth     *float64 `json:"ambit_width,omitempty"`
	AmbitHeight    *float64 `json:"ambit_height,omitempty"`
	StepLength     *float64 `json:"step_length,omitempty"`
	StepCount      *int     `json:"step_count,omitempty"`
	DirectionCount *int     `json:"direction_count,omitempty"`
	SeedWidth      *float64 `json:"seed_width,omitempty"`
	SeedHeight     *float64 `json:"seed_height,omitempty"`
	VerticalScale  *float64 `json:"vertical_scale,omitempty"`
	ReferenceIndex *int     `json:"reference_index,omitempty"`
	Scorer         string   `json:"scorer,omitempty"`
	Metric         string   `json:"metric,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
