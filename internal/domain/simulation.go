package domain

// SimulationAggregate is the terminal-state summary of one
// statistics-mode simulation batch. Corresponds to the
// simulation_aggregates table in ClickHouse, kept as calibration history.
type SimulationAggregate struct {
	RunID           string  // deterministic hash of config + start time
	CreatedAtMs     int64   // batch completion time, Unix ms
	Iterations      int     // number of runs in the batch
	Days            int     // simulated horizon per run
	InitialPrice    float64 // spot price at initial supply
	AvgPrice        float64
	MedianPrice     float64
	MinPrice        float64
	MaxPrice        float64
	P05Price        float64
	P95Price        float64
	WinRate         float64 // fraction of runs ending above InitialPrice
	AvgVolumePerSim float64 // mean GLUE units traded per run
}
