package domain

// GroupHealth holds the data-quality counters and score of one store (or section).
type GroupHealth struct {
	Group             string  `json:"group"`
	TotalRows         int     `json:"total_rows"`
	NegativeRows      int     `json:"negative_rows"`
	MissingRRP        int     `json:"missing_rrp"`
	MissingCells      int     `json:"missing_cells"`
	PricedRows        int     `json:"priced_rows"`
	OutlierCount      int     `json:"outlier_count"`
	OutlierRatePct    float64 `json:"outlier_rate_pct"`
	Unreliable        bool    `json:"unreliable"`
	PctNegative       float64 `json:"pct_negative"`
	PctMissingRRP     float64 `json:"pct_missing_rrp"`
	PctOutliers       float64 `json:"pct_outliers"`
	PctMissingAllCols float64 `json:"pct_missing_all_cols"`
	HealthScore       float64 `json:"health_score"`
}

// ColumnMissing counts missing cells in one column.
type ColumnMissing struct {
	Column  string `json:"column"`
	Missing int    `json:"missing"`
}

// MissingRRPSplit counts rows without an RRP per store, split target vs others.
type MissingRRPSplit struct {
	StoreName string `json:"store_name"`
	Target    int    `json:"target"`
	Other     int    `json:"other"`
}

// HealthIssue is one line of the unhealthy-data summary.
type HealthIssue struct {
	Issue   string `json:"issue"`
	Subject string `json:"subject"`
	Count   int    `json:"count"`
	Detail  string `json:"detail"`
}

// HealthReport is the Data Health Score of a dataset and its breakdown.
type HealthReport struct {
	OverallScore     float64           `json:"overall_score"`
	Rating           string            `json:"rating"`
	Stores           []GroupHealth     `json:"stores"`
	MissingByColumn  []ColumnMissing   `json:"missing_by_column"`
	MissingRRP       []MissingRRPSplit `json:"missing_rrp"`
	NegativeRows     int               `json:"negative_rows"`
	DuplicateRows    int               `json:"duplicate_rows"`
	DuplicateRatePct float64           `json:"duplicate_rate_pct"`
	RRPOutliers      []OutlierRow      `json:"rrp_outliers"`
	Issues           []HealthIssue     `json:"issues"`
}
