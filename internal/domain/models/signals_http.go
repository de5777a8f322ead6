package models

// Requests for analysis HTTP endpoints. Defined in domain for consistency and reuse.

type AnalyzeRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	N      int    `query:"n" json:"n" default:"300" validate:"gte=1,lte=5000"`
	TF     string `query:"tf" json:"tf" default:"daily" validate:"oneof=daily weekly"`
}

type PatternsRequest struct {
	Symbol  string  `query:"symbol" json:"symbol" validate:"required"`
	N       int     `query:"n" json:"n" default:"300" validate:"gte=1,lte=5000"`
	TF      string  `query:"tf" json:"tf" default:"daily" validate:"oneof=daily weekly"`
	MinConf float64 `query:"min_confidence" json:"min_confidence" validate:"gte=0,lte=1"`
}

type ScanRequest struct {
	Symbols []string `json:"symbols" validate:"required,min=1,max=500,dive,required"`
	N       int      `json:"n" default:"300" validate:"gte=1,lte=5000"`
	TF      string   `json:"tf" default:"daily" validate:"oneof=daily weekly"`
}

type DatasetBuildRequest struct {
	Symbols []string `json:"symbols" validate:"required,min=1,max=2000,dive,required"`
	TF      string   `json:"tf" default:"daily" validate:"oneof=daily weekly"`
	Format  string   `json:"format" default:"clickhouse" validate:"oneof=clickhouse json parquet"`
	// ExportPath is where json/parquet exports land; ignored for clickhouse.
	ExportPath string `json:"export_path" validate:"omitempty"`
	Async      bool   `json:"async" default:"true"`
}

type TrainRequest struct {
	TF    string `json:"tf" default:"daily" validate:"oneof=daily weekly"`
	Trees int    `json:"trees" default:"150" validate:"gte=1,lte=1000"`
	Async bool   `json:"async" default:"true"`
}

type PredictRequest struct {
	// Either a symbol (features derived from its latest bars) or a raw
	// feature vector must be given.
	Symbol   string    `query:"symbol" json:"symbol" validate:"required_without=Features"`
	N        int       `query:"n" json:"n" default:"300" validate:"gte=1,lte=5000"`
	TF       string    `query:"tf" json:"tf" default:"daily" validate:"oneof=daily weekly"`
	Features []float64 `json:"features" validate:"omitempty"`
}
