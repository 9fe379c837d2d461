package models

import "time"

// SubmissionState tracks a submission through the fixed pipeline
// sequence. Failed is terminal and reachable from any step; partial
// results are never exposed as complete.
type SubmissionState string

const (
	StatePending    SubmissionState = "pending"
	StateDecoding   SubmissionState = "decoding"
	StateStep1      SubmissionState = "step1_binarization"
	StateStep2      SubmissionState = "step2_luma"
	StateStep3      SubmissionState = "step3_saturation"
	StateStep4      SubmissionState = "step4_hue"
	StateStep5      SubmissionState = "step5_clustering"
	StateAssembling SubmissionState = "assembling"
	StateComplete   SubmissionState = "complete"
	StateFailed     SubmissionState = "failed"
)

// Artifact is one encoded output image. BudgetExceeded marks a
// best-effort artifact that could not be compressed under its byte
// budget even at minimum quality and size.
type Artifact struct {
	Name           string `json:"name"`
	Format         string `json:"format"`
	Data           []byte `json:"-"`
	Size           int    `json:"size"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	BudgetExceeded bool   `json:"budget_exceeded,omitempty"`
	StoredAt       string `json:"stored_at,omitempty"`
}

// AnalysisStats is the structured numeric summary assembled by the
// orchestrator.
type AnalysisStats struct {
	Luminance LuminanceStats `json:"luminance"`
	Centroid  CentroidStats  `json:"centroid"`
	HueSat    HueSatStats    `json:"hue_saturation"`
	Edges     EdgeStats      `json:"edges"`
	Frequency FrequencyStats `json:"frequency"`
	Texture   TextureStats   `json:"texture"`
	Palette   []PaletteEntry `json:"palette"` // descending by ratio
}

// AnalysisReport is the immutable result of one submission.
type AnalysisReport struct {
	ID                string          `json:"id"`
	State             SubmissionState `json:"state"`
	FailedStep        SubmissionState `json:"failed_step,omitempty"`
	Width             int             `json:"width"`
	Height            int             `json:"height"`
	Artifacts         []Artifact      `json:"artifacts"`
	Stats             AnalysisStats   `json:"stats"`
	ClusterStrategy   string          `json:"cluster_strategy,omitempty"`
	Warnings          []string        `json:"warnings,omitempty"`
	Timestamp         time.Time       `json:"timestamp"`
	ProcessingTimeSec float64         `json:"processing_time_sec"`
}

// AnalyzeRequest is the transport-level submission payload.
type AnalyzeRequest struct {
	URL               string `json:"url" binding:"required,url"`
	BinarizeThreshold *int   `json:"binarize_threshold,omitempty"`
	MaxSide           *int   `json:"max_side,omitempty"`
	ClusterTarget     *int   `json:"cluster_target,omitempty"`
	Detailed          bool   `json:"detailed,omitempty"`
}

// AnalyzeResponse wraps a completed report for transport.
type AnalyzeResponse struct {
	ImageURL string         `json:"image_url"`
	Report   AnalysisReport `json:"report"`
}
