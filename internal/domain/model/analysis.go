package model

import (
	"encoding/json"
	"time"
)

// AnalysisResult is the scored output for one submitted script. It is
// produced entirely by the remote service; this client treats it as a value
// object and never recomputes any field.
type AnalysisResult struct {
	ID                    string             `json:"id"`
	Title                 string             `json:"title,omitempty"`
	CreatedAt             time.Time          `json:"created_at"`
	WordCount             int                `json:"word_count"`
	EstimatedDuration     string             `json:"estimated_duration"`
	OverallScore          float64            `json:"overall_score"`
	ViralityPrediction    ViralityPrediction `json:"virality_prediction"`
	Scores                map[string]float64 `json:"scores"`
	Strengths             []string           `json:"strengths"`
	Weaknesses            []string           `json:"weaknesses"`
	Improvements          []Improvement      `json:"improvements"`
	ViralPatternsDetected []string           `json:"viral_patterns_detected"`
	ViralPatternsMissing  []string           `json:"viral_patterns_missing"`
	EstimatedRetention    string             `json:"estimated_retention,omitempty"`
}

// Improvement is one actionable suggestion tied to a section of the script.
type Improvement struct {
	Section    string `json:"section"`
	Issue      string `json:"issue"`
	Suggestion string `json:"suggestion"`
}

// AnalysisSummary is the compact form of an analysis as it appears in the
// paginated history listing.
type AnalysisSummary struct {
	ID                 string             `json:"id"`
	Title              string             `json:"title,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	WordCount          int                `json:"word_count"`
	OverallScore       float64            `json:"overall_score"`
	ViralityPrediction ViralityPrediction `json:"virality_prediction"`
}

// HistoryPage is one page of the analysis history. It is a view over server
// state and is never persisted locally.
type HistoryPage struct {
	Analyses []AnalysisSummary `json:"analyses"`
	Total    int               `json:"total"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

// Stats aggregates a user's scoring history.
type Stats struct {
	TotalAnalyses     int     `json:"total_analyses"`
	AnalysesThisMonth int     `json:"analyses_this_month"`
	AverageScore      float64 `json:"average_score"`
	BestScore         float64 `json:"best_score"`
}

// ComparisonResult is the opaque payload of the script comparison endpoint.
// The client passes it through to the UI without interpreting it.
type ComparisonResult = json.RawMessage

// ImprovementSet is the opaque payload of the improvement suggestion
// endpoint, passed through like ComparisonResult.
type ImprovementSet = json.RawMessage
