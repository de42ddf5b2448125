package model

// Plan represents the subscription tier bounding the monthly analysis quota.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanPro     Plan = "pro"
	PlanCreator Plan = "creator"
)

// Limit returns the monthly analysis quota for the plan. Unknown plans get
// the free-tier limit.
func (p Plan) Limit() int {
	switch p {
	case PlanCreator:
		return 500
	case PlanPro:
		return 50
	default:
		return 3
	}
}

// ViralityPrediction is the remote scorer's categorical virality verdict.
type ViralityPrediction string

const (
	ViralityLow    ViralityPrediction = "Low"
	ViralityMedium ViralityPrediction = "Medium"
	ViralityHigh   ViralityPrediction = "High"
)

// ScriptType identifies the content format a script is scored against.
// The server accepts arbitrary strings; these are the values the UI offers.
type ScriptType string

const (
	ScriptTypeGeneral ScriptType = "general"
	ScriptTypeTikTok  ScriptType = "tiktok"
	ScriptTypeYouTube ScriptType = "youtube"
	ScriptTypeShorts  ScriptType = "shorts"
)
