package domain

// LabelType records which provider family produced a Label.
type LabelType string

const (
	LabelTypeClarifai LabelType = "clarifai"
	LabelTypeLabel    LabelType = "label"
	LabelTypeWeb      LabelType = "web"
	LabelTypeMock     LabelType = "mock"
)

// Label is one normalized provider concept with its confidence in [0,1].
type Label struct {
	Concept string    `json:"concept"`
	Score   float64   `json:"score"`
	Type    LabelType `json:"type"`
}

// ContentEntry is the educational blurb generated for a single Label.
type ContentEntry struct {
	Concept string  `json:"concept"`
	Fact    string  `json:"fact"`
	Tip     string  `json:"tip"`
	Score   float64 `json:"score"`
}

// ScanResponse is the envelope returned by POST /api/scan. It is always sent with HTTP 200.
type ScanResponse struct {
	Success            bool           `json:"success"`
	Results            []Label        `json:"results,omitempty"`
	EducationalContent []ContentEntry `json:"educational_content,omitempty"`
	Note               string         `json:"note,omitempty"`
	Error              string         `json:"error,omitempty"`
}

func ScanFailure(msg string) ScanResponse {
	return ScanResponse{Success: false, Error: msg}
}

func ClampScore(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ImagePayload is a decoded upload ready to hand to a provider.
type ImagePayload struct {
	Bytes    []byte
	Base64   string
	Format   string
	MimeType string
}
