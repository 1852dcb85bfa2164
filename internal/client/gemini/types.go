package gemini

// generateContentRequest is the subset of the generateContent payload this
// client uses.
type generateContentRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// SentimentReport is the structured result the model is asked to produce for
// a meeting's notes.
type SentimentReport struct {
	Sentiment string `json:"sentiment"`
	RiskLevel string `json:"risk_level"`
	Summary   string `json:"summary"`
}
