package analyze

// Request/response shapes for the generateContent endpoint, trimmed to the
// fields this client uses.

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content content `json:"content"`
}

// analysisPayload is the JSON document the model is instructed to emit.
type analysisPayload struct {
	Verifiable bool   `json:"verifiable"`
	MainClaim  string `json:"main_claim"`
	Category   string `json:"category"`
	RiskScore  int    `json:"risk_score"`
	Rationale  string `json:"rationale"`
}
