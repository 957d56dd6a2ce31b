package entities

import "time"

// ImageResult is the outcome of translating one image
type ImageResult struct {
	Original string `json:"original"`
	SafeCopy string `json:"safe_copy,omitempty"`
	Result   string `json:"result,omitempty"`
	Error    string `json:"error,omitempty"`
}

// TranslationReport summarizes a translator run
type TranslationReport struct {
	RunID      string        `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Total      int           `json:"total"`
	Successful int           `json:"successful"`
	Results    []ImageResult `json:"results"`
}
