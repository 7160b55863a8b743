package model

// Request is the body posted to the solving service.
// WordCount is passed through untouched; -1 lets the service decide.
type Request struct {
	Grid             []string `json:"grid"`
	WordCount        int      `json:"wordcount"`
	Forbidden        []string `json:"forbidden"`
	FindAllSolutions bool     `json:"findAllSolutions"`
}
