package model

import "fmt"

// Solution is one candidate answer returned by the solving service.
// Paths[i] spells Words[i]. Spangram is empty when the solution has none.
type Solution struct {
	Words    []string `json:"words"`
	Paths    []Path   `json:"paths"`
	Spangram string   `json:"spangram,omitempty"`
}

// SpangramIndex returns the index of the spangram word, or -1.
func (s Solution) SpangramIndex() int {
	if s.Spangram == "" {
		return -1
	}
	for i, w := range s.Words {
		if w == s.Spangram {
			return i
		}
	}
	return -1
}

// Validate checks the solution against a rows×cols board.
func (s Solution) Validate(rows, cols int) error {
	if len(s.Words) != len(s.Paths) {
		return fmt.Errorf("%d words but %d paths", len(s.Words), len(s.Paths))
	}
	for i, p := range s.Paths {
		if len(p) == 0 {
			return fmt.Errorf("word %d (%s): empty path", i, s.Words[i])
		}
		for _, c := range p {
			if c.Row < 0 || c.Row >= rows || c.Col < 0 || c.Col >= cols {
				return fmt.Errorf("word %d (%s): cell %s outside %dx%d board", i, s.Words[i], c, rows, cols)
			}
		}
	}
	if s.Spangram != "" && s.SpangramIndex() < 0 {
		return fmt.Errorf("spangram %q is not one of the words", s.Spangram)
	}
	return nil
}
