package models

import "fmt"

// KnowledgeBase holds canonical question phrasings and their answers as two
// parallel lists: Answers[i] answers Texts[i].
type KnowledgeBase struct {
	Texts   []string
	Answers []string
}

func (kb *KnowledgeBase) Add(question, answer string) {
	kb.Texts = append(kb.Texts, question)
	kb.Answers = append(kb.Answers, answer)
}

func (kb *KnowledgeBase) Len() int {
	return len(kb.Texts)
}

// EmbeddingSet is a persisted embedding matrix together with the texts it
// was computed from and the model that computed it. Row i embeds Texts[i].
type EmbeddingSet struct {
	Model  string
	Texts  []string
	Matrix [][]float32
}

// Dim returns the vector size shared by every row. It fails when the matrix
// does not have one row per text, when a row is empty, or when rows differ
// in size.
func (s *EmbeddingSet) Dim() (int, error) {
	if len(s.Matrix) != len(s.Texts) {
		return 0, fmt.Errorf("%d rows for %d texts", len(s.Matrix), len(s.Texts))
	}
	if len(s.Matrix) == 0 {
		return 0, nil
	}

	dim := len(s.Matrix[0])
	for i, row := range s.Matrix {
		if len(row) == 0 {
			return 0, fmt.Errorf("row %d is empty", i)
		}
		if len(row) != dim {
			return 0, fmt.Errorf("row %d has %d dimensions, expected %d", i, len(row), dim)
		}
	}
	return dim, nil
}
