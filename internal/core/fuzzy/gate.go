package fuzzy

// Name is a person's names as compared by the gate
type Name struct {
	FirstNames string
	LastName   string
}

// Scores are the four similarities the gate looks at
type Scores struct {
	FirstEdit float64
	FirstJW   float64
	LastEdit  float64
	LastJW    float64
}

// Min returns the lowest of the four scores
func (s Scores) Min() float64 {
	return min(s.FirstEdit, s.FirstJW, s.LastEdit, s.LastJW)
}

// Gate accepts a candidate only when every score reaches Threshold
type Gate struct {
	Threshold float64
}

// NewGate returns a gate with threshold t, or DefaultThreshold when t is not in (0,1]
func NewGate(t float64) Gate {
	if t <= 0 || t > 1 {
		t = DefaultThreshold
	}
	return Gate{Threshold: t}
}

// Score compares normalized first and last names of subject and reference
func (g Gate) Score(subject, reference Name) Scores {
	sf, rf := Normalize(subject.FirstNames), Normalize(reference.FirstNames)
	sl, rl := Normalize(subject.LastName), Normalize(reference.LastName)
	return Scores{
		FirstEdit: EditSimilarity(sf, rf),
		FirstJW:   JaroWinkler(sf, rf),
		LastEdit:  EditSimilarity(sl, rl),
		LastJW:    JaroWinkler(sl, rl),
	}
}

// Match reports whether subject and reference pass the gate
func (g Gate) Match(subject, reference Name) (Scores, bool) {
	s := g.Score(subject, reference)
	return s, s.Min() >= g.Threshold
}
