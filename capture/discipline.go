package capture

import "strings"

// Discipline selects how the loop counter is bound across iterations.
type Discipline int

const (
	// Shared keeps one mutable counter for the whole loop.
	Shared Discipline = iota
	// PerIteration introduces a fresh counter binding for every iteration.
	PerIteration
)

func (d Discipline) String() string {
	switch d {
	case Shared:
		return "shared"
	case PerIteration:
		return "per-iteration"
	default:
		return "unknown"
	}
}

func (d Discipline) valid() bool {
	return d == Shared || d == PerIteration
}

// ParseDiscipline accepts the canonical names along with the var/let
// keywords the two disciplines are usually introduced with.
func ParseDiscipline(text string) (Discipline, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "shared", "var":
		return Shared, nil
	case "per-iteration", "per_iteration", "periteration", "let":
		return PerIteration, nil
	default:
		return Shared, &ArgumentError{Name: "discipline", Value: text, Reason: "expected shared or per-iteration"}
	}
}
