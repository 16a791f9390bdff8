package domain

import (
	"fmt"
	"strings"
)

// Difficulty is the canonical quiz difficulty.
type Difficulty string

const (
	DifficultyEasy         Difficulty = "Easy"
	DifficultyIntermediate Difficulty = "Intermediate"
	DifficultyHard         Difficulty = "Hard"
)

// ParseDifficulty capitalises raw and maps it onto the canonical enum.
// "Medium" is accepted as a legacy alias of Intermediate.
func ParseDifficulty(raw string) (Difficulty, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("%w: difficulty is required", ErrValidation)
	}
	normalized := strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
	switch Difficulty(normalized) {
	case DifficultyEasy, DifficultyIntermediate, DifficultyHard:
		return Difficulty(normalized), nil
	case "Medium":
		return DifficultyIntermediate, nil
	}
	return "", fmt.Errorf("%w: unknown difficulty %q", ErrValidation, raw)
}

func (d Difficulty) String() string { return string(d) }
