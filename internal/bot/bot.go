package bot

// NormalizeDifficulty maps an empty or unknown difficulty to hard.
func NormalizeDifficulty(difficulty string) string {
	switch difficulty {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return difficulty
	default:
		return DifficultyHard
	}
}
