package progress

// EvolutionStep is the number of learned words between two evolution events
const EvolutionStep = 50

// PetStage is one form of the companion pet
type PetStage struct {
	Name     string `json:"name"`
	Emoji    string `json:"emoji"`
	MinWords int    `json:"minWords"`
}

// PetStages are ordered by the words needed to reach them
var PetStages = []PetStage{
	{Name: "Egg", Emoji: "🥚", MinWords: 0},
	{Name: "Hatchling", Emoji: "🐣", MinWords: 50},
	{Name: "Fledgling", Emoji: "🐥", MinWords: 100},
	{Name: "Fox", Emoji: "🦊", MinWords: 200},
	{Name: "Unicorn", Emoji: "🦄", MinWords: 500},
	{Name: "Dragon", Emoji: "🐲", MinWords: 1000},
}

// PetStageFor returns the pet form for a total word count
func PetStageFor(totalWords int) PetStage {
	stage := PetStages[0]
	for _, s := range PetStages {
		if totalWords >= s.MinWords {
			stage = s
		}
	}
	return stage
}

// Evolved reports whether growing from before to after words crossed a multiple of EvolutionStep
func Evolved(before, after int) bool {
	if before < 0 {
		before = 0
	}
	return after/EvolutionStep > before/EvolutionStep
}
