package entities

// Priority score bands. Scores live in [0, 100) and the bands never overlap:
//
//	Low    [0, 40]
//	Medium (40, 70]
//	High   (70, 100)
const (
	MinPriorityScore     = 0.0
	MediumBandFloorScore = 40.0
	HighBandFloorScore   = 70.0
	MaxPriorityScore     = 100.0
)

// PriorityForScore returns the priority whose band contains score
func PriorityForScore(score float64) Priority {
	switch {
	case score > HighBandFloorScore:
		return High
	case score > MediumBandFloorScore:
		return Medium
	default:
		return Low
	}
}
