package gbl

import "fmt"

//ImportanceType selects how split statistics are aggregated into a feature importance.
type ImportanceType int

const (
	//ImportanceWeight is the number of splits that use the feature.
	ImportanceWeight ImportanceType = iota
	//ImportanceGain is the average loss change of splits that use the feature.
	ImportanceGain
	//ImportanceCover is the average hessian sum of splits that use the feature.
	ImportanceCover
	ImportanceTotalGain
	ImportanceTotalCover
)

//ImportanceTypes lists every importance type in declaration order.
var ImportanceTypes = []ImportanceType{ImportanceWeight, ImportanceGain, ImportanceCover, ImportanceTotalGain, ImportanceTotalCover}

var importanceNames = map[ImportanceType]string{
	ImportanceWeight:     "weight",
	ImportanceGain:       "gain",
	ImportanceCover:      "cover",
	ImportanceTotalGain:  "total_gain",
	ImportanceTotalCover: "total_cover",
}

//IsValid reports whether kind is one of ImportanceTypes.
func (kind ImportanceType) IsValid() bool {
	_, ok := importanceNames[kind]
	return ok
}

func (kind ImportanceType) String() string {
	if name, ok := importanceNames[kind]; ok {
		return name
	}
	return fmt.Sprintf("ImportanceType(%d)", int(kind))
}

//ParseImportanceType converts a name such as "weight" or "total_gain" into an ImportanceType.
//The empty string means weight.
func ParseImportanceType(name string) (ImportanceType, error) {
	if name == "" {
		return ImportanceWeight, nil
	}
	for kind, kindName := range importanceNames {
		if kindName == name {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("unknown importance type %q", name)
}

//FeatureStats aggregates splits of one feature over all trees.
type FeatureStats struct {
	Weight     float64
	TotalGain  float64
	TotalCover float64
}

//Value returns the importance of the requested type.
func (stats FeatureStats) Value(kind ImportanceType) float64 {
	switch kind {
	case ImportanceWeight:
		return stats.Weight
	case ImportanceGain:
		return stats.TotalGain / stats.Weight
	case ImportanceCover:
		return stats.TotalCover / stats.Weight
	case ImportanceTotalGain:
		return stats.TotalGain
	case ImportanceTotalCover:
		return stats.TotalCover
	}
	panic(fmt.Sprintf("unknown importance type %d", int(kind)))
}

//FeatureStats collects split statistics of every local feature used in at least one split.
func (booster Booster) FeatureStats() map[int]FeatureStats {
	result := make(map[int]FeatureStats)
	for _, tree := range booster.Trees {
		for _, node := range tree.TreeNodes {
			if node.IsLeaf() {
				continue
			}
			stats := result[node.FeatureNumber]
			stats.Weight++
			stats.TotalGain += node.Gain
			stats.TotalCover += node.Cover
			result[node.FeatureNumber] = stats
		}
	}
	return result
}

//GetScore returns the importance of every used feature. Features that never split are absent.
func (booster Booster) GetScore(kind ImportanceType) map[int]float64 {
	score := make(map[int]float64)
	for feature, stats := range booster.FeatureStats() {
		score[feature] = stats.Value(kind)
	}
	return score
}

//GetFScore is the number of splits per feature.
func (booster Booster) GetFScore() map[int]float64 {
	return booster.GetScore(ImportanceWeight)
}
