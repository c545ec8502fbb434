// FitRec - Garment Size Recommendation Service
// Copyright 2026 Bould Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bouldhq/fitrec

package recommend

// CategoryGroup classifies garment categories by the body region they fit.
type CategoryGroup int

const (
	// GroupOther covers uncategorized garments.
	GroupOther CategoryGroup = iota
	// GroupUpper covers tops, jackets, sweaters, hoodies.
	GroupUpper
	// GroupLower covers shorts, trousers, jeans, skirts.
	GroupLower
	// GroupDress covers dresses.
	GroupDress
)

// String returns a human-readable group name.
func (g CategoryGroup) String() string {
	switch g {
	case GroupUpper:
		return "upper_body"
	case GroupLower:
		return "lower_body"
	case GroupDress:
		return "dress"
	default:
		return "other"
	}
}

// Representative category ids used by the auto-detection override.
const (
	upperRepresentative = 3
	lowerRepresentative = 1
)

// CategoryGroupFor maps a category id to its relevance group. The id
// assignments follow the upstream garment taxonomy.
func CategoryGroupFor(id int) CategoryGroup {
	switch {
	case id >= 3 && id <= 10:
		return GroupUpper
	case id == 1 || id == 2 || id == 11 || id == 12:
		return GroupLower
	case id == 13:
		return GroupDress
	default:
		return GroupOther
	}
}

// MetricsForCategory returns the ordered body metrics relevant to scoring
// a garment of the given category.
func MetricsForCategory(id int) []string {
	switch CategoryGroupFor(id) {
	case GroupUpper:
		return []string{"chest", "waist", "shoulder_width", "sleeve_length"}
	case GroupLower:
		return []string{"waist", "hips", "inseam", "thigh"}
	case GroupDress:
		return []string{"chest", "waist", "hips", "length"}
	default:
		return []string{"chest", "waist", "hips"}
	}
}

// resolveCategory compensates for callers mis-tagging the garment
// category. It compares how many of the stated category's metrics appear
// in the chart's first size entry against a fixed alternate category
// (the lower-body representative when the caller stated upper-body, the
// upper-body representative otherwise) and switches to the alternate only
// when its overlap exceeds the stated one by more than 1. The switch is
// scoped to the current call.
func resolveCategory(statedID int, firstSize Measurements) int {
	if len(firstSize) == 0 {
		return statedID
	}

	alternateID := upperRepresentative
	if CategoryGroupFor(statedID) == GroupUpper {
		alternateID = lowerRepresentative
	}

	stated := metricOverlap(MetricsForCategory(statedID), firstSize)
	alternate := metricOverlap(MetricsForCategory(alternateID), firstSize)
	if alternate > stated+1 {
		return alternateID
	}
	return statedID
}

// metricOverlap counts how many of the metrics are present in the chart
// entry.
func metricOverlap(metrics []string, entry Measurements) int {
	n := 0
	for _, m := range metrics {
		if _, ok := entry[m]; ok {
			n++
		}
	}
	return n
}
