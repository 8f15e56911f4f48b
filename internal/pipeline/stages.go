package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"leadflow/internal/models"
)

// SortStages returns a copy ordered by SortOrder; ties fall back to ID.
func SortStages(stages []models.Stage) []models.Stage {
	out := make([]models.Stage, len(stages))
	copy(out, stages)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// VisibleStages filters hidden stages out of an ordered list.
func VisibleStages(stages []models.Stage) []models.Stage {
	out := make([]models.Stage, 0, len(stages))
	for _, s := range SortStages(stages) {
		if !s.IsHidden {
			out = append(out, s)
		}
	}
	return out
}

// AssignStageOrder maps orderedIDs onto 1-based sort orders. Stages missing
// from orderedIDs keep their relative order and are placed after the listed
// ones. Unknown or duplicated ids fail the whole assignment.
func AssignStageOrder(current []models.Stage, orderedIDs []string) ([]models.Stage, error) {
	byID := make(map[string]models.Stage, len(current))
	for _, s := range current {
		byID[s.ID] = s
	}
	seen := make(map[string]struct{}, len(orderedIDs))
	out := make([]models.Stage, 0, len(current))
	for _, id := range orderedIDs {
		s, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("stage %q: %w", id, models.ErrNotFound)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("stage %q listed twice: %w", id, models.ErrInvalidOrdering)
		}
		seen[id] = struct{}{}
		out = append(out, s)
	}
	for _, s := range SortStages(current) {
		if _, ok := seen[s.ID]; !ok {
			out = append(out, s)
		}
	}
	for i := range out {
		out[i].SortOrder = i + 1
	}
	return out, nil
}

// NextStageOrder is the sort order for a stage appended after all others.
func NextStageOrder(stages []models.Stage) int {
	max := 0
	for _, s := range stages {
		if s.SortOrder > max {
			max = s.SortOrder
		}
	}
	return max + 1
}

// Slugify derives a stage id from a display name: "Reunião Agendada" -> "reuniao_agendada".
func Slugify(name string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		r = foldAccent(r)
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			lastUnderscore = false
		case !lastUnderscore:
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

func foldAccent(r rune) rune {
	switch r {
	case 'á', 'à', 'â', 'ã', 'ä':
		return 'a'
	case 'é', 'è', 'ê', 'ë':
		return 'e'
	case 'í', 'ì', 'î', 'ï':
		return 'i'
	case 'ó', 'ò', 'ô', 'õ', 'ö':
		return 'o'
	case 'ú', 'ù', 'û', 'ü':
		return 'u'
	case 'ç':
		return 'c'
	case 'ñ':
		return 'n'
	}
	return r
}
