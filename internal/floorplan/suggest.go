package floorplan

import (
	"sort"
	"strconv"
	"strings"

	"github.com/dinefloor/backend/internal/models"
)

const (
	// scoreDegenerate marks suggestions whose standard capacity is zero or
	// unknown; they rank after every real fit.
	scoreDegenerate = 1000.0
	scorePerTable   = 0.1
)

// Suggestion is one viable table allocation for a party.
type Suggestion struct {
	RoomID    int64    `json:"room_id"`
	TableIDs  []int64  `json:"table_ids"`
	JoinGroup *string  `json:"join_group,omitempty"`
	Capacity  Capacity `json:"capacity"`
	Score     float64  `json:"score"`
}

// SuggestResult holds the best-scoring allocation and the remaining distinct
// candidates ranked by score. Best is nil when nothing reaches the party size.
type SuggestResult struct {
	Best         *Suggestion  `json:"best"`
	Alternatives []Suggestion `json:"alternatives"`
}

// Suggest searches the candidate tables for the best single table, best
// existing join group, and best greedy combination (bounded by maxTables) that
// seats the given party. It is a pure function of its inputs: candidates are
// expected to be pre-filtered by the caller. Lower score wins; the score
// penalizes standard-capacity overshoot first and table count second.
func Suggest(candidates []models.Table, party, maxTables int) SuggestResult {
	if maxTables < 1 {
		maxTables = 1
	}
	ranked := make(map[string]Suggestion)

	// Single tables.
	for _, t := range candidates {
		c := Calculate([]models.Table{t})
		if c.Max < party {
			continue
		}
		register(ranked, Suggestion{
			RoomID:   t.RoomID,
			TableIDs: []int64{t.ID},
			Capacity: c,
			Score:    score(c, party, 1),
		})
	}

	// Existing join groups.
	for code, group := range groupByJoinCode(candidates) {
		c := Calculate(group)
		if c.Max < party {
			continue
		}
		code := code
		register(ranked, Suggestion{
			RoomID:    group[0].RoomID,
			TableIDs:  tableIDs(group),
			JoinGroup: &code,
			Capacity:  c,
			Score:     score(c, party, len(group)),
		})
	}

	// Greedy combinations, largest tables first, never spanning rooms.
	for _, roomTables := range groupByRoom(candidates) {
		if s, ok := greedyCombine(roomTables, party, maxTables); ok {
			register(ranked, s)
		}
	}

	suggestions := make([]Suggestion, 0, len(ranked))
	for _, s := range ranked {
		suggestions = append(suggestions, s)
	}
	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].Score != suggestions[j].Score {
			return suggestions[i].Score < suggestions[j].Score
		}
		if len(suggestions[i].TableIDs) != len(suggestions[j].TableIDs) {
			return len(suggestions[i].TableIDs) < len(suggestions[j].TableIDs)
		}
		return combinationKey(suggestions[i].TableIDs) < combinationKey(suggestions[j].TableIDs)
	})

	if len(suggestions) == 0 {
		return SuggestResult{Alternatives: []Suggestion{}}
	}
	best := suggestions[0]
	return SuggestResult{Best: &best, Alternatives: suggestions[1:]}
}

// greedyCombine adds tables in descending standard-capacity order until the
// combined maximum reaches the party size or the table bound is exhausted.
func greedyCombine(tables []models.Table, party, maxTables int) (Suggestion, bool) {
	sorted := make([]models.Table, len(tables))
	copy(sorted, tables)
	sort.Slice(sorted, func(i, j int) bool {
		si, sj := firstSeats(sorted[i].SeatsStd, sorted[i].SeatsMax), firstSeats(sorted[j].SeatsStd, sorted[j].SeatsMax)
		if si != sj {
			return si > sj
		}
		return sorted[i].ID < sorted[j].ID
	})

	var selection []models.Table
	for _, t := range sorted {
		if len(selection) == maxTables {
			break
		}
		selection = append(selection, t)
		c := Calculate(selection)
		if c.Max >= party {
			return Suggestion{
				RoomID:   t.RoomID,
				TableIDs: tableIDs(selection),
				Capacity: c,
				Score:    score(c, party, len(selection)),
			}, true
		}
	}
	return Suggestion{}, false
}

func score(c Capacity, party, tableCount int) float64 {
	if c.Std <= 0 {
		return scoreDegenerate
	}
	over := c.Std - party
	if over < 0 {
		over = 0
	}
	return float64(over) + scorePerTable*float64(tableCount)
}

// register stores the suggestion keyed by its sorted table-id combination so
// the same set of tables never appears twice.
func register(ranked map[string]Suggestion, s Suggestion) {
	key := combinationKey(s.TableIDs)
	if _, seen := ranked[key]; seen {
		return
	}
	ranked[key] = s
}

func combinationKey(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

func tableIDs(tables []models.Table) []int64 {
	ids := make([]int64, len(tables))
	for i, t := range tables {
		ids[i] = t.ID
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func groupByJoinCode(tables []models.Table) map[string][]models.Table {
	groups := make(map[string][]models.Table)
	for _, t := range tables {
		if t.JoinGroup == nil || *t.JoinGroup == "" {
			continue
		}
		groups[*t.JoinGroup] = append(groups[*t.JoinGroup], t)
	}
	return groups
}

func groupByRoom(tables []models.Table) map[int64][]models.Table {
	rooms := make(map[int64][]models.Table)
	for _, t := range tables {
		rooms[t.RoomID] = append(rooms[t.RoomID], t)
	}
	return rooms
}
