package bot

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/aussiebroadwan/campusbot/internal/campus/domain"
)

// MaxLinesPerMessage bounds one /campus reply.
const MaxLinesPerMessage = 100

const nobodyOnCampus = "Nobody is on campus right now 😭"

// RenderCampus lists everybody present, grouped by floor in cluster table
// order and sorted by login within a floor. The result is split into
// messages of at most MaxLinesPerMessage lines.
func RenderCampus(snap *domain.CampusSnapshot, clusters []domain.Cluster) []string {
	var (
		floors  []string
		byFloor = make(map[string][]domain.ClusterParticipant)
		codes   = make(map[string]string, len(clusters))
	)
	for _, c := range clusters {
		codes[c.ID] = c.Code
		if _, seen := byFloor[c.Floor]; !seen {
			floors = append(floors, c.Floor)
			byFloor[c.Floor] = nil
		}
		byFloor[c.Floor] = append(byFloor[c.Floor], snap.Clusters[c.ID]...)
	}

	var lines []string
	for _, floor := range floors {
		participants := byFloor[floor]
		if len(participants) == 0 {
			continue
		}
		sort.Slice(participants, func(i, j int) bool {
			return participants[i].Login < participants[j].Login
		})

		if len(lines) > 0 {
			lines = append(lines, "")
		}
		if floor != "" {
			lines = append(lines, fmt.Sprintf("🏢 <b>%s</b>", html.EscapeString(floor)))
		}
		for _, p := range participants {
			lines = append(lines, fmt.Sprintf("👤 <b>%s</b>   %s",
				html.EscapeString(p.Login), html.EscapeString(p.Seat())))
		}
	}

	if len(lines) == 0 {
		return []string{nobodyOnCampus}
	}

	if len(snap.Failed) > 0 {
		missing := make([]string, 0, len(snap.Failed))
		for _, id := range snap.Failed {
			if code := codes[id]; code != "" {
				id = code
			}
			missing = append(missing, id)
		}
		lines = append(lines, "", "⚠️ No data for: "+strings.Join(missing, ", "))
	}

	return chunkLines(lines, MaxLinesPerMessage)
}

func chunkLines(lines []string, limit int) []string {
	var chunks []string
	for len(lines) > 0 {
		n := min(limit, len(lines))
		chunk := strings.TrimSpace(strings.Join(lines[:n], "\n"))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		lines = lines[n:]
	}
	return chunks
}
