// Package diff compares two server snapshots and renders what changed.
package diff

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/serverwatch/fivewatch/internal/models"
)

// colorCode matches the provider's inline color escapes (a caret followed by
// one digit) which must never reach a rendered message.
var colorCode = regexp.MustCompile(`(?m)\^\d`)

// Sanitize strips surrounding whitespace and removes color escapes from
// player and host names. It is idempotent.
func Sanitize(s string) string {
	return colorCode.ReplaceAllString(strings.TrimSpace(s), "")
}

// RenderPlayer renders one roster entry the way it appears in diff blocks.
// Two observations are considered the same player state only when id, name
// and ping all match.
func RenderPlayer(p models.PlayerObservation) string {
	return fmt.Sprintf("#%d %q (%dms)", p.ID, Sanitize(p.Name), p.Ping)
}

// decodeResource undoes the provider's space encoding in resource names.
func decodeResource(name string) string {
	return strings.ReplaceAll(name, "%20", " ")
}

// Compare diffs two snapshots and returns the rendered change report.
// Categories are evaluated in a fixed order so message fields are stable:
// resources, then game build, then players. A nil old snapshot means there
// is no baseline yet and the report is always empty.
func Compare(serverID string, old, cur *models.ServerSnapshot) models.ChangeReport {
	report := models.ChangeReport{
		ServerID: serverID,
		Hostname: Sanitize(cur.Hostname),
	}
	if old == nil {
		return report
	}

	if block := diffBlock(decodeAll(old.Resources), decodeAll(cur.Resources)); block != "" {
		report.Changes = append(report.Changes, models.Change{
			Name:   "Resources",
			Body:   block,
			Inline: true,
		})
	}

	if old.GameBuild != cur.GameBuild {
		report.Changes = append(report.Changes, models.Change{
			Name:   "Game Version",
			Body:   fmt.Sprintf("```diff\n- %s\n+ %s\n```", old.GameBuild, cur.GameBuild),
			Inline: true,
		})
	}

	if block := diffBlock(renderAll(old.Players), renderAll(cur.Players)); block != "" {
		report.Changes = append(report.Changes, models.Change{
			Name: "Players",
			Body: block,
		})
	}

	return report
}

// diffBlock computes the symmetric set difference between two string slices
// and renders it as a fenced diff: removed entries first, then added, each
// side sorted case-insensitively. An empty difference renders as "".
func diffBlock(old, cur []string) string {
	removed := missingFrom(old, cur)
	added := missingFrom(cur, old)
	if len(removed) == 0 && len(added) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("```diff\n")
	for _, e := range removed {
		b.WriteString("- ")
		b.WriteString(e)
		b.WriteString("\n")
	}
	for _, e := range added {
		b.WriteString("+ ")
		b.WriteString(e)
		b.WriteString("\n")
	}
	b.WriteString("```")
	return b.String()
}

// missingFrom returns the entries of a that are not in b, sorted
// case-insensitively.
func missingFrom(a, b []string) []string {
	have := make(map[string]struct{}, len(b))
	for _, e := range b {
		have[e] = struct{}{}
	}

	var out []string
	seen := make(map[string]struct{}, len(a))
	for _, e := range a {
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		if _, ok := have[e]; !ok {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	return out
}

func decodeAll(resources []string) []string {
	out := make([]string, len(resources))
	for i, r := range resources {
		out[i] = decodeResource(r)
	}
	return out
}

func renderAll(players []models.PlayerObservation) []string {
	out := make([]string, len(players))
	for i, p := range players {
		out[i] = RenderPlayer(p)
	}
	return out
}
