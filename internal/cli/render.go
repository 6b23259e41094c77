package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"resource-index/internal/database"
	"resource-index/internal/index"
	"resource-index/internal/resource"
)

// PathEntry is one tracked path in a build report.
type PathEntry struct {
	Path string      `json:"path"`
	ID   resource.ID `json:"id"`
}

// DuplicateGroup lists the paths sharing one resource id.
type DuplicateGroup struct {
	ID    resource.ID `json:"id"`
	Paths []string    `json:"paths"`
}

// BuildReport is what the build command prints.
type BuildReport struct {
	index.Stats
	Entries    []PathEntry      `json:"entries,omitempty"`
	Duplicates []DuplicateGroup `json:"duplicates,omitempty"`
}

func newBuildReport(idx *index.ResourceIndex, listPaths, showDuplicates bool) BuildReport {
	report := BuildReport{Stats: idx.Stats()}
	paths := idx.Paths()

	if listPaths {
		report.Entries = make([]PathEntry, 0, len(paths))
		for _, p := range paths {
			meta, _ := idx.Get(p)
			report.Entries = append(report.Entries, PathEntry{Path: p, ID: meta.ID})
		}
	}

	if showDuplicates {
		collisions := idx.Collisions()
		groups := make(map[resource.ID][]string, len(collisions))
		for _, p := range paths {
			meta, _ := idx.Get(p)
			if _, ok := collisions[meta.ID]; ok {
				groups[meta.ID] = append(groups[meta.ID], p)
			}
		}
		report.Duplicates = make([]DuplicateGroup, 0, len(groups))
		for id, group := range groups {
			report.Duplicates = append(report.Duplicates, DuplicateGroup{ID: id, Paths: group})
		}
		sort.Slice(report.Duplicates, func(i, j int) bool {
			return report.Duplicates[i].Paths[0] < report.Duplicates[j].Paths[0]
		})
	}

	return report
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeJSONLine(w io.Writer, v interface{}) error {
	return json.NewEncoder(w).Encode(v)
}

func renderBuildText(w io.Writer, report BuildReport) {
	_, _ = fmt.Fprintf(w, "root:        %s\n", report.Root)
	_, _ = fmt.Fprintf(w, "paths:       %d\n", report.Paths)
	_, _ = fmt.Fprintf(w, "distinct:    %d\n", report.DistinctResources)
	_, _ = fmt.Fprintf(w, "colliding:   %d\n", report.CollidingResources)
	_, _ = fmt.Fprintf(w, "duplicates:  %d\n", report.DuplicatePaths)

	if len(report.Entries) > 0 {
		_, _ = fmt.Fprintln(w)
		for _, e := range report.Entries {
			_, _ = fmt.Fprintf(w, "%s  %s\n", e.ID.Short(), e.Path)
		}
	}

	for _, g := range report.Duplicates {
		_, _ = fmt.Fprintf(w, "\n%s (%d paths)\n", g.ID.Short(), len(g.Paths))
		for _, p := range g.Paths {
			_, _ = fmt.Fprintf(w, "  %s\n", p)
		}
	}
}

func renderUpdateText(w io.Writer, rec *database.UpdateRecord) {
	header := rec.RecordedAt.Local().Format(time.DateTime)
	if rec.ID > 0 {
		header = fmt.Sprintf("#%d %s", rec.ID, header)
	}
	_, _ = fmt.Fprintf(w, "%s  +%d -%d ~%d  (%dms)\n",
		header, rec.AddedCount, rec.DeletedCount, rec.MovedCount, rec.DurationMs)

	for _, a := range rec.Added {
		marker := "+"
		if a.Moved {
			marker = "~"
		}
		_, _ = fmt.Fprintf(w, "  %s %s  %s\n", marker, a.ID.Short(), a.Path)
	}
	for _, id := range rec.Deleted {
		_, _ = fmt.Fprintf(w, "  - %s\n", id.Short())
	}
}

func renderJournalText(w io.Writer, records []database.UpdateRecord) {
	if len(records) == 0 {
		_, _ = fmt.Fprintln(w, "no updates recorded")
		return
	}
	for _, rec := range records {
		_, _ = fmt.Fprintf(w, "#%-6d %s  +%d -%d ~%d  %s\n",
			rec.ID, rec.RecordedAt.Local().Format(time.DateTime),
			rec.AddedCount, rec.DeletedCount, rec.MovedCount, rec.Root)
	}
}
