package admin

import (
	"fmt"
	"sort"
	"time"

	"studynotes/models"
	"studynotes/notes"
)

const recentNotesLimit = 5

type DashboardStats struct {
	TotalNotes        int
	TotalSubjects     int
	NotesThisMonth    int
	MostActiveSubject string
	RecentNotes       []models.Note
	TotalFolders      int
	StorageBytes      float64
	LastLogin         string
}

// Storage is the estimate shown on the dashboard.
func (s DashboardStats) Storage() string {
	return fmt.Sprintf("%.2f MB", s.StorageBytes/(1024*1024))
}

// ComputeStats aggregates the dashboard numbers. now decides the current month.
func ComputeStats(allNotes []models.Note, folders []models.Folder, now time.Time) DashboardStats {
	stats := DashboardStats{
		TotalNotes:        len(allNotes),
		TotalFolders:      len(folders),
		MostActiveSubject: "-",
	}

	counts := map[string]int{}
	var order []string
	for _, n := range allNotes {
		if _, seen := counts[n.Subject]; !seen {
			order = append(order, n.Subject)
		}
		counts[n.Subject]++

		if d, ok := notes.ParseDate(n.Date); ok && d.Year() == now.Year() && d.Month() == now.Month() {
			stats.NotesThisMonth++
		}

		for _, f := range n.Files {
			stats.StorageBytes += float64(len(f.URL)) * 0.75
		}
	}
	stats.TotalSubjects = len(order)

	// First seen wins ties.
	best := 0
	for _, subject := range order {
		if counts[subject] > best {
			best = counts[subject]
			stats.MostActiveSubject = subject
		}
	}

	recent := sortByDate(allNotes, true)
	if len(recent) > recentNotesLimit {
		recent = recent[:recentNotesLimit]
	}
	stats.RecentNotes = recent

	return stats
}

// sortByDate returns a sorted copy. Equal dates keep the later id first when
// newest is set; unparseable dates sort last either way.
func sortByDate(in []models.Note, newest bool) []models.Note {
	out := append([]models.Note{}, in...)
	sort.SliceStable(out, func(i, j int) bool {
		di, oki := notes.ParseDate(out[i].Date)
		dj, okj := notes.ParseDate(out[j].Date)
		if oki != okj {
			return oki
		}
		if !di.Equal(dj) {
			if newest {
				return di.After(dj)
			}
			return di.Before(dj)
		}
		if newest {
			return out[i].ID > out[j].ID
		}
		return out[i].ID < out[j].ID
	})
	return out
}
