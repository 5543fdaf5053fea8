package notes

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"studynotes/metrics"
	"studynotes/models"
	"studynotes/store"
)

var (
	ErrSubjectRequired    = errors.New("Please select a subject")
	ErrFolderNameRequired = errors.New("Please enter a folder name")
	ErrFolderNotFound     = errors.New("Folder not found.")
)

// CreateFolder adds a folder dated today. Ids are millisecond timestamps,
// bumped past any id already in use.
func (s *Service) CreateFolder(ctx context.Context, subject, name string) (models.Folder, error) {
	subject = strings.TrimSpace(subject)
	name = strings.TrimSpace(name)
	if subject == "" {
		return models.Folder{}, ErrSubjectRequired
	}
	if name == "" {
		return models.Folder{}, ErrFolderNameRequired
	}

	now := s.now()
	folder := models.Folder{Subject: subject, Name: name, Date: now.Format(DateLayout)}
	err := s.folders.Mutate(ctx, func(folders []models.Folder) ([]models.Folder, error) {
		taken := make(map[int64]bool, len(folders))
		for _, f := range folders {
			taken[f.ID] = true
		}
		folder.ID = nextID(now.UnixMilli(), taken)
		return append(folders, folder), nil
	})
	if err != nil {
		return models.Folder{}, err
	}

	log.Info().Int64("folder_id", folder.ID).Str("subject", subject).Msg("folder created")
	return folder, nil
}

func (s *Service) AllFolders(ctx context.Context) ([]models.Folder, error) {
	return s.folders.All(ctx)
}

func (s *Service) GetFoldersBySubject(ctx context.Context, subject string) ([]models.Folder, error) {
	return s.folders.Filter(ctx, func(f models.Folder) bool { return f.Subject == subject })
}

func (s *Service) GetFolderByID(ctx context.Context, id int64) (models.Folder, bool, error) {
	return s.folders.Find(ctx, func(f models.Folder) bool { return f.ID == id })
}

// DeleteFolder removes the folder and every note in it in one transaction.
// It returns how many notes went with it. ErrFolderNotFound means neither a
// folder nor a note carried id.
func (s *Service) DeleteFolder(ctx context.Context, id int64) (int, error) {
	removedNotes := 0
	err := s.store.Atomic(ctx, func(tx *store.Tx) error {
		removedNotes = 0
		folders, err := s.folders.Load(tx)
		if err != nil {
			return err
		}
		keptFolders := make([]models.Folder, 0, len(folders))
		for _, f := range folders {
			if f.ID != id {
				keptFolders = append(keptFolders, f)
			}
		}
		notes, err := s.notes.Load(tx)
		if err != nil {
			return err
		}
		keptNotes := make([]models.Note, 0, len(notes))
		for _, n := range notes {
			if n.InFolder(id) {
				removedNotes++
				continue
			}
			keptNotes = append(keptNotes, n)
		}
		// Orphaned notes of a folder that is already gone are still swept.
		if len(keptFolders) == len(folders) && removedNotes == 0 {
			return ErrFolderNotFound
		}

		if err := s.folders.Save(tx, keptFolders); err != nil {
			return err
		}
		return s.notes.Save(tx, keptNotes)
	})
	if err != nil {
		return 0, err
	}

	metrics.NotesDeletedTotal.WithLabelValues("folder").Add(float64(removedNotes))
	log.Info().Int64("folder_id", id).Int("notes_removed", removedNotes).Msg("folder deleted")
	return removedNotes, nil
}

// CountByFolder maps folder id to the number of notes in it.
func CountByFolder(notes []models.Note) map[int64]int {
	counts := map[int64]int{}
	for _, n := range notes {
		if n.FolderID != nil {
			counts[*n.FolderID]++
		}
	}
	return counts
}

// FolderRow is a folder with the number of notes filed under it.
type FolderRow struct {
	Folder    models.Folder
	NoteCount int
}

// FolderRows pairs every folder with its note count.
func FolderRows(folders []models.Folder, allNotes []models.Note) []FolderRow {
	counts := CountByFolder(allNotes)
	rows := make([]FolderRow, len(folders))
	for i, f := range folders {
		rows[i] = FolderRow{Folder: f, NoteCount: counts[f.ID]}
	}
	return rows
}
