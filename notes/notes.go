// Package notes stores notes with their embedded files and the folders
// that group them.
package notes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"studynotes/metrics"
	"studynotes/models"
	"studynotes/store"
)

var (
	ErrNoteNotFound = errors.New("Note not found.")
	ErrFileNotFound = errors.New("File not found.")
	ErrNoFiles      = errors.New("No files found for this note.")
)

// DateLayout is how note and folder dates are stored.
const DateLayout = "2006-01-02"

// legacyDateLayout is what older data holds (M/D/YYYY).
const legacyDateLayout = "1/2/2006"

// ParseDate reads a stored date in either layout.
func ParseDate(s string) (time.Time, bool) {
	for _, layout := range []string{DateLayout, legacyDateLayout} {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

type Service struct {
	store   *store.Store
	notes   *store.Collection[models.Note]
	folders *store.Collection[models.Folder]
	now     func() time.Time
}

func NewService(s *store.Store) *Service {
	return &Service{
		store:   s,
		notes:   store.NewCollection[models.Note](s, models.KeyNotes, nil),
		folders: store.NewCollection[models.Folder](s, models.KeyFolders, nil),
		now:     time.Now,
	}
}

// NewNote is the input of CreateNote. Files are embedded in slice order.
type NewNote struct {
	Subject     string
	FolderID    *int64
	Title       string
	Description string
	Files       []Upload
}

// nextID returns candidate, or the next integer above it not in taken.
func nextID(candidate int64, taken map[int64]bool) int64 {
	for taken[candidate] {
		candidate++
	}
	return candidate
}

// CreateNote reads every file concurrently and stores the note only when
// all reads succeeded.
func (s *Service) CreateNote(ctx context.Context, in NewNote) (models.Note, error) {
	files, err := readUploads(ctx, in.Files)
	if err != nil {
		return models.Note{}, err
	}

	now := s.now()
	note := models.Note{
		Subject:     in.Subject,
		FolderID:    in.FolderID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Date:        now.Format(DateLayout),
	}

	err = s.notes.Mutate(ctx, func(notes []models.Note) ([]models.Note, error) {
		taken := make(map[int64]bool, len(notes))
		for _, n := range notes {
			taken[n.ID] = true
		}
		note.ID = nextID(now.UnixMilli(), taken)
		note.Files = make([]models.File, len(files))
		for i, f := range files {
			f.ID = fmt.Sprintf("%d-%d", note.ID, i)
			f.NoteID = note.ID
			f.UploadOrder = i
			note.Files[i] = f
		}
		return append(notes, note), nil
	})
	if err != nil {
		return models.Note{}, err
	}

	metrics.NotesCreatedTotal.Inc()
	for _, f := range note.Files {
		metrics.FilesUploadedTotal.WithLabelValues(f.Type).Inc()
	}
	log.Info().Int64("note_id", note.ID).Str("subject", note.Subject).Int("files", len(note.Files)).Msg("note created")
	return note, nil
}

func readUploads(ctx context.Context, uploads []Upload) ([]models.File, error) {
	files := make([]models.File, len(uploads))
	g, ctx := errgroup.WithContext(ctx)
	for i, u := range uploads {
		i, u := i, u
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := readUpload(u)
			if err != nil {
				return fmt.Errorf("read %s: %w", u.Name(), err)
			}
			files[i] = models.File{
				Name: u.Name(),
				Type: u.Type(),
				Size: int64(len(data)),
				URL:  EncodeDataURL(u.Type(), data),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

func readUpload(u Upload) ([]byte, error) {
	rc, err := u.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// DeleteNote removes exactly the note with id.
func (s *Service) DeleteNote(ctx context.Context, id int64) error {
	n, err := s.notes.Remove(ctx, func(note models.Note) bool { return note.ID == id })
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoteNotFound
	}
	metrics.NotesDeletedTotal.WithLabelValues("note").Inc()
	log.Info().Int64("note_id", id).Msg("note deleted")
	return nil
}

// DeleteFileFromNote removes one file. When it was the last one the note goes
// too, and noteRemoved is true.
func (s *Service) DeleteFileFromNote(ctx context.Context, noteID int64, fileID string) (noteRemoved bool, err error) {
	err = s.notes.Mutate(ctx, func(notes []models.Note) ([]models.Note, error) {
		noteRemoved = false
		ni := -1
		for i := range notes {
			if notes[i].ID == noteID {
				ni = i
				break
			}
		}
		if ni < 0 {
			return nil, ErrNoteNotFound
		}

		files := notes[ni].Files
		fi := -1
		for i := range files {
			if files[i].ID == fileID {
				fi = i
				break
			}
		}
		if fi < 0 {
			return nil, ErrFileNotFound
		}

		notes[ni].Files = append(files[:fi:fi], files[fi+1:]...)
		if len(notes[ni].Files) == 0 {
			noteRemoved = true
			return append(notes[:ni:ni], notes[ni+1:]...), nil
		}
		return notes, nil
	})
	if err == nil && noteRemoved {
		metrics.NotesDeletedTotal.WithLabelValues("last_file").Inc()
	}
	return noteRemoved, err
}

func (s *Service) GetAllNotes(ctx context.Context) ([]models.Note, error) {
	return s.notes.All(ctx)
}

func (s *Service) LoadNotesBySubject(ctx context.Context, subject string) ([]models.Note, error) {
	return s.notes.Filter(ctx, func(n models.Note) bool { return n.Subject == subject })
}

func (s *Service) LoadNotesByFolder(ctx context.Context, folderID int64) ([]models.Note, error) {
	return s.notes.Filter(ctx, func(n models.Note) bool { return n.InFolder(folderID) })
}

func (s *Service) GetNote(ctx context.Context, id int64) (models.Note, bool, error) {
	return s.notes.Find(ctx, func(n models.Note) bool { return n.ID == id })
}

// NoteFiles returns the files of a note for viewing.
func (s *Service) NoteFiles(ctx context.Context, id int64) (models.Note, error) {
	note, ok, err := s.GetNote(ctx, id)
	if err != nil {
		return models.Note{}, err
	}
	if !ok {
		return models.Note{}, ErrNoteNotFound
	}
	if len(note.Files) == 0 {
		return note, ErrNoFiles
	}
	return note, nil
}

// GetFile returns one embedded file.
func (s *Service) GetFile(ctx context.Context, noteID int64, fileID string) (models.File, error) {
	note, ok, err := s.GetNote(ctx, noteID)
	if err != nil {
		return models.File{}, err
	}
	if !ok {
		return models.File{}, ErrNoteNotFound
	}
	for _, f := range note.Files {
		if f.ID == fileID {
			return f, nil
		}
	}
	return models.File{}, ErrFileNotFound
}
