package admin

import (
	"net/url"
	"strconv"
	"strings"

	"studynotes/models"
)

const PageSize = 10

const (
	SortNewest = "newest"
	SortOldest = "oldest"
)

// TableQuery is the manage-notes view state, parsed from each request.
type TableQuery struct {
	Search  string
	Subject string
	Sort    string
	Page    int
}

// ParseTableQuery reads search, subject, sort and page. Missing or bad
// values fall back to no search, all subjects, newest first, page 1.
func ParseTableQuery(v url.Values) TableQuery {
	q := TableQuery{
		Search:  strings.TrimSpace(v.Get("search")),
		Subject: v.Get("subject"),
		Sort:    v.Get("sort"),
	}
	if q.Subject == "" {
		q.Subject = "all"
	}
	if q.Sort != SortOldest {
		q.Sort = SortNewest
	}
	q.Page, _ = strconv.Atoi(v.Get("page"))
	if q.Page < 1 {
		q.Page = 1
	}
	return q
}

// Values encodes q for links, with page replaced.
func (q TableQuery) Values(page int) string {
	v := url.Values{}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Subject != "" && q.Subject != "all" {
		v.Set("subject", q.Subject)
	}
	if q.Sort == SortOldest {
		v.Set("sort", SortOldest)
	}
	v.Set("page", strconv.Itoa(page))
	return v.Encode()
}

type NotesTable struct {
	Query        TableQuery
	Rows         []models.Note
	Total        int
	Page         int
	TotalPages   int
	PrevDisabled bool
	NextDisabled bool
}

func (t NotesTable) PrevQuery() string { return t.Query.Values(t.Page - 1) }
func (t NotesTable) NextQuery() string { return t.Query.Values(t.Page + 1) }

// PrevURL and NextURL are the pagination links of the manage-notes page.
func (t NotesTable) PrevURL() string { return "/admin/notes?" + t.PrevQuery() }
func (t NotesTable) NextURL() string { return "/admin/notes?" + t.NextQuery() }

// BuildTable filters, sorts and paginates allNotes for q.
func BuildTable(allNotes []models.Note, q TableQuery) NotesTable {
	search := strings.ToLower(q.Search)
	filtered := make([]models.Note, 0, len(allNotes))
	for _, n := range allNotes {
		if search != "" &&
			!strings.Contains(strings.ToLower(n.Title), search) &&
			!strings.Contains(strings.ToLower(n.Subject), search) {
			continue
		}
		if q.Subject != "" && q.Subject != "all" && n.Subject != q.Subject {
			continue
		}
		filtered = append(filtered, n)
	}

	filtered = sortByDate(filtered, q.Sort != SortOldest)

	totalPages := (len(filtered) + PageSize - 1) / PageSize
	page := q.Page
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}

	start := (page - 1) * PageSize
	end := start + PageSize
	if start > len(filtered) {
		start = len(filtered)
	}
	if end > len(filtered) {
		end = len(filtered)
	}

	q.Page = page
	return NotesTable{
		Query:        q,
		Rows:         filtered[start:end],
		Total:        len(filtered),
		Page:         page,
		TotalPages:   totalPages,
		PrevDisabled: page == 1,
		NextDisabled: page == totalPages || totalPages == 0,
	}
}
