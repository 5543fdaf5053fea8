package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	NotesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "studynotes_notes_created_total",
		Help: "Notes created through the upload form.",
	})

	FilesUploadedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studynotes_files_uploaded_total",
		Help: "Files embedded into notes, by MIME type.",
	}, []string{"type"})

	NotesDeletedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studynotes_notes_deleted_total",
		Help: "Notes removed, by reason (note, last_file, folder).",
	}, []string{"reason"})

	LoginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studynotes_logins_total",
		Help: "Login attempts by result.",
	}, []string{"result"})

	CacheLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studynotes_cache_lookups_total",
		Help: "Page cache lookups by result (hit, miss).",
	}, []string{"result"})
)

// Handler exposes the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
