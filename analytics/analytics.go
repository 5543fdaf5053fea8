package analytics

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// LoginEvent is one successful login.
type LoginEvent struct {
	ID        uint      `gorm:"primary_key;autoIncrement"`
	Email     string    `gorm:"not null;index"`
	IP        string    `gorm:"not null"`
	Browser   *string   // nullable
	Language  *string   // nullable
	CreatedAt time.Time `gorm:"index"`
}

// AnalyticsModule records logins. A nil module is valid and records nothing.
type AnalyticsModule struct {
	db  *gorm.DB
	now func() time.Time
}

func NewAnalyticsModule(db *gorm.DB) *AnalyticsModule {
	if db == nil {
		log.Warn().Msg("Analytics DB is nil, analytics will be disabled")
		return nil
	}

	if err := db.AutoMigrate(&LoginEvent{}); err != nil {
		log.Error().Err(err).Msg("Error migrating login_events table")
		return nil
	}

	log.Debug().Msg("Analytics module initialized")
	return &AnalyticsModule{db: db, now: time.Now}
}

// TrackLogin stores a login event for email, taken from the request.
func (a *AnalyticsModule) TrackLogin(c *gin.Context, email string) {
	if a == nil || a.db == nil {
		return
	}

	event := LoginEvent{
		Email:     email,
		IP:        getClientIP(c),
		Browser:   extractBrowser(c.Request.UserAgent()),
		Language:  extractLanguage(c.GetHeader("Accept-Language")),
		CreatedAt: a.now(),
	}

	if err := a.db.WithContext(c.Request.Context()).Create(&event).Error; err != nil {
		log.Error().Err(err).Str("email", email).Msg("Error saving login event")
	}
}

// LastLogin returns the most recent login of email.
func (a *AnalyticsModule) LastLogin(email string) (time.Time, bool) {
	if a == nil || a.db == nil {
		return time.Time{}, false
	}

	var event LoginEvent
	err := a.db.Where("email = ?", email).Order("created_at DESC").Limit(1).Find(&event).Error
	if err != nil || event.ID == 0 {
		return time.Time{}, false
	}
	return event.CreatedAt, true
}

// DayLogins is the number of logins on one day.
type DayLogins struct {
	Date  string
	Count int64
}

// LoginsByDay returns one entry per day for the last days days, oldest first.
func (a *AnalyticsModule) LoginsByDay(days int) []DayLogins {
	if a == nil || a.db == nil || days <= 0 {
		return []DayLogins{}
	}

	now := a.now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -(days - 1))

	var events []LoginEvent
	if err := a.db.Select("created_at").Where("created_at >= ?", start).Find(&events).Error; err != nil {
		log.Error().Err(err).Msg("Failed to load login events")
	}

	out := make([]DayLogins, days)
	index := make(map[string]int, days)
	for i := 0; i < days; i++ {
		date := start.AddDate(0, 0, i).Format("2006-01-02")
		out[i] = DayLogins{Date: date}
		index[date] = i
	}

	for _, e := range events {
		if i, ok := index[e.CreatedAt.In(now.Location()).Format("2006-01-02")]; ok {
			out[i].Count++
		}
	}

	return out
}

// getClientIP prefers proxy headers over the socket address.
func getClientIP(c *gin.Context) string {
	if ip := c.GetHeader("X-Forwarded-For"); ip != "" {
		ips := strings.Split(ip, ",")
		return strings.TrimSpace(ips[0])
	}

	if ip := c.GetHeader("X-Real-IP"); ip != "" {
		return ip
	}

	if ip := c.GetHeader("CF-Connecting-IP"); ip != "" {
		return ip
	}

	return c.ClientIP()
}

func extractBrowser(userAgent string) *string {
	if userAgent == "" {
		return nil
	}

	ua := strings.ToLower(userAgent)
	var browser string

	// Order matters: Edge and Opera also claim to be Chrome.
	switch {
	case strings.Contains(ua, "edg"):
		browser = "Edge"
	case strings.Contains(ua, "opera") || strings.Contains(ua, "opr"):
		browser = "Opera"
	case strings.Contains(ua, "chrome"):
		browser = "Chrome"
	case strings.Contains(ua, "safari"):
		browser = "Safari"
	case strings.Contains(ua, "firefox"):
		browser = "Firefox"
	case strings.Contains(ua, "msie") || strings.Contains(ua, "trident"):
		browser = "Internet Explorer"
	default:
		browser = "Other"
	}

	return &browser
}

// extractLanguage keeps the first tag of "en-US,en;q=0.9".
func extractLanguage(acceptLang string) *string {
	if acceptLang == "" {
		return nil
	}

	lang := strings.TrimSpace(strings.Split(acceptLang, ",")[0])
	lang = strings.Split(lang, ";")[0]
	return &lang
}
