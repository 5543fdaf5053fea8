package main

import (
	"fmt"
	"os"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"studynotes/admin"
	"studynotes/analytics"
	"studynotes/auth"
	"studynotes/cache"
	"studynotes/catalog"
	"studynotes/common"
	"studynotes/config"
	"studynotes/database"
	"studynotes/notes"
	"studynotes/site"
	"studynotes/store"
	"studynotes/views"
)

const sessionName = "studynotes-session"

var rootCmd = &cobra.Command{
	Use:           "studynotes",
	Short:         "Study notes sharing site",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func main() {
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, userCmd, cacheCmd)
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// setup loads the config, installs the logger and opens the migrated database.
func setup() (*config.Config, zerolog.Logger, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, log.Logger, nil, err
	}
	logger := common.NewLogger(os.Stdout, cfg.LogLevel)

	db, err := common.ConnectDb(cfg.DBPath)
	if err != nil {
		return nil, logger, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.RunMigrations(db); err != nil {
		return nil, logger, nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return cfg, logger, db, nil
}

func runServe() error {
	cfg, logger, db, err := setup()
	if err != nil {
		return err
	}
	if err := cfg.RequireSession(); err != nil {
		return err
	}

	s := store.New(db)
	analyticsModule := analytics.NewAnalyticsModule(db)
	authModule := auth.NewAuthModule(auth.NewProvider(cfg, s), cfg.AdminEmails, analyticsModule)
	cat := catalog.New(s)
	svc := notes.NewService(s)

	pageCache := cache.New(cfg.CacheDir)
	if err := pageCache.ClearOld(cfg.CacheTTL); err != nil {
		log.Warn().Err(err).Msg("failed to sweep page cache")
	}

	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(common.RequestLogger(logger), common.Recovery(logger))

	cookieStore := cookie.NewStore([]byte(cfg.SessionSecret))
	cookieStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   false,
	})
	router.Use(sessions.Sessions(sessionName, cookieStore))

	views.Install(router)

	authModule.RegisterRoutes(router)
	site.NewSiteModule(authModule, cat, svc, pageCache, cfg.CacheTTL, cfg.Domain).RegisterRoutes(router)
	admin.NewAdminModule(authModule, cat, svc, analyticsModule, pageCache).RegisterRoutes(router)

	log.Info().Str("port", cfg.Port).Msg("Starting server")
	if err := router.Run(":" + cfg.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}
