package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"complex-tracker/internal/config"
	"complex-tracker/internal/crawler"
	"complex-tracker/internal/database"
	"complex-tracker/internal/geocode"
	"complex-tracker/internal/models"
	"complex-tracker/internal/notify"
	"complex-tracker/internal/pricecache"
	"complex-tracker/internal/realprice"
	"complex-tracker/internal/schedule"
	"complex-tracker/internal/search"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

var (
	appConfig    *config.Config
	gormDB       *database.GormDB
	searchClient *search.SearchClient
	orchestrator *crawler.Orchestrator
	appScheduler *schedule.Scheduler
	cacheStore   *pricecache.Store
	priceClient  *realprice.Client
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	configPath := getEnv("CONFIG_PATH", "config/tracker.yaml")
	var err error
	appConfig, err = config.LoadConfig(configPath)
	if err != nil {
		log.Printf("Warning: Failed to load config from %s: %v. Using defaults.", configPath, err)
		appConfig = config.DefaultConfig()
	} else {
		log.Printf("Loaded configuration from %s", configPath)
	}
	applyEnvOverrides(appConfig)

	// Initialize database
	gormDB, err = database.NewGormDB(&appConfig.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer gormDB.Close()

	if err := gormDB.InitSchema(); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	// Initialize Meilisearch
	meilisearchHost := appConfig.Search.Meilisearch.Host
	if meilisearchHost == "" {
		meilisearchHost = getEnv("MEILISEARCH_HOST", "http://meilisearch:7700")
	}
	meilisearchKey := appConfig.Search.Meilisearch.APIKey
	if meilisearchKey == "" {
		meilisearchKey = getEnv("MEILISEARCH_KEY", "masterKey123")
	}
	searchClient = search.NewSearchClient(meilisearchHost, meilisearchKey)
	if err := searchClient.InitIndex(); err != nil {
		log.Printf("Warning: Failed to initialize search index: %v", err)
	}

	cacheStore = pricecache.NewStore(gormDB.DB(), &appConfig.Cache)
	priceClient = realprice.NewClient(cacheStore, realprice.NewAPIFetcher(&appConfig.RealPrice))

	// Geocoding is optional; without a key complexes simply keep
	// whatever divisions the collector provides
	var geocoder geocode.Resolver
	if appConfig.Geocode.APIKey != "" {
		geocoder = geocode.NewKakaoClient(&appConfig.Geocode)
	} else {
		log.Println("Warning: No geocode API key configured, division enrichment disabled")
	}

	orchestrator = crawler.New(gormDB, appConfig, crawler.Deps{
		Geocoder: geocoder,
		Search:   searchClient,
		Sender:   notify.NewWebhookSender(),
		Recorder: schedule.NewGormRunRecorder(gormDB.DB()),
	})

	// Scheduler
	if appConfig.Scheduler.Enabled {
		appScheduler = schedule.NewScheduler(gormDB.DB(), orchestrator)
		if err := appScheduler.Start(); err != nil {
			log.Printf("Warning: Failed to start scheduler: %v", err)
		}
		defer appScheduler.Stop()
	} else {
		log.Println("Scheduler: Disabled in configuration")
	}

	// Setup Gin router
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{getEnv("CORS_ORIGIN", "http://localhost:5173")},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		AllowCredentials: true,
	}))

	// Routes
	r.GET("/health", healthCheck)

	r.POST("/api/crawl", startCrawl)
	r.GET("/api/crawl", listCrawlJobs)
	r.GET("/api/crawl/:id", getCrawlJob)

	r.GET("/api/search", searchComplexes)

	r.GET("/api/real-price", getRealPrices)

	r.GET("/api/cache/stats", getCacheStats)
	r.DELETE("/api/cache", invalidateCache)
	r.POST("/api/cache/clean", cleanExpiredCache)

	r.POST("/api/schedules/reload", reloadSchedules)

	port := getEnv("PORT", "8085")
	log.Printf("Starting server on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

type crawlRequest struct {
	ComplexNos []string `json:"complex_nos" binding:"required"`
	UserID     string   `json:"user_id"`
}

func startCrawl(c *gin.Context) {
	var req crawlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.ComplexNos) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "complex_nos must not be empty"})
		return
	}

	job, err := orchestrator.Run(c.Request.Context(), req.ComplexNos, req.UserID, "")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, job)
}

func getCrawlJob(c *gin.Context) {
	job, err := gormDB.GetCrawlJob(c.Param("id"))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, job)
}

func listCrawlJobs(c *gin.Context) {
	limit := 20
	if l := c.Query("limit"); l != "" {
		fmt.Sscanf(l, "%d", &limit)
	}

	jobs, err := gormDB.ListCrawlJobs(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs, "count": len(jobs)})
}

func searchComplexes(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter q"})
		return
	}

	var limit int64 = 20
	if l := c.Query("limit"); l != "" {
		fmt.Sscanf(l, "%d", &limit)
	}

	docs, err := searchClient.Search(query, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"hits": docs, "count": len(docs)})
}

func getRealPrices(c *gin.Context) {
	lawdCd := c.Query("lawd_cd")
	dealYmd := c.Query("deal_ymd")
	if len(lawdCd) != 5 || len(dealYmd) != 6 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lawd_cd (5 digits) and deal_ymd (YYYYMM) are required"})
		return
	}

	kind := c.DefaultQuery("kind", models.CacheKindRealPrice)

	result, err := priceClient.Get(c.Request.Context(), kind, lawdCd, dealYmd)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func getCacheStats(c *gin.Context) {
	stats, err := cacheStore.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func invalidateCache(c *gin.Context) {
	removed, err := cacheStore.Invalidate(c.Query("lawd_cd"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func cleanExpiredCache(c *gin.Context) {
	removed, err := cacheStore.CleanExpired()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func reloadSchedules(c *gin.Context) {
	if appScheduler == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scheduler is disabled"})
		return
	}
	if err := appScheduler.Reload(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reloaded"})
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// applyEnvOverrides lets deployment environments override the most
// common settings without a config file
func applyEnvOverrides(cfg *config.Config) {
	if v := os.Getenv("DB_TYPE"); v != "" {
		cfg.Database.Type = v
	}
	if v := os.Getenv("DB_HOST"); v != "" {
		cfg.Database.MySQL.Host = v
		cfg.Database.Postgres.Host = v
	}
	if v := os.Getenv("KAKAO_API_KEY"); v != "" {
		cfg.Geocode.APIKey = v
	}
	if v := os.Getenv("REALPRICE_API_KEY"); v != "" {
		cfg.RealPrice.APIKey = v
	}
	if v := os.Getenv("CRAWLER_BASE_DIR"); v != "" {
		cfg.Crawler.BaseDir = v
	}
}
