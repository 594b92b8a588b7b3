package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lwestby/hilltally/app/database"
	"github.com/lwestby/hilltally/app/ingest"
	"github.com/lwestby/hilltally/app/projection"
	"github.com/lwestby/hilltally/app/season"
	"github.com/lwestby/hilltally/app/tasks"
	"github.com/lwestby/hilltally/app/vault"
	"github.com/lwestby/hilltally/app/weather"
)

func NewHandler(store database.Store, v *vault.Vault, resolver *season.Resolver,
	orchestrator *ingest.Orchestrator, scheduler tasks.TaskSchedulerInterface,
	accountType string) *Handler {
	return &Handler{
		store:        store,
		vault:        v,
		resolver:     resolver,
		orchestrator: orchestrator,
		scheduler:    scheduler,
		accountType:  accountType,
		now:          time.Now,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": h.now().UTC().Format(time.RFC3339),
	}

	if season, err := h.store.Seasons().GetActiveSeason(); err == nil && season != nil {
		health["active_season"] = season.Name
		if count, err := h.store.Visits().GetVisitCount(season.ID); err == nil {
			health["visits"] = count
		}
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	season, ok := h.activeSeason(c)
	if !ok {
		return
	}

	visits, err := h.store.Visits().GetVisitsBySeason(season.ID)
	if err != nil {
		slog.Error("Database error", "operation", "get_visits", "season", season.Name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	today := h.today()
	startDate, err := time.Parse("2006-01-02", season.StartDate)
	if err != nil {
		slog.Error("Invalid season start date", "season", season.Name, "start_date", season.StartDate, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid season start date"})
		return
	}

	daysElapsed := int(today.Sub(startDate).Hours()/24) + 1

	var customEnd *time.Time
	if raw := c.Query("custom_end"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid custom_end date, expected YYYY-MM-DD"})
			return
		}
		customEnd = &parsed
	}

	conservative, average, optimistic := projection.EstimateSeasonEndDates(today)
	scenario := projection.Calculate(len(visits), daysElapsed, conservative, average, optimistic, today, customEnd)

	response := gin.H{
		"season": gin.H{
			"id":         season.ID,
			"name":       season.Name,
			"start_date": season.StartDate,
			"status":     season.Status,
		},
		"current_total": len(visits),
		"days_elapsed":  daysElapsed,
		"projection":    scenario,
		"estimated_end_dates": gin.H{
			"conservative": conservative.Format("2006-01-02"),
			"average":      average.Format("2006-01-02"),
			"optimistic":   optimistic.Format("2006-01-02"),
		},
	}

	if season.VisitGoal > 0 {
		response["visit_goal"] = season.VisitGoal
		response["goal_reached"] = len(visits) >= season.VisitGoal
	}

	c.JSON(http.StatusOK, response)
}

func (h *Handler) GetWeeklyStats(c *gin.Context) {
	h.bucketStats(c, "weeks", projection.WeeklyCounts)
}

func (h *Handler) GetDailyStats(c *gin.Context) {
	h.bucketStats(c, "days", projection.DailyCounts)
}

func (h *Handler) bucketStats(c *gin.Context, key string, bucket func([]time.Time) map[string]int) {
	season, ok := h.activeSeason(c)
	if !ok {
		return
	}

	visits, err := h.store.Visits().GetVisitsBySeason(season.ID)
	if err != nil {
		slog.Error("Database error", "operation", "get_visits", "season", season.Name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	dates := make([]time.Time, 0, len(visits))
	for _, visit := range visits {
		date, err := time.Parse("2006-01-02", visit.VisitDate)
		if err != nil {
			continue
		}
		dates = append(dates, date)
	}

	c.JSON(http.StatusOK, gin.H{
		"season": season.Name,
		"total":  len(dates),
		key:      bucket(dates),
	})
}

func (h *Handler) GetWeatherStats(c *gin.Context) {
	season, ok := h.activeSeason(c)
	if !ok {
		return
	}

	visits, err := h.store.Visits().GetVisitsBySeason(season.ID)
	if err != nil {
		slog.Error("Database error", "operation", "get_visits", "season", season.Name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	days, err := h.store.Weather().GetWeatherRange(season.StartDate, h.today().Format("2006-01-02"))
	if err != nil {
		slog.Error("Database error", "operation", "get_weather", "season", season.Name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	analysis := weather.Analyze(visits, days)

	c.JSON(http.StatusOK, gin.H{
		"season":   season.Name,
		"analysis": analysis,
	})
}

func (h *Handler) ListVisits(c *gin.Context) {
	season, ok := h.activeSeason(c)
	if !ok {
		return
	}

	visits, err := h.store.Visits().GetVisitsBySeason(season.ID)
	if err != nil {
		slog.Error("Database error", "operation", "get_visits", "season", season.Name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	items := make([]gin.H, 0, len(visits))
	for _, visit := range visits {
		items = append(items, gin.H{
			"id":         visit.ID,
			"visit_date": visit.VisitDate,
			"visit_time": visit.VisitTime,
			"pass_type":  visit.PassType,
			"is_manual":  visit.IsManual,
			"notes":      visit.Notes,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"season": season.Name,
		"visits": items,
		"total":  len(items),
	})
}

func (h *Handler) APICreateVisit(c *gin.Context) {
	var req createVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	date, err := time.Parse("2006-01-02", req.VisitDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid visit_date, expected YYYY-MM-DD"})
		return
	}

	seasonID, err := h.resolver.ResolveSeasonID(date)
	if err != nil {
		slog.Error("Failed to resolve season", "date", req.VisitDate, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve season"})
		return
	}

	inserted, err := h.store.Visits().InsertVisitIfAbsent(database.Visit{
		SeasonID:  seasonID,
		VisitDate: req.VisitDate,
		VisitTime: req.VisitTime,
		PassType:  req.PassType,
		IsManual:  true,
		Notes:     req.Notes,
	})
	if err != nil {
		slog.Error("Database error", "operation", "insert_visit", "date", req.VisitDate, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if !inserted {
		c.JSON(http.StatusConflict, gin.H{"error": "A manual visit already exists for this date and time"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"visit_date": req.VisitDate,
		"season_id":  seasonID,
	})
}

func (h *Handler) APIUpdateVisit(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid visit id"})
		return
	}

	var req updateVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	err = h.store.Visits().UpdateManualVisit(id, req.VisitTime, req.Notes)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Manual visit not found"})
		return
	}
	if err != nil {
		slog.Error("Database error", "operation", "update_visit", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) APIDeleteVisit(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid visit id"})
		return
	}

	err = h.store.Visits().DeleteManualVisit(id)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Manual visit not found"})
		return
	}
	if err != nil {
		slog.Error("Database error", "operation", "delete_visit", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) APIGetCredential(c *gin.Context) {
	credential, err := h.store.Credentials().GetActiveCredential(h.accountType)
	if err != nil {
		slog.Error("Database error", "operation", "get_credential", "account", h.accountType, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if credential == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No active credential configured"})
		return
	}

	response := gin.H{
		"id":           credential.ID,
		"user_id":      credential.UserID,
		"account_type": credential.AccountType,
		"is_active":    credential.IsActive,
	}
	if credential.LastSyncedAt != nil {
		response["last_synced_at"] = credential.LastSyncedAt.UTC().Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, response)
}

func (h *Handler) APIUpsertCredential(c *gin.Context) {
	var req upsertCredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	encryptedUsername, err := h.vault.Encrypt(req.Username)
	if err != nil {
		slog.Error("Failed to encrypt credential", "account", h.accountType, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Encryption failed"})
		return
	}
	encryptedPassword, err := h.vault.Encrypt(req.Password)
	if err != nil {
		slog.Error("Failed to encrypt credential", "account", h.accountType, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Encryption failed"})
		return
	}

	id, err := h.store.Credentials().UpsertCredential(database.Credential{
		UserID:            req.UserID,
		EncryptedUsername: encryptedUsername,
		EncryptedPassword: encryptedPassword,
		AccountType:       h.accountType,
		IsActive:          true,
	})
	if err != nil {
		slog.Error("Database error", "operation", "upsert_credential", "account", h.accountType, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "id": id})
}

func (h *Handler) APIListLogs(c *gin.Context) {
	credential, err := h.store.Credentials().GetActiveCredential(h.accountType)
	if err != nil {
		slog.Error("Database error", "operation", "get_credential", "account", h.accountType, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if credential == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No active credential configured"})
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	logs, err := h.store.Logs().GetRecentLogs(credential.ID, limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_logs", "account", h.accountType, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	items := make([]gin.H, 0, len(logs))
	for _, log := range logs {
		items = append(items, gin.H{
			"id":            log.ID,
			"status":        log.Status,
			"visits_found":  log.VisitsFound,
			"visits_added":  log.VisitsAdded,
			"error_message": log.ErrorMessage,
			"created_at":    log.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, gin.H{"logs": items, "total": len(items)})
}

// APISync runs a full ingestion inline and reports the outcome. The browser
// work can take a minute; callers wanting fire-and-forget use /api/sync/auto.
func (h *Handler) APISync(c *gin.Context) {
	credential, err := h.store.Credentials().GetActiveCredential(h.accountType)
	if err != nil {
		slog.Error("Database error", "operation", "get_credential", "account", h.accountType, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if credential == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No active credential configured"})
		return
	}

	result, err := h.orchestrator.Run(c.Request.Context(), credential.ID)
	if err != nil {
		slog.Error("Sync failed", "account", h.accountType, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Sync failed", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"visits_found": result.Found,
		"visits_added": result.Added,
	})
}

func (h *Handler) APISyncAuto(c *gin.Context) {
	credential, err := h.store.Credentials().GetActiveCredential(h.accountType)
	if err != nil {
		slog.Error("Database error", "operation", "get_credential", "account", h.accountType, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if credential == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No active credential configured"})
		return
	}

	task := tasks.NewSyncVisitsTask(h.accountType, credential.ID, h.orchestrator)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Error enqueueing sync task", "account", h.accountType, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue sync task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"task": gin.H{
			"id":   task.ID,
			"type": task.Type,
		},
	})
}

func (h *Handler) activeSeason(c *gin.Context) (*database.Season, bool) {
	season, err := h.store.Seasons().GetActiveSeason()
	if err != nil {
		slog.Error("Database error", "operation", "get_active_season", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return nil, false
	}
	if season == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No active season"})
		return nil, false
	}
	return season, true
}

func (h *Handler) today() time.Time {
	now := h.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
