package api

import (
	"time"

	"github.com/lwestby/hilltally/app/database"
	"github.com/lwestby/hilltally/app/ingest"
	"github.com/lwestby/hilltally/app/season"
	"github.com/lwestby/hilltally/app/tasks"
	"github.com/lwestby/hilltally/app/vault"
)

type Handler struct {
	store        database.Store
	vault        *vault.Vault
	resolver     *season.Resolver
	orchestrator *ingest.Orchestrator
	scheduler    tasks.TaskSchedulerInterface
	accountType  string
	now          func() time.Time
}

type createVisitRequest struct {
	VisitDate string `json:"visit_date" binding:"required"`
	VisitTime string `json:"visit_time"`
	PassType  string `json:"pass_type"`
	Notes     string `json:"notes"`
}

type updateVisitRequest struct {
	VisitTime string `json:"visit_time"`
	Notes     string `json:"notes"`
}

type upsertCredentialRequest struct {
	UserID   int64  `json:"user_id" binding:"required"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}
