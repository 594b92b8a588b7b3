package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lwestby/hilltally/app/weather"
)

type SyncWeatherTask struct {
	Task
	weatherService *weather.Service
}

func NewSyncWeatherTask(account string, weatherService *weather.Service) *SyncWeatherTask {
	return &SyncWeatherTask{
		Task:           NewTask(TaskTypeSyncWeather, account),
		weatherService: weatherService,
	}
}

func (t *SyncWeatherTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	stored, err := t.weatherService.SyncActiveSeason(ctx)
	if err != nil {
		slog.Error("Task failed", "type", "SyncWeather", "account", t.Account, "error", err)
		return fmt.Errorf("failed to sync weather: %w", err)
	}

	slog.Info("Task completed",
		"type", "SyncWeather",
		"account", t.Account,
		"days", stored,
		"duration", t.GetDuration())

	return nil
}
