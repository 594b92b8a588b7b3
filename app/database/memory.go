package database

import (
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store used when no database is configured and
// as a fixture in tests. It mirrors the SQLite implementation's semantics,
// including the duplicate-visit key.
type MemoryStore struct {
	mu           sync.Mutex
	seasons      []Season
	visits       []Visit
	logs         []ScrapingLog
	credentials  []Credential
	weather      map[string]WeatherDay
	nextSeason   int64
	nextVisit    int64
	nextLog      int64
	nextCred     int64
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		weather:    make(map[string]WeatherDay),
		nextSeason: 1,
		nextVisit:  1,
		nextLog:    1,
		nextCred:   1,
	}
}

func (m *MemoryStore) Seasons() SeasonRepository         { return (*memorySeasons)(m) }
func (m *MemoryStore) Visits() VisitRepository           { return (*memoryVisits)(m) }
func (m *MemoryStore) Logs() LogRepository               { return (*memoryLogs)(m) }
func (m *MemoryStore) Credentials() CredentialRepository { return (*memoryCredentials)(m) }
func (m *MemoryStore) Weather() WeatherRepository        { return (*memoryWeather)(m) }
func (m *MemoryStore) Close() error                      { return nil }

type memorySeasons MemoryStore

func (m *memorySeasons) GetSeasonByName(name string) (*Season, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.seasons {
		if m.seasons[i].Name == name {
			s := m.seasons[i]
			return &s, nil
		}
	}
	return nil, nil
}

func (m *memorySeasons) GetSeasonByID(id int64) (*Season, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.seasons {
		if m.seasons[i].ID == id {
			s := m.seasons[i]
			return &s, nil
		}
	}
	return nil, nil
}

func (m *memorySeasons) GetActiveSeason() (*Season, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var active *Season
	for i := range m.seasons {
		s := m.seasons[i]
		if s.Status != SeasonStatusActive {
			continue
		}
		if active == nil || s.StartDate > active.StartDate {
			copied := s
			active = &copied
		}
	}
	return active, nil
}

func (m *memorySeasons) InsertSeason(season Season) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	season.ID = m.nextSeason
	m.nextSeason++
	season.CreatedAt = time.Now().UTC()
	season.UpdatedAt = season.CreatedAt
	m.seasons = append(m.seasons, season)
	return season.ID, nil
}

func (m *memorySeasons) UpdateSeasonStatus(id int64, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.seasons {
		if m.seasons[i].ID == id {
			m.seasons[i].Status = status
			m.seasons[i].UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return ErrNotFound
}

func (m *memorySeasons) SetActualEndDate(id int64, endDate string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.seasons {
		if m.seasons[i].ID == id {
			m.seasons[i].ActualEndDate = endDate
			m.seasons[i].Status = SeasonStatusCompleted
			m.seasons[i].UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return ErrNotFound
}

type memoryVisits MemoryStore

func (m *memoryVisits) InsertVisitIfAbsent(visit Visit) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.visits {
		v := m.visits[i]
		if v.SeasonID == visit.SeasonID && v.VisitDate == visit.VisitDate &&
			v.VisitTime == visit.VisitTime && v.IsManual == visit.IsManual {
			return false, nil
		}
	}
	visit.ID = m.nextVisit
	m.nextVisit++
	visit.CreatedAt = time.Now().UTC()
	visit.UpdatedAt = visit.CreatedAt
	m.visits = append(m.visits, visit)
	return true, nil
}

func (m *memoryVisits) GetVisitsBySeason(seasonID int64) ([]Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var visits []Visit
	for _, v := range m.visits {
		if v.SeasonID == seasonID {
			visits = append(visits, v)
		}
	}
	sort.Slice(visits, func(i, j int) bool {
		if visits[i].VisitDate != visits[j].VisitDate {
			return visits[i].VisitDate > visits[j].VisitDate
		}
		return visits[i].VisitTime > visits[j].VisitTime
	})
	return visits, nil
}

func (m *memoryVisits) GetManualVisits(seasonID int64) ([]Visit, error) {
	all, err := m.GetVisitsBySeason(seasonID)
	if err != nil {
		return nil, err
	}
	var visits []Visit
	for _, v := range all {
		if v.IsManual {
			visits = append(visits, v)
		}
	}
	return visits, nil
}

func (m *memoryVisits) GetVisitCount(seasonID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, v := range m.visits {
		if v.SeasonID == seasonID {
			count++
		}
	}
	return count, nil
}

func (m *memoryVisits) UpdateManualVisit(id int64, visitTime, notes string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.visits {
		if m.visits[i].ID == id && m.visits[i].IsManual {
			m.visits[i].VisitTime = visitTime
			m.visits[i].Notes = notes
			m.visits[i].UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return ErrNotFound
}

func (m *memoryVisits) DeleteManualVisit(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.visits {
		if m.visits[i].ID == id && m.visits[i].IsManual {
			m.visits = append(m.visits[:i], m.visits[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

type memoryLogs MemoryStore

func (m *memoryLogs) InsertLog(log ScrapingLog) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	log.ID = m.nextLog
	m.nextLog++
	log.CreatedAt = time.Now().UTC()
	m.logs = append(m.logs, log)
	return log.ID, nil
}

func (m *memoryLogs) UpdateLog(id int64, patch LogPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.logs {
		if m.logs[i].ID == id {
			m.logs[i].Status = patch.Status
			m.logs[i].VisitsFound = patch.VisitsFound
			m.logs[i].VisitsAdded = patch.VisitsAdded
			m.logs[i].ErrorMessage = patch.ErrorMessage
			return nil
		}
	}
	return ErrNotFound
}

func (m *memoryLogs) GetRecentLogs(credentialID int64, limit int) ([]ScrapingLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var logs []ScrapingLog
	for i := len(m.logs) - 1; i >= 0 && len(logs) < limit; i-- {
		if m.logs[i].CredentialID == credentialID {
			logs = append(logs, m.logs[i])
		}
	}
	return logs, nil
}

type memoryCredentials MemoryStore

func (m *memoryCredentials) GetCredential(id int64) (*Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.credentials {
		if m.credentials[i].ID == id {
			c := m.credentials[i]
			return &c, nil
		}
	}
	return nil, nil
}

func (m *memoryCredentials) GetActiveCredential(accountType string) (*Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.credentials {
		c := m.credentials[i]
		if c.AccountType == accountType && c.IsActive {
			return &c, nil
		}
	}
	return nil, nil
}

func (m *memoryCredentials) UpsertCredential(credential Credential) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.credentials {
		c := &m.credentials[i]
		if c.UserID == credential.UserID && c.AccountType == credential.AccountType {
			c.EncryptedUsername = credential.EncryptedUsername
			c.EncryptedPassword = credential.EncryptedPassword
			c.IsActive = credential.IsActive
			c.UpdatedAt = time.Now().UTC()
			return c.ID, nil
		}
	}
	credential.ID = m.nextCred
	m.nextCred++
	credential.CreatedAt = time.Now().UTC()
	credential.UpdatedAt = credential.CreatedAt
	m.credentials = append(m.credentials, credential)
	return credential.ID, nil
}

func (m *memoryCredentials) UpdateLastSyncedAt(id int64, syncedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.credentials {
		if m.credentials[i].ID == id {
			t := syncedAt.UTC()
			m.credentials[i].LastSyncedAt = &t
			m.credentials[i].UpdatedAt = t
			return nil
		}
	}
	return ErrNotFound
}

type memoryWeather MemoryStore

func (m *memoryWeather) UpsertWeatherDay(day WeatherDay) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.weather[day.Day]; ok {
		day.ID = existing.ID
		day.CreatedAt = existing.CreatedAt
	} else {
		day.ID = int64(len(m.weather) + 1)
		day.CreatedAt = time.Now().UTC()
	}
	m.weather[day.Day] = day
	return nil
}

func (m *memoryWeather) GetWeatherRange(startDay, endDay string) ([]WeatherDay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var days []WeatherDay
	for key, d := range m.weather {
		if key >= startDay && key <= endDay {
			days = append(days, d)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Day < days[j].Day })
	return days, nil
}
