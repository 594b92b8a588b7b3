package database

// SQLStore is the SQLite-backed Store implementation.
type SQLStore struct {
	db          *DB
	seasons     *SeasonSQLRepository
	visits      *VisitSQLRepository
	logs        *LogSQLRepository
	credentials *CredentialSQLRepository
	weather     *WeatherSQLRepository
}

var _ Store = (*SQLStore)(nil)

func NewSQLStore(db *DB) *SQLStore {
	return &SQLStore{
		db:          db,
		seasons:     NewSeasonRepository(db),
		visits:      NewVisitRepository(db),
		logs:        NewLogRepository(db),
		credentials: NewCredentialRepository(db),
		weather:     NewWeatherRepository(db),
	}
}

func (s *SQLStore) Seasons() SeasonRepository          { return s.seasons }
func (s *SQLStore) Visits() VisitRepository            { return s.visits }
func (s *SQLStore) Logs() LogRepository                { return s.logs }
func (s *SQLStore) Credentials() CredentialRepository  { return s.credentials }
func (s *SQLStore) Weather() WeatherRepository         { return s.weather }

func (s *SQLStore) Close() error {
	return s.db.Close()
}
