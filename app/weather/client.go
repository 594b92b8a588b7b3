package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const archiveURL = "https://archive-api.open-meteo.com/v1/archive"

// Day is one day of historical weather as reported by Open-Meteo.
type Day struct {
	Date       string
	TempHigh   float64
	TempLow    float64
	Snowfall   float64
	Conditions string
}

// Client fetches historical weather from the Open-Meteo archive API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	latitude   float64
	longitude  float64
	userAgent  string
}

func NewClient(httpClient *http.Client, latitude, longitude float64, userAgent string) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    archiveURL,
		latitude:   latitude,
		longitude:  longitude,
		userAgent:  userAgent,
	}
}

type archiveResponse struct {
	Daily struct {
		Time        []string  `json:"time"`
		TempMax     []float64 `json:"temperature_2m_max"`
		TempMin     []float64 `json:"temperature_2m_min"`
		Snowfall    []float64 `json:"snowfall_sum"`
		WeatherCode []int     `json:"weather_code"`
	} `json:"daily"`
}

// FetchRange returns one Day per calendar day in [startDay, endDay].
func (c *Client) FetchRange(ctx context.Context, startDay, endDay string) ([]Day, error) {
	query := url.Values{}
	query.Set("latitude", strconv.FormatFloat(c.latitude, 'f', 4, 64))
	query.Set("longitude", strconv.FormatFloat(c.longitude, 'f', 4, 64))
	query.Set("start_date", startDay)
	query.Set("end_date", endDay)
	query.Set("daily", "temperature_2m_max,temperature_2m_min,snowfall_sum,weather_code")
	query.Set("temperature_unit", "fahrenheit")
	query.Set("precipitation_unit", "inch")
	query.Set("timezone", "auto")

	timeoutCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch weather data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var parsed archiveResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse weather response: %w", err)
	}

	days := make([]Day, 0, len(parsed.Daily.Time))
	for i, date := range parsed.Daily.Time {
		day := Day{Date: date}
		if i < len(parsed.Daily.TempMax) {
			day.TempHigh = parsed.Daily.TempMax[i]
		}
		if i < len(parsed.Daily.TempMin) {
			day.TempLow = parsed.Daily.TempMin[i]
		}
		if i < len(parsed.Daily.Snowfall) {
			day.Snowfall = parsed.Daily.Snowfall[i]
		}
		if i < len(parsed.Daily.WeatherCode) {
			day.Conditions = describeWeatherCode(parsed.Daily.WeatherCode[i])
		}
		days = append(days, day)
	}

	return days, nil
}

// describeWeatherCode maps WMO weather codes to coarse condition labels.
func describeWeatherCode(code int) string {
	switch {
	case code == 0:
		return "Clear"
	case code <= 3:
		return "Partly Cloudy"
	case code <= 48:
		return "Fog"
	case code <= 67:
		return "Rain"
	case code <= 77:
		return "Snow"
	case code <= 82:
		return "Rain Showers"
	case code <= 86:
		return "Snow Showers"
	default:
		return "Thunderstorm"
	}
}
