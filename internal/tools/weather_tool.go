package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultWeatherBaseURL is the public wttr.in endpoint; no API key needed.
	DefaultWeatherBaseURL = "https://wttr.in"
	// DefaultWeatherTimeout bounds a single lookup.
	DefaultWeatherTimeout = 10 * time.Second

	weatherToolName = "get_weather"
	maxWeatherBody  = 1 << 20
)

// WeatherReading is the slice of a wttr.in j1 payload the assistant reports.
// Values stay as the strings wttr.in sends so they are echoed verbatim.
type WeatherReading struct {
	City          string
	TemperatureC  string
	TemperatureF  string
	FeelsLikeC    string
	HumidityPct   string
	Description   string
	WindSpeedKmph string
}

// Format renders the reading as the multi-line summary handed to the model.
func (r WeatherReading) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Weather in %s:\n", r.City)
	fmt.Fprintf(&b, "🌡️ Temperature: %s°C (%s°F)\n", r.TemperatureC, r.TemperatureF)
	fmt.Fprintf(&b, "🤔 Feels like: %s°C\n", r.FeelsLikeC)
	fmt.Fprintf(&b, "☁️ Conditions: %s\n", r.Description)
	fmt.Fprintf(&b, "💧 Humidity: %s%%\n", r.HumidityPct)
	fmt.Fprintf(&b, "💨 Wind Speed: %s km/h", r.WindSpeedKmph)
	return b.String()
}

// wttrPayload mirrors the fields we read from ?format=j1. Pointers let us
// tell a missing field from an empty one.
type wttrPayload struct {
	CurrentCondition []struct {
		TempC         *string `json:"temp_C"`
		TempF         *string `json:"temp_F"`
		FeelsLikeC    *string `json:"FeelsLikeC"`
		Humidity      *string `json:"humidity"`
		WindspeedKmph *string `json:"windspeedKmph"`
		WeatherDesc   []struct {
			Value *string `json:"value"`
		} `json:"weatherDesc"`
	} `json:"current_condition"`
}

// WeatherTool looks up current conditions for a city on wttr.in.
type WeatherTool struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

var _ ToolExecutor = (*WeatherTool)(nil)

// WeatherOption customises a WeatherTool.
type WeatherOption func(*WeatherTool)

// WithWeatherBaseURL points the tool at another wttr.in-compatible host.
func WithWeatherBaseURL(baseURL string) WeatherOption {
	return func(wt *WeatherTool) {
		if baseURL != "" {
			wt.baseURL = strings.TrimSuffix(baseURL, "/")
		}
	}
}

// WithWeatherTimeout overrides the per-request timeout.
func WithWeatherTimeout(timeout time.Duration) WeatherOption {
	return func(wt *WeatherTool) {
		if timeout > 0 {
			wt.httpClient.Timeout = timeout
		}
	}
}

// WithWeatherLogger attaches a logger for lookup traces.
func WithWeatherLogger(logger zerolog.Logger) WeatherOption {
	return func(wt *WeatherTool) {
		wt.logger = logger.With().Str("tool", weatherToolName).Logger()
	}
}

func NewWeatherTool(opts ...WeatherOption) *WeatherTool {
	wt := &WeatherTool{
		baseURL:    DefaultWeatherBaseURL,
		httpClient: &http.Client{Timeout: DefaultWeatherTimeout},
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(wt)
	}
	return wt
}

func (wt *WeatherTool) Definition() Tool {
	return NewFunctionTool(
		weatherToolName,
		"Get current weather information for a city. Use this when users ask about weather conditions.",
		JSONSchema{
			Type: "object",
			Properties: map[string]*JSONSchema{
				"city": {
					Type:        "string",
					Description: "Name of the city, e.g. Paris or San Francisco",
				},
			},
			Required: []string{"city"},
		},
	)
}

// Execute decodes the model's arguments and performs the lookup.
func (wt *WeatherTool) Execute(ctx context.Context, arguments string) Result {
	var args struct {
		City string `json:"city"`
	}
	if err := json.Unmarshal([]byte(arguments), &args); err != nil {
		return Fail(FailureInvalidArguments, err.Error(),
			fmt.Sprintf("Error: invalid arguments for %s: %v. Expected JSON like {\"city\": \"Paris\"}.", weatherToolName, err))
	}
	return wt.Lookup(ctx, args.City)
}

// Lookup fetches and formats the current weather for city. It never returns
// an error; every failure is described in the returned Result.
func (wt *WeatherTool) Lookup(ctx context.Context, city string) Result {
	reading, status, err := wt.fetch(ctx, city)
	switch {
	case err != nil && status == 0:
		wt.logger.Warn().Err(err).Str("city", city).Msg("weather request failed")
		return Fail(FailureTransport, err.Error(), fmt.Sprintf("Error fetching weather: %v", err))
	case status != http.StatusOK:
		wt.logger.Info().Int("status", status).Str("city", city).Msg("weather provider had no data")
		return Fail(FailureNotFound, fmt.Sprintf("status %d", status),
			fmt.Sprintf("Sorry, I couldn't find weather data for %s. Please check the city name.", city))
	case err != nil:
		wt.logger.Warn().Err(err).Str("city", city).Msg("weather payload unusable")
		return Fail(FailureDecode, err.Error(), fmt.Sprintf("Error fetching weather: %v", err))
	}
	wt.logger.Debug().Str("city", city).Str("temp_c", reading.TemperatureC).Msg("weather lookup ok")
	return Success(reading.Format())
}

// fetch returns the HTTP status alongside any error; status is 0 when the
// request never got a response.
func (wt *WeatherTool) fetch(ctx context.Context, city string) (WeatherReading, int, error) {
	endpoint := fmt.Sprintf("%s/%s?format=j1", wt.baseURL, url.PathEscape(city))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return WeatherReading{}, 0, fmt.Errorf("failed to create weather request: %w", err)
	}
	req.Header.Set("User-Agent", "Weather-Assistant/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := wt.httpClient.Do(req)
	if err != nil {
		return WeatherReading{}, 0, fmt.Errorf("failed to call weather API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return WeatherReading{}, resp.StatusCode, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxWeatherBody))
	if err != nil {
		return WeatherReading{}, resp.StatusCode, fmt.Errorf("failed to read weather response: %w", err)
	}
	reading, err := parseWeather(city, body)
	return reading, resp.StatusCode, err
}

func parseWeather(city string, body []byte) (WeatherReading, error) {
	var payload wttrPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return WeatherReading{}, fmt.Errorf("invalid weather JSON: %w", err)
	}
	if len(payload.CurrentCondition) == 0 {
		return WeatherReading{}, fmt.Errorf("missing field current_condition")
	}
	current := payload.CurrentCondition[0]
	if len(current.WeatherDesc) == 0 || current.WeatherDesc[0].Value == nil {
		return WeatherReading{}, fmt.Errorf("missing field weatherDesc")
	}

	fields := []struct {
		name  string
		value *string
	}{
		{"temp_C", current.TempC},
		{"temp_F", current.TempF},
		{"FeelsLikeC", current.FeelsLikeC},
		{"humidity", current.Humidity},
		{"windspeedKmph", current.WindspeedKmph},
	}
	for _, f := range fields {
		if f.value == nil {
			return WeatherReading{}, fmt.Errorf("missing field %s", f.name)
		}
	}

	return WeatherReading{
		City:          city,
		TemperatureC:  *current.TempC,
		TemperatureF:  *current.TempF,
		FeelsLikeC:    *current.FeelsLikeC,
		HumidityPct:   *current.Humidity,
		Description:   *current.WeatherDesc[0].Value,
		WindSpeedKmph: *current.WindspeedKmph,
	}, nil
}
