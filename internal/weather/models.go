package weather

// Condition is the human-readable weather condition as reported upstream.
type Condition struct {
	Text string `json:"text"`
	Icon string `json:"icon"`
	Code int    `json:"code"`
}

// Location identifies the place a weather payload describes.
// All fields are reported verbatim by the upstream provider.
type Location struct {
	Name      string  `json:"name"`
	Region    string  `json:"region"`
	Country   string  `json:"country"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	TzID      string  `json:"tz_id"`
	Localtime string  `json:"localtime"`
}

// CurrentWeather is the current-conditions block. No unit conversion is
// performed locally; both metric and imperial fields pass through as-is.
type CurrentWeather struct {
	LastUpdated string    `json:"last_updated"`
	TempC       float64   `json:"temp_c"`
	TempF       float64   `json:"temp_f"`
	IsDay       int       `json:"is_day"`
	Condition   Condition `json:"condition"`
	WindMph     float64   `json:"wind_mph"`
	WindKph     float64   `json:"wind_kph"`
	WindDegree  int       `json:"wind_degree"`
	WindDir     string    `json:"wind_dir"`
	PressureMb  float64   `json:"pressure_mb"`
	PressureIn  float64   `json:"pressure_in"`
	PrecipMm    float64   `json:"precip_mm"`
	PrecipIn    float64   `json:"precip_in"`
	Humidity    int       `json:"humidity"`
	Cloud       int       `json:"cloud"`
	FeelslikeC  float64   `json:"feelslike_c"`
	FeelslikeF  float64   `json:"feelslike_f"`
	VisKm       float64   `json:"vis_km"`
	VisMiles    float64   `json:"vis_miles"`
	UV          float64   `json:"uv"`
	GustMph     float64   `json:"gust_mph"`
	GustKph     float64   `json:"gust_kph"`
}

// HourWeather is a single hourly forecast entry.
type HourWeather struct {
	Time       string    `json:"time"`
	TempC      float64   `json:"temp_c"`
	TempF      float64   `json:"temp_f"`
	Condition  Condition `json:"condition"`
	WindMph    float64   `json:"wind_mph"`
	WindKph    float64   `json:"wind_kph"`
	WindDegree int       `json:"wind_degree"`
	WindDir    string    `json:"wind_dir"`
	PressureMb float64   `json:"pressure_mb"`
	PrecipMm   float64   `json:"precip_mm"`
	Humidity   int       `json:"humidity"`
	Cloud      int       `json:"cloud"`
	FeelslikeC float64   `json:"feelslike_c"`
	FeelslikeF float64   `json:"feelslike_f"`
	VisKm      float64   `json:"vis_km"`
}

// DayWeather is the daily aggregate block. The will-it flags are 0/1 and the
// chance fields are percentages in [0,100], as defined upstream.
type DayWeather struct {
	MaxtempC          float64   `json:"maxtemp_c"`
	MaxtempF          float64   `json:"maxtemp_f"`
	MintempC          float64   `json:"mintemp_c"`
	MintempF          float64   `json:"mintemp_f"`
	AvgtempC          float64   `json:"avgtemp_c"`
	AvgtempF          float64   `json:"avgtemp_f"`
	MaxwindMph        float64   `json:"maxwind_mph"`
	MaxwindKph        float64   `json:"maxwind_kph"`
	TotalprecipMm     float64   `json:"totalprecip_mm"`
	TotalprecipIn     float64   `json:"totalprecip_in"`
	AvgvisKm          float64   `json:"avgvis_km"`
	AvgvisMiles       float64   `json:"avgvis_miles"`
	Avghumidity       float64   `json:"avghumidity"`
	DailyWillItRain   int       `json:"daily_will_it_rain"`
	DailyChanceOfRain int       `json:"daily_chance_of_rain"`
	DailyWillItSnow   int       `json:"daily_will_it_snow"`
	DailyChanceOfSnow int       `json:"daily_chance_of_snow"`
	Condition         Condition `json:"condition"`
	UV                float64   `json:"uv"`
}

// ForecastDay is one calendar day of forecast: the daily aggregate plus the
// hourly entries, ordered by time ascending.
type ForecastDay struct {
	Date string        `json:"date"`
	Day  DayWeather    `json:"day"`
	Hour []HourWeather `json:"hour"`
}

// Forecast wraps the forecast-day list, matching the upstream envelope.
type Forecast struct {
	Forecastday []ForecastDay `json:"forecastday"`
}

// WeatherResponse is the payload returned by the weather endpoints.
// Forecast is nil for current-weather-only requests.
type WeatherResponse struct {
	Location Location       `json:"location"`
	Current  CurrentWeather `json:"current"`
	Forecast *Forecast      `json:"forecast,omitempty"`
}

// CitySearchResult is a lightweight location candidate from autocomplete.
type CitySearchResult struct {
	Name    string  `json:"name"`
	Region  string  `json:"region"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}
