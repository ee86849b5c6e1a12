package weather

// Subsets of the upstream weatherapi.com payloads. Unknown fields are dropped.

type Location struct {
	Name      string  `json:"name"`
	Region    string  `json:"region"`
	Country   string  `json:"country"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	LocalTime string  `json:"localtime"`
}

type Condition struct {
	Text string `json:"text"`
	Icon string `json:"icon"`
	Code int    `json:"code"`
}

type Current struct {
	TempC      float64            `json:"temp_c"`
	TempF      float64            `json:"temp_f"`
	Condition  Condition          `json:"condition"`
	WindMph    float64            `json:"wind_mph"`
	WindKph    float64            `json:"wind_kph"`
	WindDir    string             `json:"wind_dir"`
	PressureMb float64            `json:"pressure_mb"`
	Humidity   int                `json:"humidity"`
	Cloud      int                `json:"cloud"`
	FeelsLikeC float64            `json:"feelslike_c"`
	FeelsLikeF float64            `json:"feelslike_f"`
	UV         float64            `json:"uv"`
	VisKm      float64            `json:"vis_km"`
	AirQuality map[string]float64 `json:"air_quality,omitempty"`
}

type Day struct {
	MaxTempC          float64   `json:"maxtemp_c"`
	MaxTempF          float64   `json:"maxtemp_f"`
	MinTempC          float64   `json:"mintemp_c"`
	MinTempF          float64   `json:"mintemp_f"`
	AvgTempC          float64   `json:"avgtemp_c"`
	AvgTempF          float64   `json:"avgtemp_f"`
	Condition         Condition `json:"condition"`
	MaxWindKph        float64   `json:"maxwind_kph"`
	TotalPrecipMm     float64   `json:"totalprecip_mm"`
	AvgHumidity       float64   `json:"avghumidity"`
	DailyChanceOfRain int       `json:"daily_chance_of_rain"`
	DailyChanceOfSnow int       `json:"daily_chance_of_snow"`
	UV                float64   `json:"uv"`
}

type Astro struct {
	Sunrise   string `json:"sunrise"`
	Sunset    string `json:"sunset"`
	Moonrise  string `json:"moonrise"`
	Moonset   string `json:"moonset"`
	MoonPhase string `json:"moon_phase"`
}

type Hour struct {
	Time         string    `json:"time"`
	TempC        float64   `json:"temp_c"`
	TempF        float64   `json:"temp_f"`
	Condition    Condition `json:"condition"`
	WindKph      float64   `json:"wind_kph"`
	WindDir      string    `json:"wind_dir"`
	Humidity     int       `json:"humidity"`
	ChanceOfRain int       `json:"chance_of_rain"`
	ChanceOfSnow int       `json:"chance_of_snow"`
	FeelsLikeC   float64   `json:"feelslike_c"`
	FeelsLikeF   float64   `json:"feelslike_f"`
	UV           float64   `json:"uv"`
}

type ForecastDay struct {
	Date  string `json:"date"`
	Day   Day    `json:"day"`
	Astro Astro  `json:"astro"`
	Hour  []Hour `json:"hour"`
}

type Alert struct {
	Headline  string `json:"headline"`
	Severity  string `json:"severity"`
	Event     string `json:"event"`
	Effective string `json:"effective"`
	Expires   string `json:"expires"`
	Desc      string `json:"desc"`
}

type CurrentReport struct {
	Location Location `json:"location"`
	Current  Current  `json:"current"`
}

type ForecastReport struct {
	Location Location      `json:"location"`
	Current  Current       `json:"current"`
	Forecast []ForecastDay `json:"forecast"`
	Alerts   []Alert       `json:"alerts"`
}

type HistoryReport struct {
	Location Location      `json:"location"`
	Forecast []ForecastDay `json:"forecast"`
}

type City struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Region  string  `json:"region"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	URL     string  `json:"url"`
}

// upstream envelopes

type forecastEnvelope struct {
	Location Location `json:"location"`
	Current  Current  `json:"current"`
	Forecast struct {
		ForecastDay []ForecastDay `json:"forecastday"`
	} `json:"forecast"`
	Alerts *struct {
		Alert []Alert `json:"alert"`
	} `json:"alerts"`
}

type errorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
