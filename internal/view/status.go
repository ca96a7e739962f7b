package view

// Status words for the metric cards. Thresholds follow the backend's alert
// generation bands.

func trafficStatus(pct float64) string {
	switch {
	case pct >= 85:
		return "severe congestion"
	case pct >= 70:
		return "heavy"
	case pct >= 40:
		return "moderate"
	default:
		return "light"
	}
}

func aqiStatus(aqi float64) string {
	switch {
	case aqi >= 300:
		return "hazardous"
	case aqi >= 200:
		return "very poor"
	case aqi >= 100:
		return "poor"
	case aqi >= 50:
		return "moderate"
	default:
		return "good"
	}
}

func energyStatus(pct float64) string {
	switch {
	case pct >= 90:
		return "peak load"
	case pct >= 75:
		return "high demand"
	case pct >= 40:
		return "normal"
	default:
		return "low"
	}
}
