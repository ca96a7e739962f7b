// Package location owns region/city selection: the two-field picker state
// machine and the directory it selects from, including the built-in fallback
// used when the backend directory cannot be fetched.
package location

import "github.com/citypulse/citypulse/internal/citydata"

// fallbackDirectory keeps the picker usable when the locations endpoint is
// unreachable. It mirrors the directory the backend ships with.
var fallbackDirectory = citydata.Directory{
	"Maharashtra":   {"Mumbai", "Pune", "Nagpur", "Nashik", "Aurangabad"},
	"Karnataka":     {"Bangalore", "Mysore", "Hubli", "Mangalore", "Belgaum"},
	"Tamil Nadu":    {"Chennai", "Coimbatore", "Madurai", "Trichy", "Salem"},
	"Gujarat":       {"Ahmedabad", "Surat", "Vadodara", "Rajkot", "Bhavnagar"},
	"Rajasthan":     {"Jaipur", "Jodhpur", "Udaipur", "Kota", "Bikaner"},
	"West Bengal":   {"Kolkata", "Durgapur", "Asansol", "Siliguri", "Howrah"},
	"Delhi":         {"New Delhi", "East Delhi", "West Delhi", "North Delhi", "South Delhi"},
	"Uttar Pradesh": {"Lucknow", "Kanpur", "Agra", "Varanasi", "Allahabad"},
}

// FallbackDirectory returns a copy of the built-in directory.
func FallbackDirectory() citydata.Directory {
	dir := make(citydata.Directory, len(fallbackDirectory))
	for state, cities := range fallbackDirectory {
		dir[state] = append([]string(nil), cities...)
	}
	return dir
}
