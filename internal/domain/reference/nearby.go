package reference

import (
	"slices"
	"strconv"
	"strings"

	"github.com/okian/disasterscope/internal/domain/geo"
)

var (
	latitudeNames  = []string{"latitude", "lat"}
	longitudeNames = []string{"longitude", "lon", "lng"}
)

// CoordinateColumns returns the first latitude and longitude columns in
// header order.
func (t *Table) CoordinateColumns() (lat, lon int, ok bool) {
	lat, lon = -1, -1
	for i, h := range t.header {
		low := strings.ToLower(h)
		if lat < 0 && slices.Contains(latitudeNames, low) {
			lat = i
		}
		if lon < 0 && slices.Contains(longitudeNames, low) {
			lon = i
		}
	}
	return lat, lon, lat >= 0 && lon >= 0
}

// NearbyCount counts rows within radiusKm of (lat, lon). Rows with an empty
// coordinate are skipped. A non-numeric coordinate anywhere in the table
// makes the count 0, as does a table without coordinate columns.
func (t *Table) NearbyCount(lat, lon, radiusKm float64) int {
	latCol, lonCol, ok := t.CoordinateColumns()
	if !ok || len(t.rows) == 0 {
		return 0
	}

	count := 0
	for _, row := range t.rows {
		rawLat, rawLon := row[latCol], row[lonCol]
		if rawLat == "" || rawLon == "" {
			continue
		}
		pLat, err := strconv.ParseFloat(rawLat, 64)
		if err != nil {
			return 0
		}
		pLon, err := strconv.ParseFloat(rawLon, 64)
		if err != nil {
			return 0
		}
		if geo.Haversine(lat, lon, pLat, pLon) <= radiusKm {
			count++
		}
	}
	return count
}
