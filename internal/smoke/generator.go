package smoke

import (
	"math/rand/v2"
	"time"

	"github.com/okian/disasterscope/internal/domain/geo"
)

// Point is a coordinate pair sent to /predict.
type Point struct {
	Lat float64 `json:"latitude"`
	Lng float64 `json:"longitude"`
}

// generatePoints returns n uniformly distributed valid coordinates rounded to
// four decimals.
func generatePoints(n int, seed uint64) []Point {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	points := make([]Point, n)
	for i := range points {
		points[i] = Point{
			Lat: geo.Round(r.Float64()*180-90, 4),
			Lng: geo.Round(r.Float64()*360-180, 4),
		}
	}
	return points
}

// invalidProbe is a request that the server must reject with 400.
type invalidProbe struct {
	name  string
	query string
}

var invalidProbes = []invalidProbe{
	{name: "latitude above range", query: "lat=91&lng=0"},
	{name: "latitude below range", query: "lat=-90.5&lng=0"},
	{name: "longitude above range", query: "lat=0&lng=180.01"},
	{name: "missing longitude", query: "lat=10"},
	{name: "non-numeric", query: "lat=north&lng=east"},
}
