package overpass

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// BuildQuery renders the Overpass QL that finds amenities within radius
// meters of (lat, lon). The server-side timeout is the client timeout
// rounded up to whole seconds.
func BuildQuery(lat, lon float64, radiusMeters int, amenities []string, timeout time.Duration) string {
	seconds := int(math.Ceil(timeout.Seconds()))
	filter := fmt.Sprintf(`["amenity"~"%s"](around:%d,%s,%s)`,
		strings.Join(amenities, "|"),
		radiusMeters,
		strconv.FormatFloat(lat, 'f', -1, 64),
		strconv.FormatFloat(lon, 'f', -1, 64),
	)

	var b strings.Builder
	fmt.Fprintf(&b, "[out:json][timeout:%d];\n(\n", seconds)
	for _, kind := range []string{"node", "way", "relation"} {
		fmt.Fprintf(&b, "  %s%s;\n", kind, filter)
	}
	b.WriteString(");\nout center;\n")
	return b.String()
}
