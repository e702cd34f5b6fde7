package route

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Stevenalenga/plink-sub000/internal/shared/geo"
)

// toWKT renders waypoints as a LINESTRING in lng-lat order, the form
// ST_GeogFromText expects.
func toWKT(points []geo.Point) string {
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = strconv.FormatFloat(p.Lng, 'f', -1, 64) + " " + strconv.FormatFloat(p.Lat, 'f', -1, 64)
	}
	return "LINESTRING(" + strings.Join(parts, ",") + ")"
}

func parseWKT(s string) ([]geo.Point, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "LINESTRING(") || !strings.HasSuffix(s, ")") {
		return nil, fmt.Errorf("not a linestring: %q", s)
	}
	body := s[len("LINESTRING(") : len(s)-1]

	var points []geo.Point
	for _, pair := range strings.Split(body, ",") {
		fields := strings.Fields(strings.TrimSpace(pair))
		if len(fields) != 2 {
			return nil, fmt.Errorf("malformed coordinate pair %q", pair)
		}
		lng, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, err
		}
		lat, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, err
		}
		points = append(points, geo.Point{Lat: lat, Lng: lng})
	}
	return points, nil
}
