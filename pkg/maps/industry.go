// pkg/maps/industry.go
package maps

import (
	"fmt"

	"github.com/twpayne/go-geom"
	"gonum.org/v1/gonum/stat"

	"github.com/David-Botos/prtr-cleaner/pkg/geocode"
	"github.com/David-Botos/prtr-cleaner/pkg/model"
	"github.com/David-Botos/prtr-cleaner/pkg/partition"
)

// Site is the number of distinct facilities of one industry in a city
type Site struct {
	City      string
	Latitude  float64
	Longitude float64
	Count     int
}

// Layer is one industry's facilities, ready to be drawn on its own map
type Layer struct {
	Industry string
	Color    string
	Centre   *geom.Point // XY: longitude, latitude
	Sites    []Site
}

// circle colours, cycled per industry
var palette = []string{
	"aqua", "blue", "blueviolet", "darkred", "cadetblue", "chartreuse", "coral",
	"cornflowerblue", "darkgoldenrod", "darkgreen", "darkmagenta", "darkorange", "darkorchid",
	"deeppink", "gold", "greenyellow", "lightcoral", "plum", "orange",
}

// Color returns the palette colour for the i-th layer
func Color(i int) string {
	return palette[i%len(palette)]
}

// IndustryLayers joins the table with resolved city locations, drops rows without
// coordinates, splits by the industry column and counts distinct facilities per city.
// A facility reported several times is counted once, by its first row.
func IndustryLayers(tbl *model.Table, locations map[string]geocode.Location, industryCol string) ([]Layer, error) {
	if tbl == nil {
		return nil, fmt.Errorf("%w: table cannot be nil", model.ErrInvalidInput)
	}
	if err := tbl.MustHave(model.ColYeshuv, model.ColMisparTaagid, industryCol); err != nil {
		return nil, err
	}

	located := tbl.Filter(func(i int) bool {
		s, ok := tbl.Get(i, model.ColYeshuv).Str()
		if !ok {
			return false
		}
		_, found := locations[geocode.NormalizeCity(s)]
		return found
	})
	if located.NumRows() == 0 {
		return nil, nil
	}

	groups, values, err := partition.GroupBy(located, industryCol, true)
	if err != nil {
		return nil, err
	}

	layers := make([]Layer, 0, len(groups))
	for gi, g := range groups {
		layer := Layer{Industry: values[gi].String(), Color: Color(gi)}

		facilities := make(map[string]struct{})
		siteIndex := make(map[string]int)
		for i := 0; i < g.NumRows(); i++ {
			id := g.Get(i, model.ColMisparTaagid)
			if !id.IsMissing() {
				if _, dup := facilities[id.Key()]; dup {
					continue
				}
				facilities[id.Key()] = struct{}{}
			}

			city, _ := g.Get(i, model.ColYeshuv).Str()
			city = geocode.NormalizeCity(city)
			loc := locations[city]
			if j, ok := siteIndex[city]; ok {
				layer.Sites[j].Count++
				continue
			}
			siteIndex[city] = len(layer.Sites)
			layer.Sites = append(layer.Sites, Site{
				City:      city,
				Latitude:  loc.Latitude(),
				Longitude: loc.Longitude(),
				Count:     1,
			})
		}

		layer.Centre = centre(layer.Sites)
		layers = append(layers, layer)
	}
	return layers, nil
}

// centre is the mean coordinate of the sites
func centre(sites []Site) *geom.Point {
	lats := make([]float64, len(sites))
	lons := make([]float64, len(sites))
	for i, s := range sites {
		lats[i] = s.Latitude
		lons[i] = s.Longitude
	}
	return geom.NewPointFlat(geom.XY, []float64{stat.Mean(lons, nil), stat.Mean(lats, nil)})
}
