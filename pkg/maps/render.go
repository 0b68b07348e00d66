package maps

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Folder holds the industry maps under the output root
const Folder = "map graphs - circles"

const maxFileNameRunes = 40

var pageTemplate = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html lang="he">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>html, body, #map { height: 100%; margin: 0; }</style>
</head>
<body>
<div id="map"></div>
<script>
var map = L.map('map').setView([{{.Lat}}, {{.Lon}}], 8);
L.tileLayer('https://{s}.basemaps.cartocdn.com/light_all/{z}/{x}/{y}{r}.png', {
  attribution: '&copy; OpenStreetMap contributors &copy; CARTO'
}).addTo(map);
var sites = {{.Sites}};
sites.forEach(function (s) {
  L.circleMarker([s.lat, s.lon], {
    radius: s.count * {{.Scale}},
    color: 'black',
    weight: 1,
    fillColor: {{.Color}},
    fillOpacity: 0.3
  }).bindTooltip('Amount: ' + s.count + '<br>Location: ' + s.city).addTo(map);
});
</script>
</body>
</html>
`))

type siteJSON struct {
	City  string  `json:"city"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Count int     `json:"count"`
}

type page struct {
	Title string
	Lat   float64
	Lon   float64
	Color string
	Scale float64
	Sites []siteJSON
}

// Writer renders industry layers as standalone Leaflet pages
type Writer struct {
	logger *zap.Logger
	root   string
	// Scale is the circle radius in pixels per facility
	Scale float64
}

// NewWriter creates a map writer for the output root
func NewWriter(logger *zap.Logger, root string) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{logger: logger.Named("maps"), root: root, Scale: 10}
}

// FileName returns "map <industry column>-<industry>" cut to 40 characters
func FileName(industryCol, industry string) string {
	name := []rune("map " + industryCol + "-" + industry)
	if len(name) > maxFileNameRunes {
		name = name[:maxFileNameRunes]
	}
	return strings.NewReplacer("/", "-", "\\", "-").Replace(strings.TrimSpace(string(name)))
}

// Write renders one layer and returns the file path
func (w *Writer) Write(industryCol string, layer Layer) (string, error) {
	if len(layer.Sites) == 0 || layer.Centre == nil {
		return "", fmt.Errorf("layer %q has no located sites", layer.Industry)
	}

	p := page{
		Title: industryCol + " - " + layer.Industry,
		Lat:   layer.Centre.Y(),
		Lon:   layer.Centre.X(),
		Color: layer.Color,
		Scale: w.Scale,
	}
	for _, s := range layer.Sites {
		p.Sites = append(p.Sites, siteJSON{City: s.City, Lat: s.Latitude, Lon: s.Longitude, Count: s.Count})
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("failed to render map: %w", err)
	}

	dir := filepath.Join(w.root, Folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create map folder: %w", err)
	}
	path := filepath.Join(dir, FileName(industryCol, layer.Industry)+".html")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write map: %w", err)
	}

	w.logger.Info("Map plot saved",
		zap.String("path", path),
		zap.Int("sites", len(layer.Sites)))
	return path, nil
}

// WriteAll renders every layer; the first failure stops the loop
func (w *Writer) WriteAll(industryCol string, layers []Layer) ([]string, error) {
	paths := make([]string, 0, len(layers))
	for _, l := range layers {
		path, err := w.Write(industryCol, l)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
