package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/spf13/cobra"
	bolt "go.etcd.io/bbolt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/Aman-CERP/cellulite/pkg/cellulite"
)

func newQueryCmd() *cobra.Command {
	var polygonFile string
	var circle string
	var circleVertices int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Find items in a polygon or circle",
		Long: `Query the index with either a GeoJSON polygon file or a circle.

  cellulite query --polygon shape.geojson
  cellulite query --circle 48.86,2.35,5000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			var ids *roaring.Bitmap
			err = db.View(func(tx *bolt.Tx) error {
				index, err := cellulite.Open(tx, indexOptions(cfg))
				if err != nil {
					return err
				}
				switch {
				case polygonFile != "":
					polygon, err := readPolygonFile(polygonFile)
					if err != nil {
						return err
					}
					ids, err = index.InShape(tx, polygon)
					return err
				case circle != "":
					center, radius, err := parseCircle(circle)
					if err != nil {
						return err
					}
					ids, err = index.InCircle(tx, center, radius, circleVertices)
					return err
				default:
					return fmt.Errorf("one of --polygon or --circle is required")
				}
			})
			if err != nil {
				return err
			}

			if jsonOutput {
				out, err := json.Marshal(ids.ToArray())
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			}
			fmt.Printf("%d item(s)\n", ids.GetCardinality())
			it := ids.Iterator()
			for it.HasNext() {
				fmt.Println(it.Next())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&polygonFile, "polygon", "", "GeoJSON file holding the query polygon")
	cmd.Flags().StringVar(&circle, "circle", "", "Circle query as lat,lng,radius_meters")
	cmd.Flags().IntVar(&circleVertices, "circle-vertices", 32, "Vertices of the circle-approximating polygon")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output ids as JSON")
	return cmd
}

func readPolygonFile(path string) (orb.Polygon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	g, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		// Allow a Feature wrapping the polygon too.
		feature, ferr := geojson.UnmarshalFeature(data)
		if ferr != nil {
			return nil, err
		}
		g = geojson.NewGeometry(feature.Geometry)
	}
	switch geom := g.Geometry().(type) {
	case orb.Polygon:
		return geom, nil
	case orb.MultiPolygon:
		if len(geom) == 1 {
			return geom[0], nil
		}
		return nil, fmt.Errorf("query supports a single polygon, got a MultiPolygon with %d members", len(geom))
	default:
		return nil, fmt.Errorf("query supports polygons, got %T", geom)
	}
}

func parseCircle(arg string) (orb.Point, float64, error) {
	fields := strings.Split(arg, ",")
	if len(fields) != 3 {
		return orb.Point{}, 0, fmt.Errorf("circle must be lat,lng,radius_meters")
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
	if err != nil {
		return orb.Point{}, 0, fmt.Errorf("invalid latitude: %w", err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if err != nil {
		return orb.Point{}, 0, fmt.Errorf("invalid longitude: %w", err)
	}
	radius, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
	if err != nil {
		return orb.Point{}, 0, fmt.Errorf("invalid radius: %w", err)
	}
	return orb.Point{lng, lat}, radius, nil
}
