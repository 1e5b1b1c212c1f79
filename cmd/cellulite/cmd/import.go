package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	bolt "go.etcd.io/bbolt"

	"github.com/Aman-CERP/cellulite/pkg/cellulite"
)

func newImportCmd() *cobra.Command {
	var startID uint32
	var build bool

	cmd := &cobra.Command{
		Use:   "import <file.geojson>",
		Short: "Import a GeoJSON file",
		Long: `Import a GeoJSON document. A FeatureCollection is imported one feature
per item with sequential ids; any other document becomes a single item.`,
		Args: cobra.ExactArgs(1),
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

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			count := 0
			err = db.Update(func(tx *bolt.Tx) error {
				index, err := cellulite.Create(tx, indexOptions(cfg))
				if err != nil {
					return err
				}
				count, err = importDocument(tx, index, data, startID)
				return err
			})
			if err != nil {
				return err
			}
			fmt.Printf("Imported %d item(s).\n", count)

			if build {
				return runBuild(db, cfg)
			}
			fmt.Println("Run 'cellulite build' to index them.")
			return nil
		},
	}

	cmd.Flags().Uint32Var(&startID, "start-id", 0, "First item id to assign")
	cmd.Flags().BoolVar(&build, "build", false, "Build the index after importing")
	return cmd
}

// featureCollectionProbe splits a FeatureCollection into raw features
// without decoding their geometries twice.
type featureCollectionProbe struct {
	Type     string            `json:"type"`
	Features []json.RawMessage `json:"features"`
}

func importDocument(tx *bolt.Tx, index *cellulite.Index, data []byte, startID uint32) (int, error) {
	var probe featureCollectionProbe
	if err := json.Unmarshal(data, &probe); err != nil {
		return 0, err
	}
	if probe.Type != "FeatureCollection" {
		return 1, index.Add(tx, startID, data)
	}
	for i, feature := range probe.Features {
		if err := index.Add(tx, startID+uint32(i), feature); err != nil {
			return i, err
		}
	}
	return len(probe.Features), nil
}
