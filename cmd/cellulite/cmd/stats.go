package cmd

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	bolt "go.etcd.io/bbolt"

	"github.com/Aman-CERP/cellulite/pkg/cellulite"
)

var (
	statsTitleStyle = lipgloss.NewStyle().Bold(true)
	statsLabelStyle = lipgloss.NewStyle().Faint(true).Width(24)
)

// StatsOutput is the JSON output format of the stats command.
type StatsOutput struct {
	Items             int         `json:"items"`
	Cells             int         `json:"cells"`
	BellyCells        int         `json:"belly_cells"`
	CellsByResolution map[int]int `json:"cells_by_resolution"`
	BellyByResolution map[int]int `json:"belly_cells_by_resolution"`
	PersistedVersion  string      `json:"persisted_version"`
}

func newStatsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show index statistics",
		Long:  `Display item, cell and belly-cell counts, per-resolution histograms and the persisted schema version.`,
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

			var out StatsOutput
			err = db.View(func(tx *bolt.Tx) error {
				index, err := cellulite.Open(tx, indexOptions(cfg))
				if err != nil {
					return err
				}
				stats, err := index.Stats(tx)
				if err != nil {
					return err
				}
				v, err := index.GetVersion(tx)
				if err != nil {
					return err
				}
				out = StatsOutput{
					Items:             stats.TotalItems,
					Cells:             stats.TotalCells,
					BellyCells:        stats.TotalBellyCells,
					CellsByResolution: stats.CellsByResolution,
					BellyByResolution: stats.BellyCellsByResolution,
					PersistedVersion:  v.String(),
				}
				return nil
			})
			if err != nil {
				return err
			}

			if jsonOutput {
				data, err := json.MarshalIndent(out, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}
			printStats(out)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func printStats(out StatsOutput) {
	fmt.Println(statsTitleStyle.Render("Index"))
	fmt.Printf("%s%d\n", statsLabelStyle.Render("items"), out.Items)
	fmt.Printf("%s%d\n", statsLabelStyle.Render("cells"), out.Cells)
	fmt.Printf("%s%d\n", statsLabelStyle.Render("belly cells"), out.BellyCells)
	fmt.Printf("%s%s\n", statsLabelStyle.Render("schema version"), out.PersistedVersion)

	if len(out.CellsByResolution) > 0 {
		fmt.Println(statsTitleStyle.Render("Cells by resolution"))
		printHistogram(out.CellsByResolution)
	}
	if len(out.BellyByResolution) > 0 {
		fmt.Println(statsTitleStyle.Render("Belly cells by resolution"))
		printHistogram(out.BellyByResolution)
	}
}

func printHistogram(hist map[int]int) {
	resolutions := make([]int, 0, len(hist))
	for res := range hist {
		resolutions = append(resolutions, res)
	}
	sort.Ints(resolutions)
	for _, res := range resolutions {
		fmt.Printf("%s%d\n", statsLabelStyle.Render(fmt.Sprintf("resolution %d", res)), hist[res])
	}
}
