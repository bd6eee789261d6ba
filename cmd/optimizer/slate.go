package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/derekschultz/lol-dfs-optimizer-sub001/pkg/types"
)

// Slate is the on-disk input format: the player pool plus optional exposure
// settings and seed lineups. A file holding a bare player array is also
// accepted.
type Slate struct {
	Players  []types.PlayerInput    `json:"players"`
	Exposure types.ExposureSettings `json:"exposure"`
	Seeds    []types.Lineup         `json:"seeds,omitempty"`
}

func loadSlate(path string) (*Slate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading slate file: %w", err)
	}

	var slate Slate
	if err := json.Unmarshal(data, &slate); err != nil {
		var players []types.PlayerInput
		if arrErr := json.Unmarshal(data, &players); arrErr == nil {
			slate = Slate{Players: players}
		} else {
			return nil, fmt.Errorf("parsing slate file %s: %w", path, err)
		}
	}

	if len(slate.Players) == 0 {
		return nil, fmt.Errorf("slate file %s holds no players", path)
	}
	return &slate, nil
}

func renderResult(w io.Writer, result *types.OptimizationResult) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tNAME\tCPT\tROSTER\tSALARY\tPROJ\tMED\tP90\tROI\tNEXUS")
	for i := range result.Lineups {
		lineup := &result.Lineups[i]
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%.1f\t%.1f\t%.1f\t%.2f\t%.1f\n",
			i+1, lineup.Name, lineup.Captain.Name, rosterNames(lineup),
			lineup.TotalSalary(), lineup.ProjectedPoints, lineup.Median,
			lineup.P90, lineup.ROI, lineup.NexusScore)
	}
	tw.Flush()

	s := result.Summary
	fmt.Fprintf(w, "\n%d/%d lineups, best %.1f projected, avg rating %.1f, %d iterations in %dms\n",
		s.GeneratedLineups, s.RequestedLineups, s.BestProjected, s.AvgNexusScore,
		s.Iterations, s.ElapsedMs)
	if result.Evolution != nil {
		fmt.Fprintf(w, "evolved %d generations, final diversity %.2f\n",
			result.Evolution.Generations, result.Evolution.FinalDiversity)
	}
	for _, warning := range s.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
}

func rosterNames(lineup *types.Lineup) string {
	names := make([]string, len(lineup.Players))
	for i, slot := range lineup.Players {
		names[i] = slot.Name
	}
	return strings.Join(names, ", ")
}

// demoSlate is a four-team, two-game LCK slate for trying the optimizer
// without projection data.
func demoSlate() *Slate {
	return &Slate{Players: []types.PlayerInput{
		// T1 (vs GEN)
		{ID: "t1-zeus", Name: "Zeus", Position: "TOP", Team: "T1", Opponent: "GEN", Salary: 6800, ProjectedPoints: 62.0, Ownership: 28.0},
		{ID: "t1-oner", Name: "Oner", Position: "JNG", Team: "T1", Opponent: "GEN", Salary: 7000, ProjectedPoints: 68.0, Ownership: 32.0},
		{ID: "t1-faker", Name: "Faker", Position: "MID", Team: "T1", Opponent: "GEN", Salary: 7800, ProjectedPoints: 75.0, Ownership: 45.0},
		{ID: "t1-gumayusi", Name: "Gumayusi", Position: "ADC", Team: "T1", Opponent: "GEN", Salary: 7600, ProjectedPoints: 72.0, Ownership: 38.0},
		{ID: "t1-keria", Name: "Keria", Position: "SUP", Team: "T1", Opponent: "GEN", Salary: 6400, ProjectedPoints: 58.0, Ownership: 24.0},
		{ID: "t1-team", Name: "T1", Position: "TEAM", Team: "T1", Opponent: "GEN", Salary: 5600, ProjectedPoints: 52.0, Ownership: 22.0},
		// GEN (vs T1)
		{ID: "gen-kiin", Name: "Kiin", Position: "TOP", Team: "GEN", Opponent: "T1", Salary: 6600, ProjectedPoints: 58.0, Ownership: 20.0},
		{ID: "gen-canyon", Name: "Canyon", Position: "JNG", Team: "GEN", Opponent: "T1", Salary: 6800, ProjectedPoints: 64.0, Ownership: 26.0},
		{ID: "gen-chovy", Name: "Chovy", Position: "MID", Team: "GEN", Opponent: "T1", Salary: 7400, ProjectedPoints: 71.0, Ownership: 35.0},
		{ID: "gen-peyz", Name: "Peyz", Position: "ADC", Team: "GEN", Opponent: "T1", Salary: 7200, ProjectedPoints: 66.0, Ownership: 30.0},
		{ID: "gen-lehends", Name: "Lehends", Position: "SUP", Team: "GEN", Opponent: "T1", Salary: 6000, ProjectedPoints: 54.0, Ownership: 16.0},
		{ID: "gen-team", Name: "GEN", Position: "TEAM", Team: "GEN", Opponent: "T1", Salary: 5400, ProjectedPoints: 48.0, Ownership: 18.0},
		// KT (vs DK)
		{ID: "kt-perfect", Name: "PerfecT", Position: "TOP", Team: "KT", Opponent: "DK", Salary: 5800, ProjectedPoints: 48.0, Ownership: 9.0},
		{ID: "kt-cuzz", Name: "Cuzz", Position: "JNG", Team: "KT", Opponent: "DK", Salary: 6000, ProjectedPoints: 52.0, Ownership: 12.0},
		{ID: "kt-bdd", Name: "Bdd", Position: "MID", Team: "KT", Opponent: "DK", Salary: 6600, ProjectedPoints: 61.0, Ownership: 18.0},
		{ID: "kt-deokdam", Name: "Deokdam", Position: "ADC", Team: "KT", Opponent: "DK", Salary: 6400, ProjectedPoints: 57.0, Ownership: 15.0},
		{ID: "kt-peter", Name: "Peter", Position: "SUP", Team: "KT", Opponent: "DK", Salary: 5200, ProjectedPoints: 44.0, Ownership: 7.0},
		{ID: "kt-team", Name: "KT", Position: "TEAM", Team: "KT", Opponent: "DK", Salary: 4800, ProjectedPoints: 42.0, Ownership: 8.0},
		// DK (vs KT)
		{ID: "dk-siwoo", Name: "Siwoo", Position: "TOP", Team: "DK", Opponent: "KT", Salary: 5600, ProjectedPoints: 45.0, Ownership: 8.0},
		{ID: "dk-lucid", Name: "Lucid", Position: "JNG", Team: "DK", Opponent: "KT", Salary: 5800, ProjectedPoints: 50.0, Ownership: 11.0},
		{ID: "dk-showmaker", Name: "ShowMaker", Position: "MID", Team: "DK", Opponent: "KT", Salary: 6800, ProjectedPoints: 63.0, Ownership: 22.0},
		{ID: "dk-aiming", Name: "Aiming", Position: "ADC", Team: "DK", Opponent: "KT", Salary: 6600, ProjectedPoints: 59.0, Ownership: 19.0},
		{ID: "dk-beryl", Name: "BeryL", Position: "SUP", Team: "DK", Opponent: "KT", Salary: 5000, ProjectedPoints: 41.0, Ownership: 6.0},
		{ID: "dk-team", Name: "DK", Position: "TEAM", Team: "DK", Opponent: "KT", Salary: 4600, ProjectedPoints: 38.0, Ownership: 7.0},
	}}
}
