package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"heritage-map/internal/route"
)

var reviewJSON bool

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "List records whose status is not ok",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()
		recs, err := e.repo.NeedingReview(cmd.Context())
		if err != nil {
			return err
		}
		if reviewJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(recs)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tKIND\tSTATUS\tCITY")
		for _, r := range recs {
			city := ""
			if r.Asset != nil {
				city = r.Asset.City
			} else if r.Area != nil {
				city = r.Area.City
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID(), r.Kind, r.Status(), city)
		}
		return tw.Flush()
	},
}

var clearYes bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all assets, areas and cached lookups",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !clearYes {
			return errors.New("refusing to clear without --yes")
		}
		e, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()
		n, err := e.imp.ClearAll(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %d documents\n", n)
		return nil
	},
}

var routeGraph string

var routeCmd = &cobra.Command{
	Use:   "route <waypoint> <waypoint> [waypoint...]",
	Short: "Print the shortest path through the given waypoints",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		g, err := route.LoadFile(routeGraph)
		if err != nil {
			return err
		}
		for _, id := range args {
			if _, ok := g.Waypoint(id); !ok {
				return fmt.Errorf("unknown waypoint %q", id)
			}
		}
		out := cmd.OutOrStdout()
		if len(args) == 2 {
			p := g.ShortestPath(args[0], args[1])
			if !p.Found() {
				return fmt.Errorf("no route from %s to %s", args[0], args[1])
			}
			fmt.Fprintf(out, "%s\ndistance=%.6f\n", strings.Join(p.WaypointIDs, " -> "), p.Distance)
			return nil
		}
		line := g.StitchMultiStop(args)
		if len(line) == 0 {
			return errors.New("at least one leg is unreachable")
		}
		for _, pt := range line {
			fmt.Fprintf(out, "%.6f,%.6f\n", pt.Lat, pt.Lon)
		}
		return nil
	},
}

func init() {
	reviewCmd.Flags().BoolVar(&reviewJSON, "json", false, "print JSON instead of a table")
	clearCmd.Flags().BoolVar(&clearYes, "yes", false, "confirm the destructive clear")
	routeCmd.Flags().StringVar(&routeGraph, "graph", "data/route_graph.yaml", "route graph YAML file")
}
