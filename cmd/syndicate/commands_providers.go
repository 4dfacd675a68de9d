package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/haasonsaas/syndicate/internal/videogen"
)

func newProvidersCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "providers",
		Short: "List video-generation providers",
		Run: func(cmd *cobra.Command, args []string) {
			providers := videogen.ActiveProviders()
			if all {
				providers = videogen.Catalog
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tSTATUS\t$/SEC\tDURATION\tTEST RENDER")
			for _, p := range providers {
				testRender := "no"
				if p.SupportsTestRender {
					testRender = fmt.Sprintf("%.0f%% cost", p.TestRenderMultiplier*100)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\t%d-%ds\t%s\n",
					p.ID, p.Name, p.Category, p.Status,
					p.CostPerSecond, p.MinDurationSeconds, p.MaxDurationSeconds, testRender)
			}
			w.Flush()
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include inactive providers")
	return cmd
}

func newEstimateCommand() *cobra.Command {
	var (
		provider   string
		duration   int
		testRender bool
	)

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate the cost of a render",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				cost float64
				err  error
			)
			if testRender {
				cost, err = videogen.EstimateTestRenderCost(provider)
			} else {
				cost, err = videogen.EstimateCost(provider, duration)
			}
			if err != nil {
				return err
			}
			fmt.Printf("$%.2f\n", cost)
			return nil
		},
	}

	cmd.Flags().StringVarP(&provider, "provider", "p", "", "provider id (see: syndicate providers)")
	cmd.Flags().IntVarP(&duration, "duration", "d", 0, "requested duration in seconds")
	cmd.Flags().BoolVar(&testRender, "test-render", false, "estimate a discounted test render instead")
	cmd.MarkFlagRequired("provider")
	return cmd
}
