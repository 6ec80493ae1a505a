package main

import (
	"github.com/spf13/cobra"
)

func newForwardVolCmd(s *session) *cobra.Command {
	var ticker, chainFile string
	var start, end int
	cmd := &cobra.Command{
		Use:   "forward-vol",
		Short: "Bootstrap the forward vol term structure of a ticker's chain",
		RunE: func(cmd *cobra.Command, args []string) error {
			if chainFile != "" {
				if err := s.Store.LoadFiles("", chainFile, ""); err != nil {
					return err
				}
			}

			call, put, err := s.Market.TermStructures(cmd.Context(), ticker, start, end)
			if err != nil {
				return err
			}
			if err := s.renderer.RenderTermStructure(cmd.OutOrStdout(), call); err != nil {
				return err
			}
			return s.renderer.RenderTermStructure(cmd.OutOrStdout(), put)
		},
	}
	cmd.Flags().StringVar(&ticker, "ticker", "", "Underlying ticker")
	cmd.Flags().StringVar(&chainFile, "chain", "", "Option chain CSV to load in addition to the configured one")
	cmd.Flags().IntVar(&start, "start", 0, "First day of the displayed range")
	cmd.Flags().IntVar(&end, "end", 365, "Last day of the displayed range")
	_ = cmd.MarkFlagRequired("ticker")
	return cmd
}
