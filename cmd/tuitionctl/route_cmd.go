package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tuition/internal/domain/routecodec"
	"tuition/internal/domain/tuition"
)

func newRouteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "route",
		Short: "Convert between grade labels and page segments",
	}
	cmd.AddCommand(newRouteDecodeCmd(), newRouteEncodeCmd(), newRouteParseCmd())
	return cmd
}

func newRouteDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode SEGMENT...",
		Short: "Print the page title of each segment",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, seg := range args {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", seg, routecodec.Decode(seg))
			}
			return nil
		},
	}
}

func newRouteEncodeCmd() *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "encode LABEL",
		Short: `Print the segment of a label, e.g. encode --category Spoken "Grade 1 - B, 2 - A"`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seg, err := routecodec.Encode(strings.Join(args, " "), category)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), seg)
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "Category name: Spoken, Theory, Group or Paper")
	cmd.MarkFlagRequired("category")
	return cmd
}

func newRouteParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse SEGMENT",
		Short: "Strictly parse a segment and list the backend grade names it selects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := routecodec.ParseSegment(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "segment:  %s\n", r.Segment())
			fmt.Fprintf(out, "title:    %s\n", r.Title())
			fmt.Fprintf(out, "category: %s\n", r.Category.Name())
			fmt.Fprintf(out, "grades:   %s\n", strings.Join(r.BackendGrades(), ", "))
			return nil
		},
	}
}

func newSuggestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest STUDENT_NUMBER...",
		Short: "Print the tuition id the student number band suggests",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, sno := range args {
				id, err := tuition.SuggestTuitionID(sno)
				if err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t-\t%v\n", sno, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", sno, id)
			}
			return nil
		},
	}
}
