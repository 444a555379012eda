package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wypadek/karta-cli/internal/model"
)

var (
	casesStatus   string
	casesType     string
	casesSeverity string
	casesLimit    int
)

var casesCmd = &cobra.Command{
	Use:   "cases",
	Short: "List recorded cases",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return err
		}

		cases, err := st.ListCases(ctx, model.CaseFilter{
			Status:   model.CaseStatus(casesStatus),
			Type:     model.AccidentType(casesType),
			Severity: model.AccidentSeverity(casesSeverity),
			Limit:    casesLimit,
		})
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTYPE\tSEVERITY\tSTATUS\tVERDICT\tCREATED")
		for _, c := range cases {
			verdict := ""
			if c.Decision != nil {
				verdict = string(c.Decision.Verdict)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				c.ID, c.Type, c.Severity, c.Status, verdict,
				c.CreatedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

func init() {
	casesCmd.Flags().StringVar(&casesStatus, "status", "", "filter by status")
	casesCmd.Flags().StringVar(&casesType, "type", "", "filter by accident type")
	casesCmd.Flags().StringVar(&casesSeverity, "severity", "", "filter by severity")
	casesCmd.Flags().IntVar(&casesLimit, "limit", 50, "max cases to list")
	rootCmd.AddCommand(casesCmd)
}
