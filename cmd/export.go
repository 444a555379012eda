package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wypadek/karta-cli/internal/export"
	"github.com/wypadek/karta-cli/internal/model"
	"github.com/wypadek/karta-cli/internal/schema"
)

var (
	exportOut    string
	exportStatus string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export recorded cases to an XLSX workbook",
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
			Status: model.CaseStatus(exportStatus),
		})
		if err != nil {
			return err
		}
		if len(cases) == 0 {
			return eris.New("no cases to export")
		}

		if err := export.WriteCasesXLSX(exportOut, cases, schema.AccidentCard()); err != nil {
			return err
		}

		zap.L().Info("cases exported",
			zap.String("path", exportOut),
			zap.Int("count", len(cases)),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "karta-export.xlsx", "output workbook path")
	exportCmd.Flags().StringVar(&exportStatus, "status", "", "filter by status")
	rootCmd.AddCommand(exportCmd)
}
