package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"dubber/internal/language"
)

func newLanguagesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the languages dubber recognizes",
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([][]string, 0)
			for _, code := range language.Codes() {
				rows = append(rows, []string{code, language.ToISO3(code), language.DisplayName(code)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Code", "ISO 639-2", "Name"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}
