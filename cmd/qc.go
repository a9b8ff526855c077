package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/inkwell-hq/formfill/internal/qc"
)

var qcCmd = &cobra.Command{
	Use:   "qc <document-id>",
	Short: "Decide whether the merge pass should run for a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		fields, err := st.ListFields(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		decision := qc.Decide(fields, cfg.QC)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(decision)
	},
}

func init() {
	rootCmd.AddCommand(qcCmd)
}
