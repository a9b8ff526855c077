package main

import (
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/inkwell-hq/formfill/internal/answer"
	"github.com/inkwell-hq/formfill/internal/model"
)

var answerTimezone string

var answerCmd = &cobra.Command{
	Use:   "answer <document-id> <question-id> <answer text...>",
	Short: "Apply a free-text answer to a question",
	Args:  cobra.MinimumNArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		outcome, err := env.engine.AnswerQuestion(cmd.Context(), args[0], args[1], answer.Request{
			Answer: strings.Join(args[2:], " "),
			Time:   model.TimeContext{Now: time.Now(), Timezone: answerTimezone},
		})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(outcome)
	},
}

func init() {
	answerCmd.Flags().StringVar(&answerTimezone, "timezone", "", "IANA timezone for relative date resolution")
	rootCmd.AddCommand(answerCmd)
}
