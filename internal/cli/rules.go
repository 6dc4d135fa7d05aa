package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ivlev/camwork/internal/director"
)

// NewRulesCommand creates the rules command.
func NewRulesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the rule engine's rules in evaluation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			synth, err := rootOpts.synthesizer(rootOpts.logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			rules := synth.Director().ListRules()

			formatter := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return formatter.Encode(rules, func(w io.Writer) { printRules(w, rules) })
		},
	}
}

func printRules(w io.Writer, rules []director.RuleInfo) {
	for _, r := range rules {
		fmt.Fprintf(w, "%5d  %s\n", r.Priority, r.Name)
	}
}
