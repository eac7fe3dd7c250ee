package cmd

import (
	"fmt"
	"strconv"

	"github.com/CosmoTheDev/ctrlreport/models"
	"github.com/spf13/cobra"
)

var severityList bool

var severityCmd = &cobra.Command{
	Use:   "severity [label-or-code]",
	Short: "Convert between severity labels and numeric codes",
	Long: `Prints the numeric code for a severity label (case-insensitive) or the
label for a numeric code.

  ctrlreport severity HIGH     → High 40
  ctrlreport severity 10       → Style 10
  ctrlreport severity --list`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSeverity,
}

func init() {
	severityCmd.Flags().BoolVar(&severityList, "list", false, "list every severity, most severe first")
}

func runSeverity(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if severityList || len(args) == 0 {
		all := models.Severities()
		for i := len(all) - 1; i >= 0; i-- {
			fmt.Fprintf(out, "%s %d\n", severityCell(all[i], 12), int(all[i]))
		}
		return nil
	}
	s, err := resolveSeverityArg(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s %d\n", severityText(s), int(s))
	return nil
}

// resolveSeverityArg accepts either a numeric code or a label.
func resolveSeverityArg(arg string) (models.Severity, error) {
	if code, err := strconv.Atoi(arg); err == nil {
		s := models.Severity(code)
		if _, ok := s.Label(); !ok {
			return models.SeverityInvalid, fmt.Errorf("%w: code %d", models.ErrUnknownSeverity, code)
		}
		return s, nil
	}
	return models.ParseSeverity(arg)
}
