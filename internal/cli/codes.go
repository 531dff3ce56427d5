package cli

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/strongdm/checkout-actions/pkg/analytics"
)

type codeRow struct {
	condition string
	code      int
}

func newCodesCmd(a *app) *cobra.Command {
	var validation bool
	cmd := &cobra.Command{
		Use:   "codes",
		Short: "List the analytics error code registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var rows []codeRow
			if validation {
				for condition, code := range analytics.ValidationCodes() {
					rows = append(rows, codeRow{condition, int(code)})
				}
			} else {
				for condition, code := range analytics.ErrorCodes() {
					rows = append(rows, codeRow{condition, int(code)})
				}
			}
			sort.Slice(rows, func(i, j int) bool { return rows[i].code < rows[j].code })

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CODE\tCONDITION")
			for _, r := range rows {
				fmt.Fprintf(w, "%d\t%s\n", r.code, r.condition)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&validation, "validation", false, "List validation codes instead of error codes")
	return cmd
}

// errorTypeFor classifies a registry code for events reported from the CLI.
func errorTypeFor(code analytics.ErrorCode) analytics.ErrorType {
	switch {
	case code == analytics.CodeEncryptionError:
		return analytics.ErrorTypeInternal
	case code == analytics.CodeThirdPartyError:
		return analytics.ErrorTypeThirdParty
	case code >= 600 && code < 610:
		return analytics.ErrorTypeRedirect
	case code >= 620 && code < 700:
		return analytics.ErrorTypeAPI
	case code >= 700 && code < 800:
		return analytics.ErrorTypeThreeDS2
	default:
		return analytics.ErrorTypeGeneric
	}
}
