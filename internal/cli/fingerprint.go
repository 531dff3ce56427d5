package cli

import (
	"github.com/spf13/cobra"

	"github.com/strongdm/checkout-actions/pkg/threeds2"
)

func newSubmitFingerprintCmd(a *app) *cobra.Command {
	var (
		opts        handshakeOptions
		fingerprint string
		paymentData string
		skipInitial bool
	)
	cmd := &cobra.Command{
		Use:   "submit-fingerprint",
		Short: "Submit a 3DS2 fingerprint result and print the next step",
		Long: `Submit an encoded fingerprint result to the 3DS2 fingerprint endpoint and
print the returned action or completed details. Failures are reported to
analytics under the checkout attempt established first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.clients()
			if err != nil {
				return err
			}
			p, err := a.provider(c)
			if err != nil {
				return err
			}
			if !skipInitial {
				if err := opts.handshake(cmd.Context(), p); err != nil {
					return err
				}
			}

			submitter := threeds2.NewFingerprintSubmitter(c.checkout, a.cfg.API.ClientKey, p)
			result, err := submitter.Submit(cmd.Context(), fingerprint, paymentData)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVar(&fingerprint, "fingerprint", "", "Base64 fingerprint result")
	cmd.Flags().StringVar(&paymentData, "payment-data", "", "Payment data of the fingerprint action")
	cmd.Flags().BoolVar(&skipInitial, "skip-initial", false, "Do not send the initial analytics request first")
	_ = cmd.MarkFlagRequired("fingerprint")
	return cmd
}
