package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/strongdm/checkout-actions/pkg/actions"
	"github.com/strongdm/checkout-actions/pkg/threeds2"
)

type actionSummary struct {
	Type              actions.Type `json:"type"`
	Step              string       `json:"step"`
	PaymentData       string       `json:"paymentData,omitempty"`
	PaymentMethodType string       `json:"paymentMethodType,omitempty"`
	URL               string       `json:"url,omitempty"`
	Method            string       `json:"method,omitempty"`
	Native            bool         `json:"native,omitempty"`
	Token             any          `json:"token,omitempty"`
	TokenError        string       `json:"tokenError,omitempty"`
}

func newDecodeActionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "decode-action [file]",
		Short: "Decode an action JSON document and print its protocol step",
		Long: `Decode an action from file, or from stdin when no file or "-" is given,
and print a JSON summary. 3DS2 tokens are decoded as well.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			action, err := actions.Decode(data)
			if err != nil {
				return err
			}
			a.logger.WithField("type", action.Type).Debug("decoded action")
			return writeJSON(cmd.OutOrStdout(), summarize(action))
		},
	}
}

func summarize(action actions.Action) actionSummary {
	s := actionSummary{
		Type:        action.Type,
		Step:        action.Step().String(),
		PaymentData: action.PaymentData(),
	}

	var (
		token any
		err   error
	)
	switch {
	case action.Redirect != nil:
		r := action.Redirect
		s.URL = r.URL().String()
		s.Method = r.Method()
		s.Native = r.IsNative()
		s.PaymentMethodType = r.PaymentMethodType()
	case action.ThreeDS2 != nil:
		s.PaymentMethodType = action.ThreeDS2.PaymentMethodType
		if action.Step() == actions.StepChallenge {
			token, err = threeds2.DecodeChallengeToken(action.ThreeDS2.Token)
		} else {
			token, err = threeds2.DecodeFingerprintToken(action.ThreeDS2.Token)
		}
	case action.ThreeDS2Fingerprint != nil:
		s.PaymentMethodType = action.ThreeDS2Fingerprint.PaymentMethodType
		token, err = threeds2.DecodeFingerprintToken(action.ThreeDS2Fingerprint.FingerprintToken)
	case action.ThreeDS2Challenge != nil:
		s.PaymentMethodType = action.ThreeDS2Challenge.PaymentMethodType
		token, err = threeds2.DecodeChallengeToken(action.ThreeDS2Challenge.ChallengeToken)
	case action.Await != nil:
		s.PaymentMethodType = action.Await.PaymentMethodType
	case action.SDK != nil:
		s.PaymentMethodType = action.SDK.PaymentMethodType
	}
	if err != nil {
		s.TokenError = err.Error()
	} else {
		s.Token = token
	}
	return s
}

func newRedirectDetailsCmd(a *app) *cobra.Command {
	var paymentData string
	cmd := &cobra.Command{
		Use:   "redirect-details <return-url>",
		Short: "Extract the additional details from a redirect return URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			details, err := actions.ExtractRedirectDetails(args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), actions.ActionComponentData{
				Details:     details,
				PaymentData: paymentData,
			})
		},
	}
	cmd.Flags().StringVar(&paymentData, "payment-data", "", "Payment data of the redirect action")
	return cmd
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return data, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
