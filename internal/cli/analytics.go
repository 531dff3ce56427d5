package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/strongdm/checkout-actions/pkg/analytics"
)

type handshakeOptions struct {
	dropIn         bool
	component      string
	paymentMethods []string
	amount         int64
	currency       string
	sessionID      string
	timeout        time.Duration
}

func (o *handshakeOptions) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.dropIn, "dropin", false, "Report the Drop-In flavor instead of a single component")
	cmd.Flags().StringVar(&o.component, "component", "scheme", "Component type for the components flavor")
	cmd.Flags().StringSliceVar(&o.paymentMethods, "payment-methods", nil, "Payment methods shown by Drop-In")
	cmd.Flags().Int64Var(&o.amount, "amount", 0, "Amount in minor units")
	cmd.Flags().StringVar(&o.currency, "currency", "", "ISO currency code of the amount")
	cmd.Flags().StringVar(&o.sessionID, "session-id", "", "Checkout session id")
	cmd.Flags().DurationVar(&o.timeout, "handshake-timeout", 10*time.Second, "How long to wait for the handshake")
}

func (o *handshakeOptions) flavor() analytics.Flavor {
	if o.dropIn {
		return analytics.DropIn(o.paymentMethods...)
	}
	return analytics.Components(o.component)
}

func (o *handshakeOptions) fields() *analytics.AdditionalFields {
	fields := &analytics.AdditionalFields{SessionID: o.sessionID}
	if o.currency != "" {
		fields.Amount = &analytics.Amount{Value: o.amount, Currency: o.currency}
	}
	return fields
}

// handshake runs the initial analytics call and waits for it.
func (o *handshakeOptions) handshake(ctx context.Context, p *analytics.Provider) error {
	select {
	case <-p.SendInitialAnalytics(ctx, o.flavor(), o.fields()):
		return nil
	case <-time.After(o.timeout):
		return fmt.Errorf("initial analytics did not complete within %s", o.timeout)
	}
}

func newInitialAnalyticsCmd(a *app) *cobra.Command {
	var (
		opts            handshakeOptions
		errorConditions []string
	)
	cmd := &cobra.Command{
		Use:   "initial-analytics",
		Short: "Establish a checkout attempt id and optionally report error events",
		Long: `Send the initial analytics request and print the checkout attempt id.
Each --error names a registry condition (see "checkoutctl codes") that is
reported as an error event tagged with the new id.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conditions := make([]analytics.ErrorCode, 0, len(errorConditions))
			for _, condition := range errorConditions {
				code, ok := analytics.LookupErrorCode(condition)
				if !ok {
					return fmt.Errorf("unknown error condition %q", condition)
				}
				conditions = append(conditions, code)
			}

			c, err := a.clients()
			if err != nil {
				return err
			}
			p, err := a.provider(c)
			if err != nil {
				return err
			}

			if err := opts.handshake(cmd.Context(), p); err != nil {
				return err
			}
			for _, code := range conditions {
				p.AddError(analytics.NewErrorEvent(opts.flavor().Component(), errorTypeFor(code)).WithCode(code))
			}

			fmt.Fprintln(cmd.OutOrStdout(), p.Session().IDForPayment())
			if _, ok := p.CheckoutAttemptID(); !ok {
				a.logger.Warn("no checkout attempt id; events stay buffered")
			}
			return nil
		},
	}
	opts.register(cmd)
	cmd.Flags().StringSliceVar(&errorConditions, "error", nil, "Error condition to report after the handshake (repeatable)")
	return cmd
}
