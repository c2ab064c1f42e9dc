// ABOUTME: Customer commands for subscriptions, deliveries and payments
// ABOUTME: Lifecycle transitions are requested from the backend, never applied locally

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dangquan18/subme/internal/render"
	"github.com/dangquan18/subme/models"
)

var (
	subPackageID     string
	subPaymentMethod string
	subAddress       string
	subAutoRenew     bool

	updAutoRenew bool
	updAddress   string

	payPackageID      string
	paySubscriptionID string
	payAmount         float64
	payMethod         string
)

var subscriptionsCmd = &cobra.Command{
	Use:     "subscriptions",
	Aliases: []string{"subs"},
	Short:   "Manage your subscriptions",
}

var subscriptionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your subscriptions",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		execute(func(ctx context.Context) int { return runSubscriptionsList(ctx, os.Stdout) })
	},
}

var subscriptionsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Subscribe to a plan",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		execute(func(ctx context.Context) int {
			return runSubscriptionsCreate(ctx, os.Stdout, models.SubscriptionInput{
				PackageID:       models.ID(subPackageID),
				PaymentMethod:   subPaymentMethod,
				DeliveryAddress: subAddress,
				AutoRenew:       subAutoRenew,
			})
		})
	},
}

var subscriptionsUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change auto-renew or the delivery address",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		execute(func(ctx context.Context) int {
			upd := models.SubscriptionUpdate{}
			if cmd.Flags().Changed("auto-renew") {
				upd.AutoRenew = &updAutoRenew
			}
			if cmd.Flags().Changed("address") {
				upd.DeliveryAddress = &updAddress
			}
			return runSubscriptionsUpdate(ctx, os.Stdout, models.ID(args[0]), upd)
		})
	},
}

// lifecycleCmd builds cancel, pause, resume and renew
func lifecycleCmd(verb, short string) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			execute(func(ctx context.Context) int {
				return runSubscriptionAction(ctx, os.Stdout, verb, models.ID(args[0]))
			})
		},
	}
}

var subscriptionsDeliveriesCmd = &cobra.Command{
	Use:   "deliveries <id>",
	Short: "Show the delivery schedule of a subscription",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		execute(func(ctx context.Context) int { return runDeliveries(ctx, os.Stdout, models.ID(args[0])) })
	},
}

var paymentsCmd = &cobra.Command{
	Use:   "payments",
	Short: "Pay for plans and view payment history",
}

var paymentsPayCmd = &cobra.Command{
	Use:   "pay",
	Short: "Pay for a plan or renew a subscription",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		execute(func(ctx context.Context) int {
			return runPay(ctx, os.Stdout, models.PaymentRequest{
				PackageID:      models.ID(payPackageID),
				SubscriptionID: models.ID(paySubscriptionID),
				Amount:         payAmount,
				Method:         payMethod,
			})
		})
	},
}

var paymentsHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List your payments",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		execute(func(ctx context.Context) int { return runPaymentsHistory(ctx, os.Stdout) })
	},
}

func init() {
	subscriptionsCreateCmd.Flags().StringVar(&subPackageID, "package", "", "Plan ID (required)")
	subscriptionsCreateCmd.Flags().StringVar(&subPaymentMethod, "payment-method", "", "Payment method, for example card or momo")
	subscriptionsCreateCmd.Flags().StringVar(&subAddress, "address", "", "Delivery address")
	subscriptionsCreateCmd.Flags().BoolVar(&subAutoRenew, "auto-renew", true, "Renew automatically at the end of each period")

	subscriptionsUpdateCmd.Flags().BoolVar(&updAutoRenew, "auto-renew", true, "Renew automatically")
	subscriptionsUpdateCmd.Flags().StringVar(&updAddress, "address", "", "Delivery address")

	subscriptionsCmd.AddCommand(
		subscriptionsListCmd,
		subscriptionsCreateCmd,
		subscriptionsUpdateCmd,
		lifecycleCmd("cancel", "Cancel a subscription"),
		lifecycleCmd("pause", "Pause deliveries"),
		lifecycleCmd("resume", "Resume a paused subscription"),
		lifecycleCmd("renew", "Renew an expiring subscription"),
		subscriptionsDeliveriesCmd,
	)

	paymentsPayCmd.Flags().StringVar(&payPackageID, "package", "", "Plan ID")
	paymentsPayCmd.Flags().StringVar(&paySubscriptionID, "subscription", "", "Subscription ID")
	paymentsPayCmd.Flags().Float64Var(&payAmount, "amount", 0, "Amount to pay (required)")
	paymentsPayCmd.Flags().StringVar(&payMethod, "method", "card", "Payment method")
	paymentsCmd.AddCommand(paymentsPayCmd, paymentsHistoryCmd)

	rootCmd.AddCommand(subscriptionsCmd, paymentsCmd)
}

func runSubscriptionsList(ctx context.Context, w io.Writer) int {
	a, code := openApp(ctx, w)
	if a == nil {
		return code
	}
	defer a.Close()

	if _, code := requireRole(w, a, models.RoleUser); code != exitOK {
		return code
	}
	subs, err := a.API.Subscriptions.List(ctx)
	if err != nil {
		return fail(w, err)
	}
	return output(w, subs, func() string { return formatSubscriptionsHuman(subs) })
}

func runSubscriptionsCreate(ctx context.Context, w io.Writer, in models.SubscriptionInput) int {
	if in.PackageID == "" {
		fmt.Fprintln(w, "Error: --package is required")
		return exitError
	}

	a, code := openApp(ctx, w)
	if a == nil {
		return code
	}
	defer a.Close()

	if _, code := requireRole(w, a, models.RoleUser); code != exitOK {
		return code
	}
	sub, err := a.API.Subscriptions.Create(ctx, in)
	if err != nil {
		return fail(w, err)
	}
	return output(w, sub, func() string {
		return render.SuccessStyle.Render(render.CheckOK.String()+" Subscribed") + "\n\n" + formatSubscription(sub)
	})
}

func runSubscriptionsUpdate(ctx context.Context, w io.Writer, id models.ID, upd models.SubscriptionUpdate) int {
	if upd.AutoRenew == nil && upd.DeliveryAddress == nil {
		fmt.Fprintln(w, "Error: nothing to update; pass --auto-renew or --address")
		return exitError
	}

	a, code := openApp(ctx, w)
	if a == nil {
		return code
	}
	defer a.Close()

	if _, code := requireRole(w, a, models.RoleUser); code != exitOK {
		return code
	}
	sub, err := a.API.Subscriptions.Update(ctx, id, upd)
	if err != nil {
		return fail(w, err)
	}
	return output(w, sub, func() string {
		return render.SuccessStyle.Render(render.CheckOK.String()+" Subscription updated") + "\n\n" + formatSubscription(sub)
	})
}

// actionResult is the JSON shape of lifecycle actions
type actionResult struct {
	ID           models.ID            `json:"id"`
	Action       string               `json:"action"`
	Subscription *models.Subscription `json:"subscription,omitempty"`
}

func runSubscriptionAction(ctx context.Context, w io.Writer, verb string, id models.ID) int {
	a, code := openApp(ctx, w)
	if a == nil {
		return code
	}
	defer a.Close()

	if _, code := requireRole(w, a, models.RoleUser); code != exitOK {
		return code
	}

	subs := a.API.Subscriptions
	var (
		sub *models.Subscription
		err error
	)
	switch verb {
	case "cancel":
		err = subs.Cancel(ctx, id)
	case "pause":
		sub, err = subs.Pause(ctx, id)
	case "resume":
		sub, err = subs.Resume(ctx, id)
	case "renew":
		sub, err = subs.Renew(ctx, id)
	default:
		fmt.Fprintf(w, "Error: unknown action %q\n", verb)
		return exitError
	}
	if err != nil {
		return fail(w, err)
	}

	result := actionResult{ID: id, Action: verb, Subscription: sub}
	return output(w, result, func() string {
		msg := render.SuccessStyle.Render(fmt.Sprintf("%s Subscription %s: %s requested", render.CheckOK, id, verb))
		if sub != nil {
			msg += "\n\n" + formatSubscription(sub)
		}
		return msg
	})
}

func runDeliveries(ctx context.Context, w io.Writer, id models.ID) int {
	a, code := openApp(ctx, w)
	if a == nil {
		return code
	}
	defer a.Close()

	if _, code := requireRole(w, a, models.RoleUser); code != exitOK {
		return code
	}
	deliveries, err := a.API.Deliveries.ForSubscription(ctx, id)
	if err != nil {
		return fail(w, err)
	}
	return output(w, deliveries, func() string { return formatDeliveriesHuman(deliveries) })
}

func runPay(ctx context.Context, w io.Writer, req models.PaymentRequest) int {
	if req.PackageID == "" && req.SubscriptionID == "" {
		fmt.Fprintln(w, "Error: pass --package or --subscription")
		return exitError
	}
	if req.Amount <= 0 {
		fmt.Fprintln(w, "Error: --amount must be greater than 0")
		return exitError
	}

	a, code := openApp(ctx, w)
	if a == nil {
		return code
	}
	defer a.Close()

	if _, code := requireRole(w, a, models.RoleUser); code != exitOK {
		return code
	}
	res, err := a.API.Payments.Process(ctx, req)
	if err != nil {
		return fail(w, err)
	}
	code = output(w, res, func() string { return formatPaymentResult(res) })
	if code == exitOK && !res.Success && res.PaymentURL == "" {
		return exitRejected
	}
	return code
}

func runPaymentsHistory(ctx context.Context, w io.Writer) int {
	a, code := openApp(ctx, w)
	if a == nil {
		return code
	}
	defer a.Close()

	if _, code := requireRole(w, a, models.RoleUser); code != exitOK {
		return code
	}
	payments, err := a.API.Payments.History(ctx)
	if err != nil {
		return fail(w, err)
	}
	return output(w, payments, func() string { return formatPaymentsHuman(payments) })
}

func formatSubscriptionsHuman(subs []models.Subscription) string {
	if len(subs) == 0 {
		return render.Empty("subscriptions")
	}
	rows := make([][]string, 0, len(subs))
	for _, s := range subs {
		rows = append(rows, []string{
			s.ID.String(),
			render.Truncate(planName(s), 30),
			render.StatusBadge(string(s.Status)),
			render.Date(s.StartDate),
			render.Date(s.EndDate),
			render.Date(s.NextDeliveryDate),
			yesNo(s.AutoRenew),
		})
	}
	return render.Table([]string{"ID", "PLAN", "STATUS", "START", "END", "NEXT DELIVERY", "AUTO-RENEW"}, rows)
}

func formatSubscription(s *models.Subscription) string {
	return render.Fields(
		render.Field{Label: "ID", Value: s.ID.String()},
		render.Field{Label: "Plan", Value: planName(*s)},
		render.Field{Label: "Status", Value: render.StatusBadge(string(s.Status))},
		render.Field{Label: "Start", Value: render.Date(s.StartDate)},
		render.Field{Label: "End", Value: render.Date(s.EndDate)},
		render.Field{Label: "Next delivery", Value: render.Date(s.NextDeliveryDate)},
		render.Field{Label: "Auto-renew", Value: yesNo(s.AutoRenew)},
		render.Field{Label: "Address", Value: render.Plain(s.DeliveryAddress)},
	)
}

func formatDeliveriesHuman(deliveries []models.Delivery) string {
	if len(deliveries) == 0 {
		return render.Empty("deliveries")
	}
	rows := make([][]string, 0, len(deliveries))
	for _, d := range deliveries {
		rows = append(rows, []string{
			d.ID.String(),
			render.StatusBadge(d.Status),
			render.Date(d.ScheduledDate),
			render.Date(d.DeliveredAt),
			d.TrackingNumber,
			render.Truncate(render.Plain(d.Note), 40),
		})
	}
	return render.Table([]string{"ID", "STATUS", "SCHEDULED", "DELIVERED", "TRACKING", "NOTE"}, rows)
}

func formatPaymentResult(res *models.PaymentResult) string {
	var b strings.Builder
	switch {
	case res.PaymentURL != "":
		b.WriteString(render.StatusText("Complete the payment in your browser:", render.StatusInfo))
		b.WriteString("\n  ")
		b.WriteString(res.PaymentURL)
	case res.Success:
		b.WriteString(render.SuccessStyle.Render(render.Payment.String() + " Payment successful"))
	default:
		b.WriteString(render.ErrorStyle.Render(render.Critical.String() + " Payment was not accepted"))
	}
	if msg := render.Plain(res.Message); msg != "" {
		b.WriteString("\n")
		b.WriteString(msg)
	}
	if p := res.Payment; p != nil {
		b.WriteString("\n\n")
		b.WriteString(render.Fields(
			render.Field{Label: "Payment", Value: p.ID.String()},
			render.Field{Label: "Amount", Value: render.Money(p.Amount)},
			render.Field{Label: "Status", Value: statusOrEmpty(p.Status)},
			render.Field{Label: "Transaction", Value: p.TransactionID},
		))
	}
	return b.String()
}

func formatPaymentsHuman(payments []models.Payment) string {
	if len(payments) == 0 {
		return render.Empty("payments")
	}
	rows := make([][]string, 0, len(payments))
	var total float64
	for _, p := range payments {
		rows = append(rows, []string{
			p.ID.String(),
			p.SubscriptionID.String(),
			render.Money(p.Amount),
			p.Method,
			render.StatusBadge(p.Status),
			render.Date(firstNonEmpty(p.PaidAt, p.CreatedAt)),
		})
		if render.LevelFor(p.Status) == render.StatusOK {
			total += p.Amount
		}
	}
	return render.Table([]string{"ID", "SUBSCRIPTION", "AMOUNT", "METHOD", "STATUS", "DATE"}, rows) +
		"\n" + render.Fields(render.Field{Label: "Total paid", Value: render.Money(total)})
}

func planName(s models.Subscription) string {
	if s.Package != nil && s.Package.Name != "" {
		return render.Plain(s.Package.Name)
	}
	return "#" + s.PackageID.String()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
