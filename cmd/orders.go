package cmd

import (
	"fmt"
	"os"
	"spx-premium-scanner/presenters"
	"spx-premium-scanner/services"
	"time"

	"github.com/spf13/cobra"
)

var ordersCmd = &cobra.Command{
	Use:       "orders [all|open|closed]",
	Short:     "List recorded orders",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"all", "open", "closed"},
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		raw := ""
		if len(args) == 1 {
			raw = args[0]
		}
		filter, err := services.ParseOrderFilter(raw)
		if err != nil {
			return usageError(cmd, err)
		}

		orders, summary, err := a.orders.List(filter)
		if err != nil {
			return err
		}
		presenters.RenderOrders(os.Stdout, orders, summary, filter)
		return nil
	}),
}

var recordOrderCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a PENDING short put",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		flags := cmd.Flags()
		strike, _ := flags.GetFloat64("strike")
		bid, _ := flags.GetFloat64("bid")
		rawExp, _ := flags.GetString("expiration")
		quantity, _ := flags.GetInt("quantity")
		source, _ := flags.GetString("source")

		expiration, err := time.Parse("2006-01-02", rawExp)
		if err != nil {
			return usageError(cmd, fmt.Errorf("%w: --expiration must be YYYY-MM-DD", services.ErrInvalidInput))
		}

		ticket, err := services.NewOrderTicket(a.cfg.Underlying, strike, bid, quantity, expiration)
		if err != nil {
			return usageError(cmd, err)
		}
		order, err := a.orders.Record(ticket, source)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, ticket.Preview())
		presenters.RenderOrder(os.Stdout, order)
		return nil
	}),
}

var orderStatusCmd = &cobra.Command{
	Use:   "status <id> <PENDING|OPEN|FILLED|CANCELLED>",
	Short: "Change an order's status",
	Args:  cobra.ExactArgs(2),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		status, err := services.ParseOrderStatus(args[1])
		if err != nil {
			return usageError(cmd, err)
		}
		order, err := a.orders.UpdateStatus(args[0], status)
		if err != nil {
			return err
		}
		presenters.RenderOrder(os.Stdout, order)
		return nil
	}),
}

func init() {
	f := recordOrderCmd.Flags()
	f.Float64("strike", 0, "Put strike")
	f.Float64("bid", 0, "Limit price (the bid)")
	f.String("expiration", "", "Expiration date YYYY-MM-DD")
	f.Int("quantity", 1, "Contracts")
	f.String("source", "manual", "Where the order came from")
	_ = recordOrderCmd.MarkFlagRequired("strike")
	_ = recordOrderCmd.MarkFlagRequired("bid")
	_ = recordOrderCmd.MarkFlagRequired("expiration")

	ordersCmd.AddCommand(recordOrderCmd, orderStatusCmd)
}
