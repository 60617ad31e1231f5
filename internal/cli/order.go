package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"lunchreports/internal/services"
)

func newOrderCmd(opts *rootOptions) *cobra.Command {
	var req services.OrderRequest

	add := &cobra.Command{
		Use:   "add",
		Short: "Record a lunch order for a student or a teacher",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cleanup, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			order, err := services.NewOrderService(store, appLogger()).PlaceOrder(cmd.Context(), req)
			if err != nil {
				return err
			}
			customer := req.Student
			if customer == "" {
				customer = req.Teacher
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Ordered %d x %s for %s (order %d)\n", order.Quantity, req.Item, customer, order.ID)
			return nil
		},
	}
	flags := add.Flags()
	flags.StringVar(&req.Item, "item", "", "lunch item name")
	flags.StringVar(&req.Student, "student", "", "student placing the order")
	flags.StringVar(&req.Teacher, "teacher", "", "teacher placing the order")
	flags.IntVar(&req.Quantity, "quantity", 1, "quantity ordered")
	_ = add.MarkFlagRequired("item")
	add.MarkFlagsMutuallyExclusive("student", "teacher")
	add.MarkFlagsOneRequired("student", "teacher")

	cmd := &cobra.Command{
		Use:   "order",
		Short: "Manage lunch orders",
	}
	cmd.AddCommand(add)
	return cmd
}
