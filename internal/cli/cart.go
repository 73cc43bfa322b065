package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"shopping-assistant/internal/output"
)

var cartCmd = &cobra.Command{
	Use:     "cart",
	Aliases: []string{"carts", "collection"},
	Short:   "Manage carts",
}

var cartListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List carts",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := restore(cmd)
		if err != nil {
			return err
		}
		carts, err := state.Carts.LoadCarts(cmd.Context())
		if err != nil {
			return err
		}
		if jsonFlag(cmd) {
			return writeJSON(cmd.OutOrStdout(), carts)
		}
		return output.RenderCarts(app.Printer, carts)
	},
}

var cartCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a cart",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := restore(cmd)
		if err != nil {
			return err
		}
		cart, err := state.Carts.CreateCart(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		app.Printer.Success("장바구니 %q 를 만들었습니다 (#%s).", cart.CollectionTitle, cart.CollectionID)
		return nil
	},
}

var cartShowCmd = &cobra.Command{
	Use:   "show <cart-id>",
	Short: "Show the items of a cart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := restore(cmd)
		if err != nil {
			return err
		}
		cart, err := state.Carts.LoadCart(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonFlag(cmd) {
			return writeJSON(cmd.OutOrStdout(), cart)
		}
		return output.RenderCart(app.Printer, cart)
	},
}

var cartAddCmd = &cobra.Command{
	Use:   "add <cart-id|cart-title> <product-id>",
	Short: "Add a recommended product to a cart",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := restore(cmd)
		if err != nil {
			return err
		}
		if _, err := state.Carts.LoadCarts(cmd.Context()); err != nil {
			return err
		}
		cartID := state.Carts.ResolveCartID(args[0])
		if _, err := state.Carts.AddToCart(cmd.Context(), cartID, args[1]); err != nil {
			return err
		}
		app.Printer.Success("상품 %s 을(를) 장바구니 #%s 에 담았습니다.", args[1], cartID)
		return nil
	},
}

var cartRemoveCmd = &cobra.Command{
	Use:   "remove <cart-id> <item-id>",
	Short: "Remove an item from a cart",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := restore(cmd)
		if err != nil {
			return err
		}
		if _, err := state.Carts.RemoveFromCart(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		app.Printer.Success("항목 %s 을(를) 삭제했습니다.", args[1])
		return nil
	},
}

var cartDeleteCmd = &cobra.Command{
	Use:   "delete <cart-id>",
	Short: "Delete a cart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := restore(cmd)
		if err != nil {
			return err
		}
		if _, err := state.Carts.DeleteCart(cmd.Context(), args[0]); err != nil {
			return err
		}
		app.Printer.Success("장바구니 #%s 를 삭제했습니다.", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cartCmd)
	cartCmd.AddCommand(cartListCmd, cartCreateCmd, cartShowCmd, cartAddCmd, cartRemoveCmd, cartDeleteCmd)

	cartListCmd.Flags().Bool("json", false, "output as JSON")
	cartShowCmd.Flags().Bool("json", false, "output as JSON")
}
