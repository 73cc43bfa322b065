package cli

import (
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"shopping-assistant/internal/output"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List chats grouped into 오늘, 어제 and 이전 기록",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := restore(cmd)
		if err != nil {
			return err
		}
		if _, err := state.Conversation.LoadChatLogs(cmd.Context()); err != nil {
			return err
		}
		groups := state.Conversation.Grouped()
		if jsonFlag(cmd) {
			return writeJSON(cmd.OutOrStdout(), groups.Ordered())
		}
		return output.RenderHistory(app.Printer, groups)
	},
}

var homeCmd = &cobra.Command{
	Use:   "home",
	Short: "Show the chat history and carts side by side",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := restore(cmd)
		if err != nil {
			return err
		}

		g, ctx := errgroup.WithContext(cmd.Context())
		g.Go(func() error {
			_, err := state.Conversation.LoadChatLogs(ctx)
			return err
		})
		g.Go(func() error {
			_, err := state.Carts.LoadCarts(ctx)
			return err
		})
		if err := g.Wait(); err != nil {
			return err
		}

		p := app.Printer
		p.Header("대화 기록")
		if err := output.RenderHistory(p, state.Conversation.Grouped()); err != nil {
			return err
		}
		p.Header("장바구니")
		if err := output.RenderCarts(p, state.Carts.Carts()); err != nil {
			return err
		}
		p.Print("")
		p.Print("%s", p.Dim("무엇을 찾고 계신가요? `shopctl chat` 으로 대화를 시작하세요."))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd, homeCmd)
	historyCmd.Flags().Bool("json", false, "output as JSON")
}
