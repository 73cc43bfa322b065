package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"shopping-assistant/internal/common/config"
	"shopping-assistant/internal/common/errors"
	"shopping-assistant/internal/features/chat/conversation"
	"shopping-assistant/internal/output"
	"shopping-assistant/internal/session"
)

// Suggestions offered on an empty chat.
var Suggestions = []string{"패션 상품 추천", "가전 제품 찾기", "식품 장바구니", "할인 상품 보기"}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the shopping assistant",
	Long: `Start an interactive chat. Type a message and press enter.

Commands inside the chat:
  /new                     start a new chat
  /open <chat-id>          continue an earlier chat
  /history                 list earlier chats
  /carts                   list carts
  /add <cart> <product>    add a product to a cart, by cart id or title
  /quit                    leave`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

var chatSendCmd = &cobra.Command{
	Use:   "send <message>",
	Short: "Send one message and print the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runChatSend,
}

var chatShowCmd = &cobra.Command{
	Use:   "show <chat-id>",
	Short: "Print every turn of a chat",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := restore(cmd)
		if err != nil {
			return err
		}
		messages, err := state.Conversation.LoadChat(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if jsonFlag(cmd) {
			return writeJSON(cmd.OutOrStdout(), messages)
		}
		return newRenderer(false).RenderAll(cmd.Context(), messages)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.AddCommand(chatSendCmd, chatShowCmd)

	chatCmd.Flags().Bool("no-typing", false, "print answers at once")
	chatSendCmd.Flags().String("chat", "", "continue the chat with this id")
	chatSendCmd.Flags().Bool("no-typing", false, "print the answer at once")
	chatShowCmd.Flags().Bool("json", false, "output as JSON")
}

func typingEnabled(cmd *cobra.Command) bool {
	noTyping, _ := cmd.Flags().GetBool("no-typing")
	return app.Config.Chat.TypingEnabled && !noTyping
}

func newRenderer(typing bool) *output.ChatRenderer {
	var typer *output.Typer
	if typing {
		typer = output.NewTyper(app.Printer.Out(), config.GetDuration(app.Config.Chat.TypingDelay))
	}
	return output.NewChatRenderer(app.Printer, typer)
}

// sendAndRender sends input and prints the reply, holding back the product
// list until the assistant text has been typed out.
func sendAndRender(ctx context.Context, conv *conversation.Conversation, input string, typing, echo bool) error {
	result, err := conv.Send(ctx, input, typing)
	if err != nil {
		return err
	}
	if result.Discarded {
		return nil
	}

	renderer := newRenderer(typing)
	for i, msg := range result.Emission.Immediate {
		if i == 0 && !echo {
			continue
		}
		if err := renderer.Render(ctx, msg); err != nil {
			return err
		}
	}

	if result.Emission.HasDeferred() {
		if !conv.CompleteTyping(result) {
			return nil
		}
		for _, msg := range result.Deferred {
			if err := renderer.Render(ctx, msg); err != nil {
				return err
			}
		}
	}
	return nil
}

func runChatSend(cmd *cobra.Command, args []string) error {
	state, err := restore(cmd)
	if err != nil {
		return err
	}
	if chatID, _ := cmd.Flags().GetString("chat"); chatID != "" {
		if _, err := state.Conversation.LoadChat(cmd.Context(), chatID); err != nil {
			return err
		}
	}

	if err := sendAndRender(cmd.Context(), state.Conversation, strings.Join(args, " "), typingEnabled(cmd), true); err != nil {
		return err
	}
	app.Printer.Print("%s", app.Printer.Dim("chat id: "+state.Conversation.CurrentChatID()))
	return nil
}

func runChat(cmd *cobra.Command, args []string) error {
	state, err := restore(cmd)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	p := app.Printer
	typing := typingEnabled(cmd)

	printWelcome(p)

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(p.Out(), p.Bold("> "))
		if !scanner.Scan() {
			fmt.Fprintln(p.Out())
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := runSlashCommand(ctx, state, line)
			if err != nil {
				reportInline(err)
			}
			if quit {
				return nil
			}
			continue
		}

		if n, ok := suggestionIndex(line); ok && len(state.Conversation.Messages()) == 0 {
			line = Suggestions[n]
		}
		if err := sendAndRender(ctx, state.Conversation, line, typing, false); err != nil {
			reportInline(err)
		}
	}
}

func printWelcome(p *output.Printer) {
	p.Header("쇼핑 어시스턴트")
	p.Print("무엇을 찾고 계신가요? 아래 예시 번호를 입력하거나 직접 질문해 보세요.")
	for i, s := range Suggestions {
		p.Print("  %d) %s", i+1, s)
	}
	p.Print("%s", p.Dim("/new, /open <id>, /history, /carts, /add <cart> <product>, /quit"))
}

func suggestionIndex(line string) (int, bool) {
	var n int
	if _, err := fmt.Sscanf(line, "%d", &n); err != nil || fmt.Sprint(n) != line {
		return 0, false
	}
	if n < 1 || n > len(Suggestions) {
		return 0, false
	}
	return n - 1, true
}

func reportInline(err error) {
	stdErr := errors.As(err)
	app.Logger.Warn("chat command failed", map[string]interface{}{"errorCode": string(stdErr.Code)})
	app.Printer.Error("%s", stdErr.Message)
	if stdErr.Details != "" {
		app.Printer.Print("%s", app.Printer.Dim("  "+stdErr.Details))
	}
}

// runSlashCommand executes one /command and reports whether the chat should end.
func runSlashCommand(ctx context.Context, state *session.State, line string) (bool, error) {
	fields := strings.Fields(line)
	p := app.Printer
	switch fields[0] {
	case "/quit", "/exit":
		return true, nil
	case "/new":
		state.Conversation.StartNewChat()
		p.Success("새 대화를 시작합니다.")
	case "/open":
		if len(fields) != 2 {
			return false, errors.NewInvalidInputError("command", "usage: /open <chat-id>")
		}
		messages, err := state.Conversation.LoadChat(ctx, fields[1])
		if err != nil {
			return false, err
		}
		return false, newRenderer(false).RenderAll(ctx, messages)
	case "/history":
		if _, err := state.Conversation.LoadChatLogs(ctx); err != nil {
			return false, err
		}
		return false, output.RenderHistory(p, state.Conversation.Grouped())
	case "/carts":
		carts, err := state.Carts.LoadCarts(ctx)
		if err != nil {
			return false, err
		}
		return false, output.RenderCarts(p, carts)
	case "/add":
		if len(fields) < 3 {
			return false, errors.NewInvalidInputError("command", "usage: /add <cart-id|cart-title> <product-id>")
		}
		cartRef := strings.Join(fields[1:len(fields)-1], " ")
		if len(state.Carts.Carts()) == 0 {
			if _, err := state.Carts.LoadCarts(ctx); err != nil {
				return false, err
			}
		}
		msg, err := state.Carts.AddToCart(ctx, state.Carts.ResolveCartID(cartRef), fields[len(fields)-1])
		if err != nil {
			return false, err
		}
		p.Success("장바구니에 담았습니다. %s", msg)
	default:
		return false, errors.NewInvalidInputError("command", fmt.Sprintf("unknown command %s", fields[0]))
	}
	return false, nil
}
