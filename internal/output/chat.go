package output

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/samber/lo"

	historygrouper "shopping-assistant/internal/features/chat/history-grouper"
	"shopping-assistant/internal/models"
)

// Typer reveals text word by word.
type Typer struct {
	out   io.Writer
	delay time.Duration
}

func NewTyper(out io.Writer, delay time.Duration) *Typer {
	return &Typer{out: out, delay: delay}
}

// Type writes text one word at a time with delay between words. When ctx is
// cancelled the remaining text is written at once.
func (t *Typer) Type(ctx context.Context, text string) error {
	words := strings.SplitAfter(text, " ")
	for i, word := range words {
		if _, err := io.WriteString(t.out, word); err != nil {
			return err
		}
		if i == len(words)-1 || t.delay <= 0 {
			continue
		}
		select {
		case <-ctx.Done():
			_, err := io.WriteString(t.out, strings.Join(words[i+1:], ""))
			return err
		case <-time.After(t.delay):
		}
	}
	return nil
}

// ChatRenderer prints display messages.
type ChatRenderer struct {
	printer *Printer
	typer   *Typer
}

func NewChatRenderer(printer *Printer, typer *Typer) *ChatRenderer {
	return &ChatRenderer{printer: printer, typer: typer}
}

// Render prints one message. Assistant text flagged as typing is revealed
// through the typer.
func (r *ChatRenderer) Render(ctx context.Context, msg models.DisplayMessage) error {
	out := r.printer.Out()
	switch {
	case msg.Role == models.RoleUser:
		fmt.Fprintf(out, "%s %s\n", r.printer.Bold("나>"), msg.Content)
	case msg.IsStructured:
		return r.RenderStructured(msg)
	default:
		fmt.Fprintf(out, "%s ", r.printer.Accent("AI>"))
		if msg.IsTyping && r.typer != nil {
			if err := r.typer.Type(ctx, msg.Content); err != nil {
				return err
			}
			fmt.Fprintln(out)
		} else {
			fmt.Fprintln(out, msg.Content)
		}
	}
	return nil
}

// RenderAll prints a transcript without the typing effect.
func (r *ChatRenderer) RenderAll(ctx context.Context, messages []models.DisplayMessage) error {
	for _, msg := range messages {
		msg.IsTyping = false
		if err := r.Render(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

// RenderStructured prints products and recommendations rank by rank.
func (r *ChatRenderer) RenderStructured(msg models.DisplayMessage) error {
	ranks := msg.Ranks()
	if len(ranks) == 0 {
		r.printer.Print("%s", r.printer.Dim("  (추천 상품이 없습니다)"))
		return nil
	}
	for _, rank := range ranks {
		r.printer.Print("")
		r.printer.Print("  %s", r.printer.Bold(fmt.Sprintf("#%d", rank)))
		if text, ok := msg.RecommendByRank[rank]; ok && text != "" {
			r.printer.Print("  %s", text)
		}
		products := msg.ProductsByRank[rank]
		if len(products) == 0 {
			continue
		}
		table := NewTable(r.printer.Out(), []string{"ID", "PRODUCT", "PRICE", "LINK"})
		for _, p := range products {
			table.AddRow([]string{p.ProductID.String(), p.ProductName, formatPrice(p.ProductPrice), p.ProductLink})
		}
		if err := table.Render(); err != nil {
			return err
		}
	}
	return nil
}

func formatPrice(price models.StringOrNumber) string {
	n, ok := price.Int()
	if !ok {
		return price.String()
	}
	s := fmt.Sprintf("%d", n)
	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if negative {
		return "-" + b.String() + "원"
	}
	return b.String() + "원"
}

// RenderHistory prints the grouped chat list.
func RenderHistory(p *Printer, groups historygrouper.Groups) error {
	ordered := groups.Ordered()
	if len(ordered) == 0 {
		p.Print("%s", p.Dim("대화 기록이 없습니다."))
		return nil
	}
	for _, group := range ordered {
		p.Header(string(group.Label))
		table := NewTable(p.Out(), []string{"CHAT", "TITLE", "UPDATED"})
		for _, chat := range group.Chats {
			table.AddRow([]string{chat.ChatID.String(), lo.Ternary(chat.Title == "", "(제목 없음)", chat.Title), chat.UpdatedAt})
		}
		if err := table.Render(); err != nil {
			return err
		}
	}
	return nil
}

// RenderCarts prints the cart list.
func RenderCarts(p *Printer, carts []models.CartSummary) error {
	if len(carts) == 0 {
		p.Print("%s", p.Dim("장바구니가 없습니다."))
		return nil
	}
	table := NewTable(p.Out(), []string{"CART", "TITLE"})
	for _, c := range carts {
		table.AddRow([]string{c.CollectionID.String(), c.CollectionTitle})
	}
	return table.Render()
}

// RenderCart prints one cart and its items.
func RenderCart(p *Printer, cart *models.Cart) error {
	p.Header(fmt.Sprintf("%s (#%s)", cart.CollectionTitle, cart.CollectionID))
	if len(cart.Items) == 0 {
		p.Print("%s", p.Dim("담긴 상품이 없습니다."))
		return nil
	}
	table := NewTable(p.Out(), []string{"ITEM", "PRODUCT", "PRICE", "ADDED"})
	for _, item := range cart.Items {
		table.AddRow([]string{item.ItemID.String(), item.ProductName, formatPrice(item.ProductPrice), item.CreatedAt})
	}
	return table.Render()
}
