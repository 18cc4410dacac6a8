package execution

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"contract-agent/internal/agent"
	"contract-agent/internal/logger"
	"contract-agent/internal/state"
	"contract-agent/internal/ui"

	"github.com/dustin/go-humanize"
)

// PurchaseResult 对应确认购买后客户端需要的两块界面。
type PurchaseResult struct {
	Purchasing *ui.Node `json:"purchasing"`
	NewMessage ui.Entry `json:"newMessage"`
}

// ConfirmPurchase 推送购买进度，然后提交一条仅供模型参考的 system 消息。
func (e *Engine) ConfirmPurchase(ctx context.Context, turn *state.Turn, symbol string, price float64, amount int, render func(ui.Frame)) (PurchaseResult, error) {
	if render == nil {
		render = func(ui.Frame) {}
	}
	if amount <= 0 {
		return PurchaseResult{}, fmt.Errorf("invalid amount %d", amount)
	}
	if symbol == "" {
		return PurchaseResult{}, fmt.Errorf("missing symbol")
	}

	render(ui.NodeFrame(purchasingNode(fmt.Sprintf("Purchasing %d $%s...", amount, symbol))))
	e.pause(ctx)
	render(ui.NodeFrame(purchasingNode(fmt.Sprintf("Purchasing %d $%s... working on it...", amount, symbol))))
	e.pause(ctx)

	total := float64(amount) * price
	done := ui.Card(ui.VariantPurchase, nil)
	done.Text = fmt.Sprintf("You have successfully purchased %d $%s. Total cost: %s", amount, symbol, formatUSD(total))
	render(ui.NodeFrame(done))

	next := turn.Get().Append(agent.Message{
		ID:   agent.NewID(),
		Role: agent.RoleSystem,
		Content: fmt.Sprintf("[User has purchased %d shares of %s at %s. Total cost = %s]",
			amount, symbol, jsNumber(price), jsNumber(total)),
	})
	if err := turn.Done(next); err != nil {
		return PurchaseResult{}, stageError{Stage: "commit", Err: err}
	}

	log.WithFields(logger.Fields{"symbol": symbol, "amount": amount, "chat_id": next.ChatID}).Info("purchase recorded")
	return PurchaseResult{
		Purchasing: done,
		NewMessage: ui.Entry{
			ID: agent.NewID(),
			Display: ui.SystemMessage(fmt.Sprintf("You have purchased %d shares of %s at $%s. Total cost = %s.",
				amount, symbol, jsNumber(price), formatUSD(total))),
		},
	}, nil
}

// pause 是固定的模拟延迟，与 entry 工具一致不响应取消。
func (e *Engine) pause(_ context.Context) {
	if e.purchaseDelay > 0 {
		time.Sleep(e.purchaseDelay)
	}
}

func purchasingNode(text string) *ui.Node {
	return ui.Fragment(ui.Spinner(), &ui.Node{Type: ui.NodeSystemMessage, Text: text})
}

func formatUSD(v float64) string {
	return "$" + humanize.FormatFloat("#,###.##", v)
}

func jsNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
