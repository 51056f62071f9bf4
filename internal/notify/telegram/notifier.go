package telegram

import (
	"context"
	"errors"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/oshokin/zone-intrusion/internal/domain/verdict"
	"github.com/oshokin/zone-intrusion/internal/logger"
)

// QueueSize is the number of pending messages before new ones are dropped.
const QueueSize = 32

// Sender delivers a message. *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

var (
	// errTokenRequired is returned when no bot token is configured.
	errTokenRequired = errors.New("telegram token must be provided")
	// errChatRequired is returned when no chat is configured.
	errChatRequired = errors.New("telegram chat id must be provided")
)

// Notifier is a verdict sink that reports alarm edges to a chat.
// Messages are sent from a background goroutine so the frame loop never waits on the network.
type Notifier struct {
	// sender delivers messages to Telegram.
	sender Sender
	// chatID is the destination chat.
	chatID int64
	// queue holds messages waiting to be sent.
	queue chan string
	// done is closed when the sending goroutine exits.
	done chan struct{}

	// mu guards closed.
	mu sync.Mutex
	// closed is set once Close has run.
	closed bool
}

// New authorizes the bot and starts the notifier.
func New(ctx context.Context, token string, chatID int64) (*Notifier, error) {
	if token == "" {
		return nil, errTokenRequired
	}

	if chatID == 0 {
		return nil, errChatRequired
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("authorize telegram bot: %w", err)
	}

	logger.InfoKV(ctx, "Telegram bot authorized", "account", api.Self.UserName, "chat_id", chatID)

	return NewWithSender(ctx, api, chatID), nil
}

// NewWithSender starts a notifier that delivers through the given sender.
func NewWithSender(ctx context.Context, sender Sender, chatID int64) *Notifier {
	n := &Notifier{
		sender: sender,
		chatID: chatID,
		queue:  make(chan string, QueueSize),
		done:   make(chan struct{}),
	}

	go n.run(logger.WithName(context.WithoutCancel(ctx), "telegram"))

	return n
}

// Publish queues a message for every zone whose alarm was raised or cleared on this frame.
func (n *Notifier) Publish(ctx context.Context, frame *verdict.Frame) error {
	for i := range frame.Zones {
		z := &frame.Zones[i]

		switch {
		case z.Raised:
			n.enqueue(ctx, RaisedMessage(z))
		case z.Cleared:
			n.enqueue(ctx, ClearedMessage(z))
		}
	}

	return nil
}

// Close sends the queued messages and stops the notifier.
func (n *Notifier) Close() error {
	n.mu.Lock()

	if n.closed {
		n.mu.Unlock()

		return nil
	}

	n.closed = true
	close(n.queue)
	n.mu.Unlock()

	<-n.done

	return nil
}

// RaisedMessage is the text sent when a zone alarm is raised.
func RaisedMessage(z *verdict.Zone) string {
	return fmt.Sprintf("ALARM: intrusion in zone %s (intruders: %s)", z.Zone.Name(), z.Intruders)
}

// ClearedMessage is the text sent when a zone alarm clears.
func ClearedMessage(z *verdict.Zone) string {
	return "Alarm cleared in zone " + z.Zone.Name()
}

// enqueue offers the text to the sending goroutine, dropping it when the queue is full.
func (n *Notifier) enqueue(ctx context.Context, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return
	}

	select {
	case n.queue <- text:
	default:
		logger.WarnKV(ctx, "Telegram queue is full, message dropped", "text", text)
	}
}

// run sends queued messages until the queue is closed.
func (n *Notifier) run(ctx context.Context) {
	defer close(n.done)

	for text := range n.queue {
		if _, err := n.sender.Send(tgbotapi.NewMessage(n.chatID, text)); err != nil {
			logger.ErrorKV(ctx, "Failed to send telegram message", "error", err)

			continue
		}

		logger.DebugKV(ctx, "Telegram message sent", "text", text)
	}
}
