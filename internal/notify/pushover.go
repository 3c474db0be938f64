package notify

import (
	"fmt"

	"github.com/gregdel/pushover"
	"github.com/sirupsen/logrus"

	"github.com/danpilch/metroticket/internal/booking"
)

type Notifier struct {
	app       *pushover.Pushover
	recipient *pushover.Recipient
	logger    *logrus.Logger
}

func NewNotifier(token, userKey string, logger *logrus.Logger) *Notifier {
	return &Notifier{
		app:       pushover.New(token),
		recipient: pushover.NewRecipient(userKey),
		logger:    logger,
	}
}

// SendBookingSummary pushes the summary text so it can be shown at the gate.
func (n *Notifier) SendBookingSummary(s *booking.Summary) error {
	msg := bookingMessage(s)

	resp, err := n.app.SendMessage(msg, n.recipient)
	if err != nil {
		return fmt.Errorf("sending booking summary: %w", err)
	}

	n.logger.WithFields(logrus.Fields{
		"title":      msg.Title,
		"status":     resp.Status,
		"request_id": resp.ID,
	}).Debug("booking summary sent")

	return nil
}

// bookingMessage builds the normal priority notification for s.
func bookingMessage(s *booking.Summary) *pushover.Message {
	title := fmt.Sprintf("%s Ticket: %s to %s", s.Agency, s.OriginName, s.DestinationName)
	msg := pushover.NewMessageWithTitle(s.Text(), title)
	msg.Priority = pushover.PriorityNormal
	return msg
}
