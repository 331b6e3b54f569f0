package checkin

import (
	"fmt"
	"time"

	"github.com/flemzord/dailyclaim/pkg/message"
)

// SuccessText heads the message carrying the success cards.
const SuccessText = "I've gone ahead and checked in for you. Have a nice day!"

// Batch collects the cards produced for one owner during one tick.
type Batch struct {
	Successes []message.Card
	Failures  []message.Card
}

// Empty reports whether the batch has nothing to deliver.
func (b *Batch) Empty() bool {
	return len(b.Successes) == 0 && len(b.Failures) == 0
}

// Messages shapes the batch into outbound messages for chat: the successes
// with SuccessText first, then the failures. An empty batch yields none.
func (b *Batch) Messages(chat message.Chat) []message.OutboundMessage {
	var out []message.OutboundMessage
	if len(b.Successes) > 0 {
		out = append(out, message.OutboundMessage{
			Chat:  chat,
			Text:  SuccessText,
			Cards: b.Successes,
		})
	}
	if len(b.Failures) > 0 {
		out = append(out, message.OutboundMessage{
			Chat:  chat,
			Cards: b.Failures,
		})
	}
	return out
}

// claimCard is the success card for a fresh claim, before status is added.
func claimCard(accountID string, r Reward) message.Card {
	return message.Card{
		Title:       "Daily reward",
		Description: fmt.Sprintf("Claimed daily reward - **%d %s** | Account ID %s", r.Amount, r.Name, accountID),
		Severity:    message.SeverityInfo,
	}
}

// revokedCard tells the owner their token stopped working.
func revokedCard(accountID string) message.Card {
	return message.Card{
		Title: "Account Access Failure",
		Description: fmt.Sprintf("ltoken has expired for account ID %s.\n"+
			"This may be because you have changed your password recently.\n"+
			"Please register again if you want to continue using the bot.", accountID),
		Severity: message.SeverityWarning,
	}
}

// statusSection is the part of a success card describing one sub-profile.
type statusSection struct {
	line   string
	fields []message.Field
}

func notesSection(subProfileID string, n Notes, now time.Time) statusSection {
	resource := message.Field{Name: fmt.Sprintf("Resin %d/%d", n.ResourceCurrent, n.ResourceMax)}
	if n.ResourceCapped() {
		resource.Value = "capped OMG"
	} else {
		resource.Value = "capped " + relative(n.ResourceRecoveredAt, now)
	}

	expeditions := message.Field{
		Name: fmt.Sprintf("%d/%d expeditions dispatched", len(n.Expeditions), n.MaxExpeditions),
	}
	switch {
	case len(n.Expeditions) == 0:
		expeditions.Value = "none dispatched"
	case n.ExpeditionsDone(now):
		expeditions.Value = "all done"
	default:
		expeditions.Value = "done " + relative(latestCompletion(n.Expeditions), now)
	}

	return statusSection{
		line:   fmt.Sprintf("UID `%s`", subProfileID),
		fields: []message.Field{resource, expeditions},
	}
}

func latestCompletion(exps []Expedition) time.Time {
	var latest time.Time
	for _, e := range exps {
		if e.CompletedAt.After(latest) {
			latest = e.CompletedAt
		}
	}
	return latest
}

// relative renders t as "in 2h15m" from now, rounded to the minute.
func relative(t, now time.Time) string {
	d := t.Sub(now).Round(time.Minute)
	if d <= 0 {
		return "now"
	}
	return "in " + shortDuration(d)
}

func shortDuration(d time.Duration) string {
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh%02dm", h, m)
	}
}
