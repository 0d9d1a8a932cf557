package conversation

import (
	"fmt"
	"strings"

	"bobbystable/internal/db"
	"bobbystable/internal/utils"
)

const (
	msgStartReservation = "Wonderful! Let's get you a table. "
	msgAnythingElse     = "Is there anything else I can help you with?"
	msgNoProblem        = "No problem! "
	msgGoodbye          = "Thank you for calling %s. Goodbye!"
	msgFault            = "I'm sorry, something went wrong on our end. Please call back and we'll get you sorted out."
	msgOneStep          = "Let's take it one step at a time. "
	msgNothingToConfirm = "There's nothing to confirm yet. "
)

func (m *Machine) greeting() string {
	return fmt.Sprintf("Welcome to %s! I can help you make a new reservation or look up an existing one. What would you like to do?", m.restaurant)
}

// question is what the host asks to fill the session's current stage.
func (m *Machine) question(s *Session) string {
	switch s.stage {
	case StageGreeting, StageNotFound:
		return m.greeting()
	case StageCollectingName:
		return "May I have the name for the reservation?"
	case StageCollectingPartySize:
		return "How many guests will be joining us?"
	case StageCollectingDate:
		return "What date would you like to dine with us?"
	case StageCollectingTime:
		return m.timeQuestion(s)
	case StageCollectingPhone:
		return "May I have a phone number for the reservation?"
	case StageCollectingSpecialRequests:
		return "Any special requests or occasions we should know about? For example, a birthday, anniversary, dietary restrictions, or seating preferences?"
	case StageAwaitingConfirmation:
		if s.manage != nil {
			return "Let me confirm the change: " + describe(s.manage.preview()) + " Is this correct?"
		}
		return confirmSummary(s.booking)
	case StageLookup:
		if s.manage != nil && len(s.manage.matches) > 1 {
			return matchesSummary(s.manage.matches)
		}
		return "I can look up your reservation by phone number or name. Which would you like to provide?"
	case StageFound, StageAwaitingManageChoice:
		return "Would you like to modify or cancel this reservation?"
	case StageModifying:
		return "What would you like to change? I can update the party size, date, time, or special requests."
	case StageConfirmingCancel:
		res := s.manage.target
		return fmt.Sprintf("Just to confirm, you'd like to cancel the reservation for %s on %s at %s?", res.Name, res.Date, res.Time)
	}
	return msgAnythingElse
}

func (m *Machine) timeQuestion(s *Session) string {
	open, _, err := m.openTimes(s, s.booking.Date)
	if err != nil || len(open) == 0 {
		return "What time would you prefer?"
	}
	return fmt.Sprintf("Available times are: %s. What time would you prefer?", utils.JoinList(open))
}

func confirmSummary(p *PendingBooking) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Let me confirm your reservation: %s, party of %d, on %s at %s. Phone: %s.",
		p.Name, p.PartySize, p.Date, p.Time, p.Phone)
	if p.SpecialRequests != "" {
		fmt.Fprintf(&b, " Special requests: %s.", p.SpecialRequests)
	}
	b.WriteString(" Is this correct?")
	return b.String()
}

func describe(res db.Reservation) string {
	return fmt.Sprintf("%s, party of %d, on %s at %s.", res.Name, res.PartySize, res.Date, res.Time)
}

func committedMessage(res db.Reservation) string {
	return fmt.Sprintf("Your reservation is confirmed! %s Your confirmation number is %s. We look forward to seeing you!",
		describe(res), utils.SayDigits(res.ID))
}

func matchesSummary(matches []db.Reservation) string {
	var parts []string
	for i, res := range matches {
		if i == 3 {
			break
		}
		parts = append(parts, fmt.Sprintf("%d) %s on %s at %s", i+1, res.Name, res.Date, res.Time))
	}
	return fmt.Sprintf("I found %d reservations: %s. Which one is yours? You can tell me the number or give me more details.",
		len(matches), strings.Join(parts, "; "))
}

func fullyBookedOn(date string) string {
	return fmt.Sprintf("I'm sorry, we're fully booked on %s. Would you like to try a different date?", date)
}

func alternatives(time string, open []string) string {
	return fmt.Sprintf("I'm sorry, %s is fully booked. We have availability at: %s. Would you like one of those?",
		time, utils.JoinList(open))
}
