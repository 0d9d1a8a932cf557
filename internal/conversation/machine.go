package conversation

import (
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"bobbystable/internal/clock"
	"bobbystable/internal/db"
	"bobbystable/internal/entities"
	apperrors "bobbystable/internal/errors"
	"bobbystable/internal/slots"
	"bobbystable/internal/utils"
)

// Queries is the read side a conversation consults.
type Queries interface {
	Schedule() *slots.Schedule
	Availability(date string) (entities.AvailabilityResponse, error)
	CheckAvailability(date, time string) (string, entities.AvailabilityResponse, error)
	FindByPhone(phone string) []db.Reservation
	FindByName(name string) []db.Reservation
	FindByID(id string) (db.Reservation, error)
}

// Store is the write side. Only confirmation stages call it.
type Store interface {
	Create(req entities.ReservationRequest) (db.Reservation, error)
	Modify(id string, changes entities.ReservationChanges) (db.Reservation, error)
	Cancel(id string) (db.Reservation, error)
}

// Machine drives sessions from one stage to the next. It holds no
// per-call state, so one Machine serves every session.
type Machine struct {
	queries    Queries
	store      Store
	clock      clock.Clock
	location   *time.Location
	restaurant string
}

func NewMachine(queries Queries, store Store, clk clock.Clock, restaurant string, loc *time.Location) *Machine {
	if loc == nil {
		loc = time.Local
	}
	return &Machine{
		queries:    queries,
		store:      store,
		clock:      clk,
		location:   loc,
		restaurant: restaurant,
	}
}

type turn struct {
	s     *Session
	reply Reply
}

func (t *turn) moveTo(stage Stage) {
	t.s.stage = stage
	t.reply.Path = append(t.reply.Path, stage)
}

func (t *turn) say(msg string) {
	t.reply.Message = msg
}

func (t *turn) fail(err error, msg string) {
	t.reply.Err = err
	t.reply.Message = msg
}

// NewSession opens a conversation at the greeting.
func (m *Machine) NewSession(callID string) (*Session, Reply) {
	s := newSession(callID, m.clock.Now())
	return s, Reply{
		CallID:  callID,
		Stage:   s.stage,
		Path:    []Stage{s.stage},
		Message: m.greeting(),
	}
}

// Describe repeats the current question without changing anything.
func (m *Machine) Describe(s *Session) Reply {
	return Reply{
		CallID:  s.CallID,
		Stage:   s.stage,
		Message: m.question(s),
		Pending: s.Pending(),
	}
}

// Handle applies one action. The caller serialises calls per session.
func (m *Machine) Handle(s *Session, in Input) Reply {
	t := &turn{s: s, reply: Reply{CallID: s.CallID}}
	s.LastActivity = m.clock.Now()

	if target, ok := collectActions[in.Action]; ok {
		m.collect(t, target, in.Args)
	} else {
		switch in.Action {
		case ActionStartReservation:
			m.startReservation(t)
		case ActionCheckAvailability:
			m.checkAvailability(t, in.Args)
		case ActionGoBack:
			m.goBack(t, in.Args)
		case ActionConfirm:
			m.confirm(t)
		case ActionLookup:
			m.lookup(t, in.Args)
		case ActionSelect:
			m.selectMatch(t, in.Args)
		case ActionModify:
			m.modify(t, in.Args)
		case ActionCancelExisting:
			m.requestCancel(t)
		case ActionCancelFlow:
			m.cancelFlow(t)
		case ActionHangup:
			m.hangup(t)
		default:
			t.fail(apperrors.ErrInvalidInput, "I'm sorry, I can't help with that. "+m.question(s))
		}
	}

	t.reply.Stage = s.stage
	t.reply.Pending = s.Pending()
	return t.reply
}

func (m *Machine) outOfOrder(t *turn, prefix string) {
	t.fail(apperrors.ErrInvalidInput, prefix+m.question(t.s))
}

// reject reports a failed validation and re-asks the current question.
// Anything that is not a caller mistake ends the call.
func (m *Machine) reject(t *turn, err error) {
	if apperrors.KindOf(err) == apperrors.KindInternal {
		m.fault(t, err)
		return
	}
	msg := apperrors.SpokenMessage(err)
	if !strings.HasSuffix(msg, "?") {
		msg += " " + m.question(t.s)
	}
	t.fail(err, msg)
}

func (m *Machine) fault(t *turn, err error) {
	log.Printf("ALERT: call %s abandoned at %s: %v", t.s.CallID, t.s.stage, err)
	t.s.reset()
	t.moveTo(StageAbandoned)
	t.fail(err, msgFault)
}

func (m *Machine) today() string {
	return m.clock.Now().In(m.location).Format(slots.DateLayout)
}

// openTimes lists the times on date that still have room, leaving out
// slots this call already found full.
func (m *Machine) openTimes(s *Session, date string) ([]string, entities.AvailabilityResponse, error) {
	avail, err := m.queries.Availability(date)
	if err != nil {
		return nil, avail, err
	}
	var open []string
	for _, t := range avail.OpenTimes() {
		if !s.isUnavailable(date, t) {
			open = append(open, t)
		}
	}
	return open, avail, nil
}

func (m *Machine) checkDate(date string) (string, error) {
	date, err := slots.CheckDate(date)
	if err != nil {
		return "", err
	}
	if date < m.today() {
		return "", apperrors.InvalidInput("I'm sorry, %s has already passed. What date would you like?", date)
	}
	return date, nil
}

func (m *Machine) startReservation(t *turn) {
	s := t.s
	if !s.stage.idle() {
		if s.booking != nil {
			t.fail(apperrors.ErrInvalidInput, "We're already working on your reservation. "+m.question(s))
			return
		}
		m.outOfOrder(t, "Let's finish with your existing reservation first. ")
		return
	}
	s.reset()
	s.booking = &PendingBooking{}
	t.moveTo(StageCollectingName)
	t.say(msgStartReservation + m.question(s))
}

// collect fills one booking field. Earlier fields may be revised at any
// point before confirmation; later ones must wait their turn.
func (m *Machine) collect(t *turn, target Stage, args Args) {
	s := t.s
	if s.booking == nil || !(s.stage.IsCollecting() || s.stage == StageAwaitingConfirmation) {
		m.outOfOrder(t, "I'm sorry, I can't do that right now. ")
		return
	}
	if target > s.stage {
		m.outOfOrder(t, msgOneStep)
		return
	}

	ack, ok := m.apply(t, target, args)
	if !ok {
		return
	}
	if target != s.stage {
		t.moveTo(target)
	}
	if next := nextStage(s.booking); next != s.stage {
		t.moveTo(next)
	}
	t.say(ack + m.question(s))
}

func nextStage(b *PendingBooking) Stage {
	for stage := StageCollectingName; stage <= StageCollectingSpecialRequests; stage++ {
		if !b.has(stage) {
			return stage
		}
	}
	return StageAwaitingConfirmation
}

// apply validates and stores one field, returning the acknowledgement
// that precedes the next question.
func (m *Machine) apply(t *turn, stage Stage, args Args) (string, bool) {
	s, b := t.s, t.s.booking
	switch stage {
	case StageCollectingName:
		name, err := utils.NormalizeName(value(args.Name))
		if err != nil {
			m.reject(t, err)
			return "", false
		}
		b.Name = name
		return fmt.Sprintf("Thank you, %s. ", name), true

	case StageCollectingPartySize:
		n, err := m.partySize(value(args.PartySize))
		if err != nil {
			m.reject(t, err)
			return "", false
		}
		b.PartySize = n
		return fmt.Sprintf("Party of %d, got it. ", n), true

	case StageCollectingDate:
		date, err := m.checkDate(value(args.Date))
		if err != nil {
			m.reject(t, err)
			return "", false
		}
		open, avail, err := m.openTimes(s, date)
		if err != nil {
			m.reject(t, err)
			return "", false
		}
		t.reply.Availability = &avail
		if len(open) == 0 {
			t.fail(apperrors.ErrCapacityExceeded, fullyBookedOn(date))
			return "", false
		}
		b.Date = date
		if b.Time != "" && !contains(open, b.Time) {
			b.Time = ""
		}
		return fmt.Sprintf("We have availability on %s. ", date), true

	case StageCollectingTime:
		tm, err := m.queries.Schedule().NormalizeSlot(value(args.Time))
		if err != nil {
			m.reject(t, err)
			return "", false
		}
		open, avail, err := m.openTimes(s, b.Date)
		if err != nil {
			m.reject(t, err)
			return "", false
		}
		t.reply.Availability = &avail
		if !contains(open, tm) {
			s.markUnavailable(b.Date, tm)
			if len(open) == 0 {
				t.fail(apperrors.ErrCapacityExceeded, fullyBookedOn(b.Date))
			} else {
				t.fail(apperrors.ErrCapacityExceeded, alternatives(tm, open))
			}
			return "", false
		}
		b.Time = tm
		return fmt.Sprintf("Great, %s is available! ", tm), true

	case StageCollectingPhone:
		phone, err := utils.NormalizePhone(value(args.Phone))
		if err != nil {
			m.reject(t, err)
			return "", false
		}
		b.Phone = phone
		return "Perfect! ", true

	case StageCollectingSpecialRequests:
		requests, err := utils.NormalizeRequests(value(args.SpecialRequests))
		if err != nil {
			m.reject(t, err)
			return "", false
		}
		b.SpecialRequests = requests
		b.requestsCollected = true
		return "", true
	}
	m.outOfOrder(t, "")
	return "", false
}

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14, "fifteen": 15,
	"sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19, "twenty": 20,
}

// partySize reads "4", "four" or "4 people".
func (m *Machine) partySize(raw string) (int, error) {
	fields := strings.Fields(strings.ToLower(raw))
	if len(fields) == 0 {
		return 0, apperrors.InvalidInput("I didn't catch the number of guests.")
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		var ok bool
		if n, ok = numberWords[fields[0]]; !ok {
			return 0, apperrors.InvalidInput("I'm sorry, I need the number of guests as a number.")
		}
	}
	if err := m.queries.Schedule().CheckPartySize(n); err != nil {
		return 0, err
	}
	return n, nil
}

func (m *Machine) goBack(t *turn, args Args) {
	s := t.s
	if s.manage != nil && s.stage == StageAwaitingConfirmation {
		t.moveTo(StageModifying)
		t.say("Sure. " + m.question(s))
		return
	}
	if s.booking == nil || !(s.stage.IsCollecting() || s.stage == StageAwaitingConfirmation) {
		m.outOfOrder(t, "I'm sorry, there's nothing to go back to. ")
		return
	}

	target := s.stage - 1
	if name := strings.TrimSpace(value(args.Stage)); name != "" {
		stage, ok := ParseStage(name)
		if !ok || !stage.IsCollecting() || stage >= s.stage {
			m.outOfOrder(t, "I'm sorry, I can't go back there. ")
			return
		}
		target = stage
	}
	if !target.IsCollecting() {
		m.outOfOrder(t, "We're at the very beginning. ")
		return
	}
	t.moveTo(target)
	t.say("Sure, let's go back. " + m.question(s))
}

func (m *Machine) confirm(t *turn) {
	s := t.s
	switch {
	case s.stage == StageAwaitingConfirmation && s.booking != nil:
		m.commitBooking(t)
	case s.stage == StageAwaitingConfirmation && s.manage != nil:
		m.commitModify(t)
	case s.stage == StageConfirmingCancel:
		m.commitCancel(t)
	default:
		m.outOfOrder(t, msgNothingToConfirm)
	}
}

func (m *Machine) commitBooking(t *turn) {
	s, b := t.s, t.s.booking
	res, err := m.store.Create(b.request())
	if err == nil {
		s.reset()
		t.moveTo(StageCommitted)
		t.reply.Reservation = &res
		t.say(committedMessage(res))
		return
	}

	switch apperrors.KindOf(err) {
	case apperrors.KindCapacityExceeded:
		taken := b.Time
		s.markUnavailable(b.Date, taken)
		b.Time = ""
		t.moveTo(StageCollectingTime)
		open, avail, qerr := m.openTimes(s, b.Date)
		if qerr != nil {
			m.fault(t, qerr)
			return
		}
		t.reply.Availability = &avail
		msg := fmt.Sprintf("I'm sorry, %s was just taken. ", taken)
		if len(open) == 0 {
			msg += fmt.Sprintf("We're fully booked on %s. Would you like to try a different date?", b.Date)
		} else {
			msg += fmt.Sprintf("We have availability at: %s. Would you like one of those?", utils.JoinList(open))
		}
		t.fail(err, msg)
	case apperrors.KindInvalidInput:
		m.reject(t, err)
	default:
		m.fault(t, err)
	}
}

func (m *Machine) commitModify(t *turn) {
	s, ms := t.s, t.s.manage
	res, err := m.store.Modify(ms.target.ID, ms.changes)
	if err == nil {
		s.reset()
		t.moveTo(StageCommitted)
		t.reply.Reservation = &res
		t.say("Your reservation has been updated: " + describe(res) + " " + msgAnythingElse)
		return
	}

	switch apperrors.KindOf(err) {
	case apperrors.KindCapacityExceeded:
		p := ms.preview()
		s.markUnavailable(p.Date, p.Time)
		ms.changes.Date = nil
		ms.changes.Time = nil
		t.moveTo(StageModifying)
		t.fail(err, fmt.Sprintf("I'm sorry, %s on %s was just taken. Would you like to try a different date or time?", p.Time, p.Date))
	case apperrors.KindNotFound:
		m.notFound(t, err)
	case apperrors.KindInvalidInput:
		t.moveTo(StageModifying)
		m.reject(t, err)
	default:
		m.fault(t, err)
	}
}

func (m *Machine) commitCancel(t *turn) {
	s := t.s
	res, err := m.store.Cancel(s.manage.target.ID)
	if err == nil {
		s.reset()
		t.moveTo(StageCancelled)
		t.reply.Reservation = &res
		t.say(fmt.Sprintf("Your reservation for %s on %s at %s has been cancelled. %s", res.Name, res.Date, res.Time, msgAnythingElse))
		return
	}
	if apperrors.KindOf(err) == apperrors.KindNotFound {
		m.notFound(t, err)
		return
	}
	m.fault(t, err)
}

// notFound reports a failed lookup and returns to the greeting.
func (m *Machine) notFound(t *turn, err error) {
	t.s.reset()
	t.moveTo(StageNotFound)
	t.moveTo(StageGreeting)
	t.fail(err, apperrors.SpokenMessage(err))
}

func (m *Machine) checkAvailability(t *turn, args Args) {
	s := t.s
	date := strings.TrimSpace(value(args.Date))
	if date == "" {
		switch {
		case s.booking != nil:
			date = s.booking.Date
		case s.manage != nil && s.manage.target != nil:
			date = s.manage.preview().Date
		}
	}
	if date == "" {
		t.fail(apperrors.ErrInvalidInput, "Which date would you like me to check?")
		return
	}

	msg, avail, err := m.queries.CheckAvailability(date, value(args.Time))
	if err != nil {
		m.reject(t, err)
		return
	}
	t.reply.Availability = &avail
	if !s.stage.idle() {
		msg += " " + m.question(s)
	}
	t.say(msg)
}

func (m *Machine) lookup(t *turn, args Args) {
	s := t.s
	if !s.stage.idle() && s.stage != StageLookup {
		m.outOfOrder(t, "Let's finish what we're working on first. ")
		return
	}
	s.booking = nil
	if s.stage != StageLookup || s.manage == nil {
		s.manage = &manageState{}
		t.moveTo(StageLookup)
	}

	phone := strings.TrimSpace(value(args.Phone))
	name := strings.TrimSpace(value(args.Name))
	id := strings.TrimSpace(value(args.ReservationID))
	if phone == "" && name == "" && id == "" {
		t.say(m.question(s))
		return
	}
	if phone != "" && utils.DigitsOnly(phone) == "" {
		m.reject(t, apperrors.InvalidInput("I'm sorry, that doesn't sound like a phone number."))
		return
	}

	matches, err := m.findMatches(phone, name, id)
	if err != nil {
		m.fault(t, err)
		return
	}
	switch len(matches) {
	case 0:
		m.notFound(t, apperrors.ErrNotFound)
	case 1:
		m.found(t, matches[0])
	default:
		s.manage.matches = matches
		t.reply.Matches = matches
		t.say(matchesSummary(matches))
	}
}

// findMatches returns confirmed reservations matching every supplied
// criterion.
func (m *Machine) findMatches(phone, name, id string) ([]db.Reservation, error) {
	if id != "" {
		res, err := m.queries.FindByID(utils.DigitsOnly(id))
		if err != nil {
			if apperrors.KindOf(err) == apperrors.KindNotFound {
				return nil, nil
			}
			return nil, err
		}
		if !res.IsConfirmed() {
			return nil, nil
		}
		return []db.Reservation{res}, nil
	}
	if phone == "" {
		return m.queries.FindByName(name), nil
	}
	matches := m.queries.FindByPhone(phone)
	if name == "" {
		return matches, nil
	}
	var both []db.Reservation
	for _, res := range matches {
		if nameContains(res.Name, name) {
			both = append(both, res)
		}
	}
	return both, nil
}

func nameContains(full, part string) bool {
	norm := func(s string) string { return strings.ToLower(strings.Join(strings.Fields(s), " ")) }
	return strings.Contains(norm(full), norm(part))
}

func (m *Machine) found(t *turn, res db.Reservation) {
	ms := t.s.manage
	ms.matches = nil
	ms.target = &res
	ms.changes = entities.ReservationChanges{}
	t.moveTo(StageFound)
	t.moveTo(StageAwaitingManageChoice)
	t.reply.Reservation = &res
	t.say("I found your reservation: " + describe(res) + " Would you like to modify or cancel this reservation?")
}

var ordinals = map[string]int{"first": 1, "second": 2, "third": 3}

func (m *Machine) selectMatch(t *turn, args Args) {
	s := t.s
	if s.stage != StageLookup || s.manage == nil || len(s.manage.matches) == 0 {
		m.outOfOrder(t, "I'm sorry, there's nothing to choose from yet. ")
		return
	}
	matches := s.manage.matches

	choice := strings.ToLower(strings.TrimSpace(value(args.ReservationID)))
	if choice == "" {
		choice = strings.ToLower(strings.TrimSpace(value(args.Choice)))
	}
	for _, res := range matches {
		if res.ID == choice {
			m.found(t, res)
			return
		}
	}
	n, err := strconv.Atoi(choice)
	if err != nil {
		n = ordinals[choice]
	}
	if n >= 1 && n <= len(matches) {
		m.found(t, matches[n-1])
		return
	}
	t.reply.Matches = matches
	t.fail(apperrors.ErrInvalidInput, "I'm sorry, I couldn't tell which one you meant. "+matchesSummary(matches))
}

func (m *Machine) modify(t *turn, args Args) {
	s := t.s
	if s.manage == nil || s.manage.target == nil {
		m.outOfOrder(t, "Let's find your reservation first. ")
		return
	}
	switch s.stage {
	case StageAwaitingManageChoice, StageModifying, StageAwaitingConfirmation:
	default:
		m.outOfOrder(t, "I'm sorry, I can't do that right now. ")
		return
	}
	ms := s.manage
	if s.stage != StageModifying {
		t.moveTo(StageModifying)
	}

	changes, err := m.parseChanges(args)
	if err != nil {
		m.reject(t, err)
		return
	}
	merged := mergeChanges(ms.changes, changes)
	trial := (&manageState{target: ms.target, changes: merged}).preview()

	if trial.Date != ms.target.Date || trial.Time != ms.target.Time {
		if trial.Date < m.today() {
			m.reject(t, apperrors.InvalidInput("I'm sorry, %s has already passed.", trial.Date))
			return
		}
		open, avail, err := m.openTimes(s, trial.Date)
		if err != nil {
			m.reject(t, err)
			return
		}
		t.reply.Availability = &avail
		if !contains(open, trial.Time) {
			s.markUnavailable(trial.Date, trial.Time)
			msg := fmt.Sprintf("I'm sorry, %s on %s is not available.", trial.Time, trial.Date)
			if len(open) > 0 {
				msg += fmt.Sprintf(" We have availability at: %s.", utils.JoinList(open))
			}
			t.fail(apperrors.ErrCapacityExceeded, msg+" Would you like to try a different time?")
			return
		}
	}

	ms.changes = merged
	if merged.IsEmpty() {
		t.say(m.question(s))
		return
	}
	t.moveTo(StageAwaitingConfirmation)
	t.say(m.question(s))
}

// parseChanges validates every supplied field; one bad field rejects them
// all.
func (m *Machine) parseChanges(args Args) (entities.ReservationChanges, error) {
	var c entities.ReservationChanges
	if args.Name != nil {
		name, err := utils.NormalizeName(*args.Name)
		if err != nil {
			return c, err
		}
		c.Name = &name
	}
	if args.PartySize != nil {
		n, err := m.partySize(*args.PartySize)
		if err != nil {
			return c, err
		}
		c.PartySize = &n
	}
	if args.Date != nil {
		date, err := m.checkDate(*args.Date)
		if err != nil {
			return c, err
		}
		c.Date = &date
	}
	if args.Time != nil {
		tm, err := m.queries.Schedule().NormalizeSlot(*args.Time)
		if err != nil {
			return c, err
		}
		c.Time = &tm
	}
	if args.Phone != nil {
		phone, err := utils.NormalizePhone(*args.Phone)
		if err != nil {
			return c, err
		}
		c.Phone = &phone
	}
	if args.SpecialRequests != nil {
		requests, err := utils.NormalizeRequests(*args.SpecialRequests)
		if err != nil {
			return c, err
		}
		c.SpecialRequests = &requests
	}
	return c, nil
}

func mergeChanges(base, over entities.ReservationChanges) entities.ReservationChanges {
	if over.Name != nil {
		base.Name = over.Name
	}
	if over.PartySize != nil {
		base.PartySize = over.PartySize
	}
	if over.Date != nil {
		base.Date = over.Date
	}
	if over.Time != nil {
		base.Time = over.Time
	}
	if over.Phone != nil {
		base.Phone = over.Phone
	}
	if over.SpecialRequests != nil {
		base.SpecialRequests = over.SpecialRequests
	}
	return base
}

func (m *Machine) requestCancel(t *turn) {
	s := t.s
	if s.manage == nil || s.manage.target == nil ||
		(s.stage != StageAwaitingManageChoice && s.stage != StageModifying) {
		m.outOfOrder(t, "Let's find your reservation first. ")
		return
	}
	s.manage.changes = entities.ReservationChanges{}
	t.moveTo(StageConfirmingCancel)
	t.say(m.question(s))
}

func (m *Machine) cancelFlow(t *turn) {
	s := t.s
	switch {
	case s.booking != nil:
		s.reset()
		t.moveTo(StageAbandoned)
		t.say(msgNoProblem + msgAnythingElse)
	case s.stage == StageConfirmingCancel:
		s.reset()
		t.moveTo(StageGreeting)
		t.say("No problem! Your reservation is unchanged. " + msgAnythingElse)
	default:
		s.reset()
		if s.stage != StageGreeting {
			t.moveTo(StageGreeting)
		}
		t.say(msgNoProblem + msgAnythingElse)
	}
}

func (m *Machine) hangup(t *turn) {
	s := t.s
	s.reset()
	if !s.stage.IsTerminal() {
		t.moveTo(StageAbandoned)
	}
	t.say(fmt.Sprintf(msgGoodbye, m.restaurant))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
