package clearance

import (
	"fmt"
	"time"
)

type Event string

const (
	EventHSApproved             Event = "hs.approved"
	EventDocumentsSubmitted     Event = "documents.submitted"
	EventDocumentsApproved      Event = "documents.approved"
	EventPaymentVerified        Event = "payment.verified"
	EventAdditionalDocsRequired Event = "docs.additional_required"
	EventAdditionalDocsProvided Event = "docs.additional_provided"
	EventExportCleared          Event = "export.cleared"
	EventArrivedAtCustoms       Event = "customs.arrived"
	EventImportApproved         Event = "import.approved"
	EventDutyPaymentVerified    Event = "duty.verified"
	EventDelivered              Event = "delivered"
	EventReturnRequested        Event = "return.requested"
	EventDestructionRequested   Event = "destruction.requested"
	EventChargesAssessed        Event = "charges.assessed"
	EventChargesPaid            Event = "charges.paid"
	EventReturned               Event = "returned"
	EventDestroyed              Event = "destroyed"
	EventAborted                Event = "aborted"
)

// Status values written alongside the logs.
const (
	StatusHSApproved         = "HS Approved"
	StatusDocumentUploaded   = "Document Uploaded"
	StatusDocumentApproved   = "Document Approved"
	StatusPaymentSuccessful  = "Payment Successful"
	StatusAdditionalRequired = "Additional Document Required"
	StatusImportClearance    = "Import Clearance"
	StatusAdditionalProvided = "Additional Documents Provided"
	StatusInTransit          = "In Transit"
	StatusArrivedAtCustoms   = "Arrived at Customs"
	StatusCustomsCleared     = "Customs Cleared"
	StatusDutyPaid           = "Duty Payment Successful"
	StatusDelivered          = "Delivered"
	StatusReturnRequest      = "Return Request"
	StatusDestructionRequest = "Destruction Request"
	StatusChargesPaid        = "Charges Paid"
	StatusReturned           = "Returned"
	StatusDestroyed          = "Destroyed"
	StatusAborted            = "Aborted"
)

// Input carries the event payload; each event reads only the fields it needs.
type Input struct {
	Agent        string             `json:"agent,omitempty"`
	Reason       string             `json:"reason,omitempty"`
	RequiredDocs []string           `json:"requiredDocs,omitempty"`
	Charges      map[string]float64 `json:"charges,omitempty"`
}

type transition struct {
	from  []string // nil: any stage that is not terminal
	apply func(s *State, from string, in Input, at time.Time)
}

func (t transition) allows(stage string) bool {
	if t.from == nil {
		return true
	}
	for _, f := range t.from {
		if f == stage {
			return true
		}
	}
	return false
}

var transitions = map[Event]transition{
	EventHSApproved: {
		from: []string{StageHSValidation},
		apply: func(s *State, from string, in Input, at time.Time) {
			s.advance(from, IconSuccess, in.Agent, uploadStep(s.ID), at)
			s.Status = StatusHSApproved
		},
	},
	EventDocumentsSubmitted: {
		from: []string{StageDocumentUpload},
		apply: func(s *State, _ string, _ Input, _ time.Time) {
			s.Status = StatusDocumentUploaded
		},
	},
	EventDocumentsApproved: {
		from: []string{StageDocumentUpload},
		apply: func(s *State, from string, in Input, at time.Time) {
			// Depois de um desvio por documentos adicionais o frete já está pago.
			if s.SenderLog.Completed(StagePayment) {
				s.advance(from, IconSuccess, in.Agent, both(pending(StageCustomsExport)), at)
			} else {
				s.advance(from, IconSuccess, in.Agent, single(Sender, s.ID, StagePayment, "Click to Pay", "payment"), at)
			}
			s.Status = StatusDocumentApproved
		},
	},
	EventPaymentVerified: {
		from: []string{StagePayment},
		apply: func(s *State, from string, in Input, at time.Time) {
			s.advance(from, IconSuccess, in.Agent, both(pending(StageCustomsExport)), at)
			s.Status = StatusPaymentSuccessful
		},
	},
	EventAdditionalDocsRequired: {
		from: []string{StageCustomsExport, StageArrivedAtCustoms},
		apply: func(s *State, from string, in Input, at time.Time) {
			next := pair{
				sender:   actionable(StageAdditionalDocuments, "Provide Additional Documents", href("resolution", Sender, s.ID)),
				receiver: actionable(StageAdditionalDocuments, "Provide Additional Documents", href("resolution", Receiver, s.ID)),
			}
			s.advance(from, IconError, in.Agent, next, at)
			s.Reason = in.Reason
			s.AdditionalDocs = make([]AdditionalDoc, 0, len(in.RequiredDocs))
			for _, name := range in.RequiredDocs {
				s.AdditionalDocs = append(s.AdditionalDocs, AdditionalDoc{Name: name})
			}
			if from == StageArrivedAtCustoms {
				s.Status = StatusImportClearance
			} else {
				s.Status = StatusAdditionalRequired
			}
		},
	},
	EventAdditionalDocsProvided: {
		from: []string{StageAdditionalDocuments},
		apply: func(s *State, from string, in Input, at time.Time) {
			s.advance(from, IconSuccess, in.Agent, uploadStep(s.ID), at)
			for i := range s.AdditionalDocs {
				s.AdditionalDocs[i].Uploaded = true
			}
			s.Status = StatusAdditionalProvided
		},
	},
	EventExportCleared: {
		from: []string{StageCustomsExport},
		apply: func(s *State, from string, in Input, at time.Time) {
			s.advance(from, IconSuccess, in.Agent, both(pending(StageInTransit)), at)
			s.Status = StatusInTransit
		},
	},
	EventArrivedAtCustoms: {
		from: []string{StageInTransit},
		apply: func(s *State, from string, in Input, at time.Time) {
			s.advance(from, IconSuccess, in.Agent, both(pending(StageArrivedAtCustoms)), at)
			s.Status = StatusArrivedAtCustoms
		},
	},
	EventImportApproved: {
		from: []string{StageArrivedAtCustoms},
		apply: func(s *State, from string, in Input, at time.Time) {
			s.advance(from, IconSuccess, in.Agent, single(s.DutyMode.Payer(), s.ID, StageClearanceCharges, "Pay Duty", "duty"), at)
			s.Status = StatusCustomsCleared
		},
	},
	EventDutyPaymentVerified: {
		from: []string{StageClearanceCharges},
		apply: func(s *State, from string, in Input, at time.Time) {
			cleared := Entry{Title: StageCustomsCleared, Icon: IconSuccess}.Stamp(at)
			s.advance(from, IconSuccess, in.Agent, both(cleared), at)
			s.appendBoth(both(pending(StageDelivered)))
			s.Status = StatusDutyPaid
		},
	},
	EventDelivered: {
		from: []string{StageDelivered},
		apply: func(s *State, from string, in Input, at time.Time) {
			s.advance(from, IconSuccess, in.Agent, pair{}, at)
			s.Status = StatusDelivered
		},
	},
	EventReturnRequested: {
		apply: func(s *State, _ string, in Input, at time.Time) {
			s.advance("", IconSuccess, in.Agent, both(pending(StageReturnRequest)), at)
			s.Status = StatusReturnRequest
		},
	},
	EventDestructionRequested: {
		apply: func(s *State, _ string, in Input, at time.Time) {
			s.advance("", IconSuccess, in.Agent, both(pending(StageDestructionRequest)), at)
			s.Status = StatusDestructionRequest
		},
	},
	EventChargesAssessed: {
		from: []string{StageReturnRequest, StageDestructionRequest},
		apply: func(s *State, _ string, in Input, at time.Time) {
			s.PaymentLog = make(map[string]float64, len(in.Charges))
			for k, v := range in.Charges {
				s.PaymentLog[k] = v
			}
			s.SenderLog = updateLast(s.SenderLog, func(e Entry) Entry {
				e = e.Stamp(at)
				e.Actionable = true
				e.ActionLabel = "Pay Charges"
				e.ActionTarget = href("charges", Sender, s.ID)
				return e
			})
			s.ReceiverLog = updateLast(s.ReceiverLog, func(e Entry) Entry {
				e = e.Stamp(at)
				e.Actionable = false
				return e
			})
		},
	},
	EventChargesPaid: {
		from: []string{StageReturnRequest, StageDestructionRequest},
		apply: func(s *State, _ string, _ Input, _ time.Time) {
			s.Status = StatusChargesPaid
		},
	},
	EventReturned: {
		from: []string{StageReturnRequest},
		apply: func(s *State, from string, in Input, at time.Time) {
			s.close(from, StageReturned, in.Agent, at)
			s.Status = StatusReturned
		},
	},
	EventDestroyed: {
		from: []string{StageDestructionRequest},
		apply: func(s *State, from string, in Input, at time.Time) {
			s.close(from, StageDestroyed, in.Agent, at)
			s.Status = StatusDestroyed
		},
	},
	EventAborted: {
		apply: func(s *State, from string, in Input, at time.Time) {
			s.close(from, StageAborted, in.Agent, at)
			s.Status = StatusAborted
		},
	},
}

// Events lists every event Apply understands.
func Events() []Event {
	out := make([]Event, 0, len(transitions))
	for ev := range transitions {
		out = append(out, ev)
	}
	return out
}

// Apply returns the state after ev. s is not modified. An unknown event, a
// closed shipment or a stage the event does not start from yields
// ErrInvalidTransition.
func Apply(s State, ev Event, in Input, at time.Time) (State, error) {
	tr, ok := transitions[ev]
	if !ok {
		return s, fmt.Errorf("%w: unknown event %q", ErrInvalidTransition, ev)
	}
	if s.Terminal() {
		return s, fmt.Errorf("%w: shipment %s is closed at %q", ErrInvalidTransition, s.ID, s.Stage())
	}
	stage := s.Stage()
	if !tr.allows(stage) {
		return s, fmt.Errorf("%w: %s from %q", ErrInvalidTransition, ev, stage)
	}

	next := s.clone()
	tr.apply(&next, stage, in, at)
	return next, nil
}

// pair holds the entries appended to each track; nil means nothing is appended.
type pair struct {
	sender   *Entry
	receiver *Entry
}

func both(e Entry) pair {
	s, r := e, e
	return pair{sender: &s, receiver: &r}
}

func pending(title string) Entry {
	return Entry{Title: title, Icon: IconPending}
}

func actionable(title, label, target string) *Entry {
	return &Entry{Title: title, Icon: IconPending, Actionable: true, ActionLabel: label, ActionTarget: target}
}

// single makes the stage actionable for one party only.
func single(p Party, id, title, label, kind string) pair {
	act := actionable(title, label, href(kind, p, id))
	idle := pending(title)
	if p == Receiver {
		return pair{sender: &idle, receiver: act}
	}
	return pair{sender: act, receiver: &idle}
}

func uploadStep(id string) pair {
	return single(Sender, id, StageDocumentUpload, "Upload Documents", "upload")
}

func href(kind string, p Party, id string) string {
	return fmt.Sprintf("/user/%s/%s/%s", kind, p, id)
}

func (s *State) advance(guard string, icon Icon, agent string, next pair, at time.Time) {
	s.SenderLog = advanceTrack(s.SenderLog, guard, icon, agent, next.sender, at)
	s.ReceiverLog = advanceTrack(s.ReceiverLog, guard, icon, agent, next.receiver, at)
}

func (s *State) appendBoth(next pair) {
	if next.sender != nil {
		s.SenderLog = Append(s.SenderLog, *next.sender)
	}
	if next.receiver != nil {
		s.ReceiverLog = Append(s.ReceiverLog, *next.receiver)
	}
}

// close finalizes the current stage and appends a stamped terminal entry.
func (s *State) close(from, title, agent string, at time.Time) {
	s.advance(from, IconSuccess, agent, both(Entry{Title: title, Icon: IconSuccess}.Stamp(at)), at)
}

func advanceTrack(t Track, guard string, icon Icon, agent string, next *Entry, at time.Time) Track {
	if agent != "" && (guard == "" || t.Stage() == guard) {
		t = updateLast(t, func(e Entry) Entry {
			e.Agent = agent
			return e
		})
	}
	return AdvanceStage(t, Step{Guard: guard, FinalizeIcon: icon, Next: next}, at)
}

func updateLast(t Track, fn func(Entry) Entry) Track {
	if len(t) == 0 {
		return t
	}
	out := t.clone()
	out[len(out)-1] = fn(out[len(out)-1])
	return out
}
