package clearance

import (
	"errors"
	"time"
)

// Stage titles.
const (
	StageCreated             = "Created Shipment"
	StageHSValidation        = "HS Validation"
	StageDocumentUpload      = "Document Upload"
	StagePayment             = "Payment"
	StageCustomsExport       = "Customs Export"
	StageInTransit           = "In Transit"
	StageArrivedAtCustoms    = "Arrived at Customs"
	StageClearanceCharges    = "Customs Clearance Charges"
	StageCustomsCleared      = "Customs Cleared"
	StageDelivered           = "Delivered"
	StageAdditionalDocuments = "Additional Document Required"
	StageReturnRequest       = "Return Request"
	StageReturned            = "Returned"
	StageDestructionRequest  = "Destruction Request"
	StageDestroyed           = "Destroyed"
	StageAborted             = "Aborted"
)

var terminalStages = map[string]bool{
	StageDelivered: true,
	StageReturned:  true,
	StageDestroyed: true,
	StageAborted:   true,
}

func IsTerminalStage(title string) bool { return terminalStages[title] }

var ErrInvalidTransition = errors.New("invalid transition")

// DutyMode says which party pays import duty.
type DutyMode string

const (
	DDP DutyMode = "DDP" // sender pays
	DAP DutyMode = "DAP" // receiver pays
)

type Party string

const (
	Sender   Party = "sender"
	Receiver Party = "receiver"
)

// Payer returns the party responsible for duty; anything but DAP means the sender.
func (m DutyMode) Payer() Party {
	if m == DAP {
		return Receiver
	}
	return Sender
}

type AdditionalDoc struct {
	Name     string `json:"name"`
	Path     string `json:"path,omitempty"`
	Uploaded bool   `json:"uploaded"`
}

// State is the clearance part of a shipment record.
type State struct {
	ID             string             `json:"id"`
	SenderLog      Track              `json:"sender_log"`
	ReceiverLog    Track              `json:"receiver_log"`
	Status         string             `json:"status"`
	DutyMode       DutyMode           `json:"duty_mode"`
	ShippingCost   float64            `json:"shipping_cost"`
	Reason         string             `json:"reason,omitempty"`
	AdditionalDocs []AdditionalDoc    `json:"additional_docs,omitempty"`
	PaymentLog     map[string]float64 `json:"payment_log,omitempty"`
}

// NewState seeds both tracks with a stamped "Created Shipment" and a pending
// "HS Validation".
func NewState(id, senderName string, mode DutyMode, at time.Time) State {
	created := Entry{Title: StageCreated, Icon: IconSuccess}.Stamp(at)
	hs := Entry{Title: StageHSValidation, Icon: IconPending}

	receiverCreated := created
	if senderName != "" {
		receiverCreated.Agent = "User: " + senderName
	}

	if mode != DAP {
		mode = DDP
	}
	return State{
		ID:          id,
		SenderLog:   Track{created, hs},
		ReceiverLog: Track{receiverCreated, hs},
		Status:      StageCreated,
		DutyMode:    mode,
	}
}

// Stage is the current stage, read from the sender track.
func (s State) Stage() string { return s.SenderLog.Stage() }

func (s State) Terminal() bool { return s.SenderLog.Terminal() }

func (s State) Track(p Party) Track {
	if p == Receiver {
		return s.ReceiverLog
	}
	return s.SenderLog
}

func (s State) clone() State {
	s.SenderLog = s.SenderLog.clone()
	s.ReceiverLog = s.ReceiverLog.clone()
	s.AdditionalDocs = append([]AdditionalDoc(nil), s.AdditionalDocs...)
	if s.PaymentLog != nil {
		log := make(map[string]float64, len(s.PaymentLog))
		for k, v := range s.PaymentLog {
			log[k] = v
		}
		s.PaymentLog = log
	}
	return s
}
