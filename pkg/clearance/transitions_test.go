package clearance

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustApply(t *testing.T, s State, ev Event, in Input) State {
	t.Helper()
	next, err := Apply(s, ev, in, testNow)
	require.NoError(t, err, "event %s from %q", ev, s.Stage())
	return next
}

func TestNewState_Seeds(t *testing.T) {
	s := NewState("42", "Ana", "", testNow)

	assert.Equal(t, DDP, s.DutyMode)
	require.Len(t, s.SenderLog, 2)
	require.Len(t, s.ReceiverLog, 2)

	assert.Equal(t, Entry{Title: StageCreated, Icon: IconSuccess, Date: "2024-05-02", Time: "02:07 PM"}, s.SenderLog[0])
	assert.Equal(t, "User: Ana", s.ReceiverLog[0].Agent)
	assert.Equal(t, Entry{Title: StageHSValidation, Icon: IconPending}, s.SenderLog[1])
	assert.Equal(t, StageHSValidation, s.Stage())
}

func TestApply_HappyPathDDP(t *testing.T) {
	s := NewState("7", "Ana", DDP, testNow)

	s = mustApply(t, s, EventHSApproved, Input{Agent: "Customs: HS desk"})
	assert.Equal(t, StatusHSApproved, s.Status)
	assert.Equal(t, "Customs: HS desk", s.SenderLog[1].Agent)
	last, _ := s.SenderLog.Last()
	assert.Equal(t, Entry{Title: StageDocumentUpload, Icon: IconPending, Actionable: true, ActionLabel: "Upload Documents", ActionTarget: "/user/upload/sender/7"}, last)
	last, _ = s.ReceiverLog.Last()
	assert.False(t, last.Actionable, "only the sender uploads documents")

	s = mustApply(t, s, EventDocumentsSubmitted, Input{})
	assert.Equal(t, StatusDocumentUploaded, s.Status)
	assert.Equal(t, StageDocumentUpload, s.Stage())

	s = mustApply(t, s, EventDocumentsApproved, Input{})
	last, _ = s.SenderLog.Last()
	assert.Equal(t, "/user/payment/sender/7", last.ActionTarget)
	assert.Equal(t, StagePayment, s.Stage())

	s = mustApply(t, s, EventPaymentVerified, Input{})
	assert.Equal(t, StatusPaymentSuccessful, s.Status)
	s = mustApply(t, s, EventExportCleared, Input{})
	s = mustApply(t, s, EventArrivedAtCustoms, Input{})
	s = mustApply(t, s, EventImportApproved, Input{})

	last, _ = s.SenderLog.Last()
	assert.True(t, last.Actionable)
	assert.Equal(t, "/user/duty/sender/7", last.ActionTarget)
	last, _ = s.ReceiverLog.Last()
	assert.False(t, last.Actionable)

	s = mustApply(t, s, EventDutyPaymentVerified, Input{})
	n := len(s.SenderLog)
	assert.Equal(t, Entry{Title: StageCustomsCleared, Icon: IconSuccess, Date: "2024-05-02", Time: "02:07 PM"}, s.SenderLog[n-2])
	assert.Equal(t, StageDelivered, s.Stage())
	assert.False(t, s.Terminal())

	s = mustApply(t, s, EventDelivered, Input{})
	assert.Equal(t, StatusDelivered, s.Status)
	assert.True(t, s.Terminal())
	assert.True(t, s.ReceiverLog.Terminal())

	for _, e := range s.SenderLog {
		assert.NotEqual(t, IconPending, e.Icon, "every stage of a delivered shipment is closed: %s", e.Title)
	}

	_, err := Apply(s, EventAborted, Input{}, testNow)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
}

func TestApply_DAPMakesReceiverPay(t *testing.T) {
	s := NewState("9", "Ana", DAP, testNow)
	for _, ev := range []Event{EventHSApproved, EventDocumentsApproved, EventPaymentVerified, EventExportCleared, EventArrivedAtCustoms, EventImportApproved} {
		s = mustApply(t, s, ev, Input{})
	}

	sender, _ := s.SenderLog.Last()
	receiver, _ := s.ReceiverLog.Last()
	assert.False(t, sender.Actionable)
	assert.True(t, receiver.Actionable)
	assert.Equal(t, "Pay Duty", receiver.ActionLabel)
	assert.Equal(t, "/user/duty/receiver/9", receiver.ActionTarget)
}

func TestApply_RejectsOutOfOrderEvents(t *testing.T) {
	s := NewState("1", "Ana", DDP, testNow)

	for _, ev := range []Event{EventDocumentsApproved, EventPaymentVerified, EventDelivered, EventChargesAssessed, Event("teleported")} {
		got, err := Apply(s, ev, Input{}, testNow)
		assert.ErrorIs(t, err, ErrInvalidTransition, string(ev))
		assert.Equal(t, s, got)
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	s := NewState("1", "Ana", DDP, testNow)
	before := s.clone()

	_ = mustApply(t, s, EventHSApproved, Input{Agent: "officer"})
	assert.Equal(t, before, s)
}

func TestApply_AdditionalDocumentsDetour(t *testing.T) {
	s := NewState("3", "Ana", DDP, testNow)
	for _, ev := range []Event{EventHSApproved, EventDocumentsApproved, EventPaymentVerified} {
		s = mustApply(t, s, ev, Input{})
	}

	s = mustApply(t, s, EventAdditionalDocsRequired, Input{Reason: "missing origin proof", RequiredDocs: []string{"Certificate of Origin"}})
	assert.Equal(t, StatusAdditionalRequired, s.Status)
	assert.Equal(t, "missing origin proof", s.Reason)
	assert.Equal(t, []AdditionalDoc{{Name: "Certificate of Origin"}}, s.AdditionalDocs)
	assert.Equal(t, IconError, s.SenderLog[len(s.SenderLog)-2].Icon)

	sender, _ := s.SenderLog.Last()
	receiver, _ := s.ReceiverLog.Last()
	assert.Equal(t, "/user/resolution/sender/3", sender.ActionTarget)
	assert.Equal(t, "/user/resolution/receiver/3", receiver.ActionTarget)

	s = mustApply(t, s, EventAdditionalDocsProvided, Input{})
	assert.Equal(t, StageDocumentUpload, s.Stage())
	assert.True(t, s.AdditionalDocs[0].Uploaded)

	// Frete já pago: volta direto à exportação.
	s = mustApply(t, s, EventDocumentsApproved, Input{})
	assert.Equal(t, StageCustomsExport, s.Stage())
}

func TestApply_AdditionalDocumentsAtImport(t *testing.T) {
	s := NewState("3", "Ana", DDP, testNow)
	for _, ev := range []Event{EventHSApproved, EventDocumentsApproved, EventPaymentVerified, EventExportCleared, EventArrivedAtCustoms} {
		s = mustApply(t, s, ev, Input{})
	}
	s = mustApply(t, s, EventAdditionalDocsRequired, Input{})
	assert.Equal(t, StatusImportClearance, s.Status)
}

func TestApply_ReturnWithCharges(t *testing.T) {
	s := NewState("5", "Ana", DDP, testNow)
	s = mustApply(t, s, EventHSApproved, Input{})

	s = mustApply(t, s, EventReturnRequested, Input{})
	assert.Equal(t, StageReturnRequest, s.Stage())
	assert.Equal(t, IconSuccess, s.SenderLog[len(s.SenderLog)-2].Icon)

	s = mustApply(t, s, EventChargesAssessed, Input{Charges: map[string]float64{"return_freight": 1200}})
	assert.Equal(t, map[string]float64{"return_freight": 1200}, s.PaymentLog)
	sender, _ := s.SenderLog.Last()
	receiver, _ := s.ReceiverLog.Last()
	assert.Equal(t, "Pay Charges", sender.ActionLabel)
	assert.Equal(t, "/user/charges/sender/5", sender.ActionTarget)
	assert.False(t, receiver.Actionable)
	assert.Equal(t, "2024-05-02", receiver.Date)

	s = mustApply(t, s, EventChargesPaid, Input{})
	assert.Equal(t, StatusChargesPaid, s.Status)

	s = mustApply(t, s, EventReturned, Input{})
	assert.True(t, s.Terminal())
	assert.Equal(t, StageReturned, s.Stage())

	_, err := Apply(s, EventReturnRequested, Input{}, testNow)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestApply_DestructionAndAbort(t *testing.T) {
	s := NewState("6", "Ana", DDP, testNow)
	d := mustApply(t, s, EventDestructionRequested, Input{})
	_, err := Apply(d, EventReturned, Input{}, testNow)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	d = mustApply(t, d, EventDestroyed, Input{})
	assert.Equal(t, StatusDestroyed, d.Status)
	assert.True(t, d.Terminal())

	a := mustApply(t, s, EventAborted, Input{Agent: "Admin"})
	assert.Equal(t, StageAborted, a.Stage())
	assert.True(t, a.Terminal())
	assert.Equal(t, "Admin", a.SenderLog[len(a.SenderLog)-2].Agent)
}

func TestEvents(t *testing.T) {
	assert.Len(t, Events(), 18)
}
