package clearance

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 5, 2, 14, 7, 0, 0, time.UTC)

func TestAdvanceStage_EmptyTrackIsNoop(t *testing.T) {
	next := pending(StageDocumentUpload)
	got := AdvanceStage(nil, Step{Guard: StageHSValidation, Next: &next}, testNow)
	assert.Empty(t, got)

	got = AdvanceStage(Track{}, Step{Next: &next}, testNow)
	assert.Empty(t, got)
}

func TestAdvanceStage_FinalizesAndAppends(t *testing.T) {
	track := Track{
		{Title: StageCreated, Icon: IconSuccess, Date: "2024-05-01", Time: "09:00 AM"},
		{Title: StageHSValidation, Icon: IconPending, Actionable: true, ActionLabel: "Review", ActionTarget: "/x"},
	}
	next := pending(StageDocumentUpload)

	got := AdvanceStage(track, Step{Guard: StageHSValidation, FinalizeIcon: IconSuccess, Next: &next}, testNow)

	want := Track{
		{Title: StageCreated, Icon: IconSuccess, Date: "2024-05-01", Time: "09:00 AM"},
		{Title: StageHSValidation, Icon: IconSuccess, Date: "2024-05-02", Time: "02:07 PM"},
		{Title: StageDocumentUpload, Icon: IconPending},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("track mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, IconPending, track[1].Icon, "input track must not change")
	assert.Len(t, track, 2)
}

func TestAdvanceStage_GuardMismatchSkipsFinalize(t *testing.T) {
	track := Track{{Title: StageInTransit, Icon: IconPending}}
	next := pending(StageArrivedAtCustoms)

	got := AdvanceStage(track, Step{Guard: StageCustomsExport, FinalizeIcon: IconSuccess, Next: &next}, testNow)

	require.Len(t, got, 2)
	assert.Equal(t, Entry{Title: StageInTransit, Icon: IconPending}, got[0])
	assert.Equal(t, StageArrivedAtCustoms, got.Stage())
}

func TestAdvanceStage_RepeatDoesNotRefinalize(t *testing.T) {
	track := Track{{Title: StageHSValidation, Icon: IconPending}}
	next := pending(StageDocumentUpload)
	step := Step{Guard: StageHSValidation, FinalizeIcon: IconSuccess, Next: &next}

	once := AdvanceStage(track, step, testNow)
	twice := AdvanceStage(once, step, testNow.Add(time.Hour))

	assert.Equal(t, once[0], twice[0])
	assert.Equal(t, IconPending, twice[1].Icon, "the appended entry is not finalized by a stale guard")
}

func TestAdvanceStage_ErrorIcon(t *testing.T) {
	track := Track{{Title: StageCustomsExport, Icon: IconPending}}
	got := AdvanceStage(track, Step{Guard: StageCustomsExport, FinalizeIcon: IconError}, testNow)
	require.Len(t, got, 1)
	assert.Equal(t, IconError, got[0].Icon)
}

func TestAppend_Bounded(t *testing.T) {
	var track Track
	for i := 0; i < MaxTrackLen+5; i++ {
		track = Append(track, pending(StageInTransit))
	}
	assert.Len(t, track, MaxTrackLen)
}

func TestAppend_DoesNotAlias(t *testing.T) {
	base := make(Track, 1, 4)
	base[0] = pending(StageCreated)

	a := Append(base, pending("a"))
	b := Append(base, pending("b"))
	assert.Equal(t, "a", a.Stage())
	assert.Equal(t, "b", b.Stage())
}

func TestTrack_Terminal(t *testing.T) {
	assert.False(t, Track{}.Terminal())
	assert.False(t, Track{{Title: StageDelivered, Icon: IconPending}}.Terminal())
	assert.True(t, Track{{Title: StageDelivered, Icon: IconSuccess}}.Terminal())
	assert.True(t, Track{{Title: StageAborted, Icon: IconSuccess}}.Terminal())
	assert.False(t, Track{{Title: StageCustomsCleared, Icon: IconSuccess}}.Terminal())
}
