package services

import (
	"sort"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"wms-service/internal/models"
)

func TestNaturalLess(t *testing.T) {
	testCases := []struct {
		a, b string
		want bool
	}{
		{"A-2", "A-10", true},
		{"A-10", "A-2", false},
		{"A-2", "A-2", false},
		{"A-2", "B-1", true},
		{"A-02", "A-2", false}, // equal numeric value, equal length wins nothing
		{"A-2-1", "A-2-10", true},
		{"PICK-9", "PICK-11", true},
		{"", "A", true},
	}
	for _, tc := range testCases {
		t.Run(tc.a+"_vs_"+tc.b, func(t *testing.T) {
			assert.Equal(t, tc.want, naturalLess(tc.a, tc.b))
		})
	}
}

func TestNaturalLess_SortsWalkOrder(t *testing.T) {
	codes := []string{"A-10", "B-1", "A-2", "A-1", "A-21", "A-3"}
	sort.Slice(codes, func(i, j int) bool { return naturalLess(codes[i], codes[j]) })

	assert.Equal(t, []string{"A-1", "A-2", "A-3", "A-10", "A-21", "B-1"}, codes)
}

func TestZoneOf(t *testing.T) {
	assert.Equal(t, "A", zoneOf("A-12-3"))
	assert.Equal(t, "PICK", zoneOf("PICK-01"))
	assert.Equal(t, "DOCK", zoneOf("DOCK"))
}

func TestZoneRank(t *testing.T) {
	sequence := "C, A ,B"

	assert.Equal(t, 0, zoneRank(&sequence, "C"))
	assert.Equal(t, 1, zoneRank(&sequence, "a")) // case-insensitive
	assert.Equal(t, 2, zoneRank(&sequence, "B"))
	// Unlisted zones fall to the back.
	assert.Greater(t, zoneRank(&sequence, "Z"), 2)
	// No sequence configured means every zone ranks equal.
	assert.Equal(t, zoneRank(nil, "A"), zoneRank(nil, "B"))
}

func TestPriorityRank(t *testing.T) {
	assert.Less(t, priorityRank(models.OrderPriorityRush), priorityRank(models.OrderPriorityHigh))
	assert.Less(t, priorityRank(models.OrderPriorityHigh), priorityRank(models.OrderPriorityNormal))
}

func TestWaveTaskLess_WalkPathBeatsPriority(t *testing.T) {
	seq := "A,B"
	picks := []plannedPick{
		{zone: "B", locationCode: "B-1", priority: models.OrderPriorityRush},
		{zone: "A", locationCode: "A-10", priority: models.OrderPriorityNormal},
		{zone: "A", locationCode: "A-2", priority: models.OrderPriorityNormal},
	}

	sort.SliceStable(picks, func(i, j int) bool {
		return waveTaskLess(models.PickModeBatch, &seq, &picks[i], &picks[j])
	})

	// A rush order does not jump the walk path; the zone sequence and the
	// natural location order decide, priority only breaks bin ties.
	assert.Equal(t, "A-2", picks[0].locationCode)
	assert.Equal(t, "A-10", picks[1].locationCode)
	assert.Equal(t, "B-1", picks[2].locationCode)
}

func TestWaveTaskLess_PriorityBreaksBinTies(t *testing.T) {
	rush := plannedPick{zone: "A", locationCode: "A-1", priority: models.OrderPriorityRush}
	normal := plannedPick{zone: "A", locationCode: "A-1", priority: models.OrderPriorityNormal}

	assert.True(t, waveTaskLess(models.PickModeBatch, nil, &rush, &normal))
	assert.False(t, waveTaskLess(models.PickModeBatch, nil, &normal, &rush))
}

func TestWaveTaskLess_StableForEqualKeys(t *testing.T) {
	first := uuid.New()
	second := uuid.New()
	picks := []plannedPick{
		{task: models.PickTask{OrderLineID: first}, zone: "A", locationCode: "A-1", priority: models.OrderPriorityNormal},
		{task: models.PickTask{OrderLineID: second}, zone: "A", locationCode: "A-1", priority: models.OrderPriorityNormal},
	}

	sort.SliceStable(picks, func(i, j int) bool {
		return waveTaskLess(models.PickModeBatch, nil, &picks[i], &picks[j])
	})

	// Fully tied picks keep their planning order.
	assert.Equal(t, first, picks[0].task.OrderLineID)
	assert.Equal(t, second, picks[1].task.OrderLineID)
}

func TestWaveTaskLess_SingleModeGroupsByOrder(t *testing.T) {
	late := plannedPick{zone: "A", locationCode: "A-1", priority: models.OrderPriorityNormal, orderIndex: 1}
	early := plannedPick{zone: "B", locationCode: "B-9", priority: models.OrderPriorityNormal, orderIndex: 0}

	// Single mode keeps an order's picks together even across zones.
	assert.True(t, waveTaskLess(models.PickModeSingle, nil, &early, &late))
	assert.False(t, waveTaskLess(models.PickModeSingle, nil, &late, &early))
}
