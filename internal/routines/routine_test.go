package routines

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateDays(t *testing.T) {
	abDays := TemplateDays(TypeAB, 4)
	require.Len(t, abDays, 2)
	assert.Equal(t, "a", abDays[0].ID)
	assert.Equal(t, "A", abDays[0].Label)
	assert.Equal(t, "b", abDays[1].ID)

	pplDays := TemplateDays(TypePPL, 6)
	require.Len(t, pplDays, 3)
	assert.Equal(t, "push", pplDays[0].ID)
	assert.Equal(t, "pull", pplDays[1].ID)
	assert.Equal(t, "legs", pplDays[2].ID)

	customDays := TemplateDays(TypeCustom, 3)
	require.Len(t, customDays, 3)
	assert.Equal(t, "day-1", customDays[0].ID)
	assert.Equal(t, "Day 1", customDays[0].Label)
	assert.Equal(t, "day-3", customDays[2].ID)
}

func TestDefaultDayOrder(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "a", "b"}, DefaultDayOrder(TypeAB, 4))
	assert.Equal(t,
		[]string{"push", "pull", "legs", "push", "pull", "legs"},
		DefaultDayOrder(TypePPL, 6),
	)
	assert.Equal(t, []string{"day-1", "day-2", "day-3"}, DefaultDayOrder(TypeCustom, 3))
}

func TestRoutine_Normalize(t *testing.T) {
	routine := &Routine{Name: "  Upper/Lower  ", Type: TypeAB}
	require.NoError(t, routine.Normalize())
	assert.Equal(t, "Upper/Lower", routine.Name)
	assert.Equal(t, 2, routine.DaysPerWeek)

	assert.Error(t, (&Routine{Name: "  ", Type: TypeAB}).Normalize())
	assert.Error(t, (&Routine{Name: "x", Type: "HIIT"}).Normalize())
	assert.Error(t, (&Routine{Name: "x", Type: TypeCustom, DaysPerWeek: 0}).Normalize())
	assert.Error(t, (&Routine{Name: "x", Type: TypeCustom, DaysPerWeek: 8}).Normalize())
	assert.NoError(t, (&Routine{Name: "x", Type: TypeCustom, DaysPerWeek: 5}).Normalize())
}
