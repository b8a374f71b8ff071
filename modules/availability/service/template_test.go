package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateProducesEightHourlySlots(t *testing.T) {
	template := NewSlotTemplate(9, 17, time.UTC)
	date := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	slots := template.Generate(date)
	require.Len(t, slots, 8)

	for i, slot := range slots {
		assert.Equal(t, 9+i, slot.Start.Hour())
		assert.Equal(t, time.Hour, slot.End.Sub(slot.Start))
		assert.True(t, slot.Available)
	}
}

func TestGenerateSlotIDs(t *testing.T) {
	template := NewSlotTemplate(9, 17, time.UTC)
	date := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	slots := template.Generate(date)
	assert.Equal(t, "2024-06-10-9", slots[0].ID)
	assert.Equal(t, "2024-06-10-16", slots[len(slots)-1].ID)
}

func TestGenerateSortedAscending(t *testing.T) {
	template := NewSlotTemplate(9, 17, time.UTC)
	slots := template.Generate(time.Date(2024, 6, 10, 15, 30, 0, 0, time.UTC))

	for i := 1; i < len(slots); i++ {
		assert.True(t, slots[i].Start.After(slots[i-1].Start))
	}
}

func TestGenerateIgnoresTimeOfDay(t *testing.T) {
	template := NewSlotTemplate(9, 17, time.UTC)
	morning := template.Generate(time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC))
	evening := template.Generate(time.Date(2024, 6, 10, 22, 45, 0, 0, time.UTC))

	assert.Equal(t, morning, evening)
}

func TestGenerateUsesCompanyTimezone(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	template := NewSlotTemplate(9, 17, loc)
	slots := template.Generate(time.Date(2024, 6, 10, 0, 0, 0, 0, loc))

	assert.Equal(t, 9, slots[0].Start.In(loc).Hour())
	// 9 AM Eastern in June is 13:00 UTC.
	assert.Equal(t, 13, slots[0].Start.UTC().Hour())
}

func TestDayWindowCoversFullDay(t *testing.T) {
	template := NewSlotTemplate(9, 17, time.UTC)
	start, end := template.DayWindow(time.Date(2024, 6, 10, 14, 0, 0, 0, time.UTC))

	assert.Equal(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 6, 10, 23, 59, 59, int(999*time.Millisecond), time.UTC), end)
}
