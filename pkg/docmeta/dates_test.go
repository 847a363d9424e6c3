package docmeta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindDates_OrderAndFamilies(t *testing.T) {
	text := "Mulai 01-01-2024, ISO 2024-02-03 dan 15 Januari 2025\nkedua 5/6/24"

	got := FindDates(text)
	require.Len(t, got, 4)

	assert.Equal(t, "01-01-2024", got[0].Text)
	assert.Equal(t, FamilyNumeric, got[0].Family)
	assert.Equal(t, "2024-02-03", got[1].Text)
	assert.Equal(t, FamilyISO, got[1].Family)
	assert.Equal(t, "15 Januari 2025", got[2].Text)
	assert.Equal(t, FamilyMonthName, got[2].Family)
	assert.Equal(t, "5/6/24", got[3].Text)

	assert.Equal(t, "Mulai 01-01-2024, ISO 2024-02-03 dan 15 Januari 2025", got[0].Line)
	assert.Equal(t, "kedua 5/6/24", got[3].Line)
	assert.Equal(t, "kedua 5/6/24", got[3].LineLower)

	for _, c := range got {
		assert.Equal(t, c.Text, text[c.Start:c.End])
	}
}

func TestFindDates_MonthNameCaseInsensitive(t *testing.T) {
	got := FindDates("berlaku 1 DESEMBER 2030 dan 2.march.31")
	require.Len(t, got, 2)
	assert.Equal(t, "1 DESEMBER 2030", got[0].Text)
	assert.Equal(t, "2.march.31", got[1].Text)
}

func TestFindDates_OverlappingFamiliesAreKept(t *testing.T) {
	got := FindDates("10-12-2024/05/06")
	require.Len(t, got, 2)
	assert.Equal(t, "10-12-2024", got[0].Text)
	assert.Equal(t, FamilyNumeric, got[0].Family)
	assert.Equal(t, "2024/05/06", got[1].Text)
	assert.Equal(t, FamilyISO, got[1].Family)
}

func TestFindDates_None(t *testing.T) {
	assert.Empty(t, FindDates(""))
	assert.Empty(t, FindDates("tidak ada tanggal di sini, hanya 123 dan 45"))
}

func TestEachDate_Restartable(t *testing.T) {
	seq := EachDate("a 01/02/2023 b 2023-04-05 c 6 mei 2024")

	var first, second []string
	for c := range seq {
		first = append(first, c.Text)
	}
	for c := range seq {
		second = append(second, c.Text)
	}
	assert.Equal(t, []string{"01/02/2023", "2023-04-05", "6 mei 2024"}, first)
	assert.Equal(t, first, second)

	var stopped []string
	for c := range seq {
		stopped = append(stopped, c.Text)
		break
	}
	assert.Equal(t, []string{"01/02/2023"}, stopped)
}

func TestFamilyString(t *testing.T) {
	assert.Equal(t, "numeric", FamilyNumeric.String())
	assert.Equal(t, "iso", FamilyISO.String())
	assert.Equal(t, "month-name", FamilyMonthName.String())
	assert.Equal(t, "unknown", Family(42).String())
}
