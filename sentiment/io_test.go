package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInputRecords_CSVWithHeader(t *testing.T) {
	path := writeFile(t, "reviews.csv", "\ufeffid,review\nr1,Great film\nr2,\nr3,\"Awful, just awful\"\n")

	records, err := ParseInputRecords(path, InputParseOptions{})
	require.NoError(t, err)

	assert.Equal(t, []InputRecord{
		{ID: "r1", Text: "Great film"},
		{ID: "r3", Text: "Awful, just awful"},
	}, records)
}

func TestParseInputRecords_TSVWithoutHeader(t *testing.T) {
	path := writeFile(t, "reviews.tsv", "loved it\t5\nhated it\t1\n")

	records, err := ParseInputRecords(path, InputParseOptions{})
	require.NoError(t, err)

	assert.Equal(t, []InputRecord{
		{ID: "1", Text: "loved it"},
		{ID: "2", Text: "hated it"},
	}, records)
}

func TestParseInputRecords_ExplicitColumnIndex(t *testing.T) {
	path := writeFile(t, "reviews.csv", "5,loved it\n1,hated it\n")

	records, err := ParseInputRecords(path, InputParseOptions{TextColumn: "#2", IDColumn: "#1"})
	require.NoError(t, err)

	assert.Equal(t, []InputRecord{
		{ID: "5", Text: "loved it"},
		{ID: "1", Text: "hated it"},
	}, records)
}

func TestParseInputRecords_ColumnErrors(t *testing.T) {
	path := writeFile(t, "reviews.csv", "id,score\n1,5\n")

	_, err := ParseInputRecords(path, InputParseOptions{})
	require.Error(t, err)

	_, err = ParseInputRecords(path, InputParseOptions{TextColumn: "missing"})
	require.Error(t, err)

	_, err = ParseInputRecords(path, InputParseOptions{TextColumn: "#9"})
	require.Error(t, err)

	_, err = ParseInputRecords(path, InputParseOptions{TextColumn: "#0"})
	require.Error(t, err)
}

func TestParseInputRecords_PlainText(t *testing.T) {
	path := writeFile(t, "reviews.txt", "first review\n\n  second review  \n")

	records, err := ParseInputRecords(path, InputParseOptions{})
	require.NoError(t, err)

	assert.Equal(t, []InputRecord{
		{ID: "1", Text: "first review"},
		{ID: "2", Text: "second review"},
	}, records)
}
