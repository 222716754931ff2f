package date

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAndString(t *testing.T) {
	t.Parallel()

	d, err := Parse("2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, 2024, d.Year())
	assert.Equal(t, time.March, d.Month())
	assert.Equal(t, 1, d.Day())
	assert.Equal(t, "2024-03-01", d.String())

	// Permissive read format.
	d2, err := Parse("2024-3-1")
	require.NoError(t, err)
	assert.Equal(t, d, d2)

	_, err = Parse("not-a-date")
	assert.Error(t, err)
}

func TestAddNormalizes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, MustParse("2024-03-01"), MustParse("2024-02-29").Add(1))
	assert.Equal(t, MustParse("2024-02-29"), MustParse("2024-03-01").Prev())
	assert.Equal(t, MustParse("2023-12-31"), MustParse("2024-01-01").Prev())
}

func TestStartOfMonth(t *testing.T) {
	t.Parallel()

	assert.Equal(t, MustParse("2024-03-01"), MustParse("2024-03-17").StartOfMonth())
	assert.Equal(t, MustParse("2024-03-01"), MustParse("2024-03-01").StartOfMonth())
}

func TestRange(t *testing.T) {
	t.Parallel()

	var got []string
	for d := range Range(MustParse("2024-02-27"), MustParse("2024-03-02")) {
		got = append(got, d.String())
	}
	assert.Equal(t, []string{
		"2024-02-27", "2024-02-28", "2024-02-29", "2024-03-01", "2024-03-02",
	}, got)

	// end < start yields nothing.
	for range Range(MustParse("2024-03-02"), MustParse("2024-03-01")) {
		t.Fatal("range should be empty")
	}
}

func TestJSONRoundTrip(t *testing.T) {
	t.Parallel()

	d := MustParse("2024-07-09")
	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"2024-07-09"`, string(b))

	var back Date
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, d, back)
}

func TestSQLRoundTrip(t *testing.T) {
	t.Parallel()

	d := MustParse("2024-07-09")
	v, err := d.Value()
	require.NoError(t, err)
	assert.Equal(t, "2024-07-09", v)

	var back Date
	require.NoError(t, back.Scan("2024-07-09"))
	assert.Equal(t, d, back)

	require.NoError(t, back.Scan([]byte("2024-07-10")))
	assert.Equal(t, d.Add(1), back)

	require.NoError(t, back.Scan(time.Date(2024, 7, 11, 13, 14, 15, 0, time.UTC)))
	assert.Equal(t, d.Add(2), back)

	assert.Error(t, back.Scan(42))
}
