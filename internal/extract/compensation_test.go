package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCompensation(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		min      float64
		max      float64
		currency string
	}{
		{name: "LPA range", text: "6-12 LPA", min: 600000, max: 1200000, currency: "INR"},
		{name: "rupee lakh shorthand", text: "₹25L", min: 2500000, max: 2500000, currency: "INR"},
		{name: "rupee lakh range", text: "₹18L - ₹25L", min: 1800000, max: 2500000, currency: "INR"},
		{name: "single LPA", text: "10 LPA", min: 1000000, max: 1000000, currency: "INR"},
		{name: "lakhs word", text: "5 lakhs per annum", min: 500000, max: 500000, currency: "INR"},
		{name: "dollar range with commas", text: "$80,000 - $120,000 per year", min: 80000, max: 120000, currency: "USD"},
		{name: "dollar k range", text: "$50k - $70k", min: 50000, max: 70000, currency: "USD"},
		{name: "euro single", text: "€45,000", min: 45000, max: 45000, currency: "EUR"},
		{name: "pound to range", text: "£30000 to £40000", min: 30000, max: 40000, currency: "GBP"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseCompensation(tt.text, DefaultCurrency)
			require.NotNil(t, got.Min)
			require.NotNil(t, got.Max)
			assert.InDelta(t, tt.min, *got.Min, 0.001)
			assert.InDelta(t, tt.max, *got.Max, 0.001)
			assert.Equal(t, tt.currency, got.Currency)
		})
	}
}

func TestParseCompensation_Unparsable(t *testing.T) {
	for _, text := range []string{"Competitive", "", "Not disclosed"} {
		got := ParseCompensation(text, "INR")
		assert.Nil(t, got.Min, text)
		assert.Nil(t, got.Max, text)
		assert.Equal(t, "INR", got.Currency)
	}
}

func TestFindCompensation(t *testing.T) {
	got, ok := findCompensation("Backend role. Stipend ₹25,000 per month. Apply now")
	assert.True(t, ok)
	assert.Equal(t, "₹25,000 per month", got)

	got, ok = findCompensation("Pays 8 - 14 LPA plus bonus")
	assert.True(t, ok)
	assert.Equal(t, "8 - 14 LPA", got)

	_, ok = findCompensation("Posted 3 days ago")
	assert.False(t, ok)

	tests := []struct {
		text string
		want string
	}{
		{"CTC 10 - 15 Lakhs depending on fit", "10 - 15 Lakhs"},
		{"Offering 20 lakh per annum", "20 lakh per annum"},
		{"Salary 4.5L", "4.5L"},
		{"Budget 6 to 9 lacs", "6 to 9 lacs"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := findCompensation(tt.text)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok = findCompensation("Reviewed 10 listings today")
	assert.False(t, ok)
}

func TestShortDescription(t *testing.T) {
	assert.Equal(t, "short text", ShortDescription("  short \n text ", 200))
	assert.Equal(t, "abcde...", ShortDescription("abcdefghij", 5))
	assert.Equal(t, "abc", ShortDescription("abc", 0))
}
