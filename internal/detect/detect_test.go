// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package detect

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/vehicle-history/pkg/types"
)

const carfaxLegacyDoc = `<html><head><title>CARFAX Vehicle History Report</title></head>
<body><div class="cfx-header"><a href="https://www.carfax.com">carfax.com</a></div>
<table class="history-table"><tr><td>05/03/2021</td></tr></table></body></html>`

const carfaxModernDoc = `<html><body><section class="owner-block" data-owner="1">
<div class="history-record">Oil changed</div></section></body></html>`

const autocheckDoc = `<html><head><title>AutoCheck Vehicle History Report</title></head>
<body><div class="ac-score" data-score="84"></div><table class="ac-events"></table>
<p>Powered by Experian</p></body></html>`

func TestDetect(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		provider  types.Provider
		subformat string
	}{
		{"carfax legacy", carfaxLegacyDoc, types.ProviderCarfax, SubformatLegacy},
		{"carfax modern", carfaxModernDoc, types.ProviderCarfax, SubformatModern},
		{"autocheck", autocheckDoc, types.ProviderAutoCheck, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Detect(tt.doc)
			require.NoError(t, err)
			assert.Equal(t, tt.provider, d.Provider)
			assert.Equal(t, tt.subformat, d.Subformat)
			assert.Greater(t, d.Confidence, 0.5)
			assert.LessOrEqual(t, d.Confidence, 1.0)
		})
	}
}

func TestDetectIsStable(t *testing.T) {
	first, err := Detect(autocheckDoc)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Detect(autocheckDoc)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestDetectConfidenceCountsBothSides(t *testing.T) {
	// Three carfax hits ("cfx-", "history-record", "owner-block") against
	// one autocheck hit ("experian").
	doc := `<div class="cfx-x"><div class="owner-block"><div class="history-record">Experian</div></div></div>`
	d, err := Detect(doc)
	require.NoError(t, err)
	assert.Equal(t, types.ProviderCarfax, d.Provider)
	assert.InDelta(t, 0.75, d.Confidence, 1e-9)
}

func TestDetectTitleFallback(t *testing.T) {
	// One hit each ("carfax" in the title, "experian" in the body) ties.
	doc := `<html><head><title>Carfax report</title></head><body>data from Experian</body></html>`
	d, err := Detect(doc)
	require.NoError(t, err)
	assert.Equal(t, types.ProviderCarfax, d.Provider)
	assert.Equal(t, 0.5, d.Confidence)
}

func TestDetectUndetected(t *testing.T) {
	_, err := Detect(`<html><head><title>Vehicle report</title></head><body>nothing here</body></html>`)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrUndetected))
	assert.Contains(t, err.Error(), "could not detect provider")

	_, err = Detect("")
	assert.True(t, eris.Is(err, ErrUndetected))
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "CARFAX Vehicle History Report", Title(carfaxLegacyDoc))
	assert.Equal(t, "Report for 1HGCM82633A004352", Title(`<h1>Report for <b>1HGCM82633A004352</b></h1>`))
	assert.Equal(t, "", Title("<p>no title</p>"))
}

func TestExtractVIN(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
		ok   bool
	}{
		{
			name: "labelled field",
			doc:  `<span>VIN: 1hgcm82633a004352</span><p>2T1BURHE0JC034816 2T1BURHE0JC034816</p>`,
			want: "1HGCM82633A004352",
			ok:   true,
		},
		{
			name: "vin number label",
			doc:  `<td>VIN #</td><td>1FTFW1ET5DFC10312</td>`,
			want: "1FTFW1ET5DFC10312",
			ok:   true,
		},
		{
			name: "data attribute",
			doc:  `<div class="vehicle" data-vin="5YJ3E1EA7KF317000"></div>`,
			want: "5YJ3E1EA7KF317000",
			ok:   true,
		},
		{
			name: "title text",
			doc:  `<title>History for 3VWDX7AJ5DM392188</title><p>JH4KA8260MC000000</p>`,
			want: "3VWDX7AJ5DM392188",
			ok:   true,
		},
		{
			name: "frequency vote",
			doc:  `<p>JH4KA8260MC000000</p><p>2T1BURHE0JC034816</p><p>2T1BURHE0JC034816</p>`,
			want: "2T1BURHE0JC034816",
			ok:   true,
		},
		{
			name: "earliest wins ties",
			doc:  `<p>JH4KA8260MC000000</p><p>2T1BURHE0JC034816</p>`,
			want: "JH4KA8260MC000000",
			ok:   true,
		},
		{
			name: "rejects I O Q",
			doc:  `<p>1HGCM82633A00435O</p>`,
			ok:   false,
		},
		{
			name: "rejects all digits",
			doc:  `<p>12345678901234567</p>`,
			ok:   false,
		},
		{
			name: "no candidates",
			doc:  `<p>nothing</p>`,
			ok:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractVIN(tt.doc)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeVIN(t *testing.T) {
	vin, ok := NormalizeVIN(" 1hgcm82633a004352 ")
	assert.True(t, ok)
	assert.Equal(t, "1HGCM82633A004352", vin)

	_, ok = NormalizeVIN("1HGCM82633A00435")
	assert.False(t, ok)
	_, ok = NormalizeVIN("1HGCM82633A004352X")
	assert.False(t, ok)
}
