// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package merge

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/vehicle-history/internal/lexical"
	"github.com/pdiddy/vehicle-history/internal/parse"
	"github.com/pdiddy/vehicle-history/pkg/types"
)

const testVIN = "1HGCM82633A004352"

func report(provider types.Provider, events ...types.RawEvent) *types.SourceReport {
	return &types.SourceReport{
		Provider: provider,
		Vehicle:  types.ParsedVehicleInfo{VIN: testVIN},
		Events:   events,
	}
}

func TestMergeReportsEmpty(t *testing.T) {
	_, err := MergeReports(nil)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNoSources))
}

func TestMergeReportsVINMismatch(t *testing.T) {
	other := report(types.ProviderAutoCheck)
	other.Vehicle.VIN = "2T1BURHE0JC034816"

	got, err := MergeReports([]Source{
		{Report: report(types.ProviderCarfax), SourceID: "a"},
		{Report: other, SourceID: "b"},
	})
	require.Error(t, err)
	assert.Nil(t, got)
	assert.True(t, eris.Is(err, ErrVINMismatch))
}

func TestMergeReportsVINCaseInsensitive(t *testing.T) {
	lower := report(types.ProviderAutoCheck)
	lower.Vehicle.VIN = "1hgcm82633a004352"

	got, err := MergeReports([]Source{
		{Report: report(types.ProviderCarfax), SourceID: "a"},
		{Report: lower, SourceID: "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, testVIN, got.VIN)
	assert.Equal(t, testVIN, got.Vehicle.VIN)
}

func TestMergeReportsNilReport(t *testing.T) {
	_, err := MergeReports([]Source{{Report: nil, SourceID: "x"}})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNoSources))
}

func TestMergeSameEventAcrossProviders(t *testing.T) {
	a := report(types.ProviderCarfax, types.RawEvent{
		Date: "2021-05-03", DatePrecision: types.PrecisionDay,
		Details: "Accident reported: rear bumper damage",
	})
	b := report(types.ProviderAutoCheck, types.RawEvent{
		Date: "2021-05", DatePrecision: types.PrecisionMonth,
		Details: "Accident reported - rear bumper damage, minor",
	})

	got, err := MergeReports([]Source{{Report: a, SourceID: "doc-a"}, {Report: b, SourceID: "doc-b"}})
	require.NoError(t, err)

	require.Len(t, got.Events, 1)
	ev := got.Events[0]
	assert.Equal(t, types.EventAccident, ev.EventType)
	assert.Equal(t, types.SeverityMinor, ev.Severity)
	assert.False(t, ev.SeverityInferred)
	assert.True(t, ev.IsNegative)
	assert.Equal(t, "2021-05-03", ev.Date)
	assert.Equal(t, types.PrecisionDay, ev.DatePrecision)

	require.Len(t, ev.Sources, 2)
	assert.Equal(t, "doc-a", ev.Sources[0].SourceID)
	assert.Equal(t, types.ProviderCarfax, ev.Sources[0].Provider)
	assert.Equal(t, 1.0, ev.Sources[0].Confidence)
	assert.Equal(t, "doc-b", ev.Sources[1].SourceID)
	assert.Equal(t, types.ProviderAutoCheck, ev.Sources[1].Provider)
	assert.Equal(t, 0.75, ev.Sources[1].Confidence)

	assert.Equal(t, []types.Provider{types.ProviderCarfax, types.ProviderAutoCheck}, got.SourceProviders)
	assert.Equal(t, []string{"doc-a", "doc-b"}, got.SourceIDs)
}

func TestMergeSeverityIsOrderInsensitiveForScenario(t *testing.T) {
	a := report(types.ProviderCarfax, types.RawEvent{
		Date: "2021-05-03", DatePrecision: types.PrecisionDay,
		Details: "Accident reported: rear bumper damage",
	})
	b := report(types.ProviderAutoCheck, types.RawEvent{
		Date: "2021-05", DatePrecision: types.PrecisionMonth,
		Details: "Accident reported - rear bumper damage, minor",
	})

	got, err := MergeReports([]Source{{Report: b, SourceID: "b"}, {Report: a, SourceID: "a"}})
	require.NoError(t, err)
	require.Len(t, got.Events, 1)
	assert.Equal(t, types.SeverityMinor, got.Events[0].Severity)
	assert.Equal(t, "2021-05-03", got.Events[0].Date, "the more precise date is kept")
}

func TestMergeExactFingerprint(t *testing.T) {
	ev := types.RawEvent{
		Date: "2020-03-02", Location: "Austin, TX", Odometer: lexical.IntPtr(30100),
		Source: "Dealer", Details: "Oil and filter changed, tires rotated",
	}
	other := ev
	other.Date = "2020-03-20"
	other.Odometer = lexical.IntPtr(30200)
	other.Location = ""

	got, err := MergeReports([]Source{
		{Report: report(types.ProviderCarfax, ev), SourceID: "a"},
		{Report: report(types.ProviderAutoCheck, other), SourceID: "b"},
	})
	require.NoError(t, err)
	require.Len(t, got.Events, 1, "state differs only by absence, so the fuzzy test matches")
	assert.Equal(t, "TX", got.Events[0].State)
	assert.Equal(t, 0.75, got.Events[0].Sources[1].Confidence)

	same := report(types.ProviderAutoCheck, ev)
	got, err = MergeReports([]Source{
		{Report: report(types.ProviderCarfax, ev), SourceID: "a"},
		{Report: same, SourceID: "b"},
	})
	require.NoError(t, err)
	require.Len(t, got.Events, 1)
	require.Len(t, got.Events[0].Sources, 2)
	assert.Equal(t, 1.0, got.Events[0].Sources[1].Confidence)
}

func TestMergeKeepsDistinctEvents(t *testing.T) {
	got, err := MergeReports([]Source{{
		Report: report(types.ProviderCarfax,
			types.RawEvent{Date: "2022-01-10", Details: "Vehicle serviced\nTires rotated", Odometer: lexical.IntPtr(50000)},
			types.RawEvent{Date: "2019-07", Details: "Title issued", Location: "TX"},
			types.RawEvent{Date: "2021-05-03", Details: "Oil and filter changed", Odometer: lexical.IntPtr(41000)},
			types.RawEvent{Date: "2023", Details: "Registration renewed"},
		),
		SourceID: "a",
	}})
	require.NoError(t, err)

	var dates []string
	for _, ev := range got.Events {
		dates = append(dates, ev.Date)
	}
	assert.Equal(t, []string{"2019-07", "2021-05-03", "2022-01-10", "2023"}, dates)

	assert.Equal(t, 2, got.Summary.ServiceRecordCount)
	require.NotNil(t, got.Summary.OdometerLastReported)
	assert.Equal(t, 50000, *got.Summary.OdometerLastReported)
	assert.Equal(t, "2022-01-10", got.Summary.OdometerLastReportedDate)
}

func TestMergeVehicleFirstNonEmptyWins(t *testing.T) {
	a := report(types.ProviderCarfax)
	a.Vehicle.Make = "Honda"
	a.Vehicle.Year = 2018
	b := report(types.ProviderAutoCheck)
	b.Vehicle.Make = "HONDA"
	b.Vehicle.Model = "Accord"
	b.Vehicle.Engine = "2.4L I4"

	got, err := MergeReports([]Source{{Report: a, SourceID: "a"}, {Report: b, SourceID: "b"}})
	require.NoError(t, err)
	assert.Equal(t, types.ParsedVehicleInfo{
		VIN: testVIN, Year: 2018, Make: "Honda", Model: "Accord", Engine: "2.4L I4",
	}, got.Vehicle)

	got, err = MergeReports([]Source{{Report: b, SourceID: "b"}, {Report: a, SourceID: "a"}})
	require.NoError(t, err)
	assert.Equal(t, "HONDA", got.Vehicle.Make)
}

func TestMergeAggregatesOrderInsensitive(t *testing.T) {
	a := report(types.ProviderCarfax)
	a.Summary = types.SummaryCounters{OwnerCount: 2, OpenRecallCount: 0, TitleBrands: []string{"Salvage"}}
	b := report(types.ProviderAutoCheck)
	b.Summary = types.SummaryCounters{OwnerCount: 3, OpenRecallCount: 1, TitleBrands: []string{"rebuilt", "SALVAGE"}, TotalLoss: true}

	ab, err := MergeReports([]Source{{Report: a, SourceID: "a"}, {Report: b, SourceID: "b"}})
	require.NoError(t, err)
	ba, err := MergeReports([]Source{{Report: b, SourceID: "b"}, {Report: a, SourceID: "a"}})
	require.NoError(t, err)

	for _, got := range []*types.CanonicalReport{ab, ba} {
		assert.Equal(t, 3, got.Summary.EstimatedOwners)
		assert.Equal(t, 1, got.Summary.OpenRecallCount)
		assert.Equal(t, []string{"Rebuilt", "Salvage"}, got.Summary.TitleBrands)
		assert.True(t, got.Summary.TotalLoss)
		assert.False(t, got.Summary.OdometerIssues)
	}
}

func TestMergeAccidentsByMonth(t *testing.T) {
	a := report(types.ProviderCarfax)
	a.Accidents = []types.AccidentRecord{
		{Date: "2021-05-03", DatePrecision: types.PrecisionDay, Type: "Rear-end collision", Severity: types.SeverityMinor},
	}
	b := report(types.ProviderAutoCheck)
	b.Accidents = []types.AccidentRecord{
		{Date: "2021-05", DatePrecision: types.PrecisionMonth, Type: "Collision", Severity: types.SeverityMinor},
		{Date: "2019-02-11", DatePrecision: types.PrecisionDay, Type: "Side impact", Severity: types.SeverityModerate},
	}

	got, err := MergeReports([]Source{{Report: a, SourceID: "a"}, {Report: b, SourceID: "b"}})
	require.NoError(t, err)
	require.Len(t, got.Accidents, 2)
	assert.Equal(t, "2019-02-11", got.Accidents[0].Date)
	assert.Equal(t, "Rear-end collision", got.Accidents[1].Type, "first source wins the month")
	assert.Equal(t, 2, got.Summary.AccidentCount)
}

func TestMergeSeverityRules(t *testing.T) {
	tests := []struct {
		name     string
		dst, src types.NormalizedEvent
		want     types.Severity
		inferred bool
	}{
		{
			name: "explicit beats inferred",
			dst:  types.NormalizedEvent{Severity: types.SeverityModerate, SeverityInferred: true},
			src:  types.NormalizedEvent{Severity: types.SeverityMinor},
			want: types.SeverityMinor,
		},
		{
			name: "inferred does not override explicit",
			dst:  types.NormalizedEvent{Severity: types.SeverityMinor},
			src:  types.NormalizedEvent{Severity: types.SeverityModerate, SeverityInferred: true},
			want: types.SeverityMinor,
		},
		{
			name: "max of explicit",
			dst:  types.NormalizedEvent{Severity: types.SeverityMinor},
			src:  types.NormalizedEvent{Severity: types.SeveritySevere},
			want: types.SeveritySevere,
		},
		{
			name:     "max of inferred",
			dst:      types.NormalizedEvent{Severity: types.SeverityUnknown},
			src:      types.NormalizedEvent{Severity: types.SeverityModerate, SeverityInferred: true},
			want:     types.SeverityModerate,
			inferred: true,
		},
		{
			name: "unknown stays unknown",
			dst:  types.NormalizedEvent{Severity: types.SeverityUnknown},
			src:  types.NormalizedEvent{Severity: types.SeverityUnknown},
			want: types.SeverityUnknown,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := tt.dst
			mergeSeverity(&dst, tt.src)
			assert.Equal(t, tt.want, dst.Severity)
			assert.Equal(t, tt.inferred, dst.SeverityInferred)
		})
	}
}

const carfaxDoc = `<html><head><title>CARFAX Vehicle History Report</title></head><body>
<table class="vehicle-info"><tr><th>VIN</th><td>1HGCM82633A004352</td></tr><tr><th>Make</th><td>Honda</td></tr></table>
<table class="report-summary"><tr><td>Owners</td><td>2</td></tr></table>
<table class="history-table">
<tr><th>Date</th><th>Mileage</th><th>Source</th><th>Location</th><th>Comments</th></tr>
<tr class="owner-header"><td colspan="5">Owner 1</td></tr>
<tr><td>03/15/2018</td><td>12</td><td>Texas DMV</td><td>Austin, TX</td><td>Title issued</td></tr>
<tr><td>05/03/2021</td><td>45,123</td><td>Police report</td><td>Austin, TX</td><td>Accident reported: rear bumper damage</td></tr>
</table></body></html>`

const autocheckDoc = `<html><head><title>AutoCheck Vehicle History Report</title></head><body>
<table class="ac-vehicle"><tr><td>VIN</td><td>1HGCM82633A004352</td></tr><tr><td>Model</td><td>Accord</td></tr></table>
<table class="ac-summary"><tr><td>Owners</td><td>3</td></tr><tr><td>Open recalls</td><td>1</td></tr></table>
<table class="ac-events">
<tr><th>Date</th><th>Owner</th><th>Location</th><th>Odometer</th><th>Source</th><th>Details</th></tr>
<tr><td>05/2021</td><td>1</td><td>Austin, Texas</td><td>45,400</td><td>Insurance</td><td>Accident reported - rear bumper damage, minor</td></tr>
<tr><td>06/20/2022</td><td>2</td><td>Dallas, TX</td><td>52,000</td><td>Dealer</td><td>Vehicle serviced</td></tr>
</table></body></html>`

func TestMergeParsedDocuments(t *testing.T) {
	cf := parse.CarfaxParser{}.Parse(carfaxDoc)
	require.True(t, cf.Success, cf.Errors)
	ac := parse.AutoCheckParser{}.Parse(autocheckDoc)
	require.True(t, ac.Success, ac.Errors)

	got, err := MergeReports([]Source{
		{Report: cf.Report, SourceID: "cf-1"},
		{Report: ac.Report, SourceID: "ac-1"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Honda", got.Vehicle.Make)
	assert.Equal(t, "Accord", got.Vehicle.Model)
	assert.Equal(t, 3, got.Summary.EstimatedOwners)
	assert.Equal(t, 1, got.Summary.OpenRecallCount)

	require.Len(t, got.Events, 3)
	assert.Equal(t, types.EventTitle, got.Events[0].EventType)

	accident := got.Events[1]
	assert.Equal(t, types.EventAccident, accident.EventType)
	assert.Equal(t, types.SeverityMinor, accident.Severity)
	assert.Equal(t, "TX", accident.State)
	assert.Len(t, accident.Sources, 2)

	assert.Equal(t, types.EventService, got.Events[2].EventType)
	assert.Equal(t, 1, got.Summary.ServiceRecordCount)
	assert.Equal(t, 52000, *got.Summary.OdometerLastReported)
}
