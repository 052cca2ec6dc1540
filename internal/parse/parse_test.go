// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/vehicle-history/pkg/types"
)

const carfaxLegacyHTML = `<html><head><title>CARFAX Vehicle History Report</title></head><body>
<div class="report-date">Report date: 06/01/2024</div>
<table class="vehicle-info">
<tr><th>VIN</th><td>1hgcm82633a004352</td></tr>
<tr><th>Year</th><td>2018</td></tr>
<tr><th>Make</th><td>Honda</td></tr>
<tr><th>Model</th><td>Accord</td></tr>
<tr><th>Trim</th><td>EX-L</td></tr>
</table>
<table class="report-summary">
<tr><td>Owners</td><td>2</td></tr>
<tr><td>Accidents reported</td><td>1</td></tr>
<tr><td>Title brands</td><td>None</td></tr>
<tr><td>Last reported odometer</td><td>45,900 mi</td></tr>
</table>
<table class="history-table">
<tr><th>Date</th><th>Mileage</th><th>Source</th><th>Location</th><th>Comments</th></tr>
<tr class="owner-header"><td colspan="5">Owner 1</td></tr>
<tr><td>03/15/2018</td><td>12</td><td>Texas DMV</td><td>Austin, TX</td><td>Title issued<br>Registration issued</td></tr>
<tr><td>05/03/2021</td><td>45,123</td><td>Police report</td><td>Austin, TX</td><td>Accident reported: rear bumper damage</td></tr>
<tr class="owner-header"><td colspan="5">Owner 2</td></tr>
<tr><td>not a date</td><td></td><td>Dealer</td><td></td><td>Garbled row</td></tr>
<tr><td>11/2022</td><td>45,900 mi</td><td>Dealer</td><td>Dallas, TX</td><td>Vehicle serviced<br>Oil and filter changed</td></tr>
</table>
<table class="accident-table">
<tr><th>Date</th><th>Type</th><th>Severity</th><th>Airbags</th><th>Structural damage</th><th>Impact area</th></tr>
<tr><td>05/03/2021</td><td>Rear-end collision</td><td>Minor</td><td>No</td><td>No</td><td>Rear, Left rear</td></tr>
</table>
</body></html>`

const carfaxModernHTML = `<html><head><title>CARFAX Vehicle History Report</title></head><body>
<dl class="vehicle-info"><dt>VIN</dt><dd>2T1BURHE0JC034816</dd><dt>Year</dt><dd>2018</dd>
<dt>Make</dt><dd>Toyota</dd><dt>Model</dt><dd>Corolla</dd></dl>
<section class="owner-block" data-owner="1">
  <div class="history-record" data-date="2018-02-10" data-odometer="15" data-source="California DMV" data-location="Fresno, CA">
    <p class="record-details">Title issued</p>
  </div>
  <div class="history-record">
    <span class="record-date">06/12/2019</span>
    <span class="record-odometer">14,870 mi</span>
    <span class="record-source">Toyota of Fresno</span>
    <div class="record-details">Maintenance inspection completed<br>Tires rotated</div>
  </div>
</section>
<section class="owner-block" data-owner="0">
  <div class="history-record" data-date="2020-01" data-source="Manufacturer">
    <p class="record-details">Manufacturer safety recall issued</p>
  </div>
</section>
<div class="accident-record" data-date="2020-08-14" data-type="Side impact" data-severity="Moderate"
  data-airbag="yes" data-structural="no" data-impact="right side"></div>
</body></html>`

const carfaxCompactHTML = `<html><head><title>Carfax report</title></head><body>
<ul class="cfx-vehicle vehicle-info"><li>VIN: 5YJ3E1EA7KF317000</li><li>Year: 2019</li><li>Make: Tesla</li></ul>
<ul class="cfx-compact">
<li data-owner="1">03/2019 | 10 mi | Tesla Motors | Fremont, CA | Vehicle purchased</li>
<li data-owner="1">07/22/2021 | 31,004 | Tesla Service Center | Tire rotation performed</li>
<li data-owner="all">2022 | Not reported | Insurance | Damage reported</li>
<li>bad line</li>
</ul>
<ul class="cfx-compact-accidents"><li>02/14/2022 | Collision | Minor | front</li></ul>
</body></html>`

const autocheckClassicHTML = `<html><head><title>AutoCheck Vehicle History Report</title></head><body>
<div class="ac-report-date" data-date="2024-06-02"></div>
<table class="ac-vehicle">
<tr><td>VIN</td><td>1HGCM82633A004352</td></tr>
<tr><td>Year</td><td>2018</td></tr>
<tr><td>Make</td><td>HONDA</td></tr>
<tr><td>Body Style</td><td>Sedan 4D</td></tr>
<tr><td>Engine</td><td>2.4L I4</td></tr>
</table>
<div class="ac-score" data-score="84" data-range-low="80" data-range-high="92" data-score-label="Above range"></div>
<table class="ac-summary">
<tr><td>Owners</td><td>3</td></tr>
<tr><td>Open recalls</td><td>1</td></tr>
<tr><td>Title brand check</td><td>Salvage; Rebuilt</td></tr>
<tr><td>Total loss check</td><td>No</td></tr>
</table>
<table class="ac-events">
<tr><th>Date</th><th>Owner</th><th>Location</th><th>Odometer</th><th>Source</th><th>Details</th></tr>
<tr><td>05/2021</td><td>1</td><td>Austin, Texas</td><td>45,400</td><td>Insurance</td><td>Accident reported - rear bumper damage, minor</td></tr>
<tr><td>2023-01-09</td><td>All</td><td>TX</td><td></td><td>Texas DMV</td><td>Title branded salvage</td></tr>
</table>
<table class="ac-accidents">
<tr><th>Date</th><th>Type</th><th>Severity</th><th>Impact</th></tr>
<tr><td>05/2021</td><td>Collision</td><td>Minor damage</td><td>Rear</td></tr>
</table>
</body></html>`

const autocheckModernHTML = `<html><head><title>AutoCheck Vehicle History Report</title></head><body>
<dl class="ac-vehicle"><dt>VIN</dt><dd>3VWDX7AJ5DM392188</dd><dt>Model Year</dt><dd>2013</dd>
<dt>Make</dt><dd>Volkswagen</dd><dt>Model</dt><dd>Jetta</dd></dl>
<section class="ac-owner" data-owner-seq="1">
  <article class="ac-event">
    <time datetime="2013-04-20">April 20, 2013</time>
    <span class="ac-event-odometer">8 miles</span>
    <span class="ac-event-source">Ohio BMV</span>
    <span class="ac-event-location">Columbus, OH</span>
    <p class="ac-event-details">Title and registration issued</p>
  </article>
</section>
<section class="ac-owner" data-owner-seq="2">
  <article class="ac-event">
    <time>March 2016</time>
    <span class="ac-event-odometer">40,210 mi</span>
    <span class="ac-event-source">Auction</span>
    <p class="ac-event-details">Sold at auction</p>
  </article>
  <article class="ac-accident" data-date="2017-09-30" data-type="Front impact" data-severity="Severe"
    data-airbag="Deployed" data-structural="Yes" data-rollover="No" data-impact="front; left front"></article>
</section>
</body></html>`

const autocheckMobileHTML = `<html><head><title>AutoCheck</title></head><body>
<div class="ac-vehicle" data-vin="JH4KA8260MC000000"><ul><li>Year: 1991</li><li>Make: Acura</li></ul></div>
<ol class="ac-timeline">
  <li data-date="06/01/2020" data-odometer="120,500" data-source="Jiffy Lube" data-location="Denver, CO" data-owner="2">Oil change<br>Brakes inspected</li>
  <li data-date="bogus" data-source="DMV">Registration renewed</li>
  <li class="ac-accident" data-date="2021-02-02" data-severity="minor" data-type="Collision"></li>
</ol>
<div class="ac-score" data-score="62">Score 62</div>
</body></html>`

func TestCarfaxLegacy(t *testing.T) {
	res := CarfaxParser{}.Parse(carfaxLegacyHTML)
	require.True(t, res.Success, res.Errors)
	r := res.Report

	assert.Equal(t, types.ProviderCarfax, r.Provider)
	assert.Equal(t, string(LayoutCarfaxLegacy), r.Subformat)
	assert.Equal(t, CarfaxParserVersion, r.ParserVersion)
	assert.Equal(t, "2024-06-01", r.ReportDate)

	assert.Equal(t, types.ParsedVehicleInfo{
		VIN: "1HGCM82633A004352", Year: 2018, Make: "Honda", Model: "Accord", Trim: "EX-L",
	}, r.Vehicle)

	require.Len(t, r.Events, 3)
	first := r.Events[0]
	assert.Equal(t, "2018-03-15", first.Date)
	assert.Equal(t, types.PrecisionDay, first.DatePrecision)
	assert.Equal(t, "Texas DMV", first.Source)
	assert.Equal(t, "Austin, TX", first.Location)
	assert.Equal(t, "Title issued\nRegistration issued", first.Details)
	require.NotNil(t, first.Odometer)
	assert.Equal(t, 12, *first.Odometer)
	require.NotNil(t, first.OwnerSequence)
	assert.Equal(t, 1, *first.OwnerSequence)

	accident := r.Events[1]
	assert.Equal(t, "2021-05-03", accident.Date)
	assert.Equal(t, 45123, *accident.Odometer)
	assert.Equal(t, "Accident reported: rear bumper damage", accident.Details)

	last := r.Events[2]
	assert.Equal(t, "2022-11", last.Date)
	assert.Equal(t, types.PrecisionMonth, last.DatePrecision)
	assert.Equal(t, 2, *last.OwnerSequence)

	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "history row 3 skipped")

	require.Len(t, r.Accidents, 1)
	acc := r.Accidents[0]
	assert.Equal(t, "Rear-end collision", acc.Type)
	assert.Equal(t, types.SeverityMinor, acc.Severity)
	require.NotNil(t, acc.AirbagDeployed)
	assert.False(t, *acc.AirbagDeployed)
	assert.Nil(t, acc.Rollover)
	assert.Equal(t, []string{"rear", "left rear"}, acc.ImpactAreas)

	assert.Equal(t, 2, r.Summary.OwnerCount)
	assert.Equal(t, 1, r.Summary.AccidentCount)
	assert.Empty(t, r.Summary.TitleBrands)
	require.NotNil(t, r.Summary.Odometer)
	assert.Equal(t, 45900, *r.Summary.Odometer)
	assert.Equal(t, 1, r.Summary.ServiceRecordCount)
	assert.Nil(t, r.Score)
}

const carfaxLegacyThOwnersHTML = `<html><head><title>CARFAX Vehicle History Report</title></head><body>
<dl class="vehicle-info"><dt>VIN</dt><dd>1HGCM82633A004352</dd></dl>
<table class="history-table">
<tr><th colspan="5">Owner 1</th></tr>
<tr><th>Date</th><th>Source</th><th>Mileage</th><th>Location</th><th>Comments</th></tr>
<tr><td>03/15/2018</td><td>Texas DMV</td><td>12</td><td>Austin, TX</td><td>Title issued</td></tr>
<tr><th colspan="3">Owner 2</th><th colspan="2">Purchased 2022</th></tr>
<tr><td>11/2022</td><td>Dealer</td><td>45,900 mi</td><td>Dallas, TX</td><td>Vehicle serviced</td></tr>
</table>
</body></html>`

func TestCarfaxLegacyHeaderCellOwners(t *testing.T) {
	res := CarfaxParser{}.Parse(carfaxLegacyThOwnersHTML)
	require.True(t, res.Success, res.Errors)
	r := res.Report
	assert.Equal(t, string(LayoutCarfaxLegacy), r.Subformat)

	require.Len(t, r.Events, 2)
	first, second := r.Events[0], r.Events[1]

	assert.Equal(t, "2018-03-15", first.Date)
	assert.Equal(t, "Texas DMV", first.Source, "columns come from the header row, not default positions")
	require.NotNil(t, first.Odometer)
	assert.Equal(t, 12, *first.Odometer)
	require.NotNil(t, first.OwnerSequence)
	assert.Equal(t, 1, *first.OwnerSequence)

	assert.Equal(t, "2022-11", second.Date)
	assert.Equal(t, "Dealer", second.Source)
	require.NotNil(t, second.OwnerSequence)
	assert.Equal(t, 2, *second.OwnerSequence)
}

func TestCarfaxModern(t *testing.T) {
	res := CarfaxParser{}.Parse(carfaxModernHTML)
	require.True(t, res.Success, res.Errors)
	r := res.Report

	assert.Equal(t, string(LayoutCarfaxModern), r.Subformat)
	assert.Equal(t, "2T1BURHE0JC034816", r.Vehicle.VIN)
	assert.Equal(t, "Corolla", r.Vehicle.Model)
	assert.Empty(t, res.Warnings)

	require.Len(t, r.Events, 3)
	assert.Equal(t, "2018-02-10", r.Events[0].Date)
	assert.Equal(t, "Fresno, CA", r.Events[0].Location)
	assert.Equal(t, "Title issued", r.Events[0].Details)
	assert.Equal(t, 1, *r.Events[0].OwnerSequence)

	assert.Equal(t, "2019-06-12", r.Events[1].Date)
	assert.Equal(t, 14870, *r.Events[1].Odometer)
	assert.Equal(t, "Maintenance inspection completed\nTires rotated", r.Events[1].Details)

	assert.Equal(t, "2020-01", r.Events[2].Date)
	assert.Nil(t, r.Events[2].OwnerSequence, "owner 0 means no specific owner")

	require.Len(t, r.Accidents, 1)
	acc := r.Accidents[0]
	assert.Equal(t, types.SeverityModerate, acc.Severity)
	assert.True(t, *acc.AirbagDeployed)
	assert.False(t, *acc.StructuralDamage)
	assert.Nil(t, acc.Rollover)

	// No summary block: counters are derived.
	assert.Equal(t, 1, r.Summary.OwnerCount)
	assert.Equal(t, 1, r.Summary.AccidentCount)
	assert.Equal(t, 1, r.Summary.ServiceRecordCount)
	assert.Equal(t, 14870, *r.Summary.Odometer)
}

func TestCarfaxCompact(t *testing.T) {
	res := CarfaxParser{}.Parse(carfaxCompactHTML)
	require.True(t, res.Success, res.Errors)
	r := res.Report

	assert.Equal(t, string(LayoutCarfaxCompact), r.Subformat)
	assert.Equal(t, types.ParsedVehicleInfo{VIN: "5YJ3E1EA7KF317000", Year: 2019, Make: "Tesla"}, r.Vehicle)

	require.Len(t, r.Events, 3)
	assert.Equal(t, "2019-03", r.Events[0].Date)
	assert.Equal(t, "Fremont, CA", r.Events[0].Location)
	assert.Equal(t, 10, *r.Events[0].Odometer)
	assert.Equal(t, "Tesla Service Center", r.Events[1].Source)
	assert.Equal(t, "Tire rotation performed", r.Events[1].Details)
	assert.Equal(t, "2022", r.Events[2].Date)
	assert.Equal(t, types.PrecisionYear, r.Events[2].DatePrecision)
	assert.Nil(t, r.Events[2].Odometer)
	assert.Nil(t, r.Events[2].OwnerSequence, "all reported events group has no owner")

	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "compact line 4")

	require.Len(t, r.Accidents, 1)
	assert.Equal(t, "2022-02-14", r.Accidents[0].Date)
	assert.Equal(t, []string{"front"}, r.Accidents[0].ImpactAreas)
	assert.Equal(t, 1, r.Summary.ServiceRecordCount)
}

func TestAutoCheckClassic(t *testing.T) {
	res := AutoCheckParser{}.Parse(autocheckClassicHTML)
	require.True(t, res.Success, res.Errors)
	r := res.Report

	assert.Equal(t, types.ProviderAutoCheck, r.Provider)
	assert.Equal(t, string(LayoutAutoCheckClassic), r.Subformat)
	assert.Equal(t, AutoCheckParserVersion, r.ParserVersion)
	assert.Equal(t, "2024-06-02", r.ReportDate)
	assert.Equal(t, "Sedan 4D", r.Vehicle.BodyStyle)
	assert.Equal(t, "2.4L I4", r.Vehicle.Engine)

	require.Len(t, r.Events, 2)
	ev := r.Events[0]
	assert.Equal(t, "2021-05", ev.Date)
	assert.Equal(t, "Austin, Texas", ev.Location)
	assert.Equal(t, 45400, *ev.Odometer)
	assert.Equal(t, "Insurance", ev.Source)
	assert.Equal(t, 1, *ev.OwnerSequence)
	assert.Nil(t, r.Events[1].OwnerSequence)
	assert.Nil(t, r.Events[1].Odometer)

	require.Len(t, r.Accidents, 1)
	assert.Equal(t, "2021-05", r.Accidents[0].Date)
	assert.Equal(t, types.SeverityMinor, r.Accidents[0].Severity)

	assert.Equal(t, 3, r.Summary.OwnerCount)
	assert.Equal(t, 1, r.Summary.OpenRecallCount)
	assert.Equal(t, []string{"Salvage", "Rebuilt"}, r.Summary.TitleBrands)
	assert.False(t, r.Summary.TotalLoss)
	assert.Equal(t, 1, r.Summary.AccidentCount)
	assert.Equal(t, 0, r.Summary.ServiceRecordCount)

	require.NotNil(t, r.Score)
	assert.Equal(t, types.ProviderScore{Value: 84, RangeLow: 80, RangeHigh: 92, Label: "Above range"}, *r.Score)
}

func TestAutoCheckModern(t *testing.T) {
	res := AutoCheckParser{}.Parse(autocheckModernHTML)
	require.True(t, res.Success, res.Errors)
	r := res.Report

	assert.Equal(t, string(LayoutAutoCheckModern), r.Subformat)
	assert.Equal(t, 2013, r.Vehicle.Year)
	assert.Equal(t, "Jetta", r.Vehicle.Model)

	require.Len(t, r.Events, 2)
	assert.Equal(t, "2013-04-20", r.Events[0].Date)
	assert.Equal(t, "Columbus, OH", r.Events[0].Location)
	assert.Equal(t, 1, *r.Events[0].OwnerSequence)
	assert.Equal(t, "2016-03", r.Events[1].Date)
	assert.Equal(t, 2, *r.Events[1].OwnerSequence)
	assert.Equal(t, 40210, *r.Events[1].Odometer)

	require.Len(t, r.Accidents, 1)
	acc := r.Accidents[0]
	assert.Equal(t, types.SeveritySevere, acc.Severity)
	assert.True(t, *acc.AirbagDeployed)
	assert.True(t, *acc.StructuralDamage)
	assert.False(t, *acc.Rollover)
	assert.Equal(t, []string{"front", "left front"}, acc.ImpactAreas)

	assert.Equal(t, 2, r.Summary.OwnerCount)
	assert.Nil(t, r.Score)
}

func TestAutoCheckMobile(t *testing.T) {
	res := AutoCheckParser{}.Parse(autocheckMobileHTML)
	require.True(t, res.Success, res.Errors)
	r := res.Report

	assert.Equal(t, string(LayoutAutoCheckMobile), r.Subformat)
	assert.Equal(t, "JH4KA8260MC000000", r.Vehicle.VIN)
	assert.Equal(t, 1991, r.Vehicle.Year)

	require.Len(t, r.Events, 1)
	ev := r.Events[0]
	assert.Equal(t, "2020-06-01", ev.Date)
	assert.Equal(t, "Oil change\nBrakes inspected", ev.Details)
	assert.Equal(t, 120500, *ev.Odometer)
	assert.Equal(t, 2, *ev.OwnerSequence)

	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], `unparsable date "bogus"`)

	require.Len(t, r.Accidents, 1)
	assert.Equal(t, "Collision", r.Accidents[0].Type)

	require.NotNil(t, r.Score)
	assert.Equal(t, 62, r.Score.Value)
	assert.Equal(t, 1, r.Summary.ServiceRecordCount)
}

func TestParseMissingVIN(t *testing.T) {
	res := CarfaxParser{}.Parse(`<html><body><div class="history-record">no vin here</div></body></html>`)
	assert.False(t, res.Success)
	assert.Nil(t, res.Report)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "missing VIN")
}

func TestParseDocument(t *testing.T) {
	res, det := ParseDocument(autocheckModernHTML, "")
	require.True(t, res.Success)
	assert.Equal(t, types.ProviderAutoCheck, det.Provider)
	assert.Equal(t, types.ProviderAutoCheck, res.Report.Provider)

	res, det = ParseDocument(carfaxLegacyHTML, types.ProviderCarfax)
	require.True(t, res.Success)
	assert.Equal(t, 1.0, det.Confidence)
	assert.Equal(t, "legacy", det.Subformat)

	res, _ = ParseDocument(`<html><head><title>Vehicle report</title></head></html>`, "")
	assert.False(t, res.Success)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "could not detect provider")
}

func TestFor(t *testing.T) {
	p, ok := For(types.ProviderCarfax)
	require.True(t, ok)
	assert.Equal(t, types.ProviderCarfax, p.Provider())

	_, ok = For("unknown")
	assert.False(t, ok)
}

type panickyParser struct{ CarfaxParser }

func (panickyParser) ParseEvents(*Document) ([]types.RawEvent, []string) {
	panic("boom")
}

func TestParserPanicBecomesFailure(t *testing.T) {
	res := run(panickyParser{}, carfaxModernHTML)
	assert.False(t, res.Success)
	assert.Nil(t, res.Report)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "boom")
}

func TestOwnerSequence(t *testing.T) {
	assert.Nil(t, ownerSequence("0"))
	assert.Nil(t, ownerSequence("All Reported Events"))
	assert.Nil(t, ownerSequence("all"))
	assert.Equal(t, 2, *ownerSequence("Owner 2 (small business)"))
	assert.Nil(t, ownerSequence(""))
	assert.Equal(t, 3, *ownerSequence("Owner 3"))
}

func TestCurrentVersion(t *testing.T) {
	assert.Equal(t, CarfaxParserVersion, CurrentVersion(types.ProviderCarfax))
	assert.Equal(t, AutoCheckParserVersion, CurrentVersion(types.ProviderAutoCheck))
	assert.Empty(t, CurrentVersion("experian"))
}
