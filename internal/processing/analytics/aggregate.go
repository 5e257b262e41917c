package analytics

import "time"

type locationKey struct {
	country string
	city    string
}

type deviceKey struct {
	deviceType string
	browser    string
	os         string
}

// Aggregate folds events into per-day, per-location and per-device click
// counts in one pass. Each output keeps its groups in order of first
// occurrence. Events with no location fields are left out of Locations and
// events with no device fields are left out of DeviceData.
func Aggregate(events []VisitEvent) Summary {
	out := Summary{
		EngagementOverTime: make([]DailyEngagement, 0),
		Locations:          make([]LocationCount, 0),
		DeviceData:         make([]DeviceCount, 0),
	}

	dayIdx := make(map[string]int)
	locIdx := make(map[locationKey]int)
	devIdx := make(map[deviceKey]int)

	for _, ev := range events {
		day := DayOf(ev.CreatedAt)
		if i, ok := dayIdx[day]; ok {
			out.EngagementOverTime[i].Clicks++
		} else {
			dayIdx[day] = len(out.EngagementOverTime)
			out.EngagementOverTime = append(out.EngagementOverTime, DailyEngagement{Date: day, Clicks: 1})
		}

		if ev.Country != "" || ev.City != "" {
			key := locationKey{country: ev.Country, city: ev.City}
			if i, ok := locIdx[key]; ok {
				out.Locations[i].Clicks++
			} else {
				locIdx[key] = len(out.Locations)
				out.Locations = append(out.Locations, LocationCount{Country: ev.Country, City: ev.City, Clicks: 1})
			}
		}

		if ev.DeviceType != "" || ev.Browser != "" || ev.OS != "" {
			key := deviceKey{deviceType: ev.DeviceType, browser: ev.Browser, os: ev.OS}
			if i, ok := devIdx[key]; ok {
				out.DeviceData[i].Clicks++
			} else {
				devIdx[key] = len(out.DeviceData)
				out.DeviceData = append(out.DeviceData, DeviceCount{
					DeviceType: ev.DeviceType,
					Browser:    ev.Browser,
					OS:         ev.OS,
					Clicks:     1,
				})
			}
		}
	}

	return out
}

// DayOf is the UTC calendar day of t as YYYY-MM-DD.
func DayOf(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}
