package domain

import (
	"strings"
	"time"
)

const clientInfoLayout = "02 January 2006, 15:04 UTC"

// DescribeClient renders the "where did this come from" line of outbound
// mail: "<ip>, <city>, <country> at <date>", or "<ip> at <date>" when the
// location is unknown.
func DescribeClient(ip, city, country string, at time.Time) string {
	when := at.UTC().Format(clientInfoLayout)
	parts := []string{ip}
	if city != "" {
		parts = append(parts, city)
	}
	if country != "" {
		parts = append(parts, country)
	}
	return strings.Join(parts, ", ") + " at " + when
}
