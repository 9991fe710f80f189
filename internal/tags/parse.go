// Package tags parses the hierarchical keyword strings that camera-trap
// annotators attach to media files, e.g.
//
//	1_Site ID|JC38, 2_Animal|Mammal|Sambar, 3_Number|2
//
// into typed site, camera and animal attributes.
package tags

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// DefaultCount is the animal count used when no 3_Number item is present or
// its value cannot be read.
const DefaultCount = 1

// Normalized label keys. Labels are compared after lowercasing and removing
// spaces and underscores, so "1_Site ID", "1_SiteID" and "1_site_id" match.
const (
	labelSiteID = "1siteid"
	labelAnimal = "2animal"
	labelNumber = "3number"
)

var cameraIDPattern = regexp.MustCompile(`([A-Za-z]+)(\d+)`)

// AnimalTag is one species annotation.
type AnimalTag struct {
	Group   string
	Species string
	Count   int
}

// ParsedTags holds everything read from one hierarchical tag string.
// CameraID and Count are file-level and apply to every entry in Animals.
type ParsedTags struct {
	CameraID string
	Site     string
	Plot     string
	Count    int
	Animals  []AnimalTag

	// Issues lists the malformed items that were skipped, in input order.
	Issues []string
}

// HasCameraID reports whether a 1_Site ID item supplied a camera id.
func (p ParsedTags) HasCameraID() bool {
	return p.CameraID != ""
}

// Parse reads a raw hierarchical tag string. It never fails: an empty string
// yields an empty result, and malformed items are skipped and recorded in
// Issues.
func Parse(raw string) ParsedTags {
	parsed := ParsedTags{Count: DefaultCount}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return parsed
	}

	// Animals are collected first and stamped with the file-level count at
	// the end, since 3_Number may appear after the 2_Animal items.
	var animals []AnimalTag

	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		parts := strings.Split(item, "|")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		switch normalizeLabel(parts[0]) {
		case labelSiteID:
			if len(parts) < 2 || parts[1] == "" {
				parsed.addIssue(item, "missing camera id")
				continue
			}
			parsed.CameraID = parts[1]
			parsed.Site, parsed.Plot = SplitCameraID(parts[1])

		case labelAnimal:
			animal, ok := parseAnimal(parts)
			if !ok {
				parsed.addIssue(item, "missing species")
				continue
			}
			animals = append(animals, animal)

		case labelNumber:
			if len(parts) < 2 || parts[1] == "" {
				parsed.addIssue(item, "missing count")
				continue
			}
			parsed.Count = ParseCount(parts[1])

		default:
			log.Debug().Str("item", item).Msg("Ignoring unrecognized tag item")
		}
	}

	for i := range animals {
		animals[i].Count = parsed.Count
	}
	parsed.Animals = animals

	return parsed
}

// SplitCameraID splits a camera id such as "JC38" into its site letters and
// plot digits. Both are empty when the id does not start with letters
// followed by digits.
func SplitCameraID(cameraID string) (site, plot string) {
	m := cameraIDPattern.FindStringSubmatchIndex(cameraID)
	if m == nil || m[0] != 0 {
		return "", ""
	}
	return cameraID[m[2]:m[3]], cameraID[m[4]:m[5]]
}

// ParseCount reads a 3_Number value. A leading ">" ("more than N") is
// dropped; anything that is not a positive integer counts as 1.
func ParseCount(value string) int {
	value = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(value), ">"))
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return DefaultCount
	}
	return n
}

// parseAnimal reads "2_Animal|Species" or "2_Animal|Group|Species|...".
func parseAnimal(parts []string) (AnimalTag, bool) {
	var animal AnimalTag
	switch {
	case len(parts) >= 3:
		animal.Group = parts[1]
		animal.Species = parts[2]
	case len(parts) == 2:
		animal.Species = parts[1]
	default:
		return animal, false
	}
	if animal.Species == "" && animal.Group == "" {
		return animal, false
	}
	return animal, true
}

func (p *ParsedTags) addIssue(item, reason string) {
	issue := fmt.Sprintf("skipped tag item %q: %s", item, reason)
	p.Issues = append(p.Issues, issue)
	log.Warn().Str("item", item).Str("reason", reason).Msg("Skipping malformed tag item")
}

func normalizeLabel(label string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '\t':
			return -1
		}
		return r
	}, strings.ToLower(label))
}
