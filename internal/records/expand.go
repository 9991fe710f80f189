package records

import (
	"strings"
	"time"

	"github.com/fpang/camtrap/internal/tags"
	"github.com/rs/zerolog/log"
)

// ValidSpecies reports whether a species annotation counts as a detection:
// it must be non-empty and not "unknown" in any letter case.
func ValidSpecies(species string) bool {
	species = strings.TrimSpace(species)
	return species != "" && !strings.EqualFold(species, "unknown")
}

// Expand builds the draft records for one file, one per animal tag with a
// valid species. It logs a single warning when the file carries several
// animal tags and a single warning when it has no camera id. Tags without a
// valid species are dropped with an informational log only.
func Expand(filename string, ts time.Time, parsed tags.ParsedTags, warnings *WarningLog) []*DraftRecord {
	if n := len(parsed.Animals); n > 1 {
		warn(warnings, filename, "WARN: %s has %d animal tags", filename, n)
	}
	if !parsed.HasCameraID() {
		warn(warnings, filename, "WARN: %s has no Camera_ID tag", filename)
	}

	var out []*DraftRecord
	for _, animal := range parsed.Animals {
		if !ValidSpecies(animal.Species) {
			log.Info().
				Str("file", filename).
				Str("species", animal.Species).
				Msg("Skipping tag without a valid species")
			continue
		}

		count := animal.Count
		if count < 1 {
			count = tags.DefaultCount
		}

		out = append(out, &DraftRecord{
			SourceFile: filename,
			Timestamp:  ts,
			Site:       parsed.Site,
			Plot:       parsed.Plot,
			CameraID:   parsed.CameraID,
			Group:      animal.Group,
			Species:    strings.TrimSpace(animal.Species),
			Count:      count,
		})
	}

	if len(parsed.Animals) == 0 {
		log.Info().Str("file", filename).Msg("No animal tags, file contributes no records")
	}

	return out
}

func warn(warnings *WarningLog, filename, format string, args ...any) {
	if warnings != nil {
		warnings.Addf(format, args...)
	}
	log.Warn().Str("file", filename).Msgf(format, args...)
}
