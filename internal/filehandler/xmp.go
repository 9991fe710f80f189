package filehandler

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// xmpScanWindow is how much of the head and of the tail of a file is
// searched for an XMP packet. JPEG and TIFF keep XMP near the start; MP4,
// MOV and AVI writers often append it.
const xmpScanWindow = 4 << 20

var (
	xmpStart = []byte("<x:xmpmeta")
	xmpEnd   = []byte("</x:xmpmeta>")
)

// ReadHierarchicalSubject returns the Lightroom hierarchical keywords of a
// file joined with ", ", the same shape exiftool prints for
// HierarchicalSubject. Keywords are taken from the embedded XMP packet, or
// from an .xmp sidecar when the file has none. A file without keywords
// yields "". An error is returned only when the file cannot be read.
func ReadHierarchicalSubject(path string, size int64) (string, error) {
	packet, err := findXMPPacket(path, size)
	if err != nil {
		return "", err
	}
	if packet == nil {
		packet = readSidecar(path)
	}
	if packet == nil {
		return "", nil
	}

	items, err := parseHierarchicalSubject(packet)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to parse XMP packet")
	}
	return strings.Join(items, ", "), nil
}

// findXMPPacket returns the first XMP packet found in the scanned windows,
// or nil.
func findXMPPacket(path string, size int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	windows := [][2]int64{{0, min(size, xmpScanWindow)}}
	if size > xmpScanWindow {
		start := max(size-xmpScanWindow, xmpScanWindow)
		windows = append(windows, [2]int64{start, size - start})
	}

	for _, w := range windows {
		buf := make([]byte, w[1])
		n, err := f.ReadAt(buf, w[0])
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
		if packet := extractPacket(buf[:n]); packet != nil {
			return packet, nil
		}
	}
	return nil, nil
}

func extractPacket(data []byte) []byte {
	start := bytes.Index(data, xmpStart)
	if start < 0 {
		return nil
	}
	end := bytes.Index(data[start:], xmpEnd)
	if end < 0 {
		return nil
	}
	return data[start : start+end+len(xmpEnd)]
}

// readSidecar looks for "name.xmp" and "name.ext.xmp" next to path.
func readSidecar(path string) []byte {
	stem := strings.TrimSuffix(path, filepath.Ext(path))
	for _, candidate := range []string{stem + ".xmp", stem + ".XMP", path + ".xmp"} {
		data, err := os.ReadFile(candidate)
		if err != nil {
			continue
		}
		log.Debug().Str("sidecar", candidate).Msg("Using XMP sidecar")
		if packet := extractPacket(data); packet != nil {
			return packet
		}
		return data
	}
	return nil
}

// parseHierarchicalSubject collects the rdf:li values under
// lr:hierarchicalSubject. Keywords read before a syntax error are returned
// with the error.
func parseHierarchicalSubject(packet []byte) ([]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(packet))
	dec.Strict = false

	var items []string
	var text strings.Builder
	inSubject, inItem := false, false

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return items, nil
		}
		if err != nil {
			return items, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case t.Name.Local == "hierarchicalSubject":
				inSubject = true
			case inSubject && t.Name.Local == "li":
				inItem = true
				text.Reset()
			}
		case xml.EndElement:
			switch {
			case t.Name.Local == "hierarchicalSubject":
				inSubject = false
			case inItem && t.Name.Local == "li":
				inItem = false
				if item := strings.TrimSpace(text.String()); item != "" {
					items = append(items, item)
				}
			}
		case xml.CharData:
			if inItem {
				text.Write(t)
			}
		}
	}
}
