package resolver

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
)

// Candidate manifest locations, in search order.
var manifestCandidates = []string{
	"imsmanifest.xml",
	filepath.Join("manifest", "imsmanifest.xml"),
	filepath.Join("ims", "imsmanifest.xml"),
}

// Manifest is the subset of imsmanifest.xml the launch pipeline needs.
type Manifest struct {
	// EntryPoint is the href of the first <resource> in document order,
	// which is authoritative. Empty when the first resource carries none.
	EntryPoint string
	// SchemaVersion is "1.2", "2004 3rd Edition" etc. when declared.
	SchemaVersion string
	// Path is the absolute manifest location.
	Path string
}

// manifestXML tolerates both SCORM 1.2 and 2004 document shapes: element
// matching is by local name, so namespace differences between the two
// schema generations do not matter.
type manifestXML struct {
	XMLName  xml.Name `xml:"manifest"`
	Metadata struct {
		SchemaVersion string `xml:"schemaversion"`
	} `xml:"metadata"`
	Resources struct {
		Resources []struct {
			Href string `xml:"href,attr"`
		} `xml:"resource"`
	} `xml:"resources"`
}

// LocateManifest returns the first existing manifest among the candidate
// relative paths under dir.
func LocateManifest(dir string) (string, bool) {
	for _, rel := range manifestCandidates {
		p := filepath.Join(dir, rel)
		if fileExists(p) {
			return p, true
		}
	}
	return "", false
}

// ParseManifest reads and parses one manifest file. Malformed XML yields
// ErrManifestParse; callers treat it as a warning and fall back.
func ParseManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("%w: %s: %v", ErrManifestParse, path, err)
	}

	var doc manifestXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return Manifest{}, fmt.Errorf("%w: %s: %v", ErrManifestParse, path, err)
	}

	m := Manifest{SchemaVersion: doc.Metadata.SchemaVersion, Path: path}
	if len(doc.Resources.Resources) > 0 {
		// First resource wins; ties among multiple resources are not
		// otherwise broken.
		m.EntryPoint = doc.Resources.Resources[0].Href
	}
	return m, nil
}
