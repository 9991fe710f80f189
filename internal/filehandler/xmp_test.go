package filehandler

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const samplePacket = `<x:xmpmeta xmlns:x="adobe:ns:meta/">
 <rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
  <rdf:Description xmlns:lr="http://ns.adobe.com/lightroom/1.0/"
                   xmlns:dc="http://purl.org/dc/elements/1.1/">
   <dc:subject><rdf:Bag><rdf:li>Deer</rdf:li></rdf:Bag></dc:subject>
   <lr:hierarchicalSubject>
    <rdf:Bag>
     <rdf:li>1_Site ID|JC38</rdf:li>
     <rdf:li>2_Animal|Mammal|Sambar</rdf:li>
     <rdf:li>3_Number|2</rdf:li>
    </rdf:Bag>
   </lr:hierarchicalSubject>
  </rdf:Description>
 </rdf:RDF>
</x:xmpmeta>`

const wantSubject = "1_Site ID|JC38, 2_Animal|Mammal|Sambar, 3_Number|2"

func TestParseHierarchicalSubject(t *testing.T) {
	items, err := parseHierarchicalSubject([]byte(samplePacket))
	if err != nil {
		t.Fatalf("parseHierarchicalSubject() error = %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("parseHierarchicalSubject() = %q, want 3 items", items)
	}
	if items[1] != "2_Animal|Mammal|Sambar" {
		t.Errorf("items[1] = %q, want %q", items[1], "2_Animal|Mammal|Sambar")
	}
}

func TestReadHierarchicalSubjectEmbedded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "IMG_0001.JPG")
	data := append([]byte("\xff\xd8\xff\xe1 binary junk "), []byte(samplePacket)...)
	data = append(data, []byte(" trailing image data")...)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	got, err := ReadHierarchicalSubject(path, int64(len(data)))
	if err != nil {
		t.Fatalf("ReadHierarchicalSubject() error = %v", err)
	}
	if got != wantSubject {
		t.Errorf("ReadHierarchicalSubject() = %q, want %q", got, wantSubject)
	}
}

func TestReadHierarchicalSubjectSidecar(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "CLIP0001.AVI")
	if err := os.WriteFile(video, []byte("RIFF....AVI no xmp here"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "CLIP0001.xmp"), []byte(samplePacket), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := ReadHierarchicalSubject(video, 23)
	if err != nil {
		t.Fatalf("ReadHierarchicalSubject() error = %v", err)
	}
	if got != wantSubject {
		t.Errorf("ReadHierarchicalSubject() = %q, want %q", got, wantSubject)
	}
}

func TestReadMetadataWithoutEXIF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "frame.jpg")
	if err := os.WriteFile(path, []byte(samplePacket), 0644); err != nil {
		t.Fatal(err)
	}

	r := &Reader{}
	meta, err := r.ReadMetadata(context.Background(), path)
	if err != nil {
		t.Fatalf("ReadMetadata() error = %v", err)
	}
	if meta.HasCaptureTime {
		t.Errorf("HasCaptureTime = true, want false for file without EXIF")
	}
	if meta.HierarchicalSubject != wantSubject {
		t.Errorf("HierarchicalSubject = %q, want %q", meta.HierarchicalSubject, wantSubject)
	}
}

func TestReadMetadataMissingFile(t *testing.T) {
	r := &Reader{}
	if _, err := r.ReadMetadata(context.Background(), filepath.Join(t.TempDir(), "gone.jpg")); err == nil {
		t.Error("ReadMetadata() error = nil, want error for missing file")
	}
}
