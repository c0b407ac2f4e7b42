package vpk

import (
	"encoding/binary"
	"testing"
)

// buildVpk assembles a minimal v1 VPK directory tree with one file:
// materials/foo.vmt, with no preload data.
func buildVpk() []byte {
	header := make([]byte, headerV1Size)
	binary.LittleEndian.PutUint32(header[0:4], fileSignature)
	binary.LittleEndian.PutUint32(header[4:8], 1)

	var tree []byte
	tree = append(tree, []byte("vmt\x00")...)
	tree = append(tree, []byte("materials\x00")...)
	tree = append(tree, []byte("foo\x00")...)

	entry := make([]byte, directoryEntrySize)
	binary.LittleEndian.PutUint32(entry[0:4], 0xDEADBEEF) // CRC
	binary.LittleEndian.PutUint16(entry[4:6], 0)           // PreloadDataSize
	binary.LittleEndian.PutUint16(entry[6:8], 3)           // ArchiveIndex
	binary.LittleEndian.PutUint32(entry[8:12], 100)        // EntryOffset
	binary.LittleEndian.PutUint32(entry[12:16], 50)        // EntrySize
	binary.LittleEndian.PutUint16(entry[16:18], directoryEntryTerminator)
	tree = append(tree, entry...)

	tree = append(tree, 0) // empty filename terminates "materials"
	tree = append(tree, 0) // empty directory terminates "vmt"
	tree = append(tree, 0) // empty extension terminates the file

	return append(header, tree...)
}

func TestNewListsDirectoriesAndFiles(t *testing.T) {
	data := buildVpk()

	v, err := New(data)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	materials := v.List("materials")
	if len(materials.Files) != 1 || materials.Files[0] != "foo.vmt" {
		t.Fatalf("expected files [foo.vmt], got %v", materials.Files)
	}
	if len(materials.Directories) != 0 {
		t.Fatalf("expected no subdirectories, got %v", materials.Directories)
	}

	root := v.List("")
	if len(root.Files) != 0 {
		t.Fatalf("expected no root files, got %v", root.Files)
	}
	if len(root.Directories) != 1 || root.Directories[0] != "materials" {
		t.Fatalf("expected [materials], got %v", root.Directories)
	}
}

func TestFileExistsIsCaseInsensitive(t *testing.T) {
	data := buildVpk()
	v, err := New(data)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if !v.FileExists("materials/foo.vmt") {
		t.Fatal("expected materials/foo.vmt to exist")
	}
	if !v.FileExists("MATERIALS/FOO.VMT") {
		t.Fatal("expected case-insensitive lookup to succeed")
	}
	if v.FileExists("materials/bar.vmt") {
		t.Fatal("expected materials/bar.vmt to not exist")
	}
}

func TestReadFileInvokesArchiveCallback(t *testing.T) {
	data := buildVpk()
	v, err := New(data)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var gotArchive uint16
	var gotOffset, gotSize uint32
	body, err := v.ReadFile("materials/foo.vmt", func(archive uint16, offset, size uint32) ([]byte, error) {
		gotArchive, gotOffset, gotSize = archive, offset, size
		return []byte("body"), nil
	})
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if gotArchive != 3 || gotOffset != 100 || gotSize != 50 {
		t.Fatalf("unexpected callback args: archive=%d offset=%d size=%d", gotArchive, gotOffset, gotSize)
	}
	if string(body) != "body" {
		t.Fatalf("expected body 'body', got %q", body)
	}
}

func TestSubdirectoryPrunesStrictPrefixes(t *testing.T) {
	cases := []struct {
		parent, child string
		want          string
		ok            bool
	}{
		{"", "materials", "materials", true},
		{"", "materials/models", "materials", true},
		{"materials", "materials/models", "models", true},
		{"materials", "materialsfoo", "", false},
		{"materials", "materials", "", false},
	}
	for _, c := range cases {
		got, ok := subdirectory(c.parent, c.child)
		if ok != c.ok || got != c.want {
			t.Errorf("subdirectory(%q, %q) = (%q, %v), want (%q, %v)", c.parent, c.child, got, ok, c.want, c.ok)
		}
	}
}

