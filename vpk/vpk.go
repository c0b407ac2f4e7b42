// Package vpk parses Valve's VPK package directory: a three-level flat
// string structure (extension, directory, filename) mapping to entries
// that either store their content inline or in a numbered sibling archive.
package vpk

import (
	"encoding/binary"
	"path"
	"strings"

	"github.com/TAServers/source-parsers/internal/byteview"
	"github.com/TAServers/source-parsers/internal/casemap"
	"github.com/TAServers/source-parsers/parseerr"
)

const vpkTag = "Vpk"

const fileSignature = 0x55aa1234

var supportedVersions = map[uint32]bool{1: true, 2: true}

const headerV1Size = 12
const headerV2Size = 28

type header struct {
	Signature         uint32
	Version           uint32
	DirectoryTreeSize uint32
}

func decodeHeader(b []byte) header {
	return header{
		Signature:         binary.LittleEndian.Uint32(b[0:4]),
		Version:           binary.LittleEndian.Uint32(b[4:8]),
		DirectoryTreeSize: binary.LittleEndian.Uint32(b[8:12]),
	}
}

// archiveIndexInline marks an entry whose body data follows the directory
// tree in this same file, rather than living in a numbered sibling archive.
// ReadFile does not special-case it: resolving it is the read-from-archive
// callback's responsibility, matching how the offset is defined relative to
// whichever location applies.
const archiveIndexInline = 0x7FFF

const directoryEntryTerminator = 0xFFFF

type directoryEntry struct {
	CRC             uint32
	PreloadDataSize uint16
	ArchiveIndex    uint16
	EntryOffset     uint32
	EntrySize       uint32
	Terminator      uint16
}

const directoryEntrySize = 18

func decodeDirectoryEntry(b []byte) directoryEntry {
	return directoryEntry{
		CRC:             binary.LittleEndian.Uint32(b[0:4]),
		PreloadDataSize: binary.LittleEndian.Uint16(b[4:6]),
		ArchiveIndex:    binary.LittleEndian.Uint16(b[6:8]),
		EntryOffset:     binary.LittleEndian.Uint32(b[8:12]),
		EntrySize:       binary.LittleEndian.Uint32(b[12:16]),
		Terminator:      binary.LittleEndian.Uint16(b[16:18]),
	}
}

// fileEntry is one resolved VPK directory entry: where its content lives
// and any preloaded bytes stored directly in the directory tree.
type fileEntry struct {
	archiveIndex uint16
	offset       uint32
	size         uint32
	preloadData  []byte
}

// DirectoryContents is the result of a List call: the immediate
// subdirectories and files of the listed directory.
type DirectoryContents struct {
	Directories []string
	Files       []string
}

// ReadFromArchive fetches size bytes at offset from the numbered sibling
// archive identified by archiveIndex.
type ReadFromArchive func(archiveIndex uint16, offset uint32, size uint32) ([]byte, error)

// Vpk is a fully parsed VPK directory file. File content itself is not
// read eagerly; ReadFile fetches archive-resident bytes on demand via a
// caller-supplied callback.
type Vpk struct {
	// files is keyed extension -> directory -> filename, each level
	// case-insensitive, mirroring the on-disk three-level tree.
	files *casemap.Map[*casemap.Map[*casemap.Map[fileEntry]]]
}

// New parses a VPK directory file's bytes.
func New(data []byte) (*Vpk, error) {
	if len(data) < headerV1Size {
		return nil, parseerr.Tagged(parseerr.ErrInvalidHeader, vpkTag, "file too short to contain a header")
	}
	h := decodeHeader(data[:headerV1Size])

	if h.Signature != fileSignature {
		return nil, parseerr.Tagged(parseerr.ErrInvalidHeader, vpkTag, "signature does not equal 0x55aa1234")
	}
	if !supportedVersions[h.Version] {
		return nil, parseerr.Taggedf(parseerr.ErrUnsupportedVersion, vpkTag, "unsupported VPK version %d", h.Version)
	}

	offset := int64(headerV1Size)
	if h.Version == 2 {
		offset = int64(headerV2Size)
	}

	v := byteview.New(data)
	files := casemap.New[*casemap.Map[*casemap.Map[fileEntry]]]()

	for {
		extension, err := v.ReadCString(offset, vpkTag, "VPK extension")
		if err != nil {
			return nil, err
		}
		offset += int64(len(extension)) + 1
		if extension == "" {
			break
		}
		extension = "." + extension

		directories := casemap.New[*casemap.Map[fileEntry]]()
		files.Set(extension, directories)

		for {
			directory, err := v.ReadCString(offset, vpkTag, "VPK directory")
			if err != nil {
				return nil, err
			}
			offset += int64(len(directory)) + 1
			if directory == "" {
				break
			}
			// A directory of a single space denotes the root: the format
			// can't use an empty string here, as that terminates the
			// section instead.
			if directory == " " {
				directory = ""
			}

			filesInDir := casemap.New[fileEntry]()
			directories.Set(directory, filesInDir)

			for {
				filename, err := v.ReadCString(offset, vpkTag, "VPK filename")
				if err != nil {
					return nil, err
				}
				offset += int64(len(filename)) + 1
				if filename == "" {
					break
				}

				entryHeader, _, err := byteview.ReadStruct(v, offset, directoryEntrySize, decodeDirectoryEntry, vpkTag, "VPK directory entry")
				if err != nil {
					return nil, err
				}
				if entryHeader.Terminator != directoryEntryTerminator {
					return nil, parseerr.Tagged(parseerr.ErrInvalidBody, vpkTag, "directory entry terminator is not 0xFFFF")
				}
				offset += directoryEntrySize

				preload, err := v.Bytes(offset, int(entryHeader.PreloadDataSize), vpkTag, "VPK preload data")
				if err != nil {
					return nil, err
				}
				offset += int64(entryHeader.PreloadDataSize)

				filesInDir.Set(filename, fileEntry{
					archiveIndex: entryHeader.ArchiveIndex,
					offset:       entryHeader.EntryOffset,
					size:         entryHeader.EntrySize,
					preloadData:  preload,
				})
			}
		}
	}

	return &Vpk{files: files}, nil
}

// pathComponents is a split VPK path: extension (with leading dot),
// normalized directory, and bare filename (no extension).
type pathComponents struct {
	extension string
	directory string
	filename  string
}

func splitPath(p string) pathComponents {
	ext := path.Ext(p)
	dir := normalizeDirectory(path.Dir(p))
	base := path.Base(p)
	filename := strings.TrimSuffix(base, ext)
	return pathComponents{extension: ext, directory: dir, filename: filename}
}

// normalizeDirectory strips a single leading slash and a single trailing slash,
// mapping "." (path.Dir's result for a bare filename) to "".
func normalizeDirectory(p string) string {
	if p == "." {
		return ""
	}
	p = strings.TrimPrefix(p, "/")
	p = strings.TrimSuffix(p, "/")
	return p
}

func (vpk *Vpk) getFileEntry(p string) (fileEntry, bool) {
	components := splitPath(p)

	directories, ok := vpk.files.Get(components.extension)
	if !ok {
		return fileEntry{}, false
	}
	filesInDir, ok := directories.Get(components.directory)
	if !ok {
		return fileEntry{}, false
	}
	return filesInDir.Get(components.filename)
}

// FileExists reports whether path resolves to a known directory entry.
func (vpk *Vpk) FileExists(p string) bool {
	_, ok := vpk.getFileEntry(p)
	return ok
}

// GetPreloadData returns the preload bytes stored directly in the
// directory tree for path, without touching any archive.
func (vpk *Vpk) GetPreloadData(p string) ([]byte, error) {
	entry, ok := vpk.getFileEntry(p)
	if !ok {
		return nil, parseerr.Taggedf(parseerr.ErrInvalidBody, vpkTag, "no such file: %s", p)
	}
	return entry.preloadData, nil
}

// ReadFile concatenates a file's preload bytes with its body. Whenever the
// entry's size is non-zero the body is fetched via readFromArchive, for
// inline entries (archiveIndexInline) as well as archive-resident ones.
func (vpk *Vpk) ReadFile(p string, readFromArchive ReadFromArchive) ([]byte, error) {
	entry, ok := vpk.getFileEntry(p)
	if !ok {
		return nil, parseerr.Taggedf(parseerr.ErrInvalidBody, vpkTag, "no such file: %s", p)
	}

	var body []byte
	if entry.size > 0 {
		var err error
		body, err = readFromArchive(entry.archiveIndex, entry.offset, entry.size)
		if err != nil {
			return nil, err
		}
	}

	result := make([]byte, 0, len(entry.preloadData)+len(body))
	result = append(result, entry.preloadData...)
	result = append(result, body...)
	return result, nil
}

// List returns the immediate subdirectories and files of the given
// directory. Both the path and directory comparisons are case-insensitive.
func (vpk *Vpk) List(p string) DirectoryContents {
	normalized := normalizeDirectory(p)

	directorySet := make(map[string]struct{})
	var fileList []string

	vpk.files.Range(func(extension string, directories *casemap.Map[*casemap.Map[fileEntry]]) bool {
		directories.Range(func(directory string, filesInDir *casemap.Map[fileEntry]) bool {
			if sub, ok := subdirectory(normalized, directory); ok {
				if sub != "" {
					directorySet[sub] = struct{}{}
				}
				return true
			}
			if strings.EqualFold(directory, normalized) {
				for _, filename := range filesInDir.Keys() {
					fileList = append(fileList, filename+extension)
				}
			}
			return true
		})
		return true
	})

	directories := make([]string, 0, len(directorySet))
	for d := range directorySet {
		directories = append(directories, d)
	}

	return DirectoryContents{Directories: directories, Files: fileList}
}

// subdirectory reports the immediate child path component of child that
// descends from parent, if any. A strict prefix-plus-slash match is
// required so that "foo" is never treated as a parent of "foobar".
func subdirectory(parent, child string) (string, bool) {
	if child == "" {
		return "", false
	}
	if parent == "" {
		if idx := strings.IndexByte(child, '/'); idx != -1 {
			return child[:idx], true
		}
		return child, true
	}

	if len(child) < len(parent)+2 {
		return "", false
	}
	if !strings.EqualFold(child[:len(parent)], parent) {
		return "", false
	}
	if child[len(parent)] != '/' {
		return "", false
	}

	rest := child[len(parent)+1:]
	if idx := strings.IndexByte(rest, '/'); idx != -1 {
		return rest[:idx], true
	}
	return rest, true
}
