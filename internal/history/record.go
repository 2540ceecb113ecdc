package history

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// MissingValue is what a null string field of an export row loads as.
const MissingValue = "None"

// Record is one loaded row of a streaming-history export.
type Record struct {
	Timestamp        string
	Username         string
	Platform         string
	MsPlayed         int64
	ConnCountry      string
	IPAddr           string
	UserAgent        string
	Track            string
	Artist           string
	Album            string
	TrackURI         string
	ReasonStart      string
	ReasonEnd        string
	Shuffle          bool
	Skipped          bool
	Offline          bool
	OfflineTimestamp int64
	Incognito        bool
}

// SchemaError reports a required field that is absent or of the wrong type.
type SchemaError struct {
	Index  int
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("record %d: field %q: %s", e.Index, e.Field, e.Reason)
}

type fieldReader struct {
	index int
	raw   map[string]any
	err   error
}

func (r *fieldReader) fail(field, reason string) {
	if r.err == nil {
		r.err = &SchemaError{Index: r.index, Field: field, Reason: reason}
	}
}

func (r *fieldReader) text(field string, required bool) string {
	v, ok := r.raw[field]
	if !ok {
		if required {
			r.fail(field, "missing")
		}
		return MissingValue
	}
	switch s := v.(type) {
	case nil:
		return MissingValue
	case string:
		return s
	default:
		r.fail(field, fmt.Sprintf("expected string, got %T", v))
		return ""
	}
}

func (r *fieldReader) integer(field string, required bool) int64 {
	v, ok := r.raw[field]
	if !ok || v == nil {
		if required {
			r.fail(field, "missing")
		}
		return 0
	}
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		f, err := n.Float64()
		if err != nil {
			r.fail(field, fmt.Sprintf("not a number: %q", n))
			return 0
		}
		return int64(math.Trunc(f))
	case float64:
		return int64(math.Trunc(n))
	case int:
		return int64(n)
	case int64:
		return n
	default:
		r.fail(field, fmt.Sprintf("expected number, got %T", v))
		return 0
	}
}

func (r *fieldReader) flag(field string, required bool) bool {
	v, ok := r.raw[field]
	if !ok {
		if required {
			r.fail(field, "missing")
		}
		return false
	}
	switch b := v.(type) {
	case nil:
		return false
	case bool:
		return b
	default:
		r.fail(field, fmt.Sprintf("expected bool, got %T", v))
		return false
	}
}

// Load converts decoded export objects into Records. It fails on the first
// record that lacks a required field or carries a value of the wrong type.
func Load(raw []map[string]any) ([]Record, error) {
	records := make([]Record, 0, len(raw))
	for i, m := range raw {
		r := fieldReader{index: i, raw: m}
		rec := Record{
			Timestamp:        r.text("ts", true),
			Username:         r.text("username", false),
			Platform:         r.text("platform", true),
			MsPlayed:         r.integer("ms_played", true),
			ConnCountry:      r.text("conn_country", true),
			IPAddr:           r.text("ip_addr_decrypted", false),
			UserAgent:        r.text("user_agent_decrypted", false),
			Track:            r.text("master_metadata_track_name", true),
			Artist:           r.text("master_metadata_album_artist_name", true),
			Album:            r.text("master_metadata_album_album_name", true),
			TrackURI:         r.text("spotify_track_uri", false),
			ReasonStart:      r.text("reason_start", true),
			ReasonEnd:        r.text("reason_end", true),
			Shuffle:          r.flag("shuffle", true),
			Skipped:          r.flag("skipped", false),
			Offline:          r.flag("offline", false),
			OfflineTimestamp: r.integer("offline_timestamp", false),
			Incognito:        r.flag("incognito_mode", false),
		}
		if r.err != nil {
			return nil, r.err
		}
		records = append(records, rec)
	}
	return records, nil
}

// ExportFolder is the folder of a Spotify data download that holds the
// extended streaming history.
const ExportFolder = "Spotify Extended Streaming History"

// ReadFile loads one export file, which holds a JSON array of objects.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return decode(f, path)
}

func decode(r io.Reader, name string) ([]Record, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var raw []map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}

	records, err := Load(raw)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", name, err)
	}
	return records, nil
}

// Read loads an export from a data download zip when path ends in .zip, and
// from an unpacked directory otherwise.
func Read(path string) ([]Record, error) {
	if strings.EqualFold(filepath.Ext(path), ".zip") {
		return ReadZip(path)
	}
	return ReadDir(path)
}

// ReadDir loads every .json file in dir, in lexical order.
func ReadDir(dir string) ([]Record, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no .json files in %s", dir)
	}
	sort.Strings(paths)

	var records []Record
	for _, path := range paths {
		rs, err := ReadFile(path)
		if err != nil {
			return nil, err
		}
		records = append(records, rs...)
	}
	return records, nil
}

// ReadZip loads the .json files of the extended streaming history folder of a
// data download zip, in lexical order. Other entries are ignored.
func ReadZip(path string) ([]Record, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening zip %s: %w", path, err)
	}
	defer archive.Close()

	var files []*zip.File
	for _, f := range archive.File {
		if f.FileInfo().IsDir() || !strings.HasSuffix(f.Name, ".json") {
			continue
		}
		if !strings.Contains(f.Name, ExportFolder) {
			continue
		}
		files = append(files, f)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no %q .json files in %s", ExportFolder, path)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	var records []Record
	for _, f := range files {
		rs, err := readZipFile(f)
		if err != nil {
			return nil, err
		}
		records = append(records, rs...)
	}
	return records, nil
}

func readZipFile(f *zip.File) ([]Record, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", f.Name, err)
	}
	defer rc.Close()
	return decode(rc, f.Name)
}
