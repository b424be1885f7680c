package audit

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"fmt"
)

// Export serializes entries to the given format: "json", "csv", or "xml".
func Export(entries []*Entry, format string) ([]byte, error) {
	switch format {
	case "json":
		return json.MarshalIndent(entries, "", "  ")
	case "csv":
		return exportCSV(entries)
	case "xml":
		return exportXML(entries)
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

func exportCSV(entries []*Entry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"ID", "Timestamp", "Action", "User", "Bundle ID", "Details", "Hash"}); err != nil {
		return nil, err
	}
	for _, e := range entries {
		detailsJSON, err := json.Marshal(e.Details)
		if err != nil {
			return nil, err
		}
		row := []string{e.ID, e.Timestamp, e.Action, e.User, e.BundleID, string(detailsJSON), e.Hash}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type xmlKV struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

type xmlDetails struct {
	XMLName xml.Name `xml:"details"`
	Entries []xmlKV
}

type xmlEntry struct {
	XMLName  xml.Name   `xml:"entry"`
	ID       string     `xml:"id"`
	Action   string     `xml:"action"`
	User     string     `xml:"user"`
	Time     string     `xml:"timestamp"`
	BundleID string     `xml:"bundle_id,omitempty"`
	Hash     string     `xml:"hash"`
	Details  xmlDetails `xml:"details"`
}

type xmlAuditTrail struct {
	XMLName xml.Name   `xml:"audit_trail"`
	Entries []xmlEntry `xml:"entry"`
}

func exportXML(entries []*Entry) ([]byte, error) {
	root := xmlAuditTrail{Entries: make([]xmlEntry, 0, len(entries))}
	for _, e := range entries {
		item := xmlEntry{ID: e.ID, Action: e.Action, User: e.User, Time: e.Timestamp, BundleID: e.BundleID, Hash: e.Hash}
		for k, v := range e.Details {
			item.Details.Entries = append(item.Details.Entries, xmlKV{XMLName: xml.Name{Local: k}, Value: fmt.Sprintf("%v", v)})
		}
		root.Entries = append(root.Entries, item)
	}
	out, err := xml.MarshalIndent(root, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}
