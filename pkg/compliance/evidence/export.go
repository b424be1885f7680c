package evidence

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"fmt"
)

// Export serializes records to the given format: "json", "csv", or "xml".
func Export(records []*Record, format string) ([]byte, error) {
	switch format {
	case "json":
		return exportJSON(records)
	case "csv":
		return exportCSV(records)
	case "xml":
		return exportXML(records)
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

func exportJSON(records []*Record) ([]byte, error) {
	return json.MarshalIndent(records, "", "  ")
}

func exportCSV(records []*Record) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"ID", "Type", "Source", "Timestamp", "Content", "Hash"}); err != nil {
		return nil, err
	}
	for _, r := range records {
		contentJSON, err := json.Marshal(r.Content)
		if err != nil {
			return nil, err
		}
		row := []string{r.ID, r.Type, r.Source, r.Timestamp, string(contentJSON), r.Hash}
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

type xmlContent struct {
	XMLName xml.Name `xml:"content"`
	Entries []xmlKV
}

type xmlItem struct {
	XMLName xml.Name   `xml:"item"`
	ID      string     `xml:"id"`
	Type    string     `xml:"type"`
	Source  string     `xml:"source"`
	Time    string     `xml:"timestamp"`
	Hash    string     `xml:"hash"`
	Content xmlContent `xml:"content"`
}

type xmlEvidence struct {
	XMLName xml.Name  `xml:"evidence"`
	Items   []xmlItem `xml:"item"`
}

func exportXML(records []*Record) ([]byte, error) {
	root := xmlEvidence{Items: make([]xmlItem, 0, len(records))}
	for _, r := range records {
		item := xmlItem{ID: r.ID, Type: r.Type, Source: r.Source, Time: r.Timestamp, Hash: r.Hash}
		for k, v := range r.Content {
			item.Content.Entries = append(item.Content.Entries, xmlKV{XMLName: xml.Name{Local: k}, Value: fmt.Sprintf("%v", v)})
		}
		root.Items = append(root.Items, item)
	}
	out, err := xml.MarshalIndent(root, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}
