// internal/models/content.go
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// FlexibleID accepts both JSON strings and numbers. The remote API is not
// consistent between endpoints.
type FlexibleID string

func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		*id = FlexibleID(strconv.FormatInt(i, 10))
		return nil
	}
	*id = FlexibleID(n.String())
	return nil
}

func (id FlexibleID) String() string { return string(id) }

type Document struct {
	ID         FlexibleID `json:"id"`
	Filename   string     `json:"filename,omitempty"`
	Title      string     `json:"title,omitempty"`
	Name       string     `json:"name,omitempty"`
	FileSize   int64      `json:"file_size,omitempty"`
	UploadDate string     `json:"upload_date,omitempty"`
}

// DisplayName picks the first non-empty name field.
func (d Document) DisplayName() string {
	switch {
	case d.Filename != "":
		return d.Filename
	case d.Title != "":
		return d.Title
	case d.Name != "":
		return d.Name
	}
	return "Untitled Document"
}

// SizeKB is the size rendered with one decimal, empty when unknown.
func (d Document) SizeKB() string {
	if d.FileSize <= 0 {
		return ""
	}
	return strconv.FormatFloat(float64(d.FileSize)/1024, 'f', 1, 64) + " KB"
}

type Video struct {
	Link        string  `json:"link"`
	Description *string `json:"description"`
}

type Flashcard struct {
	ID        FlexibleID `json:"_id,omitempty"`
	Title     string     `json:"title,omitempty"`
	Question  string     `json:"question"`
	Answer    string     `json:"answer"`
	CreatedAt string     `json:"created_at,omitempty"`
}

func (f Flashcard) DisplayTitle() string {
	if f.Title != "" {
		return f.Title
	}
	return "Untitled Flashcard"
}

type SaveFlashcardResult struct {
	Success bool   `json:"success"`
	Title   string `json:"title"`
	Message string `json:"message"`
}
