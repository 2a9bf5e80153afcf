package drive115

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// flexInt accepts numbers, quoted numbers, and empty strings.
type flexInt int64

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*f = flexInt(n)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

// flexString accepts strings and bare numbers, used for identifiers.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(string(data))
	return nil
}

// envelope holds the status fields shared by every API response. The API is
// inconsistent about "errno" vs "errNo" and "error" vs "msg".
type envelope struct {
	State   bool    `json:"state"`
	Errno   flexInt `json:"errno"`
	ErrNo   flexInt `json:"errNo"`
	Code    flexInt `json:"code"`
	Error   string  `json:"error"`
	Message string  `json:"msg"`
}

func (e envelope) code() int {
	switch {
	case e.Errno != 0:
		return int(e.Errno)
	case e.ErrNo != 0:
		return int(e.ErrNo)
	default:
		return int(e.Code)
	}
}

func (e envelope) message() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}

type listResponse struct {
	envelope
	Count flexInt     `json:"count"`
	Data  []listEntry `json:"data"`
}

// listEntry is either a folder (no fid; cid is its own id) or a file (fid set;
// cid is the containing folder).
type listEntry struct {
	FileID   flexString `json:"fid"`
	FolderID flexString `json:"cid"`
	ParentID flexString `json:"pid"`
	Name     string     `json:"n"`
	Size     flexInt    `json:"s"`
}

func (e listEntry) isFolder() bool {
	return e.FileID == ""
}

type accountResponse struct {
	envelope
	Data struct {
		UserID   flexString `json:"user_id"`
		UserName string     `json:"user_name"`
	} `json:"data"`
}
