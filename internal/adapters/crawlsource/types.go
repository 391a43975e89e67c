package crawlsource

// RawRecord is one unparsed timetable row as fetched from the source
// field names follow the source document verbatim; parsing them into the
// canonical offering shape is the normalizer's job, not ours
type RawRecord struct {
	// Fields maps source column name to raw cell text
	Fields map[string]string `json:"fields"`
	// Department is the source page the record came from
	Department string `json:"department"`
	// Page is the 1-based page the record was read from
	Page int `json:"page"`
}

// pageDoc is the source's paginated JSON document shape
type pageDoc struct {
	Rows    []map[string]string `json:"rows"`
	HasMore bool                `json:"has_more"`
}
